package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/store"
)

// usersAPIHandler provides the profile endpoint plus admin-only user management.
type usersAPIHandler struct {
	users *store.UserStore
}

// registerUserRoutes registers user and profile routes on r.
func registerUserRoutes(r chi.Router, users *store.UserStore) {
	h := &usersAPIHandler{users: users}
	r.Get("/me", h.Me)
	r.Get("/users", h.List)
	r.Put("/users/{id}/role", h.UpdateRole)
}

func toUserResponse(u *store.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

// Me returns the profile of the authenticated caller.
// GET /api/v1/me
//
// @Summary      Get the current user
// @Tags         Users
// @Produce      json
// @Success      200  {object}  UserResponse
// @Failure      401  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /me [get]
func (h *usersAPIHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// List returns all users. Admin only.
// GET /api/v1/users
//
// @Summary      List users
// @Tags         Users
// @Produce      json
// @Success      200  {object}  UserListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /users [get]
func (h *usersAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	if !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "admin access required", "FORBIDDEN")
		return
	}

	users, err := h.users.ListAll(r.Context())
	if err != nil {
		log.Printf("api: list users: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := &UserListResponse{Users: make([]*UserResponse, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateRole changes a user's role. Admin only, and admins cannot demote
// themselves so an instance always keeps at least one admin.
// PUT /api/v1/users/{id}/role
//
// @Summary      Update a user's role
// @Tags         Users
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User ID"
// @Param        body  body      UpdateRoleRequest  true  "New role"
// @Success      200   {object}  UserResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      403   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /users/{id}/role [put]
func (h *usersAPIHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	if !user.IsAdmin() {
		writeError(w, http.StatusForbidden, "admin access required", "FORBIDDEN")
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Role != "admin" && req.Role != "user" {
		writeError(w, http.StatusBadRequest, "role must be admin or user", "BAD_REQUEST")
		return
	}

	id := chi.URLParam(r, "id")
	if id == user.ID && req.Role != "admin" {
		writeError(w, http.StatusBadRequest, "cannot demote yourself", "BAD_REQUEST")
		return
	}

	updated, err := h.users.UpdateRole(r.Context(), id, req.Role)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "user not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: update role: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(updated))
}
