package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/store"
)

// tokensAPIHandler provides REST handlers for personal access token management.
type tokensAPIHandler struct {
	tokens auth.TokenStore
}

// registerTokenRoutes registers token management routes on r.
func registerTokenRoutes(r chi.Router, tokens auth.TokenStore) {
	h := &tokensAPIHandler{tokens: tokens}
	r.Get("/tokens", h.List)
	r.Post("/tokens", h.Create)
	r.Delete("/tokens/{id}", h.Revoke)
}

func toTokenResponse(rec *auth.TokenRecord) *TokenResponse {
	item := &TokenResponse{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
	}
	if rec.LastUsedAt.Valid {
		t := rec.LastUsedAt.Time
		item.LastUsedAt = &t
	}
	if rec.ExpiresAt.Valid {
		t := rec.ExpiresAt.Time
		item.ExpiresAt = &t
	}
	return item
}

// List returns the caller's active tokens. The token hash is never included.
// GET /api/v1/tokens
//
// @Summary      List API tokens
// @Tags         Tokens
// @Produce      json
// @Success      200  {object}  TokenListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tokens [get]
func (h *tokensAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	records, err := h.tokens.ListByUser(r.Context(), user.ID)
	if err != nil {
		log.Printf("api: list tokens: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := &TokenListResponse{Tokens: make([]*TokenResponse, 0, len(records))}
	for _, rec := range records {
		resp.Tokens = append(resp.Tokens, toTokenResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create generates a new token and returns the plaintext exactly once.
// POST /api/v1/tokens
//
// @Summary      Create an API token
// @Description  The plaintext token appears only in this response. Store it; it cannot be retrieved again.
// @Tags         Tokens
// @Accept       json
// @Produce      json
// @Param        body  body      CreateTokenRequest  true  "Token to create"
// @Success      201   {object}  TokenCreatedResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tokens [post]
func (h *tokensAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", "BAD_REQUEST")
		return
	}

	plaintext, hash, err := auth.GenerateToken()
	if err != nil {
		log.Printf("api: generate token: %v", err)
		writeError(w, http.StatusInternalServerError, "token generation failed", "INTERNAL_ERROR")
		return
	}

	rec, err := h.tokens.Create(r.Context(), user.ID, req.Name, hash, req.ExpiresAt)
	if err != nil {
		log.Printf("api: create token: %v", err)
		writeError(w, http.StatusInternalServerError, "token creation failed", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusCreated, TokenCreatedResponse{
		TokenResponse: *toTokenResponse(rec),
		Token:         plaintext,
	})
}

// Revoke revokes a token owned by the caller. Other users' tokens 404.
// DELETE /api/v1/tokens/{id}
//
// @Summary      Revoke an API token
// @Tags         Tokens
// @Param        id  path  string  true  "Token ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tokens/{id} [delete]
func (h *tokensAPIHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	err := h.tokens.Revoke(r.Context(), chi.URLParam(r, "id"), user.ID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "token not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: revoke token: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
