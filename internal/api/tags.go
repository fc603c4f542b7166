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

// tagsAPIHandler provides REST handlers for tag management.
type tagsAPIHandler struct {
	tags     *store.TagStore
	snippets *store.SnippetStore
}

// registerTagRoutes registers tag routes on r.
func registerTagRoutes(r chi.Router, tags *store.TagStore, snippets *store.SnippetStore) {
	h := &tagsAPIHandler{tags: tags, snippets: snippets}
	r.Get("/tags", h.List)
	r.Post("/tags", h.Create)
	r.Delete("/tags/{id}", h.Delete)
	r.Get("/tags/{name}/snippets", h.Snippets)
}

// List returns the caller's tags with snippet counts, zero-count tags included.
// GET /api/v1/tags
//
// @Summary      List tags
// @Description  Returns all of the caller's tags with the number of active snippets attached to each.
// @Tags         Tags
// @Produce      json
// @Success      200  {object}  TagListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tags [get]
func (h *tagsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	tags, err := h.tags.ListWithCounts(r.Context(), user.ID)
	if err != nil {
		log.Printf("api: list tags: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp := &TagListResponse{Tags: make([]*TagResponse, 0, len(tags))}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, &TagResponse{
			ID:           t.ID,
			Name:         t.Name,
			SnippetCount: t.SnippetCount,
			CreatedAt:    t.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create creates a tag, or returns the existing one with the same name.
// POST /api/v1/tags
//
// @Summary      Create a tag
// @Description  Creating a tag that already exists returns the existing tag rather than an error.
// @Tags         Tags
// @Accept       json
// @Produce      json
// @Param        body  body      CreateTagRequest  true  "Tag to create"
// @Success      201   {object}  TagResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tags [post]
func (h *tagsAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	names, err := store.NormalizeTagNames([]string{req.Name})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_TAG")
		return
	}

	tag, err := h.tags.Upsert(r.Context(), user.ID, names[0])
	if err != nil {
		log.Printf("api: create tag: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusCreated, &TagResponse{
		ID:        tag.ID,
		Name:      tag.Name,
		CreatedAt: tag.CreatedAt,
	})
}

// Delete removes a tag and detaches it from all snippets.
// DELETE /api/v1/tags/{id}
//
// @Summary      Delete a tag
// @Description  Removes the tag and its associations. Snippets themselves are untouched.
// @Tags         Tags
// @Param        id  path  string  true  "Tag ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tags/{id} [delete]
func (h *tagsAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	err := h.tags.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "tag not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: delete tag: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Snippets returns the caller's active snippets carrying the named tag.
// GET /api/v1/tags/{name}/snippets
//
// @Summary      List snippets by tag
// @Tags         Tags
// @Produce      json
// @Param        name  path      string  true  "Tag name"
// @Success      200   {object}  SnippetListResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /tags/{name}/snippets [get]
func (h *tagsAPIHandler) Snippets(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	name := chi.URLParam(r, "name")
	if _, err := h.tags.GetByName(r.Context(), user.ID, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "tag not found", "NOT_FOUND")
			return
		}
		log.Printf("api: get tag: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	snippets, err := h.snippets.ListByTag(r.Context(), user.ID, name)
	if err != nil {
		log.Printf("api: list snippets by tag: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	sh := &snippetsAPIHandler{snippets: h.snippets, tags: h.tags}
	sh.writeSnippetList(w, r, snippets, nil)
}
