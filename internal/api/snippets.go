package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/metrics"
	"github.com/snipvault/snipvault/internal/store"
)

// snippetsAPIHandler provides REST handlers for snippet management.
type snippetsAPIHandler struct {
	snippets *store.SnippetStore
	tags     *store.TagStore
}

// registerSnippetRoutes registers snippet routes on r.
func registerSnippetRoutes(r chi.Router, snippets *store.SnippetStore, tags *store.TagStore) {
	h := &snippetsAPIHandler{snippets: snippets, tags: tags}
	r.Get("/snippets", h.List)
	r.Post("/snippets", h.Create)
	r.Get("/snippets/favorites", h.Favorites)
	r.Get("/snippets/trash", h.Trash)
	r.Post("/snippets/search", h.Search)
	r.Get("/snippets/{id}", h.Get)
	r.Put("/snippets/{id}", h.Update)
	r.Delete("/snippets/{id}", h.Delete)
	r.Patch("/snippets/{id}/favorite", h.SetFavorite)
	r.Patch("/snippets/{id}/trash", h.SetTrash)
}

// toSnippetResponse converts a store snippet to its API representation,
// loading the attached tag names.
func (h *snippetsAPIHandler) toSnippetResponse(ctx context.Context, s *store.Snippet) (*SnippetResponse, error) {
	tags, err := h.snippets.ListTags(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return &SnippetResponse{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Code:        s.Code,
		Language:    s.Language,
		IsFavorite:  s.IsFavorite,
		IsDeleted:   s.IsDeleted,
		Tags:        names,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}, nil
}

func (h *snippetsAPIHandler) writeSnippetList(w http.ResponseWriter, r *http.Request, snippets []*store.Snippet, err error) {
	if err != nil {
		log.Printf("api: list snippets: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	resp := &SnippetListResponse{Snippets: make([]*SnippetResponse, 0, len(snippets))}
	for _, s := range snippets {
		sr, err := h.toSnippetResponse(r.Context(), s)
		if err != nil {
			log.Printf("api: load snippet tags: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
			return
		}
		resp.Snippets = append(resp.Snippets, sr)
	}
	writeJSON(w, http.StatusOK, resp)
}

// List returns the caller's active snippets, newest first.
// GET /api/v1/snippets
//
// @Summary      List snippets
// @Description  Returns the caller's snippets, excluding trashed ones.
// @Tags         Snippets
// @Produce      json
// @Success      200  {object}  SnippetListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets [get]
func (h *snippetsAPIHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	snippets, err := h.snippets.ListByOwner(r.Context(), user.ID)
	h.writeSnippetList(w, r, snippets, err)
}

// Favorites returns the caller's favorited snippets.
// GET /api/v1/snippets/favorites
//
// @Summary      List favorite snippets
// @Tags         Snippets
// @Produce      json
// @Success      200  {object}  SnippetListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/favorites [get]
func (h *snippetsAPIHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	snippets, err := h.snippets.ListFavorites(r.Context(), user.ID)
	h.writeSnippetList(w, r, snippets, err)
}

// Trash returns the caller's trashed snippets, most recently trashed first.
// GET /api/v1/snippets/trash
//
// @Summary      List trashed snippets
// @Tags         Snippets
// @Produce      json
// @Success      200  {object}  SnippetListResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/trash [get]
func (h *snippetsAPIHandler) Trash(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}
	snippets, err := h.snippets.ListTrash(r.Context(), user.ID)
	h.writeSnippetList(w, r, snippets, err)
}

// Create creates a new snippet and reconciles its tags.
// POST /api/v1/snippets
//
// @Summary      Create a snippet
// @Description  Creates a snippet owned by the caller. Tag names are created on demand.
// @Tags         Snippets
// @Accept       json
// @Produce      json
// @Param        body  body      CreateSnippetRequest  true  "Snippet to create"
// @Success      201   {object}  SnippetResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets [post]
func (h *snippetsAPIHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req CreateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", "BAD_REQUEST")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", "BAD_REQUEST")
		return
	}

	// Validate tag names up front so an invalid list never creates the snippet.
	if _, err := store.NormalizeTagNames(req.Tags); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_TAG")
		return
	}

	snippet, err := h.snippets.Create(r.Context(), user.ID, store.SnippetFields{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
	})
	if err != nil {
		log.Printf("api: create snippet: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	metrics.SnippetsCreatedTotal.Inc()

	if len(req.Tags) > 0 {
		if err := h.reconcileTags(r.Context(), user.ID, snippet.ID, req.Tags); err != nil {
			log.Printf("api: set snippet tags: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
			return
		}
	}

	resp, err := h.toSnippetResponse(r.Context(), snippet)
	if err != nil {
		log.Printf("api: load snippet tags: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *snippetsAPIHandler) reconcileTags(ctx context.Context, ownerID, snippetID string, tags []string) error {
	_, err := h.snippets.SetTags(ctx, ownerID, snippetID, tags)
	if err != nil {
		metrics.TagReconcilesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.TagReconcilesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Get returns a single snippet. Trashed snippets remain readable by id.
// GET /api/v1/snippets/{id}
//
// @Summary      Get a snippet
// @Tags         Snippets
// @Produce      json
// @Param        id   path      string  true  "Snippet ID"
// @Success      200  {object}  SnippetResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/{id} [get]
func (h *snippetsAPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	snippet, err := h.snippets.GetByID(r.Context(), user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snippet not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: get snippet: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	resp, err := h.toSnippetResponse(r.Context(), snippet)
	if err != nil {
		log.Printf("api: load snippet tags: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update replaces a snippet's fields and, when the tags field is present,
// reconciles the tag set to exactly the submitted list.
// PUT /api/v1/snippets/{id}
//
// @Summary      Update a snippet
// @Description  Replaces the snippet's fields. A present tags field replaces the tag set; an absent one leaves it alone.
// @Tags         Snippets
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "Snippet ID"
// @Param        body  body      UpdateSnippetRequest  true  "New field values"
// @Success      200   {object}  SnippetResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/{id} [put]
func (h *snippetsAPIHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req UpdateSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", "BAD_REQUEST")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", "BAD_REQUEST")
		return
	}
	if req.Tags != nil {
		if _, err := store.NormalizeTagNames(*req.Tags); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_TAG")
			return
		}
	}

	id := chi.URLParam(r, "id")
	snippet, err := h.snippets.Update(r.Context(), user.ID, id, store.SnippetFields{
		Title:       req.Title,
		Description: req.Description,
		Code:        req.Code,
		Language:    req.Language,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snippet not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: update snippet: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}

	if req.Tags != nil {
		if err := h.reconcileTags(r.Context(), user.ID, id, *req.Tags); err != nil {
			log.Printf("api: set snippet tags: %v", err)
			writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
			return
		}
	}

	resp, err := h.toSnippetResponse(r.Context(), snippet)
	if err != nil {
		log.Printf("api: load snippet tags: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete permanently removes a snippet and its tag associations.
// DELETE /api/v1/snippets/{id}
//
// @Summary      Delete a snippet permanently
// @Tags         Snippets
// @Param        id  path  string  true  "Snippet ID"
// @Success      204
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/{id} [delete]
func (h *snippetsAPIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	err := h.snippets.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snippet not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: delete snippet: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetFavorite toggles the favorite flag on a snippet.
// PATCH /api/v1/snippets/{id}/favorite
//
// @Summary      Set the favorite flag
// @Tags         Snippets
// @Accept       json
// @Param        id    path  string           true  "Snippet ID"
// @Param        body  body  FavoriteRequest  true  "New flag value"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/{id}/favorite [patch]
func (h *snippetsAPIHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	err := h.snippets.SetFavorite(r.Context(), user.ID, chi.URLParam(r, "id"), req.IsFavorite)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snippet not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: set favorite: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTrash moves a snippet to or out of the trash.
// PATCH /api/v1/snippets/{id}/trash
//
// @Summary      Set the trash flag
// @Description  Trashing hides the snippet from lists and search. Restoring brings it back intact, tags included.
// @Tags         Snippets
// @Accept       json
// @Param        id    path  string        true  "Snippet ID"
// @Param        body  body  TrashRequest  true  "New flag value"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/{id}/trash [patch]
func (h *snippetsAPIHandler) SetTrash(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req TrashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}

	err := h.snippets.SetDeleted(r.Context(), user.ID, chi.URLParam(r, "id"), req.IsDeleted)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "snippet not found", "NOT_FOUND")
		return
	}
	if err != nil {
		log.Printf("api: set trash: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search filters the caller's active snippets by text, language, tags and
// favorite status. All filters are AND-combined.
// POST /api/v1/snippets/search
//
// @Summary      Search snippets
// @Tags         Snippets
// @Accept       json
// @Produce      json
// @Param        body  body      SearchRequest  true  "Search filters"
// @Success      200   {object}  SnippetListResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /snippets/search [post]
func (h *snippetsAPIHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	metrics.SearchesTotal.Inc()

	snippets, err := h.snippets.Search(r.Context(), user.ID, store.SearchFilter{
		Query:         req.Query,
		Language:      req.Language,
		TagIDs:        req.TagIDs,
		FavoritesOnly: req.FavoritesOnly,
	})
	h.writeSnippetList(w, r, snippets, err)
}
