package api

import "time"

// --- Snippet types ---

// CreateSnippetRequest is the request body for POST /api/v1/snippets.
type CreateSnippetRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Code        string   `json:"code"`
	Language    string   `json:"language,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateSnippetRequest is the request body for PUT /api/v1/snippets/{id}.
// Tags is a pointer so an absent field leaves the snippet's tags untouched
// while an explicit empty array clears them.
type UpdateSnippetRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Code        string    `json:"code"`
	Language    string    `json:"language,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
}

// FavoriteRequest is the request body for PATCH /api/v1/snippets/{id}/favorite.
type FavoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

// TrashRequest is the request body for PATCH /api/v1/snippets/{id}/trash.
type TrashRequest struct {
	IsDeleted bool `json:"is_deleted"`
}

// SearchRequest is the request body for POST /api/v1/snippets/search.
type SearchRequest struct {
	Query         string   `json:"query,omitempty"`
	Language      string   `json:"language,omitempty"`
	TagIDs        []string `json:"tag_ids,omitempty"`
	FavoritesOnly bool     `json:"favorites_only,omitempty"`
}

// SnippetResponse is the JSON representation of a single snippet.
type SnippetResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Language    string    `json:"language"`
	IsFavorite  bool      `json:"is_favorite"`
	IsDeleted   bool      `json:"is_deleted"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SnippetListResponse wraps snippet list endpoints.
type SnippetListResponse struct {
	Snippets []*SnippetResponse `json:"snippets"`
}

// --- Tag types ---

// CreateTagRequest is the request body for POST /api/v1/tags.
type CreateTagRequest struct {
	Name string `json:"name"`
}

// TagResponse is the JSON representation of a tag with its usage count.
type TagResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SnippetCount int       `json:"snippet_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// TagListResponse wraps tag list endpoints.
type TagListResponse struct {
	Tags []*TagResponse `json:"tags"`
}

// --- Annotation types ---

// AnnotateRequest is the request body for POST /api/v1/annotate.
type AnnotateRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// AnnotateResponse holds the commented code returned by the AI provider.
type AnnotateResponse struct {
	AnnotatedCode string `json:"annotated_code"`
}

// --- Token types ---

// CreateTokenRequest is the request body for POST /api/v1/tokens.
type CreateTokenRequest struct {
	Name      string     `json:"name"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// TokenResponse is the JSON representation of an API token. The token hash
// never appears in responses.
type TokenResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  *time.Time `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TokenCreatedResponse carries the plaintext token exactly once, in the
// response to the create call.
type TokenCreatedResponse struct {
	TokenResponse
	Token string `json:"token"`
}

// TokenListResponse wraps the token list endpoint.
type TokenListResponse struct {
	Tokens []*TokenResponse `json:"tokens"`
}

// --- User types ---

// UpdateRoleRequest is the request body for PUT /api/v1/users/{id}/role.
type UpdateRoleRequest struct {
	Role string `json:"role"`
}

// UserResponse is the JSON representation of a user account.
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserListResponse wraps the admin user list endpoint.
type UserListResponse struct {
	Users []*UserResponse `json:"users"`
}
