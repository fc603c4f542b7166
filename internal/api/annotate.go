package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/snipvault/snipvault/internal/auth"
	"github.com/snipvault/snipvault/internal/llm"
	"github.com/snipvault/snipvault/internal/metrics"
)

// annotateAPIHandler proxies annotation requests to the configured AI provider.
type annotateAPIHandler struct {
	annotator llm.Annotator
}

// registerAnnotateRoutes registers the annotation route on r. The annotator
// may be nil when no provider is configured; the handler then returns 503.
func registerAnnotateRoutes(r chi.Router, annotator llm.Annotator) {
	h := &annotateAPIHandler{annotator: annotator}
	r.Post("/annotate", h.Annotate)
}

// Annotate sends the submitted code to the AI provider and returns the
// commented version. The snippet is never persisted by this endpoint.
// POST /api/v1/annotate
//
// @Summary      Annotate code with AI comments
// @Description  Returns a commented version of the submitted code. Requires an AI provider to be configured.
// @Tags         Annotate
// @Accept       json
// @Produce      json
// @Param        body  body      AnnotateRequest  true  "Code to annotate"
// @Success      200   {object}  AnnotateResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse
// @Failure      503   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /annotate [post]
func (h *annotateAPIHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "UNAUTHORIZED")
		return
	}

	if h.annotator == nil {
		writeError(w, http.StatusServiceUnavailable, "AI annotation is not configured", "ANNOTATION_DISABLED")
		return
	}

	var req AnnotateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required", "BAD_REQUEST")
		return
	}

	start := time.Now()
	result, err := h.annotator.Annotate(r.Context(), llm.AnnotateRequest{
		Code:     req.Code,
		Language: req.Language,
	})
	metrics.AnnotationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AnnotationsTotal.WithLabelValues("error").Inc()
		log.Printf("api: annotate: %v", err)
		writeError(w, http.StatusBadGateway, "annotation provider error", "PROVIDER_ERROR")
		return
	}
	metrics.AnnotationsTotal.WithLabelValues("ok").Inc()

	writeJSON(w, http.StatusOK, &AnnotateResponse{AnnotatedCode: result.AnnotatedCode})
}
