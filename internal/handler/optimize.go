package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/auth"
	"github.com/sakif/code-optimizer/internal/service"
)

// OptimizeHandler serves the optimization endpoint.
type OptimizeHandler struct {
	svc    *service.OptimizeService
	logger *slog.Logger
}

// NewOptimizeHandler creates an OptimizeHandler.
func NewOptimizeHandler(svc *service.OptimizeService, logger *slog.Logger) *OptimizeHandler {
	return &OptimizeHandler{
		svc:    svc,
		logger: logger,
	}
}

type optimizeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// optimizeResponse is the wire shape of a successful optimization.
type optimizeResponse struct {
	ID            int64  `json:"id"`
	OptimizedCode string `json:"optimized_code"`
	Suggestions   string `json:"suggestions"`
}

// HandleOptimize runs one optimization for the authenticated caller.
//
// HTTP: POST /optimize {code, language}, bearer-protected
// → 200 {id, optimized_code, suggestions}, 400 on missing fields, and
// 500 {message} on any LLM-call or persistence failure.
func (h *OptimizeHandler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid optimize request body", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	rec, err := h.svc.Optimize(r.Context(), userID, req.Code, req.Language)
	if err != nil {
		h.logger.Error("optimization request failed",
			slog.String("userID", userID),
			slog.String("language", req.Language),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, optimizeResponse{
		ID:            rec.ID,
		OptimizedCode: rec.OptimizedCode,
		Suggestions:   rec.Suggestions,
	})
}
