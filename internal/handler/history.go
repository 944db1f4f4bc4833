package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/code-optimizer/internal/apperror"
	"github.com/sakif/code-optimizer/internal/auth"
	"github.com/sakif/code-optimizer/internal/service"
)

// HistoryHandler serves the optimization history endpoints.
type HistoryHandler struct {
	svc    *service.HistoryService
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(svc *service.HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleList returns the caller's history, newest first.
//
// HTTP: GET /history, bearer-protected → 200 [record, ...]
func (h *HistoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	records, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("history list failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	// records is never nil; an empty history serializes as [].
	writeJSON(w, http.StatusOK, records)
}

// HandleDelete removes one record owned by the caller.
//
// HTTP: DELETE /history/{id}, bearer-protected
// → 200 {message} | 404 {message} if not found or not owned
func (h *HistoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		// A non-numeric id can't name any record.
		h.logger.Warn("history delete with non-numeric id", slog.String("id", idStr))
		writeError(w, apperror.NotFound("history record", idStr))
		return
	}

	if err := h.svc.Delete(r.Context(), id, userID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "history record deleted successfully"})
}
