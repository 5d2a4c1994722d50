package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/lot-auction/internal/model"
)

const timeLayout = time.RFC3339

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// statusFor сопоставляет доменную ошибку HTTP-статусу. Ноль означает внутреннюю ошибку.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInsufficientBudget):
		return http.StatusPaymentRequired
	case errors.Is(err, model.ErrUnknownBidder):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrInvalidTransition),
		errors.Is(err, model.ErrAuctionNotActive),
		errors.Is(err, model.ErrBidTooLow),
		errors.Is(err, model.ErrEmptyCatalog):
		return http.StatusConflict
	default:
		return 0
	}
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == 0 {
		h.logger.Error(op+" error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Error: err.Error()}
	if reason := model.RejectReason(err); reason != "rejected" {
		resp.Reason = reason
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
