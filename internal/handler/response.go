package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AlexZinkM/browse-wallet/internal/model"
	"github.com/AlexZinkM/browse-wallet/internal/viewport"
	"github.com/AlexZinkM/browse-wallet/wallet"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error(), Code: code})
}

// writeOperationError maps wallet and viewport errors to status codes
func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wallet.ErrBusy):
		writeError(w, http.StatusConflict, "busy", err)
	case errors.Is(err, wallet.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "not_configured", err)
	case errors.Is(err, wallet.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, "invalid_address", err)
	case errors.Is(err, wallet.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err)
	case errors.Is(err, wallet.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "insufficient_balance", err)
	case errors.Is(err, viewport.ErrEmptyInput), errors.Is(err, viewport.ErrUnsupportedScheme):
		writeError(w, http.StatusBadRequest, "invalid_url", err)
	default:
		writeError(w, http.StatusBadGateway, "chain_error", err)
	}
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed. Should be "+method, http.StatusMethodNotAllowed)
		return false
	}
	return true
}
