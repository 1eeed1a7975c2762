package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/checkout"
	"github.com/fjod/go_storefront/internal/remote"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

type UpstreamDetails struct {
	Action     string `json:"action"`
	StatusCode int    `json:"status_code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts a storefront error into an HTTP status and code.
func handleError(w http.ResponseWriter, err error) {
	var (
		verr *checkout.ValidationError
		re   *remote.RemoteError
		fe   *catalog.FetchError
		se   *checkout.SubmissionError
	)

	switch {
	case errors.Is(err, cart.ErrBusy):
		respondError(w, http.StatusConflict, "cart_busy", err.Error())
	case errors.As(err, &verr):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   verr.Error(),
			Code:    "validation_failed",
			Details: verr.Fields,
		})
	case errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, catalog.ErrNothingSelected):
		respondError(w, http.StatusConflict, "nothing_selected", err.Error())
	case errors.As(err, &re):
		respondJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   err.Error(),
			Code:    "upstream_error",
			Details: UpstreamDetails{Action: re.Action, StatusCode: re.StatusCode},
		})
	case errors.As(err, &fe), errors.As(err, &se):
		respondError(w, http.StatusBadGateway, "upstream_error", err.Error())
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
