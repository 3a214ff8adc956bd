package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"flavorshop/internal/model"

	"github.com/rs/zerolog"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeDomainError maps a business failure to its HTTP status. All domain
// errors are client faults; only infrastructure failures are 5xx.
func writeDomainError(w http.ResponseWriter, err *model.DomainError, logger zerolog.Logger) {
	status := http.StatusBadRequest
	switch err.Code {
	case model.ErrCodeProductNotFound, model.ErrCodeFlavorNotFound,
		model.ErrCodeUpsellNotFound, model.ErrCodeCouponNotFound,
		model.ErrCodeOrderNotFound:
		status = http.StatusNotFound
	case model.ErrCodeInsufficientStock:
		status = http.StatusConflict
	case model.ErrCodeStockCorruption:
		status = http.StatusInternalServerError
	}

	logger.Warn().
		Str("code", err.Code).
		Str("error", err.Message).
		Int("status", status).
		Msg("domain error")
	writeJSON(w, status, ErrorResponse{Error: err.Message, Code: err.Code})
}

// respondError routes err to the right writer: DomainError gets its mapped
// status, everything else is an internal error with a generic message.
func respondError(w http.ResponseWriter, err error, fallback string, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeDomainError(w, domainErr, logger)
		return
	}
	writeError(w, http.StatusInternalServerError, fallback, logger)
}
