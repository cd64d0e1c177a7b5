package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/kajal19803/dairyfrontend/internal/backend"
	"github.com/kajal19803/dairyfrontend/pkg/circuitbreaker"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
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

// handleBackendError converts a failed backend call into an HTTP error.
func handleBackendError(w http.ResponseWriter, err error) {
	var se *backend.StatusError
	switch {
	case errors.As(err, &se):
		httpStatus, code := mapBackendStatus(se.StatusCode)
		respondJSON(w, httpStatus, ErrorResponse{
			Error:   se.Message,
			Code:    code,
			Details: err.Error(),
		})
	case circuitbreaker.IsOpen(err):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "backend is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		respondError(w, http.StatusGatewayTimeout, "timeout", "backend did not answer in time")
	default:
		zap.L().Error("backend call failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func mapBackendStatus(status int) (int, string) {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return http.StatusBadRequest, "invalid_argument"
	case http.StatusUnauthorized:
		return http.StatusUnauthorized, "unauthenticated"
	case http.StatusForbidden:
		return http.StatusForbidden, "permission_denied"
	case http.StatusNotFound:
		return http.StatusNotFound, "not_found"
	case http.StatusConflict:
		return http.StatusConflict, "already_exists"
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "rate_limit_exceeded"
	}
	if status >= 500 {
		return http.StatusBadGateway, "backend_error"
	}
	return http.StatusInternalServerError, "internal_error"
}
