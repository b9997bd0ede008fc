package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/keyline-auth/keyline"
	"github.com/keyline-auth/keyline/google"
)

type successEnvelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorEnvelope struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
	Success   bool   `json:"success"`
}

func (s *Server) respond(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{
		Success: true,
		Code:    status,
		Message: message,
		Data:    data,
	})
}

func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{
		ErrorCode: code,
		Message:   publicMessage(err, status),
		Success:   false,
	})
}

// classify maps domain errors to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, keyline.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, keyline.ErrInvalidProvider):
		return http.StatusBadRequest, "invalid_provider"
	case errors.Is(err, keyline.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, keyline.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "refresh_token_expired"
	case errors.Is(err, keyline.ErrSessionInvalid):
		return http.StatusUnauthorized, "session_invalid"
	case errors.Is(err, keyline.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, keyline.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, keyline.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, keyline.ErrRoleNotFound):
		return http.StatusNotFound, "role_not_found"
	case errors.Is(err, keyline.ErrUserExists):
		return http.StatusUnprocessableEntity, "user_already_exists"
	case errors.Is(err, keyline.ErrResourceExists):
		return http.StatusConflict, "resource_exists"
	case errors.Is(err, keyline.ErrRoleProtected):
		return http.StatusConflict, "role_protected"
	case errors.Is(err, keyline.ErrProviderUnreachable):
		return http.StatusBadGateway, "provider_unreachable"
	default:
		var pe *google.ProviderError
		if errors.As(err, &pe) {
			return http.StatusBadGateway, "provider_error"
		}
		return http.StatusInternalServerError, "internal_error"
	}
}

// publicMessage hides internal detail on 5xx answers.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}

// decodeJSON fills dest from the request body. An empty body is not an
// error; field-level validation happens downstream.
func decodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		return keyline.ErrValidation
	}
	return nil
}
