package common

import (
	"encoding/json"
	"net/http"

	apperrors "gamegroup-backend/pkg/errors"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StandardErrorCodes defines common error codes
var StandardErrorCodes = struct {
	ValidationError    string
	NotFound           string
	Unauthorized       string
	Forbidden          string
	Conflict           string
	InternalError      string
	BadRequest         string
	TooManyRequests    string
	ServiceUnavailable string
}{
	ValidationError:    "VALIDATION_ERROR",
	NotFound:           "NOT_FOUND",
	Unauthorized:       "UNAUTHORIZED",
	Forbidden:          "FORBIDDEN",
	Conflict:           "CONFLICT",
	InternalError:      "INTERNAL_ERROR",
	BadRequest:         "BAD_REQUEST",
	TooManyRequests:    "TOO_MANY_REQUESTS",
	ServiceUnavailable: "SERVICE_UNAVAILABLE",
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// RespondAppError maps err onto a status code and error code. Errors that are
// not AppErrors become a 500 without leaking their message.
func RespondAppError(w http.ResponseWriter, err error) {
	appErr := apperrors.GetAppError(err)
	if appErr == nil {
		RespondError(w, http.StatusInternalServerError, StandardErrorCodes.InternalError, "internal server error")
		return
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	code := errorCode(appErr.Type)
	message := appErr.Message
	if status >= http.StatusInternalServerError && appErr.Type != apperrors.ErrorTypeUnavailable {
		message = "internal server error"
	}

	writeJSON(w, status, APIResponse{
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: appErr.Details,
		},
	})
}

func errorCode(t apperrors.ErrorType) string {
	switch t {
	case apperrors.ErrorTypeValidation:
		return StandardErrorCodes.ValidationError
	case apperrors.ErrorTypeNotFound:
		return StandardErrorCodes.NotFound
	case apperrors.ErrorTypeForbidden:
		return StandardErrorCodes.Forbidden
	case apperrors.ErrorTypeConflict:
		return StandardErrorCodes.Conflict
	case apperrors.ErrorTypeRateLimit:
		return StandardErrorCodes.TooManyRequests
	case apperrors.ErrorTypeUnavailable:
		return StandardErrorCodes.ServiceUnavailable
	default:
		return StandardErrorCodes.InternalError
	}
}

func writeJSON(w http.ResponseWriter, status int, response APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// ParseJSONBody parses JSON request body with size limit
func ParseJSONBody(r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	return decoder.Decode(v)
}
