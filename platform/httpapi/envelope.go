package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/prosektorweb/inbox-api/platform/logging"
	"github.com/prosektorweb/inbox-api/platform/requestid"
)

// Error codes exposed to clients. The vocabulary is fixed; handlers must not
// invent new codes ad hoc.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeRateLimited     = "RATE_LIMITED"
	CodeInternal        = "INTERNAL"
)

// Error is the client-facing error body. Details maps field names to ordered
// validation messages and is only populated for VALIDATION_ERROR.
type Error struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details map[string][]string `json:"details,omitempty"`

	// RetryAfter is surfaced as a Retry-After header, never in the body.
	RetryAfter time.Duration `json:"-"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// StatusForCode maps an error code to its HTTP status. Unclassified codes map
// to 500 so a missing case can never leak as a success.
func StatusForCode(code string) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error *Error `json:"error"`
}

// Paginated is the success body for list endpoints.
type Paginated struct {
	Items      any `json:"items"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
}

// WriteData serializes {"data": v} with the given status.
func WriteData(w http.ResponseWriter, r *http.Request, status int, v any) {
	writeJSON(w, r, status, dataEnvelope{Data: v})
}

// WriteError serializes {"error": e} with the status derived from the code.
// Internal errors keep their underlying cause out of the body; callers are
// expected to have logged it already with the request id.
func WriteError(w http.ResponseWriter, r *http.Request, e *Error) {
	if e == nil {
		e = &Error{Code: CodeInternal, Message: "an unexpected error occurred"}
	}
	if e.RetryAfter > 0 {
		seconds := int(e.RetryAfter.Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}
	writeJSON(w, r, StatusForCode(e.Code), errorEnvelope{Error: e})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if id, ok := requestid.FromContext(r.Context()); ok {
		w.Header().Set(requestid.Header, id)
	}
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		if logger := logging.FromRequest(r, nil); logger != nil {
			logger.Error("encode response body", zap.Error(err))
		}
	}
}
