package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/prosektorweb/inbox-api/platform/requestid"
)

func TestStatusForCode(t *testing.T) {
	t.Parallel()

	cases := map[string]int{
		CodeValidation:      http.StatusBadRequest,
		CodeUnauthenticated: http.StatusUnauthorized,
		CodeForbidden:       http.StatusForbidden,
		CodeNotFound:        http.StatusNotFound,
		CodeRateLimited:     http.StatusTooManyRequests,
		CodeInternal:        http.StatusInternalServerError,
		"SOMETHING_ELSE":    http.StatusInternalServerError,
	}

	for code, want := range cases {
		require.Equal(t, want, StatusForCode(code), "code %s", code)
	}
}

func TestWriteDataEnvelope(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(requestid.WithID(r.Context(), "req-1"))
	w := httptest.NewRecorder()

	WriteData(w, r, http.StatusOK, map[string]string{"id": "abc"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "req-1", w.Header().Get(requestid.Header))

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "abc", body.Data["id"])
}

func TestWriteErrorEnvelope(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, &Error{
		Code:    CodeValidation,
		Message: "one or more fields are invalid",
		Details: map[string][]string{"page": {"page must be at least 1"}},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error struct {
			Code    string              `json:"code"`
			Message string              `json:"message"`
			Details map[string][]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, CodeValidation, body.Error.Code)
	require.Equal(t, []string{"page must be at least 1"}, body.Error.Details["page"])
}

func TestWriteErrorRetryAfterHeader(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, &Error{Code: CodeRateLimited, Message: "rate limit exceeded", RetryAfter: 2500 * time.Millisecond})

	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "3", w.Header().Get("Retry-After"))
}

func TestWriteErrorNilFallsBackToInternal(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, r, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
