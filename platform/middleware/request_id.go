package middleware

import (
	"net/http"

	"github.com/prosektorweb/inbox-api/platform/requestid"
)

// RequestID attaches a correlation id to every request and echoes it on the
// response. A well-formed caller-supplied x-request-id is reused so clients
// can correlate their reports with server logs; anything else is replaced
// with a freshly generated id.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := requestid.Normalize(r.Header.Get(requestid.Header))
		if !ok {
			id = requestid.New()
		}

		w.Header().Set(requestid.Header, id)
		next.ServeHTTP(w, r.WithContext(requestid.WithID(r.Context(), id)))
	})
}
