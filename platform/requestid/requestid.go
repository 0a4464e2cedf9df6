package requestid

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Header is the canonical request correlation header, echoed on every response.
const Header = "x-request-id"

type ctxKey struct{}

// WithID stores the request id on the context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request id from context, returning false when absent.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Normalize returns the caller-supplied id when it is a well-formed UUID,
// reporting false otherwise. Malformed ids are discarded rather than echoed so
// clients cannot inject arbitrary bytes into logs and response headers.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	parsed, err := uuid.Parse(trimmed)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// New generates a fresh request id.
func New() string {
	return uuid.NewString()
}
