package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var messageSchema = []byte(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["id", "subject", "created_at", "is_read"],
	"properties": {
		"id": {"type": "string", "format": "uuid"},
		"subject": {"type": "string"},
		"created_at": {"type": "string"},
		"is_read": {"type": "boolean"}
	}
}`)

func TestRowValidator(t *testing.T) {
	t.Parallel()

	v := NewRowValidator()
	require.NoError(t, v.Register("messages", messageSchema))

	t.Run("valid row passes", func(t *testing.T) {
		t.Parallel()

		err := v.ValidateRow("messages", Row{
			"id":         "a6f1c9de-0c4b-4f05-9c1a-8f2d3e4b5a6c",
			"subject":    "Welcome",
			"created_at": time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			"is_read":    false,
		})
		require.NoError(t, err)
	})

	t.Run("missing required field fails", func(t *testing.T) {
		t.Parallel()

		err := v.ValidateRow("messages", Row{
			"id":      "a6f1c9de-0c4b-4f05-9c1a-8f2d3e4b5a6c",
			"subject": "Welcome",
		})
		require.Error(t, err)
	})

	t.Run("wrong type fails", func(t *testing.T) {
		t.Parallel()

		err := v.ValidateRow("messages", Row{
			"id":         "a6f1c9de-0c4b-4f05-9c1a-8f2d3e4b5a6c",
			"subject":    42,
			"created_at": "2026-08-01T12:00:00Z",
			"is_read":    false,
		})
		require.Error(t, err)
	})

	t.Run("unregistered entity fails", func(t *testing.T) {
		t.Parallel()

		err := v.ValidateRow("offers", Row{})
		require.Error(t, err)
	})

	t.Run("invalid schema is rejected at registration", func(t *testing.T) {
		t.Parallel()

		err := NewRowValidator().Register("broken", []byte(`{"type": 12}`))
		require.Error(t, err)
	})
}
