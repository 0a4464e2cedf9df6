package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCatalogShape(t *testing.T) {
	t.Parallel()

	seenNames := map[string]struct{}{}
	seenEndpoints := map[string]struct{}{}

	for _, sp := range Catalog() {
		require.NotEmpty(t, sp.Name)
		require.NotEmpty(t, sp.Table)
		require.NotEmpty(t, sp.Columns)
		require.NotEmpty(t, sp.SearchColumns)
		require.NotEmpty(t, sp.FilenamePrefix)
		require.NotEmpty(t, sp.Endpoint)
		require.NotEmpty(t, sp.RowSchema)
		require.NotNil(t, sp.CSVRow)

		require.Contains(t, sp.SortFields, sp.DefaultSortKey, "default sort key must be sortable for %s", sp.Name)

		_, dup := seenNames[sp.Name]
		require.False(t, dup, "duplicate entity name %s", sp.Name)
		seenNames[sp.Name] = struct{}{}

		_, dup = seenEndpoints[sp.Endpoint]
		require.False(t, dup, "duplicate endpoint name %s", sp.Endpoint)
		seenEndpoints[sp.Endpoint] = struct{}{}
	}
}

func TestCSVRowMatchesHeader(t *testing.T) {
	t.Parallel()

	// An empty row still yields one blank cell per header, never "null" text.
	for _, sp := range Catalog() {
		cells := sp.CSVRow(Row{})
		require.Len(t, cells, len(sp.CSVHeader), "cell count mismatch for %s", sp.Name)
		for _, cell := range cells {
			require.Empty(t, cell)
		}
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	sp, ok := Lookup("messages")
	require.True(t, ok)
	require.Equal(t, "contact_messages", sp.Table)

	_, ok = Lookup("users")
	require.False(t, ok)
}

func TestCell(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Cell(nil))
	require.Equal(t, "hello", Cell("hello"))
	require.Equal(t, "true", Cell(true))
	require.Equal(t, "42", Cell(int64(42)))
	require.Equal(t, "3.5", Cell(3.5))

	ts := time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC)
	require.Equal(t, "2026-08-30T09:15:00Z", Cell(ts))
}
