package query

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}

// ValidationError is returned when the raw query string is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// SortDirection of a list query.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListQuery is the validated shape of list/export query parameters.
type ListQuery struct {
	Page    int `validate:"min=1"`
	Limit   int `validate:"min=1"`
	Search  string
	SortKey string
	SortDir SortDirection `validate:"oneof=asc desc"`
}

// Schema declares per-entity parsing policy.
type Schema struct {
	DefaultLimit int
	MaxLimit     int
	// SortKeys are the API-facing sort field names accepted for this entity.
	SortKeys       []string
	DefaultSortKey string
	DefaultDesc    bool
}

const (
	defaultLimit = 50
	maxLimit     = 100
	// searchMinLength is the shortest search term worth matching; anything
	// shorter is treated as "no search" rather than rejected.
	searchMinLength = 2
)

var validate = validator.New()

// Parse validates raw query values against the schema. Out-of-range numeric
// values are rejected rather than clamped so client bugs surface instead of
// being masked. Short search terms normalize to absent.
func Parse(values url.Values, schema Schema) (ListQuery, error) {
	if schema.DefaultLimit <= 0 {
		schema.DefaultLimit = defaultLimit
	}
	if schema.MaxLimit <= 0 {
		schema.MaxLimit = maxLimit
	}

	fieldErrors := FieldErrors{}

	page := parseIntParam(values, "page", 1, fieldErrors)
	limit := parseIntParam(values, "limit", schema.DefaultLimit, fieldErrors)
	if limit > schema.MaxLimit {
		fieldErrors.add("limit", "limit must be at most "+strconv.Itoa(schema.MaxLimit))
	}

	sortKey, sortDir := parseSort(values.Get("sort"), schema, fieldErrors)

	if len(fieldErrors) > 0 {
		return ListQuery{}, &ValidationError{Fields: fieldErrors}
	}

	q := ListQuery{
		Page:    page,
		Limit:   limit,
		Search:  NormalizeSearch(values.Get("search")),
		SortKey: sortKey,
		SortDir: sortDir,
	}

	if err := validate.Struct(q); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			fieldErrors.add(strings.ToLower(fe.Field()), strings.ToLower(fe.Field())+" is out of range")
		}
		return ListQuery{}, &ValidationError{Fields: fieldErrors}
	}

	return q, nil
}

// NormalizeSearch trims the term and discards anything below the minimum
// useful length. An empty result means "no search".
func NormalizeSearch(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if len([]rune(trimmed)) < searchMinLength {
		return ""
	}
	return trimmed
}

// Offset computes the zero-based row offset for a page.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// TotalPages computes the page count for a result set. It never returns less
// than 1 and guards against a zero limit instead of panicking.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

func parseIntParam(values url.Values, name string, fallback int, fieldErrors FieldErrors) int {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(raw)
	if err != nil {
		fieldErrors.add(name, name+" must be an integer")
		return fallback
	}
	if parsed < 1 {
		fieldErrors.add(name, name+" must be at least 1")
		return fallback
	}
	return parsed
}

// parseSort accepts "field" or "-field" (descending), restricted to the
// schema's whitelist.
func parseSort(raw string, schema Schema, fieldErrors FieldErrors) (string, SortDirection) {
	key := schema.DefaultSortKey
	dir := SortAsc
	if schema.DefaultDesc {
		dir = SortDesc
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return key, dir
	}

	requestedDir := SortAsc
	if strings.HasPrefix(trimmed, "-") {
		requestedDir = SortDesc
		trimmed = strings.TrimPrefix(trimmed, "-")
	}

	for _, allowed := range schema.SortKeys {
		if trimmed == allowed {
			return trimmed, requestedDir
		}
	}

	fieldErrors.add("sort", "unsupported sort field "+strconv.Quote(trimmed))
	return key, dir
}
