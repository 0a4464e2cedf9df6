package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/prosektorweb/inbox-api/domains/inbox/be/entity"
	"github.com/prosektorweb/inbox-api/domains/inbox/be/repo"
	"github.com/prosektorweb/inbox-api/platform/persistence"
	"github.com/prosektorweb/inbox-api/platform/query"
	"github.com/prosektorweb/inbox-api/platform/ratelimit"
	"github.com/prosektorweb/inbox-api/platform/requesttrace"
	"github.com/prosektorweb/inbox-api/platform/tenant"
)

// Domain sentinel errors.
var ErrNotFound = errors.New("inbox item not found")

// RateLimitedError is returned when the caller exceeded their quota.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return "rate limit exceeded"
}

// ListResult wraps a page of rows with pagination metadata.
type ListResult struct {
	Items      []entity.Row
	Page       int
	Limit      int
	TotalItems int
	TotalPages int
}

// EntitySummary is a per-entity read/unread tally for the admin overview.
type EntitySummary struct {
	Entity string
	Total  int
	Unread int
}

// Config tunes the service-wide knobs.
type Config struct {
	// ExportCap bounds how many rows a single CSV export may stream.
	ExportCap int
}

const (
	defaultExportCap = 2000

	summaryEndpoint = "inbox:summary"
)

// Service defines the business operations of the inbox domain. Every method
// enforces the rate limit for its endpoint before touching the store, and
// every store access is scoped to the caller's tenant.
type Service interface {
	List(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space, sp entity.Spec, raw url.Values) (ListResult, error)
	Export(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space, sp entity.Spec, raw url.Values) ([]entity.Row, error)
	MarkRead(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space, sp entity.Spec, id uuid.UUID) (uuid.UUID, error)
	Summary(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space) ([]EntitySummary, error)
}

type service struct {
	repo      repo.Repository
	limiter   ratelimit.Limiter
	validator *persistence.RowValidator
	cfg       Config
}

// New constructs the inbox Service and compiles every entity's row schema.
func New(r repo.Repository, limiter ratelimit.Limiter, cfg Config) (Service, error) {
	if r == nil {
		panic("inbox repository is required")
	}
	if limiter == nil {
		panic("rate limiter is required")
	}

	if cfg.ExportCap <= 0 {
		cfg.ExportCap = defaultExportCap
	}

	validator := persistence.NewRowValidator()
	for _, sp := range entity.Catalog() {
		if err := validator.Register(sp.Name, sp.RowSchema); err != nil {
			return nil, fmt.Errorf("register %s row schema: %w", sp.Name, err)
		}
	}

	return &service{repo: r, limiter: limiter, validator: validator, cfg: cfg}, nil
}

func (s *service) List(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space, sp entity.Spec, raw url.Values) (ListResult, error) {
	if err := s.enforceLimit(ctx, sp.Endpoint+":list", audit, space); err != nil {
		return ListResult{}, err
	}

	q, err := query.Parse(raw, querySchema(sp))
	if err != nil {
		return ListResult{}, err
	}

	result, err := s.repo.List(ctx, sp, repo.ListParams{
		TenantID:   space.TenantID,
		Search:     q.Search,
		SortColumn: sp.SortFields[q.SortKey],
		SortDesc:   q.SortDir == query.SortDesc,
		Offset:     query.Offset(q.Page, q.Limit),
		Limit:      q.Limit,
	})
	if err != nil {
		return ListResult{}, err
	}

	if err := s.validateRows(sp, result.Rows); err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Items:      result.Rows,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalItems: result.TotalItems,
		TotalPages: query.TotalPages(result.TotalItems, q.Limit),
	}, nil
}

func (s *service) Export(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space, sp entity.Spec, raw url.Values) ([]entity.Row, error) {
	if err := s.enforceLimit(ctx, sp.Endpoint+":export", audit, space); err != nil {
		return nil, err
	}

	// Pagination params are ignored for exports but search and sort still
	// apply; the raw values are validated the same way as for a list.
	q, err := query.Parse(raw, querySchema(sp))
	if err != nil {
		return nil, err
	}

	result, err := s.repo.List(ctx, sp, repo.ListParams{
		TenantID:   space.TenantID,
		Search:     q.Search,
		SortColumn: sp.SortFields[q.SortKey],
		SortDesc:   q.SortDir == query.SortDesc,
		Offset:     0,
		Limit:      s.cfg.ExportCap,
	})
	if err != nil {
		return nil, err
	}

	if err := s.validateRows(sp, result.Rows); err != nil {
		return nil, err
	}

	return result.Rows, nil
}

func (s *service) MarkRead(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space, sp entity.Spec, id uuid.UUID) (uuid.UUID, error) {
	if err := s.enforceLimit(ctx, sp.Endpoint+":read", audit, space); err != nil {
		return uuid.Nil, err
	}

	if id == uuid.Nil {
		return uuid.Nil, ErrNotFound
	}

	updated, err := s.repo.MarkRead(ctx, sp, space.TenantID, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, err
	}

	return updated, nil
}

func (s *service) Summary(ctx context.Context, audit requesttrace.AuditInfo, space tenant.Space) ([]EntitySummary, error) {
	if err := s.enforceLimit(ctx, summaryEndpoint, audit, space); err != nil {
		return nil, err
	}

	catalog := entity.Catalog()
	summaries := make([]EntitySummary, 0, len(catalog))
	for _, sp := range catalog {
		counts, err := s.repo.ReadCounts(ctx, sp, space.TenantID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, EntitySummary{Entity: sp.Name, Total: counts.Total, Unread: counts.Unread})
	}

	return summaries, nil
}

// enforceLimit runs the quota check before any store access. A limiter
// backend failure fails closed rather than waving the request through.
func (s *service) enforceLimit(ctx context.Context, endpoint string, audit requesttrace.AuditInfo, space tenant.Space) error {
	userID := ""
	if audit.UserID != nil {
		userID = *audit.UserID
	}
	identity := space.TenantID.String() + ":" + userID

	decision, err := s.limiter.Allow(ctx, endpoint, identity)
	if err != nil {
		return fmt.Errorf("rate limiter check: %w", err)
	}
	if !decision.Allowed {
		return &RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	return nil
}

// validateRows checks every outgoing row against the entity's schema. One
// malformed row fails the whole request; a corrupt record must never reach a
// client looking well-formed.
func (s *service) validateRows(sp entity.Spec, rows []entity.Row) error {
	for _, row := range rows {
		if err := s.validator.ValidateRow(sp.Name, persistence.Row(row)); err != nil {
			return err
		}
	}
	return nil
}

func querySchema(sp entity.Spec) query.Schema {
	keys := make([]string, 0, len(sp.SortFields))
	for key := range sp.SortFields {
		keys = append(keys, key)
	}

	return query.Schema{
		SortKeys:       keys,
		DefaultSortKey: sp.DefaultSortKey,
		DefaultDesc:    sp.DefaultDesc,
	}
}
