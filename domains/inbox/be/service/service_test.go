package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/prosektorweb/inbox-api/domains/inbox/be/entity"
	"github.com/prosektorweb/inbox-api/domains/inbox/be/repo"
	"github.com/prosektorweb/inbox-api/platform/persistence"
	"github.com/prosektorweb/inbox-api/platform/query"
	"github.com/prosektorweb/inbox-api/platform/ratelimit"
	"github.com/prosektorweb/inbox-api/platform/requesttrace"
	"github.com/prosektorweb/inbox-api/platform/tenant"
)

type mockRepository struct {
	listFn     func(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error)
	markReadFn func(ctx context.Context, sp entity.Spec, tenantID, id uuid.UUID) (uuid.UUID, error)
	countsFn   func(ctx context.Context, sp entity.Spec, tenantID uuid.UUID) (repo.Counts, error)
}

func (m *mockRepository) List(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error) {
	if m.listFn == nil {
		panic("listFn not configured")
	}
	return m.listFn(ctx, sp, params)
}

func (m *mockRepository) MarkRead(ctx context.Context, sp entity.Spec, tenantID, id uuid.UUID) (uuid.UUID, error) {
	if m.markReadFn == nil {
		panic("markReadFn not configured")
	}
	return m.markReadFn(ctx, sp, tenantID, id)
}

func (m *mockRepository) ReadCounts(ctx context.Context, sp entity.Spec, tenantID uuid.UUID) (repo.Counts, error) {
	if m.countsFn == nil {
		panic("countsFn not configured")
	}
	return m.countsFn(ctx, sp, tenantID)
}

type mockLimiter struct {
	allowFn func(ctx context.Context, endpoint, identity string) (ratelimit.Decision, error)
}

func (m *mockLimiter) Allow(ctx context.Context, endpoint, identity string) (ratelimit.Decision, error) {
	if m.allowFn == nil {
		return ratelimit.Decision{Allowed: true}, nil
	}
	return m.allowFn(ctx, endpoint, identity)
}

func testSpace() tenant.Space {
	return tenant.Space{
		TenantID: uuid.MustParse("0198c2f2-1111-7000-8000-000000000001"),
		Slug:     "acme",
		Name:     "Acme",
		Role:     tenant.RoleMember,
	}
}

func testAudit() requesttrace.AuditInfo {
	userID := "firebase-user-1"
	return requesttrace.AuditInfo{ActorKind: requesttrace.ActorKindUser, UserID: &userID}
}

func validOfferRow(tenantID uuid.UUID) entity.Row {
	return entity.Row{
		"id":             uuid.NewString(),
		"tenant_id":      tenantID.String(),
		"created_at":     time.Now().UTC(),
		"is_read":        false,
		"customer_name":  "Jane Doe",
		"customer_email": "jane@example.com",
		"phone":          nil,
		"service":        "roofing",
		"message":        "Need a quote for 50%_off promo",
		"budget":         "5000-8000",
	}
}

func newService(t *testing.T, r repo.Repository, limiter ratelimit.Limiter) Service {
	t.Helper()
	svc, err := New(r, limiter, Config{})
	require.NoError(t, err)
	return svc
}

func TestServiceListDefaults(t *testing.T) {
	t.Parallel()

	space := testSpace()
	repository := &mockRepository{}
	repository.listFn = func(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error) {
		require.Equal(t, space.TenantID, params.TenantID)
		require.Equal(t, "", params.Search)
		require.Equal(t, "created_at", params.SortColumn)
		require.True(t, params.SortDesc)
		require.Equal(t, 0, params.Offset)
		require.Equal(t, 50, params.Limit)

		return repo.ListResult{
			Rows:       []entity.Row{validOfferRow(space.TenantID)},
			TotalItems: 120,
		}, nil
	}

	svc := newService(t, repository, &mockLimiter{})

	result, err := svc.List(context.Background(), testAudit(), space, entity.Offers(), url.Values{})
	require.NoError(t, err)
	require.Equal(t, 1, result.Page)
	require.Equal(t, 50, result.Limit)
	require.Equal(t, 120, result.TotalItems)
	require.Equal(t, 3, result.TotalPages)
	require.Len(t, result.Items, 1)
}

func TestServiceListPagination(t *testing.T) {
	t.Parallel()

	space := testSpace()
	repository := &mockRepository{}
	repository.listFn = func(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error) {
		require.Equal(t, 50, params.Offset)
		require.Equal(t, 50, params.Limit)
		return repo.ListResult{TotalItems: 60}, nil
	}

	svc := newService(t, repository, &mockLimiter{})

	values := url.Values{"page": {"2"}, "limit": {"50"}}
	result, err := svc.List(context.Background(), testAudit(), space, entity.Offers(), values)
	require.NoError(t, err)
	require.Equal(t, 2, result.Page)
	require.Equal(t, 2, result.TotalPages)
}

func TestServiceListRejectsBadParams(t *testing.T) {
	t.Parallel()

	repoCalled := false
	repository := &mockRepository{}
	repository.listFn = func(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error) {
		repoCalled = true
		return repo.ListResult{}, nil
	}

	svc := newService(t, repository, &mockLimiter{})

	cases := []url.Values{
		{"page": {"0"}},
		{"page": {"abc"}},
		{"limit": {"0"}},
		{"limit": {"101"}},
		{"sort": {"password"}},
	}
	for _, values := range cases {
		_, err := svc.List(context.Background(), testAudit(), testSpace(), entity.Offers(), values)
		require.Error(t, err, "values %v", values)

		var validationErr *query.ValidationError
		require.True(t, errors.As(err, &validationErr), "values %v", values)
	}

	require.False(t, repoCalled, "invalid params must never reach the store")
}

func TestServiceListRateLimited(t *testing.T) {
	t.Parallel()

	space := testSpace()
	limiter := &mockLimiter{allowFn: func(ctx context.Context, endpoint, identity string) (ratelimit.Decision, error) {
		require.Equal(t, "inbox:offers:list", endpoint)
		require.Equal(t, space.TenantID.String()+":firebase-user-1", identity)
		return ratelimit.Decision{Allowed: false, RetryAfter: 12 * time.Second}, nil
	}}

	svc := newService(t, &mockRepository{}, limiter)

	_, err := svc.List(context.Background(), testAudit(), space, entity.Offers(), url.Values{})
	require.Error(t, err)

	var limited *RateLimitedError
	require.True(t, errors.As(err, &limited))
	require.Equal(t, 12*time.Second, limited.RetryAfter)
}

func TestServiceListMalformedRowFailsWholeRequest(t *testing.T) {
	t.Parallel()

	space := testSpace()
	repository := &mockRepository{}
	repository.listFn = func(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error) {
		broken := validOfferRow(space.TenantID)
		delete(broken, "customer_email")

		return repo.ListResult{
			Rows:       []entity.Row{validOfferRow(space.TenantID), broken},
			TotalItems: 2,
		}, nil
	}

	svc := newService(t, repository, &mockLimiter{})

	_, err := svc.List(context.Background(), testAudit(), space, entity.Offers(), url.Values{})
	require.Error(t, err)

	var validationErr *query.ValidationError
	require.False(t, errors.As(err, &validationErr), "corrupt data is a server fault, not client input")
}

func TestServiceExportCapsRows(t *testing.T) {
	t.Parallel()

	space := testSpace()
	repository := &mockRepository{}
	repository.listFn = func(ctx context.Context, sp entity.Spec, params repo.ListParams) (repo.ListResult, error) {
		require.Equal(t, 0, params.Offset)
		require.Equal(t, 2000, params.Limit)
		require.Equal(t, "Jane", params.Search)
		return repo.ListResult{Rows: []entity.Row{validOfferRow(space.TenantID)}, TotalItems: 1}, nil
	}

	limiterEndpoint := ""
	limiter := &mockLimiter{allowFn: func(ctx context.Context, endpoint, identity string) (ratelimit.Decision, error) {
		limiterEndpoint = endpoint
		return ratelimit.Decision{Allowed: true}, nil
	}}

	svc := newService(t, repository, limiter)

	rows, err := svc.Export(context.Background(), testAudit(), space, entity.Offers(), url.Values{"search": {" Jane "}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "inbox:offers:export", limiterEndpoint)
}

func TestServiceMarkRead(t *testing.T) {
	t.Parallel()

	space := testSpace()
	id := uuid.New()

	repository := &mockRepository{}
	repository.markReadFn = func(ctx context.Context, sp entity.Spec, tenantID, rowID uuid.UUID) (uuid.UUID, error) {
		require.Equal(t, space.TenantID, tenantID)
		require.Equal(t, id, rowID)
		return rowID, nil
	}

	svc := newService(t, repository, &mockLimiter{})

	updated, err := svc.MarkRead(context.Background(), testAudit(), space, entity.Messages(), id)
	require.NoError(t, err)
	require.Equal(t, id, updated)
}

func TestServiceMarkReadNotFound(t *testing.T) {
	t.Parallel()

	repository := &mockRepository{}
	repository.markReadFn = func(ctx context.Context, sp entity.Spec, tenantID, rowID uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, persistence.ErrNotFound
	}

	svc := newService(t, repository, &mockLimiter{})

	_, err := svc.MarkRead(context.Background(), testAudit(), testSpace(), entity.Messages(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceMarkReadNilID(t *testing.T) {
	t.Parallel()

	svc := newService(t, &mockRepository{}, &mockLimiter{})

	_, err := svc.MarkRead(context.Background(), testAudit(), testSpace(), entity.Messages(), uuid.Nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceSummary(t *testing.T) {
	t.Parallel()

	space := testSpace()
	repository := &mockRepository{}
	repository.countsFn = func(ctx context.Context, sp entity.Spec, tenantID uuid.UUID) (repo.Counts, error) {
		require.Equal(t, space.TenantID, tenantID)
		return repo.Counts{Total: 10, Unread: 4}, nil
	}

	svc := newService(t, repository, &mockLimiter{})

	summaries, err := svc.Summary(context.Background(), testAudit(), space)
	require.NoError(t, err)
	require.Len(t, summaries, len(entity.Catalog()))
	for _, summary := range summaries {
		require.Equal(t, 10, summary.Total)
		require.Equal(t, 4, summary.Unread)
	}
}

func TestServiceLimiterFailureFailsClosed(t *testing.T) {
	t.Parallel()

	limiter := &mockLimiter{allowFn: func(ctx context.Context, endpoint, identity string) (ratelimit.Decision, error) {
		return ratelimit.Decision{}, errors.New("redis down")
	}}

	svc := newService(t, &mockRepository{}, limiter)

	_, err := svc.List(context.Background(), testAudit(), testSpace(), entity.Offers(), url.Values{})
	require.Error(t, err)
}
