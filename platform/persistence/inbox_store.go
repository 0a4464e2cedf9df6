package persistence

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prosektorweb/inbox-api/platform/tenant"
)

// psql builds statements with Postgres-style $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// InboxStore reads and updates inbox rows. Every query it issues carries an
// explicit tenant predicate; there is no unscoped path.
type InboxStore struct {
	pool *pgxpool.Pool
}

// NewInboxStore wraps the shared pool.
func NewInboxStore(pool *pgxpool.Pool) (*InboxStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &InboxStore{pool: pool}, nil
}

// ListParams describes a tenant-scoped page of inbox rows. SearchPattern must
// already be escaped for LIKE (see query.EscapeLike) and include its
// surrounding wildcards.
type ListParams struct {
	Table         string
	Columns       []string
	TenantID      uuid.UUID
	SearchPattern string
	SearchColumns []string
	SortColumn    string
	SortDesc      bool
	Offset        uint64
	Limit         uint64
}

// Row is a single inbox record keyed by column name.
type Row map[string]any

func buildListQuery(p ListParams) (string, []any, error) {
	builder := psql.
		Select(p.Columns...).
		From(p.Table).
		Where(sq.Eq{"tenant_id": p.TenantID})

	builder = applySearch(builder, p)

	if p.SortColumn != "" {
		direction := "ASC"
		if p.SortDesc {
			direction = "DESC"
		}
		builder = builder.OrderBy(p.SortColumn + " " + direction)
	}

	if p.Limit > 0 {
		builder = builder.Offset(p.Offset).Limit(p.Limit)
	}

	return builder.ToSql()
}

func buildCountQuery(p ListParams) (string, []any, error) {
	builder := psql.
		Select("count(*)").
		From(p.Table).
		Where(sq.Eq{"tenant_id": p.TenantID})

	builder = applySearch(builder, p)

	return builder.ToSql()
}

func applySearch(builder sq.SelectBuilder, p ListParams) sq.SelectBuilder {
	if p.SearchPattern == "" || len(p.SearchColumns) == 0 {
		return builder
	}

	or := sq.Or{}
	for _, col := range p.SearchColumns {
		or = append(or, sq.ILike{col: p.SearchPattern})
	}
	return builder.Where(or)
}

func buildMarkReadQuery(table string, tenantID, id uuid.UUID) (string, []any, error) {
	return psql.
		Update(table).
		Set("is_read", true).
		Where(sq.Eq{"id": id, "tenant_id": tenantID}).
		Suffix("RETURNING id").
		ToSql()
}

// ListRows returns one tenant-scoped page of rows.
func (s *InboxStore) ListRows(ctx context.Context, p ListParams) ([]Row, error) {
	sqlText, args, err := buildListQuery(p)
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", p.Table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var result []Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", p.Table, err)
		}

		row := make(Row, len(fields))
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", p.Table, err)
	}

	return result, nil
}

// CountRows returns the total number of rows matching the same filters as ListRows.
func (s *InboxStore) CountRows(ctx context.Context, p ListParams) (int, error) {
	sqlText, args, err := buildCountQuery(p)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, sqlText, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", p.Table, err)
	}

	return total, nil
}

// MarkRead sets is_read on a single tenant-scoped row and returns its id.
// Marking an already-read row succeeds unchanged. A miss yields ErrNotFound,
// whether the id does not exist or belongs to another tenant.
func (s *InboxStore) MarkRead(ctx context.Context, table string, tenantID, id uuid.UUID) (uuid.UUID, error) {
	sqlText, args, err := buildMarkReadQuery(table, tenantID, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("build mark-read query: %w", err)
	}

	var updated uuid.UUID
	if err := s.pool.QueryRow(ctx, sqlText, args...).Scan(&updated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("mark %s read: %w", table, err)
	}

	return updated, nil
}

// ReadCounts is a per-table unread/total tally.
type ReadCounts struct {
	Total  int
	Unread int
}

// CountByRead tallies total and unread rows for one tenant-scoped table.
func (s *InboxStore) CountByRead(ctx context.Context, table string, tenantID uuid.UUID) (ReadCounts, error) {
	sqlText, args, err := psql.
		Select("count(*)", "count(*) FILTER (WHERE is_read = false)").
		From(table).
		Where(sq.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return ReadCounts{}, fmt.Errorf("build summary query: %w", err)
	}

	var counts ReadCounts
	if err := s.pool.QueryRow(ctx, sqlText, args...).Scan(&counts.Total, &counts.Unread); err != nil {
		return ReadCounts{}, fmt.Errorf("summarize %s: %w", table, err)
	}

	return counts, nil
}

// ResolveMembership looks up the user's active membership in the given tenant
// and returns the resolved Space. Satisfies the tenant middleware Resolver.
func (s *InboxStore) ResolveMembership(ctx context.Context, userID string, tenantID uuid.UUID) (tenant.Space, error) {
	sqlText, args, err := psql.
		Select("t.id", "t.slug", "t.name", "m.role", "m.permissions").
		From("memberships m").
		Join("tenants t ON t.id = m.tenant_id").
		Where(sq.Eq{
			"m.user_id":   userID,
			"m.tenant_id": tenantID,
			"m.is_active": true,
		}).
		ToSql()
	if err != nil {
		return tenant.Space{}, fmt.Errorf("build membership query: %w", err)
	}

	var space tenant.Space
	var role string
	if err := s.pool.QueryRow(ctx, sqlText, args...).Scan(&space.TenantID, &space.Slug, &space.Name, &role, &space.Permissions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tenant.Space{}, ErrMembershipNotFound
		}
		return tenant.Space{}, fmt.Errorf("resolve membership: %w", err)
	}
	space.Role = tenant.Role(role)

	return space, nil
}
