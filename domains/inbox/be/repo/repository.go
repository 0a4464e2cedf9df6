package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/prosektorweb/inbox-api/domains/inbox/be/entity"
	"github.com/prosektorweb/inbox-api/platform/persistence"
	"github.com/prosektorweb/inbox-api/platform/query"
)

// ListParams selects one tenant-scoped page. Search is the normalized raw
// term; escaping for ILIKE happens inside the repository.
type ListParams struct {
	TenantID   uuid.UUID
	Search     string
	SortColumn string
	SortDesc   bool
	Offset     int
	Limit      int
}

// ListResult is a page of rows plus the unpaginated match count.
type ListResult struct {
	Rows       []entity.Row
	TotalItems int
}

// Counts is a read/unread tally for one entity.
type Counts struct {
	Total  int
	Unread int
}

// Repository is the persistence boundary of the inbox domain.
type Repository interface {
	List(ctx context.Context, sp entity.Spec, params ListParams) (ListResult, error)
	MarkRead(ctx context.Context, sp entity.Spec, tenantID, id uuid.UUID) (uuid.UUID, error)
	ReadCounts(ctx context.Context, sp entity.Spec, tenantID uuid.UUID) (Counts, error)
}

type postgresRepository struct {
	store *persistence.InboxStore
}

// NewPostgres builds the pgx-backed repository.
func NewPostgres(store *persistence.InboxStore) Repository {
	if store == nil {
		panic("inbox store is required")
	}
	return &postgresRepository{store: store}
}

func (r *postgresRepository) List(ctx context.Context, sp entity.Spec, params ListParams) (ListResult, error) {
	storeParams := persistence.ListParams{
		Table:      sp.Table,
		Columns:    sp.Columns,
		TenantID:   params.TenantID,
		SortColumn: params.SortColumn,
		SortDesc:   params.SortDesc,
		Offset:     uint64(params.Offset),
		Limit:      uint64(params.Limit),
	}

	if params.Search != "" {
		storeParams.SearchPattern = "%" + query.EscapeLike(params.Search) + "%"
		storeParams.SearchColumns = sp.SearchColumns
	}

	rows, err := r.store.ListRows(ctx, storeParams)
	if err != nil {
		return ListResult{}, err
	}

	total, err := r.store.CountRows(ctx, storeParams)
	if err != nil {
		return ListResult{}, err
	}

	result := ListResult{
		Rows:       make([]entity.Row, 0, len(rows)),
		TotalItems: total,
	}
	for _, row := range rows {
		result.Rows = append(result.Rows, entity.Row(row))
	}

	return result, nil
}

func (r *postgresRepository) MarkRead(ctx context.Context, sp entity.Spec, tenantID, id uuid.UUID) (uuid.UUID, error) {
	return r.store.MarkRead(ctx, sp.Table, tenantID, id)
}

func (r *postgresRepository) ReadCounts(ctx context.Context, sp entity.Spec, tenantID uuid.UUID) (Counts, error) {
	counts, err := r.store.CountByRead(ctx, sp.Table, tenantID)
	if err != nil {
		return Counts{}, err
	}
	return Counts{Total: counts.Total, Unread: counts.Unread}, nil
}
