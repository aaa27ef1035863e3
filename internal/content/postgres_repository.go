package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

const itemColumns = `id, type, status, team_id, creator_id, title, body,
	media_key, thumbnail_key, scheduled_for, created_at, updated_at, deleted_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(
		&it.ID,
		&it.Type,
		&it.Status,
		&it.TeamID,
		&it.CreatorID,
		&it.Title,
		&it.Body,
		&it.MediaKey,
		&it.ThumbnailKey,
		&it.ScheduledFor,
		&it.CreatedAt,
		&it.UpdatedAt,
		&it.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// Create inserts a new content item. Status defaults to DRAFT, or SCHEDULED
// when a schedule time is supplied.
func (r *PostgresRepository) Create(ctx context.Context, it *Item) error {
	if it.Status == "" {
		if it.ScheduledFor != nil {
			it.Status = StatusScheduled
		} else {
			it.Status = StatusDraft
		}
	}

	query := `
		INSERT INTO content_items (type, status, team_id, creator_id, title, body, media_key, thumbnail_key, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		it.Type,
		it.Status,
		it.TeamID,
		it.CreatorID,
		it.Title,
		it.Body,
		it.MediaKey,
		it.ThumbnailKey,
		it.ScheduledFor,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting content item: %w", err)
	}

	return nil
}

// GetByID retrieves a single non-deleted content item by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM content_items
		WHERE id = $1 AND deleted_at IS NULL`, itemColumns)

	it, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying content item: %w", err)
	}

	return it, nil
}

// List retrieves non-deleted content items matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	var (
		conds = []string{"deleted_at IS NULL"}
		args  []any
	)

	addCond := func(expr string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if filter.TeamID != nil {
		addCond("team_id = $%d", *filter.TeamID)
	}
	if filter.CreatorID != nil {
		addCond("creator_id = $%d", *filter.CreatorID)
	}
	if filter.Status != nil {
		addCond("status = $%d", *filter.Status)
	}
	if filter.Type != nil {
		addCond("type = $%d", *filter.Type)
	}
	if filter.DueBefore != nil {
		addCond("scheduled_for <= $%d", *filter.DueBefore)
	}

	where := strings.Join(conds, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM content_items WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting content items: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 || limit > 100 {
		limit = 100
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`
		SELECT %s FROM content_items
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, itemColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing content items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning content item row: %w", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating content item rows: %w", err)
	}

	if items == nil {
		items = []Item{}
	}

	return &ListResult{Items: items, Total: total}, nil
}

// Update applies a partial field update and bumps updated_at. The updated
// item is returned so callers can adopt the new logical clock.
func (r *PostgresRepository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*Item, error) {
	var (
		sets []string
		args []any
	)

	addSet := func(expr string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
	}

	if fields.Title != nil {
		addSet("title = $%d", *fields.Title)
	}
	if fields.Body != nil {
		addSet("body = $%d", *fields.Body)
	}
	if fields.MediaKey != nil {
		addSet("media_key = $%d", *fields.MediaKey)
	}
	if fields.ThumbnailKey != nil {
		addSet("thumbnail_key = $%d", *fields.ThumbnailKey)
	}
	if fields.ScheduledFor != nil {
		addSet("scheduled_for = $%d", *fields.ScheduledFor)
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE content_items
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s`, strings.Join(sets, ", "), len(args), itemColumns)

	it, err := scanItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating content item: %w", err)
	}

	return it, nil
}

// UpdateStatus sets the workflow status and bumps updated_at.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Item, error) {
	query := fmt.Sprintf(`
		UPDATE content_items
		SET status = $1, updated_at = now()
		WHERE id = $2 AND deleted_at IS NULL
		RETURNING %s`, itemColumns)

	it, err := scanItem(r.pool.QueryRow(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("updating content status: %w", err)
	}

	return it, nil
}

// SoftDelete marks a content item as deleted. The row is kept for audit.
func (r *PostgresRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE content_items
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting content item: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
