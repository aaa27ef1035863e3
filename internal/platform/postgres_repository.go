package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
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

// Create inserts a new platform connection.
func (r *PostgresRepository) Create(ctx context.Context, c *Connection) error {
	query := `
		INSERT INTO platform_connections (team_id, platform, handle, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, connected_at`

	err := r.pool.QueryRow(ctx, query, c.TeamID, c.Platform, c.Handle, c.Active).
		Scan(&c.ID, &c.ConnectedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateConnection
		}
		return fmt.Errorf("inserting platform connection: %w", err)
	}

	return nil
}

// ListByTeam retrieves all connections of a team.
func (r *PostgresRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Connection, error) {
	query := `
		SELECT id, team_id, platform, handle, active, connected_at
		FROM platform_connections
		WHERE team_id = $1
		ORDER BY connected_at ASC`

	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("listing platform connections: %w", err)
	}
	defer rows.Close()

	var conns []Connection
	for rows.Next() {
		var c Connection
		if err := rows.Scan(&c.ID, &c.TeamID, &c.Platform, &c.Handle, &c.Active, &c.ConnectedAt); err != nil {
			return nil, fmt.Errorf("scanning platform connection row: %w", err)
		}
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating platform connection rows: %w", err)
	}

	if conns == nil {
		conns = []Connection{}
	}

	return conns, nil
}

// HasActive reports whether the team has at least one active connection.
func (r *PostgresRepository) HasActive(ctx context.Context, teamID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM platform_connections WHERE team_id = $1 AND active)`

	if err := r.pool.QueryRow(ctx, query, teamID).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking active platform connections: %w", err)
	}

	return exists, nil
}

// Delete removes a platform connection by its UUID.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM platform_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting platform connection: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
