package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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

// Create inserts a new team record.
func (r *PostgresRepository) Create(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO teams (name)
		VALUES ($1)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query, t.Name).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTeamName
		}
		return fmt.Errorf("inserting team: %w", err)
	}

	return nil
}

// GetByID retrieves a single team by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Team, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM teams
		WHERE id = $1`

	var t Team
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return &t, nil
}

// GetByName retrieves a single team by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Team, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM teams
		WHERE name = $1`

	var t Team
	err := r.pool.QueryRow(ctx, query, name).Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("querying team by name: %w", err)
	}

	return &t, nil
}

// List retrieves all teams ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Team, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM teams
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var t Team
		err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		teams = []Team{}
	}

	return teams, nil
}

// Delete removes a team by its UUID. Returns ErrTeamHasContent if content
// items still reference the team (FK RESTRICT).
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM teams WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrTeamHasContent
		}
		return fmt.Errorf("deleting team: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// PostgresMembershipRepository implements MembershipRepository using pgxpool.
type PostgresMembershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository creates a new MembershipRepository backed by the given pool.
func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &PostgresMembershipRepository{pool: pool}
}

// Set inserts or updates a membership, changing the role on conflict.
func (r *PostgresMembershipRepository) Set(ctx context.Context, m *Membership) error {
	query := `
		INSERT INTO team_memberships (user_id, team_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, team_id) DO UPDATE SET role = EXCLUDED.role
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query, m.UserID, m.TeamID, string(m.Role)).Scan(&m.CreatedAt)
	if err != nil {
		return fmt.Errorf("upserting membership: %w", err)
	}

	return nil
}

// Get retrieves the membership of a user in a team.
func (r *PostgresMembershipRepository) Get(ctx context.Context, userID, teamID uuid.UUID) (*Membership, error) {
	query := `
		SELECT user_id, team_id, role, created_at
		FROM team_memberships
		WHERE user_id = $1 AND team_id = $2`

	var m Membership
	err := r.pool.QueryRow(ctx, query, userID, teamID).Scan(&m.UserID, &m.TeamID, &m.Role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMembershipNotFound
		}
		return nil, fmt.Errorf("querying membership: %w", err)
	}

	return &m, nil
}

// ListByTeam retrieves all memberships of a team.
func (r *PostgresMembershipRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Membership, error) {
	query := `
		SELECT user_id, team_id, role, created_at
		FROM team_memberships
		WHERE team_id = $1
		ORDER BY created_at ASC`

	return r.listMemberships(ctx, query, teamID)
}

// ListByUser retrieves all memberships of a user across teams.
func (r *PostgresMembershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	query := `
		SELECT user_id, team_id, role, created_at
		FROM team_memberships
		WHERE user_id = $1
		ORDER BY created_at ASC`

	return r.listMemberships(ctx, query, userID)
}

func (r *PostgresMembershipRepository) listMemberships(ctx context.Context, query string, arg any) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	defer rows.Close()

	var members []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.UserID, &m.TeamID, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating membership rows: %w", err)
	}

	if members == nil {
		members = []Membership{}
	}

	return members, nil
}

// Remove deletes a membership.
func (r *PostgresMembershipRepository) Remove(ctx context.Context, userID, teamID uuid.UUID) error {
	query := `DELETE FROM team_memberships WHERE user_id = $1 AND team_id = $2`

	result, err := r.pool.Exec(ctx, query, userID, teamID)
	if err != nil {
		return fmt.Errorf("deleting membership: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrMembershipNotFound
	}

	return nil
}
