package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("franchise not found")
	ErrSlugTaken = errors.New("franchise slug already exists")
)

// Franchise is the franchises row.
type Franchise struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	Settings  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const franchiseColumns = `id, name, slug, settings, created_at, updated_at`

func scanFranchise(row pgx.Row) (Franchise, error) {
	var f Franchise
	err := row.Scan(&f.ID, &f.Name, &f.Slug, &f.Settings, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Franchise{}, ErrNotFound
	}
	return f, err
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Franchise, error) {
	return scanFranchise(r.pool.QueryRow(ctx, `SELECT `+franchiseColumns+` FROM franchises WHERE slug = $1`, slug))
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Franchise, error) {
	return scanFranchise(r.pool.QueryRow(ctx, `SELECT `+franchiseColumns+` FROM franchises WHERE id = $1`, id))
}

// List returns all franchises, or only ids when ids is non-empty.
func (r *Repository) List(ctx context.Context, ids []uuid.UUID) ([]Franchise, error) {
	query := `SELECT ` + franchiseColumns + ` FROM franchises`
	args := []interface{}{}
	if len(ids) > 0 {
		query += ` WHERE id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list franchises: %w", err)
	}
	defer rows.Close()

	items := make([]Franchise, 0)
	for rows.Next() {
		f, err := scanFranchise(rows)
		if err != nil {
			return nil, fmt.Errorf("scan franchise: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *Repository) Create(ctx context.Context, f Franchise) (Franchise, error) {
	if len(f.Settings) == 0 {
		f.Settings = json.RawMessage(`{}`)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO franchises (id, name, slug, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+franchiseColumns,
		f.ID, f.Name, f.Slug, f.Settings,
	)
	created, err := scanFranchise(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Franchise{}, ErrSlugTaken
		}
		return Franchise{}, fmt.Errorf("create franchise: %w", err)
	}
	return created, nil
}

func (r *Repository) UpdateSettings(ctx context.Context, id uuid.UUID, settings json.RawMessage) (Franchise, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE franchises SET settings = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+franchiseColumns,
		id, settings,
	)
	return scanFranchise(row)
}

// CountLeadsByStatus returns lead counts keyed by status.
func (r *Repository) CountLeadsByStatus(ctx context.Context, franchiseID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM leads WHERE franchise_id = $1 GROUP BY status`, franchiseID)
	if err != nil {
		return nil, fmt.Errorf("count leads: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// CountOpenTasks returns pending tasks and how many of them are overdue at now.
func (r *Repository) CountOpenTasks(ctx context.Context, franchiseID uuid.UUID, now time.Time) (pending int, overdue int, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE due_date IS NOT NULL AND due_date < $2)
		FROM tasks WHERE franchise_id = $1 AND status = 'pending'`,
		franchiseID, now,
	).Scan(&pending, &overdue)
	if err != nil {
		err = fmt.Errorf("count tasks: %w", err)
	}
	return pending, overdue, err
}

// CountUpcomingTours counts scheduled tours in [from, to).
func (r *Repository) CountUpcomingTours(ctx context.Context, franchiseID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM tours
		WHERE franchise_id = $1 AND status = 'scheduled' AND scheduled_at >= $2 AND scheduled_at < $3`,
		franchiseID, from, to,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tours: %w", err)
	}
	return n, nil
}
