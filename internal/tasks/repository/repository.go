package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("task not found")

type Task struct {
	ID          uuid.UUID
	FranchiseID uuid.UUID
	LeadID      *uuid.UUID
	Title       string
	Description *string
	DueDate     *time.Time
	Status      string
	Type        string
	Outcome     *string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, franchise_id, lead_id, title, description, due_date, status, type, outcome, created_at, completed_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.FranchiseID, &t.LeadID, &t.Title, &t.Description, &t.DueDate, &t.Status, &t.Type, &t.Outcome, &t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) Insert(ctx context.Context, t Task) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO tasks (id, franchise_id, lead_id, title, description, due_date, status, type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+taskColumns,
		t.ID, t.FranchiseID, t.LeadID, t.Title, t.Description, t.DueDate, t.Status, t.Type))
}

// DeletePendingForLead removes every pending task attached to a lead.
func (r *Repository) DeletePendingForLead(ctx context.Context, leadID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE lead_id = $1 AND status = 'pending'`, leadID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ListParams struct {
	FranchiseID uuid.UUID
	LeadID      *uuid.UUID
	Status      *string
	DueBefore   *time.Time
	Limit       int
}

// List returns tasks ordered by due date, undated last.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Task, error) {
	where := []string{"franchise_id = $1"}
	args := []interface{}{params.FranchiseID}

	if params.LeadID != nil {
		args = append(args, *params.LeadID)
		where = append(where, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.DueBefore != nil {
		args = append(args, *params.DueBefore)
		where = append(where, fmt.Sprintf("due_date < $%d", len(args)))
	}
	args = append(args, params.Limit)

	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY due_date ASC NULLS LAST, created_at ASC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	items := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r *Repository) Complete(ctx context.Context, id, franchiseID uuid.UUID, outcome *string) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		UPDATE tasks SET status = 'completed', outcome = $3, completed_at = now()
		WHERE id = $1 AND franchise_id = $2
		RETURNING `+taskColumns,
		id, franchiseID, outcome))
}

func (r *Repository) Delete(ctx context.Context, id, franchiseID uuid.UUID) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		DELETE FROM tasks WHERE id = $1 AND franchise_id = $2
		RETURNING `+taskColumns,
		id, franchiseID))
}
