package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("automation not found")

// Automation is the automations row. Conditions and Actions are stored JSON.
type Automation struct {
	ID          uuid.UUID
	FranchiseID uuid.UUID
	Name        string
	Trigger     string
	Conditions  json.RawMessage
	Actions     json.RawMessage
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Log is one automation_logs row.
type Log struct {
	ID           uuid.UUID
	AutomationID uuid.UUID
	LeadID       uuid.UUID
	FranchiseID  uuid.UUID
	ActionType   string
	Status       string
	ErrorMessage *string
	CreatedAt    time.Time
}

// Interaction is one interactions row.
type Interaction struct {
	ID           uuid.UUID
	FranchiseID  uuid.UUID
	LeadID       uuid.UUID
	AutomationID *uuid.UUID
	Type         string
	Content      string
	CreatedAt    time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const automationColumns = `id, franchise_id, name, trigger, conditions, actions, active, created_at, updated_at`

func scanAutomation(row pgx.Row) (Automation, error) {
	var a Automation
	err := row.Scan(&a.ID, &a.FranchiseID, &a.Name, &a.Trigger, &a.Conditions, &a.Actions, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Automation{}, ErrNotFound
	}
	return a, err
}

func collectAutomations(rows pgx.Rows) ([]Automation, error) {
	defer rows.Close()
	items := make([]Automation, 0)
	for rows.Next() {
		a, err := scanAutomation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan automation: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// ListActive returns the active automations of a franchise for one trigger,
// oldest first.
func (r *Repository) ListActive(ctx context.Context, franchiseID uuid.UUID, trigger string) ([]Automation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+automationColumns+`
		FROM automations
		WHERE franchise_id = $1 AND trigger = $2 AND active
		ORDER BY created_at ASC, id ASC
	`, franchiseID, trigger)
	if err != nil {
		return nil, fmt.Errorf("list active automations: %w", err)
	}
	return collectAutomations(rows)
}

func (r *Repository) List(ctx context.Context, franchiseID uuid.UUID, trigger *string) ([]Automation, error) {
	query := `SELECT ` + automationColumns + ` FROM automations WHERE franchise_id = $1`
	args := []interface{}{franchiseID}
	if trigger != nil {
		query += ` AND trigger = $2`
		args = append(args, *trigger)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list automations: %w", err)
	}
	return collectAutomations(rows)
}

func (r *Repository) Get(ctx context.Context, id, franchiseID uuid.UUID) (Automation, error) {
	return scanAutomation(r.pool.QueryRow(ctx, `
		SELECT `+automationColumns+` FROM automations WHERE id = $1 AND franchise_id = $2
	`, id, franchiseID))
}

func (r *Repository) Create(ctx context.Context, a Automation) (Automation, error) {
	return scanAutomation(r.pool.QueryRow(ctx, `
		INSERT INTO automations (id, franchise_id, name, trigger, conditions, actions, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+automationColumns,
		a.ID, a.FranchiseID, a.Name, a.Trigger, a.Conditions, a.Actions, a.Active))
}

// CreateIfNameAbsent inserts a unless the franchise already has an automation
// with the same name. It reports whether a row was inserted.
func (r *Repository) CreateIfNameAbsent(ctx context.Context, a Automation) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO automations (id, franchise_id, name, trigger, conditions, actions, active)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (SELECT 1 FROM automations WHERE franchise_id = $2 AND lower(name) = lower($3))
	`, a.ID, a.FranchiseID, a.Name, a.Trigger, a.Conditions, a.Actions, a.Active)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) Update(ctx context.Context, a Automation) (Automation, error) {
	return scanAutomation(r.pool.QueryRow(ctx, `
		UPDATE automations SET name = $3, trigger = $4, conditions = $5, actions = $6, active = $7, updated_at = now()
		WHERE id = $1 AND franchise_id = $2
		RETURNING `+automationColumns,
		a.ID, a.FranchiseID, a.Name, a.Trigger, a.Conditions, a.Actions, a.Active))
}

func (r *Repository) SetActive(ctx context.Context, id, franchiseID uuid.UUID, active bool) (Automation, error) {
	return scanAutomation(r.pool.QueryRow(ctx, `
		UPDATE automations SET active = $3, updated_at = now()
		WHERE id = $1 AND franchise_id = $2
		RETURNING `+automationColumns,
		id, franchiseID, active))
}

func (r *Repository) Delete(ctx context.Context, id, franchiseID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM automations WHERE id = $1 AND franchise_id = $2`, id, franchiseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) InsertLog(ctx context.Context, l Log) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO automation_logs (id, automation_id, lead_id, franchise_id, action_type, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.AutomationID, l.LeadID, l.FranchiseID, l.ActionType, l.Status, l.ErrorMessage)
	return err
}

type LogFilter struct {
	FranchiseID  uuid.UUID
	AutomationID *uuid.UUID
	LeadID       *uuid.UUID
	Status       *string
	Limit        int
}

func (r *Repository) ListLogs(ctx context.Context, f LogFilter) ([]Log, error) {
	where := []string{"franchise_id = $1"}
	args := []interface{}{f.FranchiseID}
	if f.AutomationID != nil {
		args = append(args, *f.AutomationID)
		where = append(where, fmt.Sprintf("automation_id = $%d", len(args)))
	}
	if f.LeadID != nil {
		args = append(args, *f.LeadID)
		where = append(where, fmt.Sprintf("lead_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	args = append(args, f.Limit)

	rows, err := r.pool.Query(ctx, `
		SELECT id, automation_id, lead_id, franchise_id, action_type, status, error_message, created_at
		FROM automation_logs
		WHERE `+strings.Join(where, " AND ")+fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d`, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list automation logs: %w", err)
	}
	defer rows.Close()

	items := make([]Log, 0)
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.AutomationID, &l.LeadID, &l.FranchiseID, &l.ActionType, &l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan automation log: %w", err)
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (r *Repository) InsertInteraction(ctx context.Context, i Interaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interactions (id, franchise_id, lead_id, automation_id, type, content)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, i.ID, i.FranchiseID, i.LeadID, i.AutomationID, i.Type, i.Content)
	return err
}

func (r *Repository) ListInteractions(ctx context.Context, franchiseID, leadID uuid.UUID) ([]Interaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, franchise_id, lead_id, automation_id, type, content, created_at
		FROM interactions
		WHERE franchise_id = $1 AND lead_id = $2
		ORDER BY created_at DESC
	`, franchiseID, leadID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	items := make([]Interaction, 0)
	for rows.Next() {
		var i Interaction
		if err := rows.Scan(&i.ID, &i.FranchiseID, &i.LeadID, &i.AutomationID, &i.Type, &i.Content, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
