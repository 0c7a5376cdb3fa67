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

var ErrNotFound = errors.New("tour not found")

type Tour struct {
	ID          uuid.UUID
	FranchiseID uuid.UUID
	LeadID      uuid.UUID
	ScheduledAt time.Time
	Status      string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListItem is a tour with the guardian's display name.
type ListItem struct {
	Tour
	GuardianName *string
}

// ReminderContext is everything a tour reminder needs in one read.
type ReminderContext struct {
	Tour
	FranchiseName     string
	FranchiseSlug     string
	FranchiseSettings json.RawMessage
	GuardianFirstName *string
	GuardianEmail     *string
	GuardianPhone     *string
}

type ListParams struct {
	FranchiseID uuid.UUID
	LeadID      *uuid.UUID
	Status      *string
	From        *time.Time
	To          *time.Time
	Limit       int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tourColumns = `t.id, t.franchise_id, t.lead_id, t.scheduled_at, t.status, t.notes, t.created_at, t.updated_at`

func scanTour(row pgx.Row, extra ...any) (Tour, error) {
	var t Tour
	dest := append([]any{&t.ID, &t.FranchiseID, &t.LeadID, &t.ScheduledAt, &t.Status, &t.Notes, &t.CreatedAt, &t.UpdatedAt}, extra...)
	err := row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tour{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) Insert(ctx context.Context, t Tour) (Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, `
		INSERT INTO tours AS t (id, franchise_id, lead_id, scheduled_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+tourColumns,
		t.ID, t.FranchiseID, t.LeadID, t.ScheduledAt, t.Status, t.Notes))
}

func (r *Repository) Get(ctx context.Context, id, franchiseID uuid.UUID) (Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, `
		SELECT `+tourColumns+` FROM tours t WHERE t.id = $1 AND t.franchise_id = $2`, id, franchiseID))
}

func (r *Repository) UpdateStatus(ctx context.Context, id, franchiseID uuid.UUID, status string) (Tour, error) {
	return scanTour(r.pool.QueryRow(ctx, `
		UPDATE tours AS t SET status = $3, updated_at = now()
		WHERE t.id = $1 AND t.franchise_id = $2
		RETURNING `+tourColumns,
		id, franchiseID, status))
}

func (r *Repository) List(ctx context.Context, p ListParams) ([]ListItem, error) {
	where := []string{"t.franchise_id = $1"}
	args := []interface{}{p.FranchiseID}

	if p.LeadID != nil {
		args = append(args, *p.LeadID)
		where = append(where, fmt.Sprintf("t.lead_id = $%d", len(args)))
	}
	if p.Status != nil {
		args = append(args, *p.Status)
		where = append(where, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if p.From != nil {
		args = append(args, *p.From)
		where = append(where, fmt.Sprintf("t.scheduled_at >= $%d", len(args)))
	}
	if p.To != nil {
		args = append(args, *p.To)
		where = append(where, fmt.Sprintf("t.scheduled_at < $%d", len(args)))
	}
	args = append(args, p.Limit)

	rows, err := r.pool.Query(ctx, `
		SELECT `+tourColumns+`, NULLIF(TRIM(g.first_name || ' ' || g.last_name), '')
		FROM tours t
		LEFT JOIN LATERAL (
			SELECT first_name, last_name FROM guardians WHERE lead_id = t.lead_id ORDER BY created_at LIMIT 1
		) g ON true
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY t.scheduled_at ASC
		LIMIT $`+fmt.Sprint(len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("list tours: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		tour, err := scanTour(rows, &item.GuardianName)
		if err != nil {
			return nil, fmt.Errorf("scan tour: %w", err)
		}
		item.Tour = tour
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetReminderContext loads a tour with its franchise and first guardian. It
// is not franchise scoped: only the scheduler calls it.
func (r *Repository) GetReminderContext(ctx context.Context, tourID uuid.UUID) (ReminderContext, error) {
	var rc ReminderContext
	tour, err := scanTour(r.pool.QueryRow(ctx, `
		SELECT `+tourColumns+`, f.name, f.slug, f.settings, g.first_name, g.email, g.phone
		FROM tours t
		JOIN franchises f ON f.id = t.franchise_id
		LEFT JOIN LATERAL (
			SELECT first_name, email, phone FROM guardians WHERE lead_id = t.lead_id ORDER BY created_at LIMIT 1
		) g ON true
		WHERE t.id = $1`, tourID),
		&rc.FranchiseName, &rc.FranchiseSlug, &rc.FranchiseSettings, &rc.GuardianFirstName, &rc.GuardianEmail, &rc.GuardianPhone)
	if err != nil {
		return ReminderContext{}, err
	}
	rc.Tour = tour
	return rc, nil
}
