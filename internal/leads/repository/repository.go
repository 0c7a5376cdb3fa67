package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dojoflow_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("lead not found")

	// Steps of the lead/guardian/student chain. Errors from CreateLeadChain
	// wrap exactly one of these.
	ErrLeadInsert     = errors.New("insert lead")
	ErrGuardianInsert = errors.New("insert guardian")
	ErrStudentInsert  = errors.New("insert student")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID          uuid.UUID
	FranchiseID uuid.UUID
	Status      string
	Source      *string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Guardian struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
}

type Student struct {
	ID              uuid.UUID
	GuardianID      uuid.UUID
	FranchiseID     uuid.UUID
	FirstName       string
	LastName        string
	DOB             *time.Time
	ProgramInterest []string
	CurrentBelt     string
}

// LeadChain is a lead with its guardian and students.
type LeadChain struct {
	Lead     Lead
	Guardian *Guardian
	Students []Student
}

// CreateLeadChainParams describes a new lead, its guardian and students.
type CreateLeadChainParams struct {
	FranchiseID uuid.UUID
	Source      *string
	Notes       *string
	Guardian    Guardian
	Students    []Student
}

// CreateLeadChain inserts the lead, guardian and students in one transaction.
func (r *Repository) CreateLeadChain(ctx context.Context, params CreateLeadChainParams) (LeadChain, error) {
	var chain LeadChain

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		lead := Lead{ID: uuid.New(), FranchiseID: params.FranchiseID, Source: params.Source, Notes: params.Notes}
		err := tx.QueryRow(ctx, `
			INSERT INTO leads (id, franchise_id, status, source, notes)
			VALUES ($1, $2, 'new', $3, $4)
			RETURNING status, created_at, updated_at
		`, lead.ID, lead.FranchiseID, lead.Source, lead.Notes).Scan(&lead.Status, &lead.CreatedAt, &lead.UpdatedAt)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLeadInsert, err)
		}

		guardian := params.Guardian
		guardian.ID = uuid.New()
		guardian.LeadID = lead.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO guardians (id, lead_id, first_name, last_name, email, phone)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, guardian.ID, guardian.LeadID, guardian.FirstName, guardian.LastName, guardian.Email, guardian.Phone); err != nil {
			return fmt.Errorf("%w: %w", ErrGuardianInsert, err)
		}

		students := make([]Student, 0, len(params.Students))
		for _, s := range params.Students {
			s.ID = uuid.New()
			s.GuardianID = guardian.ID
			s.FranchiseID = params.FranchiseID
			if s.ProgramInterest == nil {
				s.ProgramInterest = []string{}
			}
			if err := tx.QueryRow(ctx, `
				INSERT INTO students (id, franchise_id, guardian_id, first_name, last_name, dob, program_interest)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				RETURNING current_belt
			`, s.ID, s.FranchiseID, s.GuardianID, s.FirstName, s.LastName, s.DOB, s.ProgramInterest).Scan(&s.CurrentBelt); err != nil {
				return fmt.Errorf("%w: %w", ErrStudentInsert, err)
			}
			students = append(students, s)
		}

		chain = LeadChain{Lead: lead, Guardian: &guardian, Students: students}
		return nil
	})
	if err != nil {
		return LeadChain{}, err
	}
	return chain, nil
}

const leadColumns = `id, franchise_id, status, source, notes, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.FranchiseID, &l.Status, &l.Source, &l.Notes, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

func (r *Repository) GetByID(ctx context.Context, id, franchiseID uuid.UUID) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 AND franchise_id = $2`, id, franchiseID))
}

// GetLeadFranchiseID returns the owning franchise of a lead.
func (r *Repository) GetLeadFranchiseID(ctx context.Context, leadID uuid.UUID) (uuid.UUID, error) {
	var franchiseID uuid.UUID
	err := r.pool.QueryRow(ctx, `SELECT franchise_id FROM leads WHERE id = $1`, leadID).Scan(&franchiseID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.UUID{}, ErrNotFound
	}
	return franchiseID, err
}

func (r *Repository) UpdateLeadStatus(ctx context.Context, leadID uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leads SET status = $2, updated_at = now() WHERE id = $1`, leadID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type UpdateLeadParams struct {
	Source *string
	Notes  *string
}

// Update overwrites only the non-nil fields.
func (r *Repository) Update(ctx context.Context, id, franchiseID uuid.UUID, params UpdateLeadParams) (Lead, error) {
	return scanLead(r.pool.QueryRow(ctx, `
		UPDATE leads SET
			source = COALESCE($3, source),
			notes = COALESCE($4, notes),
			updated_at = now()
		WHERE id = $1 AND franchise_id = $2
		RETURNING `+leadColumns,
		id, franchiseID, params.Source, params.Notes))
}

func (r *Repository) Delete(ctx context.Context, id, franchiseID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1 AND franchise_id = $2`, id, franchiseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListParams struct {
	FranchiseID uuid.UUID
	Status      *string
	Search      string
	Offset      int
	Limit       int
}

// ListItem is a lead row joined with its guardian's name and contact.
type ListItem struct {
	Lead
	GuardianName  *string
	GuardianEmail *string
	GuardianPhone *string
	StudentCount  int
}

func (r *Repository) List(ctx context.Context, params ListParams) ([]ListItem, int, error) {
	where := []string{"l.franchise_id = $1"}
	args := []interface{}{params.FranchiseID}

	if params.Status != nil {
		args = append(args, *params.Status)
		where = append(where, fmt.Sprintf("l.status = $%d", len(args)))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(g.first_name ILIKE $%d OR g.last_name ILIKE $%d OR g.email ILIKE $%d OR g.phone ILIKE $%d OR l.notes ILIKE $%d)",
			n, n, n, n, n))
	}
	whereSQL := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads l
		LEFT JOIN LATERAL (SELECT * FROM guardians WHERE lead_id = l.id ORDER BY created_at LIMIT 1) g ON true
		WHERE `+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.franchise_id, l.status, l.source, l.notes, l.created_at, l.updated_at,
			NULLIF(TRIM(g.first_name || ' ' || g.last_name), ''), g.email, g.phone,
			(SELECT COUNT(*) FROM students s WHERE s.guardian_id = g.id)
		FROM leads l
		LEFT JOIN LATERAL (SELECT * FROM guardians WHERE lead_id = l.id ORDER BY created_at LIMIT 1) g ON true
		WHERE `+whereSQL+fmt.Sprintf(`
		ORDER BY l.created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	items := make([]ListItem, 0)
	for rows.Next() {
		var item ListItem
		if err := rows.Scan(
			&item.ID, &item.FranchiseID, &item.Status, &item.Source, &item.Notes, &item.CreatedAt, &item.UpdatedAt,
			&item.GuardianName, &item.GuardianEmail, &item.GuardianPhone, &item.StudentCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetChain loads a lead with its first guardian and that guardian's students.
// leadID alone identifies the lead; franchiseID is checked when non-nil.
func (r *Repository) GetChain(ctx context.Context, leadID uuid.UUID, franchiseID *uuid.UUID) (LeadChain, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	args := []interface{}{leadID}
	if franchiseID != nil {
		query += ` AND franchise_id = $2`
		args = append(args, *franchiseID)
	}
	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return LeadChain{}, err
	}

	chain := LeadChain{Lead: lead, Students: []Student{}}

	var g Guardian
	err = r.pool.QueryRow(ctx, `
		SELECT id, lead_id, first_name, last_name, email, phone
		FROM guardians WHERE lead_id = $1
		ORDER BY created_at
		LIMIT 1
	`, leadID).Scan(&g.ID, &g.LeadID, &g.FirstName, &g.LastName, &g.Email, &g.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return chain, nil
	}
	if err != nil {
		return LeadChain{}, fmt.Errorf("load guardian: %w", err)
	}
	chain.Guardian = &g

	rows, err := r.pool.Query(ctx, `
		SELECT id, guardian_id, franchise_id, first_name, last_name, dob, program_interest, current_belt
		FROM students WHERE guardian_id = $1
		ORDER BY created_at
	`, g.ID)
	if err != nil {
		return LeadChain{}, fmt.Errorf("load students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.GuardianID, &s.FranchiseID, &s.FirstName, &s.LastName, &s.DOB, &s.ProgramInterest, &s.CurrentBelt); err != nil {
			return LeadChain{}, fmt.Errorf("scan student: %w", err)
		}
		chain.Students = append(chain.Students, s)
	}
	return chain, rows.Err()
}
