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
	ErrNotFound        = errors.New("student not found")
	ErrPromotionInsert = errors.New("insert promotion")
)

type Student struct {
	ID                uuid.UUID
	FranchiseID       uuid.UUID
	GuardianID        uuid.UUID
	LeadID            uuid.UUID
	FirstName         string
	LastName          string
	DOB               *time.Time
	ProgramInterest   []string
	CurrentBelt       string
	LastPromotionDate *time.Time
	GuardianName      string
	CreatedAt         time.Time
}

type Promotion struct {
	ID         uuid.UUID
	StudentID  uuid.UUID
	BeltRank   string
	PromotedAt time.Time
	Notes      *string
	CreatedAt  time.Time
}

type PromoteParams struct {
	StudentID   uuid.UUID
	FranchiseID uuid.UUID
	BeltRank    string
	PromotedAt  time.Time
	Notes       *string
}

type ListParams struct {
	FranchiseID uuid.UUID
	Search      string
	Belt        string
	Limit       int
	Offset      int
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const studentSelect = `
	SELECT s.id, s.franchise_id, s.guardian_id, g.lead_id, s.first_name, s.last_name, s.dob,
		s.program_interest, s.current_belt, s.last_promotion_date,
		TRIM(g.first_name || ' ' || g.last_name), s.created_at
	FROM students s
	JOIN guardians g ON g.id = s.guardian_id`

func scanStudent(row pgx.Row) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.FranchiseID, &s.GuardianID, &s.LeadID, &s.FirstName, &s.LastName, &s.DOB,
		&s.ProgramInterest, &s.CurrentBelt, &s.LastPromotionDate, &s.GuardianName, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	return s, err
}

func (r *Repository) Get(ctx context.Context, id, franchiseID uuid.UUID) (Student, error) {
	return scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.id = $1 AND s.franchise_id = $2`, id, franchiseID))
}

// List returns one page of students and the total match count.
func (r *Repository) List(ctx context.Context, p ListParams) ([]Student, int, error) {
	where := []string{"s.franchise_id = $1"}
	args := []interface{}{p.FranchiseID}

	if search := strings.TrimSpace(p.Search); search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, fmt.Sprintf("(s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR g.first_name ILIKE $%d OR g.last_name ILIKE $%d)",
			len(args), len(args), len(args), len(args)))
	}
	if p.Belt != "" {
		args = append(args, p.Belt)
		where = append(where, fmt.Sprintf("s.current_belt = $%d", len(args)))
	}
	filter := " WHERE " + strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students s JOIN guardians g ON g.id = s.guardian_id`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	args = append(args, p.Limit, p.Offset)
	rows, err := r.pool.Query(ctx, studentSelect+filter+
		fmt.Sprintf(" ORDER BY s.last_name, s.first_name LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	items := make([]Student, 0)
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan student: %w", err)
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *Repository) ListPromotions(ctx context.Context, studentID uuid.UUID) ([]Promotion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_id, belt_rank, promoted_at, notes, created_at
		FROM promotions
		WHERE student_id = $1
		ORDER BY promoted_at DESC, created_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	defer rows.Close()

	items := make([]Promotion, 0)
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.StudentID, &p.BeltRank, &p.PromotedAt, &p.Notes, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan promotion: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// Promote records a promotion and moves the student to the new belt in one
// transaction. A failed insert leaves the student untouched.
func (r *Repository) Promote(ctx context.Context, p PromoteParams) (Promotion, error) {
	promo := Promotion{ID: uuid.New(), StudentID: p.StudentID, BeltRank: p.BeltRank, PromotedAt: p.PromotedAt, Notes: p.Notes}

	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT true FROM students WHERE id = $1 AND franchise_id = $2 FOR UPDATE`,
			p.StudentID, p.FranchiseID).Scan(&exists); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock student: %w", err)
		}

		if err := tx.QueryRow(ctx, `
			INSERT INTO promotions (id, student_id, belt_rank, promoted_at, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at`,
			promo.ID, promo.StudentID, promo.BeltRank, promo.PromotedAt, promo.Notes).Scan(&promo.CreatedAt); err != nil {
			return fmt.Errorf("%w: %w", ErrPromotionInsert, err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE students SET current_belt = $2, last_promotion_date = $3 WHERE id = $1`,
			p.StudentID, p.BeltRank, p.PromotedAt); err != nil {
			return fmt.Errorf("update student belt: %w", err)
		}
		return nil
	})
	if err != nil {
		return Promotion{}, err
	}
	return promo, nil
}
