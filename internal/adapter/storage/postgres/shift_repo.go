package postgres

import (
	"context"
	"errors"
	"fmt"

	"clinic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const shiftColumns = `id, staff_id, status, shift_type, scheduled_start, scheduled_end, actual_start, actual_end,
	opening_cash, cash_balance, closing_cash, expected_cash, cash_discrepancy, discrepancy_notes, created_at, updated_at`

// uniqueViolation is the PostgreSQL error code raised by the partial unique
// index one_active_shift_per_staff.
const uniqueViolation = "23505"

// ShiftRepo implements ports.ShiftRepository.
type ShiftRepo struct {
	pool Pool
}

// NewShiftRepo creates a new ShiftRepo.
func NewShiftRepo(pool Pool) *ShiftRepo {
	return &ShiftRepo{pool: pool}
}

// Create inserts a new shift.
func (r *ShiftRepo) Create(ctx context.Context, s *domain.Shift) error {
	_, err := r.pool.Exec(ctx, insertShiftQuery, shiftArgs(s)...)
	if err != nil {
		return mapShiftError(err)
	}
	return nil
}

// CreateInTx inserts a new shift within a database transaction. A handover
// receive creates the incoming shift already ACTIVE, so the partial unique
// index can fire here too.
func (r *ShiftRepo) CreateInTx(ctx context.Context, tx pgx.Tx, s *domain.Shift) error {
	_, err := tx.Exec(ctx, insertShiftQuery, shiftArgs(s)...)
	if err != nil {
		return mapShiftError(err)
	}
	return nil
}

// GetByID fetches a shift by its UUID (without locking).
func (r *ShiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1`, shiftColumns)
	return scanShift(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a shift by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *ShiftRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1 FOR UPDATE`, shiftColumns)
	return scanShift(tx.QueryRow(ctx, query, id))
}

// GetActiveByStaff fetches a staff member's ACTIVE shift, if any.
func (r *ShiftRepo) GetActiveByStaff(ctx context.Context, staffID uuid.UUID) (*domain.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE staff_id = $1 AND status = 'ACTIVE'`, shiftColumns)
	return scanShift(r.pool.QueryRow(ctx, query, staffID))
}

// Update persists the shift's status, cash fields and timestamps within a
// transaction. The SCHEDULED -> ACTIVE transition can trip the partial unique
// index, which surfaces as domain.ErrDuplicateActiveShift.
func (r *ShiftRepo) Update(ctx context.Context, tx pgx.Tx, s *domain.Shift) error {
	query := `UPDATE shifts SET status = $1, actual_start = $2, actual_end = $3, opening_cash = $4, cash_balance = $5,
		closing_cash = $6, expected_cash = $7, cash_discrepancy = $8, discrepancy_notes = $9, updated_at = $10
		WHERE id = $11`

	tag, err := tx.Exec(ctx, query,
		s.Status, s.ActualStart, s.ActualEnd, s.OpeningCash, s.CashBalance,
		s.ClosingCash, s.ExpectedCash, s.CashDiscrepancy, s.DiscrepancyNotes,
		s.UpdatedAt, s.ID,
	)
	if err != nil {
		return mapShiftError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("shift not found: %s", s.ID)
	}
	return nil
}

const insertShiftQuery = `INSERT INTO shifts (id, staff_id, status, shift_type, scheduled_start, scheduled_end, actual_start, actual_end,
	opening_cash, cash_balance, closing_cash, expected_cash, cash_discrepancy, discrepancy_notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

func shiftArgs(s *domain.Shift) []any {
	return []any{
		s.ID, s.StaffID, s.Status, s.ShiftType, s.ScheduledStart, s.ScheduledEnd,
		s.ActualStart, s.ActualEnd, s.OpeningCash, s.CashBalance,
		s.ClosingCash, s.ExpectedCash, s.CashDiscrepancy, s.DiscrepancyNotes,
		s.CreatedAt, s.UpdatedAt,
	}
}

func mapShiftError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateActiveShift
	}
	return fmt.Errorf("write shift: %w", err)
}

func scanShift(row pgx.Row) (*domain.Shift, error) {
	s := &domain.Shift{}
	err := row.Scan(
		&s.ID, &s.StaffID, &s.Status, &s.ShiftType, &s.ScheduledStart, &s.ScheduledEnd,
		&s.ActualStart, &s.ActualEnd, &s.OpeningCash, &s.CashBalance,
		&s.ClosingCash, &s.ExpectedCash, &s.CashDiscrepancy, &s.DiscrepancyNotes,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan shift: %w", err)
	}
	return s, nil
}
