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

const handoverColumns = `id, from_staff_id, to_staff_id, from_shift_id, to_shift_id, status,
	declared_cash, confirmed_cash, discrepancy, notes, discrepancy_notes, handover_time, created_at`

// HandoverRepo implements ports.HandoverRepository.
type HandoverRepo struct {
	pool Pool
}

// NewHandoverRepo creates a new HandoverRepo.
func NewHandoverRepo(pool Pool) *HandoverRepo {
	return &HandoverRepo{pool: pool}
}

// Create inserts a new pending handover. The partial unique index on
// from_shift_id keeps a shift from carrying two pending handovers at once and
// reports the violation as domain.ErrDuplicatePendingHandover.
func (r *HandoverRepo) Create(ctx context.Context, h *domain.CashHandover) error {
	query := `INSERT INTO cash_handovers (id, from_staff_id, to_staff_id, from_shift_id, to_shift_id, status,
		declared_cash, confirmed_cash, discrepancy, notes, discrepancy_notes, handover_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		h.ID, h.FromStaffID, h.ToStaffID, h.FromShiftID, h.ToShiftID, h.Status,
		h.DeclaredCash, h.ConfirmedCash, h.Discrepancy, h.Notes, h.DiscrepancyNotes,
		h.HandoverTime, h.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicatePendingHandover
		}
		return fmt.Errorf("insert handover: %w", err)
	}
	return nil
}

// GetByID fetches a handover by its UUID (without locking).
func (r *HandoverRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CashHandover, error) {
	query := fmt.Sprintf(`SELECT %s FROM cash_handovers WHERE id = $1`, handoverColumns)
	return scanHandover(r.pool.QueryRow(ctx, query, id))
}

// GetByIDForUpdate fetches a handover by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *HandoverRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CashHandover, error) {
	query := fmt.Sprintf(`SELECT %s FROM cash_handovers WHERE id = $1 FOR UPDATE`, handoverColumns)
	return scanHandover(tx.QueryRow(ctx, query, id))
}

// Complete persists the PENDING -> COMPLETED transition. The status guard in
// the WHERE clause makes the transition single-shot even without the row
// lock: a second receive matches zero rows and reports ErrHandoverNotPending.
func (r *HandoverRepo) Complete(ctx context.Context, tx pgx.Tx, h *domain.CashHandover) error {
	query := `UPDATE cash_handovers SET status = $1, to_shift_id = $2, confirmed_cash = $3, discrepancy = $4,
		discrepancy_notes = $5, handover_time = $6 WHERE id = $7 AND status = 'PENDING'`

	tag, err := tx.Exec(ctx, query,
		h.Status, h.ToShiftID, h.ConfirmedCash, h.Discrepancy,
		h.DiscrepancyNotes, h.HandoverTime, h.ID,
	)
	if err != nil {
		return fmt.Errorf("complete handover: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrHandoverNotPending
	}
	return nil
}

// ListPending fetches pending handovers addressed to a staff member, oldest first.
func (r *HandoverRepo) ListPending(ctx context.Context, toStaffID uuid.UUID) ([]domain.CashHandover, error) {
	query := fmt.Sprintf(`SELECT %s FROM cash_handovers WHERE to_staff_id = $1 AND status = 'PENDING' ORDER BY created_at ASC`, handoverColumns)

	rows, err := r.pool.Query(ctx, query, toStaffID)
	if err != nil {
		return nil, fmt.Errorf("list pending handovers: %w", err)
	}
	defer rows.Close()

	var handovers []domain.CashHandover
	for rows.Next() {
		h := domain.CashHandover{}
		err := rows.Scan(
			&h.ID, &h.FromStaffID, &h.ToStaffID, &h.FromShiftID, &h.ToShiftID, &h.Status,
			&h.DeclaredCash, &h.ConfirmedCash, &h.Discrepancy, &h.Notes, &h.DiscrepancyNotes,
			&h.HandoverTime, &h.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan handover row: %w", err)
		}
		handovers = append(handovers, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate handover rows: %w", err)
	}
	return handovers, nil
}

func scanHandover(row pgx.Row) (*domain.CashHandover, error) {
	h := &domain.CashHandover{}
	err := row.Scan(
		&h.ID, &h.FromStaffID, &h.ToStaffID, &h.FromShiftID, &h.ToShiftID, &h.Status,
		&h.DeclaredCash, &h.ConfirmedCash, &h.Discrepancy, &h.Notes, &h.DiscrepancyNotes,
		&h.HandoverTime, &h.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan handover: %w", err)
	}
	return h, nil
}
