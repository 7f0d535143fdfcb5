package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const ledgerColumns = `id, owner_type, owner_id, type, status, amount, balance_before, balance_after,
	reference_id, reference_type, payment_method, description, processed_by, processed_by_name, created_at, completed_at`

// LedgerRepo implements ports.LedgerRepository. The table is append-only:
// there are no UPDATE or DELETE statements in this file on purpose.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// Create inserts a ledger entry within a database transaction.
func (r *LedgerRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.LedgerTransaction) error {
	query := `INSERT INTO ledger_transactions (id, owner_type, owner_id, type, status, amount, balance_before, balance_after,
		reference_id, reference_type, payment_method, description, processed_by, processed_by_name, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	var refID, refType *string
	if e.Reference != nil {
		refID, refType = &e.Reference.ID, &e.Reference.Type
	}

	_, err := tx.Exec(ctx, query,
		e.ID, e.OwnerType, e.OwnerID, e.Type, e.Status,
		e.Amount, e.BalanceBefore, e.BalanceAfter,
		refID, refType, e.PaymentMethod, e.Description,
		e.ProcessedBy, e.ProcessedByName, e.CreatedAt, e.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// GetByID fetches a ledger entry by UUID.
func (r *LedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_transactions WHERE id = $1`, ledgerColumns)
	return scanLedgerEntry(r.pool.QueryRow(ctx, query, id))
}

// List fetches ledger entries with filtering and pagination.
func (r *LedgerRepo) List(ctx context.Context, params ports.LedgerListParams) ([]domain.LedgerTransaction, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.WalletID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_type = 'WALLET' AND owner_id = $%d", argIdx))
		args = append(args, *params.WalletID)
		argIdx++
	}
	if params.PatientID != nil {
		conditions = append(conditions, fmt.Sprintf("owner_type = 'WALLET' AND owner_id IN (SELECT id FROM wallets WHERE patient_id = $%d)", argIdx))
		args = append(args, *params.PatientID)
		argIdx++
	}
	if params.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIdx))
		args = append(args, *params.Type)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM ledger_transactions %s", where)
	var total int64
	err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count ledger entries: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM ledger_transactions %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		ledgerColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListByOwner fetches all of an owner's entries in chronological order.
func (r *LedgerRepo) ListByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) ([]domain.LedgerTransaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM ledger_transactions WHERE owner_type = $1 AND owner_id = $2 ORDER BY created_at ASC`, ledgerColumns)

	rows, err := r.pool.Query(ctx, query, ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by owner: %w", err)
	}
	defer rows.Close()

	return collectLedgerEntries(rows)
}

// CountByOwner counts an owner's entries.
func (r *LedgerRepo) CountByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM ledger_transactions WHERE owner_type = $1 AND owner_id = $2`

	var count int64
	if err := r.pool.QueryRow(ctx, query, ownerType, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count ledger entries by owner: %w", err)
	}
	return count, nil
}

// SumSigned computes the owner's recorded balance from its entries, inside
// the caller's transaction so the result is consistent with held row locks.
func (r *LedgerRepo) SumSigned(ctx context.Context, tx pgx.Tx, ownerType domain.OwnerType, ownerID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(balance_after - balance_before), 0) FROM ledger_transactions WHERE owner_type = $1 AND owner_id = $2`

	var sum decimal.Decimal
	if err := tx.QueryRow(ctx, query, ownerType, ownerID).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger entries: %w", err)
	}
	return sum, nil
}

func scanLedgerEntry(row pgx.Row) (*domain.LedgerTransaction, error) {
	e := &domain.LedgerTransaction{}
	var refID, refType *string
	err := row.Scan(
		&e.ID, &e.OwnerType, &e.OwnerID, &e.Type, &e.Status,
		&e.Amount, &e.BalanceBefore, &e.BalanceAfter,
		&refID, &refType, &e.PaymentMethod, &e.Description,
		&e.ProcessedBy, &e.ProcessedByName, &e.CreatedAt, &e.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}
	if refID != nil && refType != nil {
		e.Reference = &domain.Reference{ID: *refID, Type: *refType}
	}
	return e, nil
}

func collectLedgerEntries(rows pgx.Rows) ([]domain.LedgerTransaction, error) {
	var entries []domain.LedgerTransaction
	for rows.Next() {
		e := domain.LedgerTransaction{}
		var refID, refType *string
		err := rows.Scan(
			&e.ID, &e.OwnerType, &e.OwnerID, &e.Type, &e.Status,
			&e.Amount, &e.BalanceBefore, &e.BalanceAfter,
			&refID, &refType, &e.PaymentMethod, &e.Description,
			&e.ProcessedBy, &e.ProcessedByName, &e.CreatedAt, &e.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		if refID != nil && refType != nil {
			e.Reference = &domain.Reference{ID: *refID, Type: *refType}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger rows: %w", err)
	}
	return entries, nil
}
