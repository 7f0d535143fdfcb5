package ports

import (
	"context"
	"time"

	"clinic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=repositories.go -destination=mocks/repositories_mock.go -package=mocks

// WalletRepository defines persistence operations for patient wallets.
// Methods accepting pgx.Tx run inside transaction blocks; the ForUpdate
// variants take a row-level lock so the read-modify-write is serialized
// per wallet.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error)
	GetByPatientID(ctx context.Context, patientID uuid.UUID) (*domain.Wallet, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error)
	// Update persists balance, running aggregates, activity flags and
	// last_transaction_at. It never touches patient_id or created_at.
	Update(ctx context.Context, tx pgx.Tx, wallet *domain.Wallet) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

// LedgerRepository defines persistence for the append-only transaction log.
// There are deliberately no update or delete operations.
type LedgerRepository interface {
	Create(ctx context.Context, tx pgx.Tx, entry *domain.LedgerTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerTransaction, error)
	List(ctx context.Context, params LedgerListParams) ([]domain.LedgerTransaction, int64, error)
	ListByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) ([]domain.LedgerTransaction, error)
	CountByOwner(ctx context.Context, ownerType domain.OwnerType, ownerID uuid.UUID) (int64, error)
	// SumSigned returns Σ(balance_after − balance_before) over an owner's
	// entries, read inside the caller's transaction. It is the canonical
	// expected-cash computation for shift reconciliation.
	SumSigned(ctx context.Context, tx pgx.Tx, ownerType domain.OwnerType, ownerID uuid.UUID) (decimal.Decimal, error)
}

// LedgerListParams holds filters + pagination for listing ledger entries.
type LedgerListParams struct {
	WalletID  *uuid.UUID
	PatientID *uuid.UUID
	Type      *domain.TransactionType
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// ShiftRepository defines persistence operations for staff shifts. The
// storage layer owns the "one ACTIVE shift per staff member" invariant via a
// partial unique index and reports violations as domain.ErrDuplicateActiveShift.
type ShiftRepository interface {
	Create(ctx context.Context, shift *domain.Shift) error
	CreateInTx(ctx context.Context, tx pgx.Tx, shift *domain.Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Shift, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Shift, error)
	GetActiveByStaff(ctx context.Context, staffID uuid.UUID) (*domain.Shift, error)
	Update(ctx context.Context, tx pgx.Tx, shift *domain.Shift) error
}

// HandoverRepository defines persistence operations for cash handovers.
// Complete performs a guarded transition (status must still be PENDING) and
// reports a lost race as domain.ErrHandoverNotPending.
type HandoverRepository interface {
	Create(ctx context.Context, handover *domain.CashHandover) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CashHandover, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.CashHandover, error)
	Complete(ctx context.Context, tx pgx.Tx, handover *domain.CashHandover) error
	ListPending(ctx context.Context, toStaffID uuid.UUID) ([]domain.CashHandover, error)
}

// AuditRepository defines persistence for audit log entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
