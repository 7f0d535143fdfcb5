package ports

import (
	"context"
	"time"

	"clinic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=services.go -destination=mocks/services_mock.go -package=mocks

// --- Wallet ---

// WalletService defines the patient wallet ledger operations. Every mutating
// operation executes as one atomic read-modify-write scoped to the wallet.
type WalletService interface {
	GetOrCreate(ctx context.Context, patientID uuid.UUID) (*domain.Wallet, error)
	GetByID(ctx context.Context, walletID uuid.UUID) (*domain.Wallet, error)
	Deposit(ctx context.Context, req DepositRequest) (*domain.LedgerTransaction, error)
	Withdraw(ctx context.Context, req WithdrawRequest) (*domain.LedgerTransaction, error)
	Pay(ctx context.Context, req PayRequest) (*domain.LedgerTransaction, error)
	Refund(ctx context.Context, req RefundRequest) (*domain.LedgerTransaction, error)
	Adjust(ctx context.Context, req AdjustRequest) (*domain.LedgerTransaction, error)
	SetActive(ctx context.Context, walletID uuid.UUID, active bool) error
	ListTransactions(ctx context.Context, params LedgerListParams) ([]domain.LedgerTransaction, int64, error)
	GetStats(ctx context.Context, walletID uuid.UUID) (*WalletStats, error)
}

// DepositRequest holds validated input for a wallet deposit.
type DepositRequest struct {
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Method      string
	Description string
	By          domain.Actor
}

// WithdrawRequest holds validated input for a wallet withdrawal.
type WithdrawRequest struct {
	WalletID    uuid.UUID
	Amount      decimal.Decimal
	Description string
	By          domain.Actor
}

// PayRequest holds validated input for an invoice settlement from a wallet.
type PayRequest struct {
	WalletID      uuid.UUID
	Amount        decimal.Decimal
	ReferenceID   string
	ReferenceType string
	Description   string
	By            domain.Actor
}

// RefundRequest holds validated input for a wallet refund.
type RefundRequest struct {
	WalletID      uuid.UUID
	Amount        decimal.Decimal
	ReferenceID   string // optional
	ReferenceType string // optional
	Description   string
	By            domain.Actor
}

// AdjustRequest holds validated input for a manual signed correction.
type AdjustRequest struct {
	WalletID     uuid.UUID
	SignedAmount decimal.Decimal
	Description  string
	By           domain.Actor
}

// WalletStats aggregates a wallet's ledger activity.
type WalletStats struct {
	WalletID          uuid.UUID        `json:"wallet_id"`
	Balance           decimal.Decimal  `json:"balance"`
	TotalDeposits     decimal.Decimal  `json:"total_deposits"`
	TotalWithdrawals  decimal.Decimal  `json:"total_withdrawals"`
	TotalPayments     decimal.Decimal  `json:"total_payments"`
	TotalRefunds      decimal.Decimal  `json:"total_refunds"`
	TransactionCount  int64            `json:"transaction_count"`
	LastTransactionAt *time.Time       `json:"last_transaction_at,omitempty"`
}

// --- Shift ---

// ShiftService defines the shift lifecycle and cash-drawer operations.
type ShiftService interface {
	Schedule(ctx context.Context, req ScheduleShiftRequest) (*domain.Shift, error)
	Start(ctx context.Context, shiftID uuid.UUID, openingCash decimal.Decimal, by domain.Actor) (*domain.Shift, error)
	End(ctx context.Context, req EndShiftRequest) (*domain.Shift, error)
	Cancel(ctx context.Context, shiftID uuid.UUID, by domain.Actor) (*domain.Shift, error)
	GetByID(ctx context.Context, shiftID uuid.UUID) (*domain.Shift, error)
	GetActive(ctx context.Context, staffID uuid.UUID) (*domain.Shift, error)
	RecordCashIn(ctx context.Context, req CashMovementRequest) (*domain.LedgerTransaction, error)
	RecordCashOut(ctx context.Context, req CashMovementRequest) (*domain.LedgerTransaction, error)
	ListTransactions(ctx context.Context, shiftID uuid.UUID) ([]domain.LedgerTransaction, error)
}

// ScheduleShiftRequest holds validated input for scheduling a shift.
type ScheduleShiftRequest struct {
	StaffID        uuid.UUID
	ShiftType      string
	ScheduledStart time.Time
	ScheduledEnd   time.Time
}

// EndShiftRequest holds validated input for ending an active shift.
type EndShiftRequest struct {
	ShiftID          uuid.UUID
	ClosingCash      decimal.Decimal
	DiscrepancyNotes *string
	By               domain.Actor
}

// CashMovementRequest holds validated input for an interim drawer movement.
type CashMovementRequest struct {
	ShiftID       uuid.UUID
	Amount        decimal.Decimal
	ReferenceID   string // optional
	ReferenceType string // optional
	Description   string
	By            domain.Actor
}

// --- Handover ---

// HandoverService defines the cash-custody handover protocol.
type HandoverService interface {
	Initiate(ctx context.Context, req InitiateHandoverRequest) (*domain.CashHandover, error)
	Receive(ctx context.Context, req ReceiveHandoverRequest) (*domain.CashHandover, *domain.Shift, error)
	ListPending(ctx context.Context, toStaffID uuid.UUID) ([]domain.CashHandover, error)
}

// InitiateHandoverRequest holds validated input for starting a handover.
type InitiateHandoverRequest struct {
	FromStaffID uuid.UUID
	ToStaffID   uuid.UUID
	FromShiftID uuid.UUID
	Notes       *string
}

// ReceiveHandoverRequest holds validated input for completing a handover.
type ReceiveHandoverRequest struct {
	HandoverID       uuid.UUID
	ByStaff          domain.Actor
	ConfirmedCash    decimal.Decimal
	DiscrepancyNotes *string
	// Scheduled window for the shift the receive opens.
	ScheduledEnd time.Time
	ShiftType    string
}

// --- Supporting services ---

// TokenService verifies staff-identity bearer tokens minted by the clinic
// application. Generate exists for tooling and tests; the core never issues
// sessions of its own.
type TokenService interface {
	Generate(staffID uuid.UUID, staffName string) (string, time.Time, error)
	Validate(tokenString string) (*StaffClaims, error)
}

// StaffClaims holds the parsed staff token claims.
type StaffClaims struct {
	StaffID   uuid.UUID
	StaffName string
}

// AuditService records audited API actions.
type AuditService interface {
	Log(ctx context.Context, entry *domain.AuditLog)
}

// StatsCache is a best-effort read-side cache for wallet stats.
type StatsCache interface {
	Get(ctx context.Context, walletID uuid.UUID) ([]byte, error) // nil on miss
	Set(ctx context.Context, walletID uuid.UUID, value []byte, ttl time.Duration) error
}
