package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet is a patient's internal stored-value balance. It is created lazily
// on the first ledger-affecting call and never deleted; deactivation is a
// soft flag so the audit history survives.
type Wallet struct {
	ID               uuid.UUID        `json:"id"`
	PatientID        uuid.UUID        `json:"patient_id"`
	Balance          decimal.Decimal  `json:"balance"`
	TotalDeposits    decimal.Decimal  `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal  `json:"total_withdrawals"`
	TotalPayments    decimal.Decimal  `json:"total_payments"`
	TotalRefunds     decimal.Decimal  `json:"total_refunds"`
	IsActive         bool             `json:"is_active"`
	AutoPayEnabled   bool             `json:"auto_pay_enabled"`
	LowBalanceAlert  *decimal.Decimal `json:"low_balance_alert,omitempty"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewWallet creates a fresh, active wallet with a zero balance.
func NewWallet(patientID uuid.UUID) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:               uuid.New(),
		PatientID:        patientID,
		Balance:          decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		TotalPayments:    decimal.Zero,
		TotalRefunds:     decimal.Zero,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Apply folds a completed ledger entry into the wallet: balance snapshot,
// running aggregate for the entry's type, and last-transaction timestamp.
// It must be persisted in the same transaction as the entry itself.
func (w *Wallet) Apply(t *LedgerTransaction) {
	w.Balance = t.BalanceAfter
	switch t.Type {
	case TransactionTypeDeposit:
		w.TotalDeposits = w.TotalDeposits.Add(t.Amount)
	case TransactionTypeWithdrawal:
		w.TotalWithdrawals = w.TotalWithdrawals.Add(t.Amount)
	case TransactionTypePayment:
		w.TotalPayments = w.TotalPayments.Add(t.Amount)
	case TransactionTypeRefund:
		w.TotalRefunds = w.TotalRefunds.Add(t.Amount)
	}
	w.LastTransactionAt = &t.CreatedAt
	w.UpdatedAt = t.CreatedAt
}

// BelowAlertThreshold reports whether the balance has fallen under the
// configured low-balance alert, if one is set.
func (w *Wallet) BelowAlertThreshold() bool {
	return w.LowBalanceAlert != nil && w.Balance.LessThan(*w.LowBalanceAlert)
}
