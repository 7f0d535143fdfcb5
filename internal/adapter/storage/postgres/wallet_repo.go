package postgres

import (
	"context"
	"errors"
	"fmt"

	"clinic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const walletColumns = `id, patient_id, balance, total_deposits, total_withdrawals, total_payments, total_refunds,
	is_active, auto_pay_enabled, low_balance_alert, last_transaction_at, created_at, updated_at`

// WalletRepo implements ports.WalletRepository.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, patient_id, balance, total_deposits, total_withdrawals, total_payments, total_refunds,
		is_active, auto_pay_enabled, low_balance_alert, last_transaction_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.PatientID, w.Balance, w.TotalDeposits, w.TotalWithdrawals,
		w.TotalPayments, w.TotalRefunds, w.IsActive, w.AutoPayEnabled,
		w.LowBalanceAlert, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE id = $1`, walletColumns)
	return scanWallet(r.pool.QueryRow(ctx, query, id))
}

// GetByPatientID fetches a wallet by patient ID (non-locking read).
func (r *WalletRepo) GetByPatientID(ctx context.Context, patientID uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE patient_id = $1`, walletColumns)
	return scanWallet(r.pool.QueryRow(ctx, query, patientID))
}

// GetByIDForUpdate fetches a wallet by ID with pessimistic locking.
// This MUST be called within a transaction.
func (r *WalletRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE id = $1 FOR UPDATE`, walletColumns)
	return scanWallet(tx.QueryRow(ctx, query, id))
}

// Update persists the wallet's balance, aggregates and flags within a
// transaction. patient_id and created_at are immutable and never written.
func (r *WalletRepo) Update(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets SET balance = $1, total_deposits = $2, total_withdrawals = $3, total_payments = $4,
		total_refunds = $5, is_active = $6, auto_pay_enabled = $7, low_balance_alert = $8,
		last_transaction_at = $9, updated_at = $10 WHERE id = $11`

	tag, err := tx.Exec(ctx, query,
		w.Balance, w.TotalDeposits, w.TotalWithdrawals, w.TotalPayments,
		w.TotalRefunds, w.IsActive, w.AutoPayEnabled, w.LowBalanceAlert,
		w.LastTransactionAt, w.UpdatedAt, w.ID,
	)
	if err != nil {
		return fmt.Errorf("update wallet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", w.ID)
	}
	return nil
}

// SetActive flips the wallet's soft activity flag.
func (r *WalletRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE wallets SET is_active = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set wallet active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", id)
	}
	return nil
}

func scanWallet(row pgx.Row) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	err := row.Scan(
		&w.ID, &w.PatientID, &w.Balance, &w.TotalDeposits, &w.TotalWithdrawals,
		&w.TotalPayments, &w.TotalRefunds, &w.IsActive, &w.AutoPayEnabled,
		&w.LowBalanceAlert, &w.LastTransactionAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
