package postgres

import (
	"context"
	"testing"
	"time"

	"clinic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestWallet(patientID uuid.UUID) *domain.Wallet {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Wallet{
		ID:               uuid.New(),
		PatientID:        patientID,
		Balance:          decimal.RequireFromString("150.00"),
		TotalDeposits:    decimal.RequireFromString("200.00"),
		TotalWithdrawals: decimal.Zero,
		TotalPayments:    decimal.RequireFromString("50.00"),
		TotalRefunds:     decimal.Zero,
		IsActive:         true,
		AutoPayEnabled:   false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func walletTestColumns() []string {
	return []string{"id", "patient_id", "balance", "total_deposits", "total_withdrawals", "total_payments",
		"total_refunds", "is_active", "auto_pay_enabled", "low_balance_alert", "last_transaction_at",
		"created_at", "updated_at"}
}

func walletRow(w *domain.Wallet) *pgxmock.Rows {
	return pgxmock.NewRows(walletTestColumns()).AddRow(
		w.ID, w.PatientID, w.Balance, w.TotalDeposits, w.TotalWithdrawals,
		w.TotalPayments, w.TotalRefunds, w.IsActive, w.AutoPayEnabled,
		w.LowBalanceAlert, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt,
	)
}

func TestWalletRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(w.ID, w.PatientID, w.Balance, w.TotalDeposits, w.TotalWithdrawals,
			w.TotalPayments, w.TotalRefunds, w.IsActive, w.AutoPayEnabled,
			w.LowBalanceAlert, w.LastTransactionAt, w.CreatedAt, w.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.True(t, w.Balance.Equal(result.Balance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(walletTestColumns()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByPatientID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallets WHERE patient_id").
		WithArgs(w.PatientID).
		WillReturnRows(walletRow(w))

	result, err := repo.GetByPatientID(context.Background(), w.PatientID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.PatientID, result.PatientID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetByIDForUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM wallets WHERE id = \\$1 FOR UPDATE").
		WithArgs(w.ID).
		WillReturnRows(walletRow(w))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	result, err := repo.GetByIDForUpdate(context.Background(), dbTx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, w.ID, result.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())
	now := time.Now().UTC()
	w.LastTransactionAt = &now

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET").
		WithArgs(w.Balance, w.TotalDeposits, w.TotalWithdrawals, w.TotalPayments,
			w.TotalRefunds, w.IsActive, w.AutoPayEnabled, w.LowBalanceAlert,
			w.LastTransactionAt, w.UpdatedAt, w.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), dbTx, w)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_Update_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	w := newTestWallet(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE wallets SET").
		WithArgs(w.Balance, w.TotalDeposits, w.TotalWithdrawals, w.TotalPayments,
			w.TotalRefunds, w.IsActive, w.AutoPayEnabled, w.LowBalanceAlert,
			w.LastTransactionAt, w.UpdatedAt, w.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Update(context.Background(), dbTx, w)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_SetActive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	id := uuid.New()

	mock.ExpectExec("UPDATE wallets SET is_active").
		WithArgs(false, id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.SetActive(context.Background(), id, false)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
