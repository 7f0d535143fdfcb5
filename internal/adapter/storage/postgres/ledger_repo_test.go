package postgres

import (
	"context"
	"testing"
	"time"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(walletID uuid.UUID) *domain.LedgerTransaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.LedgerTransaction{
		ID:              uuid.New(),
		OwnerType:       domain.OwnerWallet,
		OwnerID:         walletID,
		Type:            domain.TransactionTypeDeposit,
		Status:          domain.TransactionStatusCompleted,
		Amount:          decimal.RequireFromString("100.00"),
		BalanceBefore:   decimal.Zero,
		BalanceAfter:    decimal.RequireFromString("100.00"),
		PaymentMethod:   strPtr("cash"),
		Description:     "initial deposit",
		ProcessedBy:     uuid.New(),
		ProcessedByName: "Front Desk",
		CreatedAt:       now,
		CompletedAt:     &now,
	}
}

func ledgerTestColumns() []string {
	return []string{"id", "owner_type", "owner_id", "type", "status", "amount", "balance_before", "balance_after",
		"reference_id", "reference_type", "payment_method", "description", "processed_by", "processed_by_name",
		"created_at", "completed_at"}
}

func ledgerRow(e *domain.LedgerTransaction) *pgxmock.Rows {
	var refID, refType *string
	if e.Reference != nil {
		refID, refType = &e.Reference.ID, &e.Reference.Type
	}
	return pgxmock.NewRows(ledgerTestColumns()).AddRow(
		e.ID, e.OwnerType, e.OwnerID, e.Type, e.Status,
		e.Amount, e.BalanceBefore, e.BalanceAfter,
		refID, refType, e.PaymentMethod, e.Description,
		e.ProcessedBy, e.ProcessedByName, e.CreatedAt, e.CompletedAt,
	)
}

func listParamsForWallet(walletID uuid.UUID, page, pageSize int) ports.LedgerListParams {
	return ports.LedgerListParams{WalletID: &walletID, Page: page, PageSize: pageSize}
}

func TestLedgerRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := newTestEntry(uuid.New())

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(
			e.ID, e.OwnerType, e.OwnerID, e.Type, e.Status,
			e.Amount, e.BalanceBefore, e.BalanceAfter,
			nil, nil, e.PaymentMethod, e.Description,
			e.ProcessedBy, e.ProcessedByName, e.CreatedAt, e.CompletedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_Create_WithReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := newTestEntry(uuid.New())
	e.Type = domain.TransactionTypePayment
	e.Reference = &domain.Reference{ID: "INV-2024-001", Type: "invoice"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(
			e.ID, e.OwnerType, e.OwnerID, e.Type, e.Status,
			e.Amount, e.BalanceBefore, e.BalanceAfter,
			&e.Reference.ID, &e.Reference.Type, e.PaymentMethod, e.Description,
			e.ProcessedBy, e.ProcessedByName, e.CreatedAt, e.CompletedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.Create(context.Background(), dbTx, e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	e := newTestEntry(uuid.New())
	e.Reference = &domain.Reference{ID: "INV-42", Type: "invoice"}

	mock.ExpectQuery("SELECT .+ FROM ledger_transactions WHERE id").
		WithArgs(e.ID).
		WillReturnRows(ledgerRow(e))

	result, err := repo.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, e.ID, result.ID)
	require.NotNil(t, result.Reference)
	assert.Equal(t, "INV-42", result.Reference.ID)
	assert.True(t, e.Amount.Equal(result.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	id := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM ledger_transactions WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(ledgerTestColumns()))

	result, err := repo.GetByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_List_ByWallet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	walletID := uuid.New()
	e1 := newTestEntry(walletID)
	e2 := newTestEntry(walletID)
	e2.Type = domain.TransactionTypePayment

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM ledger_transactions").
		WithArgs(walletID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	rows := ledgerRow(e1)
	var refID, refType *string
	rows.AddRow(
		e2.ID, e2.OwnerType, e2.OwnerID, e2.Type, e2.Status,
		e2.Amount, e2.BalanceBefore, e2.BalanceAfter,
		refID, refType, e2.PaymentMethod, e2.Description,
		e2.ProcessedBy, e2.ProcessedByName, e2.CreatedAt, e2.CompletedAt,
	)
	mock.ExpectQuery("SELECT .+ FROM ledger_transactions .+ ORDER BY created_at DESC").
		WithArgs(walletID, 20, 0).
		WillReturnRows(rows)

	entries, total, err := repo.List(context.Background(), listParamsForWallet(walletID, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, entries, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListByOwner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	shiftID := uuid.New()
	e := newTestEntry(shiftID)
	e.OwnerType = domain.OwnerShift
	e.Type = domain.TransactionTypeOpening

	mock.ExpectQuery("SELECT .+ FROM ledger_transactions WHERE owner_type .+ ORDER BY created_at ASC").
		WithArgs(domain.OwnerShift, shiftID).
		WillReturnRows(ledgerRow(e))

	entries, err := repo.ListByOwner(context.Background(), domain.OwnerShift, shiftID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.TransactionTypeOpening, entries[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_SumSigned(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	shiftID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(balance_after - balance_before\\), 0\\) FROM ledger_transactions").
		WithArgs(domain.OwnerShift, shiftID).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(decimal.RequireFromString("245.50")))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	sum, err := repo.SumSigned(context.Background(), dbTx, domain.OwnerShift, shiftID)
	require.NoError(t, err)
	assert.True(t, sum.Equal(decimal.RequireFromString("245.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}
