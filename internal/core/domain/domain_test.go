package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

var testActor = Actor{ID: uuid.New(), Name: "Front Desk"}

func TestNewDeposit_BalanceInvariant(t *testing.T) {
	walletID := uuid.New()
	e := NewDeposit(walletID, dec("60"), dec("10"), "cash", "top-up", testActor)

	assert.Equal(t, TransactionTypeDeposit, e.Type)
	assert.Equal(t, TransactionStatusCompleted, e.Status)
	assert.True(t, e.BalanceAfter.Equal(dec("70")))
	assert.True(t, e.SignedAmount().Equal(dec("10")))
	require.NotNil(t, e.PaymentMethod)
	assert.Equal(t, "cash", *e.PaymentMethod)
	require.NotNil(t, e.CompletedAt)
}

func TestNewWithdrawal_BalanceInvariant(t *testing.T) {
	e := NewWithdrawal(uuid.New(), dec("100"), dec("40"), "cash out", testActor)
	assert.True(t, e.BalanceAfter.Equal(dec("60")))
	assert.True(t, e.SignedAmount().Equal(dec("-40")))
}

func TestNewPayment_CarriesReference(t *testing.T) {
	e := NewPayment(uuid.New(), dec("100"), dec("40"), Reference{ID: "INV-1", Type: "invoice"}, "invoice settlement", testActor)
	require.NotNil(t, e.Reference)
	assert.Equal(t, "INV-1", e.Reference.ID)
	assert.True(t, e.BalanceAfter.Equal(dec("60")))
}

func TestNewAdjustment_SignedAmount(t *testing.T) {
	up := NewAdjustment(uuid.New(), dec("10"), dec("2.50"), "correction", testActor)
	assert.True(t, up.BalanceAfter.Equal(dec("12.5")))
	assert.True(t, up.Amount.Equal(dec("2.5"))) // magnitude stored unsigned

	down := NewAdjustment(uuid.New(), dec("10"), dec("-3"), "correction", testActor)
	assert.True(t, down.BalanceAfter.Equal(dec("7")))
	assert.True(t, down.Amount.Equal(dec("3")))
	assert.True(t, down.SignedAmount().Equal(dec("-3")))
}

func TestNewClosing_SignedAmountIsDiscrepancy(t *testing.T) {
	e := NewClosing(uuid.New(), dec("200"), dec("250"), testActor)
	assert.True(t, e.SignedAmount().Equal(dec("50")))
	assert.True(t, e.BalanceAfter.Equal(dec("250")))
}

func TestNewHandoverOut_EmptiesDrawer(t *testing.T) {
	handoverID := uuid.New()
	e := NewHandoverOut(uuid.New(), dec("295"), handoverID, testActor)
	assert.True(t, e.BalanceAfter.IsZero())
	assert.True(t, e.Amount.Equal(dec("295")))
	require.NotNil(t, e.Reference)
	assert.Equal(t, handoverID.String(), e.Reference.ID)
	assert.Equal(t, "handover", e.Reference.Type)
}

func TestNewHandoverIn_OpensDrawer(t *testing.T) {
	e := NewHandoverIn(uuid.New(), dec("295"), uuid.New(), testActor)
	assert.True(t, e.BalanceBefore.IsZero())
	assert.True(t, e.BalanceAfter.Equal(dec("295")))
}

func TestWallet_Apply_Aggregates(t *testing.T) {
	w := NewWallet(uuid.New())

	d := NewDeposit(w.ID, w.Balance, dec("100"), "cash", "", testActor)
	w.Apply(d)
	assert.True(t, w.Balance.Equal(dec("100")))
	assert.True(t, w.TotalDeposits.Equal(dec("100")))

	p := NewPayment(w.ID, w.Balance, dec("40"), Reference{ID: "INV-1", Type: "invoice"}, "", testActor)
	w.Apply(p)
	assert.True(t, w.Balance.Equal(dec("60")))
	assert.True(t, w.TotalPayments.Equal(dec("40")))

	r := NewRefund(w.ID, w.Balance, dec("10"), nil, "", testActor)
	w.Apply(r)
	assert.True(t, w.Balance.Equal(dec("70")))
	assert.True(t, w.TotalRefunds.Equal(dec("10")))
	require.NotNil(t, w.LastTransactionAt)
}

func TestWallet_BelowAlertThreshold(t *testing.T) {
	w := NewWallet(uuid.New())
	assert.False(t, w.BelowAlertThreshold()) // no threshold configured

	threshold := dec("50")
	w.LowBalanceAlert = &threshold
	w.Balance = dec("20")
	assert.True(t, w.BelowAlertThreshold())

	w.Balance = dec("50")
	assert.False(t, w.BelowAlertThreshold())
}

func TestShift_Transitions(t *testing.T) {
	now := time.Now().UTC()
	s := NewScheduledShift(uuid.New(), "morning", now, now.Add(8*time.Hour))

	assert.True(t, s.CanStart())
	assert.False(t, s.CanEnd())
	assert.True(t, s.CanCancel())

	s.Activate(dec("200"), now)
	assert.Equal(t, ShiftStatusActive, s.Status)
	assert.False(t, s.CanStart())
	assert.True(t, s.CanEnd())
	require.NotNil(t, s.ActualStart)
	assert.True(t, s.CashBalance.Equal(dec("200")))

	s.Complete(dec("200"), dec("250"), nil, now.Add(8*time.Hour))
	assert.Equal(t, ShiftStatusCompleted, s.Status)
	assert.True(t, s.IsTerminal())
	require.NotNil(t, s.CashDiscrepancy)
	assert.True(t, s.CashDiscrepancy.Equal(dec("50")))
	require.NotNil(t, s.ActualEnd)
	assert.False(t, s.CanCancel())
}

func TestShift_Cancel(t *testing.T) {
	now := time.Now().UTC()
	s := NewScheduledShift(uuid.New(), "evening", now, now.Add(8*time.Hour))
	s.Cancel(now)
	assert.Equal(t, ShiftStatusCancelled, s.Status)
	assert.True(t, s.IsTerminal())
	assert.Nil(t, s.ActualStart)
}

func TestCashHandover_Complete(t *testing.T) {
	h := NewCashHandover(uuid.New(), uuid.New(), uuid.New(), dec("300"), nil)
	assert.True(t, h.IsPending())
	assert.Nil(t, h.ToShiftID)

	toShift := uuid.New()
	notes := "missing change float"
	h.Complete(toShift, dec("295"), &notes, time.Now().UTC())

	assert.False(t, h.IsPending())
	require.NotNil(t, h.ToShiftID)
	assert.Equal(t, toShift, *h.ToShiftID)
	require.NotNil(t, h.Discrepancy)
	assert.True(t, h.Discrepancy.Equal(dec("-5")))
}
