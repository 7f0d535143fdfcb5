package service

import (
	"context"
	"testing"
	"time"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type shiftTestDeps struct {
	svc        *ShiftServiceImpl
	shiftRepo  *mocks.MockShiftRepository
	ledgerRepo *mocks.MockLedgerRepository
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func setupShiftService(t *testing.T) *shiftTestDeps {
	ctrl := gomock.NewController(t)
	d := &shiftTestDeps{
		shiftRepo:  mocks.NewMockShiftRepository(ctrl),
		ledgerRepo: mocks.NewMockLedgerRepository(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewShiftService(d.shiftRepo, d.ledgerRepo, d.transactor, zerolog.Nop())
	return d
}

func scheduledShift(staffID uuid.UUID) *domain.Shift {
	now := time.Now().UTC()
	return domain.NewScheduledShift(staffID, "morning", now, now.Add(8*time.Hour))
}

func activeShift(staffID uuid.UUID, openingCash string) *domain.Shift {
	s := scheduledShift(staffID)
	s.Activate(dec(openingCash), time.Now().UTC())
	return s
}

// ==================== Schedule Tests ====================

func TestShiftService_Schedule_Success(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	staffID := uuid.New()
	start := time.Now().UTC().Add(time.Hour)

	d.shiftRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	shift, err := d.svc.Schedule(ctx, ports.ScheduleShiftRequest{
		StaffID:        staffID,
		ShiftType:      "morning",
		ScheduledStart: start,
		ScheduledEnd:   start.Add(8 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusScheduled, shift.Status)
	assert.Equal(t, staffID, shift.StaffID)
	assert.True(t, shift.CashBalance.IsZero())
}

func TestShiftService_Schedule_EndBeforeStart(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	start := time.Now().UTC()
	shift, err := d.svc.Schedule(context.Background(), ports.ScheduleShiftRequest{
		StaffID:        uuid.New(),
		ScheduledStart: start,
		ScheduledEnd:   start.Add(-time.Hour),
	})
	assert.Nil(t, shift)
	assertAppError(t, err, "REQ_001")
}

// ==================== Start Tests ====================

func TestShiftService_Start_Success(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := scheduledShift(uuid.New())
	by := domain.Actor{ID: shift.StaffID, Name: "Alex"}

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)
	d.shiftRepo.EXPECT().Update(ctx, tx, shift).Return(nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, entry *domain.LedgerTransaction) error {
			assert.Equal(t, domain.TransactionTypeOpening, entry.Type)
			assert.True(t, entry.BalanceBefore.IsZero())
			assert.True(t, entry.BalanceAfter.Equal(dec("100.00")))
			return nil
		})

	result, err := d.svc.Start(ctx, shift.ID, dec("100.00"), by)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusActive, result.Status)
	assert.True(t, result.OpeningCash.Equal(dec("100.00")))
	assert.True(t, result.CashBalance.Equal(dec("100.00")))
	assert.NotNil(t, result.ActualStart)
}

func TestShiftService_Start_AlreadyActive(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := activeShift(uuid.New(), "50.00")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)

	result, err := d.svc.Start(ctx, shift.ID, dec("10.00"), domain.Actor{ID: shift.StaffID})
	assert.Nil(t, result)
	assertAppError(t, err, "SHF_001")
}

func TestShiftService_Start_StaffHasActiveShift(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := scheduledShift(uuid.New())

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)
	d.shiftRepo.EXPECT().Update(ctx, tx, shift).Return(domain.ErrDuplicateActiveShift)

	result, err := d.svc.Start(ctx, shift.ID, decimal.Zero, domain.Actor{ID: shift.StaffID})
	assert.Nil(t, result)
	assertAppError(t, err, "SHF_002")
}

func TestShiftService_Start_NegativeOpeningCash(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	result, err := d.svc.Start(context.Background(), uuid.New(), dec("-1.00"), domain.Actor{})
	assert.Nil(t, result)
	assertAppError(t, err, "WAL_001")
}

// ==================== End Tests ====================

func TestShiftService_End_Overage(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := activeShift(uuid.New(), "100.00")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)
	d.ledgerRepo.EXPECT().SumSigned(ctx, tx, domain.OwnerShift, shift.ID).Return(dec("200.00"), nil)
	d.shiftRepo.EXPECT().Update(ctx, tx, shift).Return(nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ interface{}, entry *domain.LedgerTransaction) error {
			assert.Equal(t, domain.TransactionTypeClosing, entry.Type)
			assert.True(t, entry.SignedAmount().Equal(dec("50.00")), "closing entry's signed amount is the discrepancy")
			return nil
		})

	result, err := d.svc.End(ctx, ports.EndShiftRequest{
		ShiftID:     shift.ID,
		ClosingCash: dec("250.00"),
		By:          domain.Actor{ID: shift.StaffID},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusCompleted, result.Status)
	assert.True(t, result.ExpectedCash.Equal(dec("200.00")))
	assert.True(t, result.ClosingCash.Equal(dec("250.00")))
	assert.True(t, result.CashDiscrepancy.Equal(dec("50.00")))
}

func TestShiftService_End_NotActive(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := scheduledShift(uuid.New())

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)

	result, err := d.svc.End(ctx, ports.EndShiftRequest{ShiftID: shift.ID, ClosingCash: decimal.Zero})
	assert.Nil(t, result)
	assertAppError(t, err, "SHF_001")
}

// ==================== Cancel Tests ====================

func TestShiftService_Cancel_Completed(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := activeShift(uuid.New(), "0")
	shift.Complete(decimal.Zero, decimal.Zero, nil, time.Now().UTC())

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)

	result, err := d.svc.Cancel(ctx, shift.ID, domain.Actor{ID: uuid.New()})
	assert.Nil(t, result)
	assertAppError(t, err, "SHF_001")
}

func TestShiftService_Cancel_Scheduled(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := scheduledShift(uuid.New())

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)
	d.shiftRepo.EXPECT().Update(ctx, tx, shift).Return(nil)

	result, err := d.svc.Cancel(ctx, shift.ID, domain.Actor{ID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusCancelled, result.Status)
}

// ==================== Drawer Movement Tests ====================

func TestShiftService_RecordCashIn_Success(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := activeShift(uuid.New(), "100.00")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)
	d.shiftRepo.EXPECT().Update(ctx, tx, shift).Return(nil)
	d.ledgerRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	entry, err := d.svc.RecordCashIn(ctx, ports.CashMovementRequest{
		ShiftID:     shift.ID,
		Amount:      dec("25.00"),
		Description: "copay collected",
		By:          domain.Actor{ID: shift.StaffID},
	})
	require.NoError(t, err)
	assert.True(t, entry.BalanceAfter.Equal(dec("125.00")))
	assert.True(t, shift.CashBalance.Equal(dec("125.00")))
}

func TestShiftService_RecordCashOut_InsufficientDrawer(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := activeShift(uuid.New(), "20.00")

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)

	entry, err := d.svc.RecordCashOut(ctx, ports.CashMovementRequest{
		ShiftID: shift.ID,
		Amount:  dec("20.01"),
		By:      domain.Actor{ID: shift.StaffID},
	})
	assert.Nil(t, entry)
	assertAppError(t, err, "SHF_003")
	assert.True(t, shift.CashBalance.Equal(dec("20.00")))
}

func TestShiftService_RecordCashIn_InactiveShift(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tx := &mockTx{}
	shift := scheduledShift(uuid.New())

	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.shiftRepo.EXPECT().GetByIDForUpdate(ctx, tx, shift.ID).Return(shift, nil)

	entry, err := d.svc.RecordCashIn(ctx, ports.CashMovementRequest{
		ShiftID: shift.ID,
		Amount:  dec("10.00"),
	})
	assert.Nil(t, entry)
	assertAppError(t, err, "SHF_001")
}

// ==================== GetActive Tests ====================

func TestShiftService_GetActive_None(t *testing.T) {
	d := setupShiftService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	staffID := uuid.New()

	d.shiftRepo.EXPECT().GetActiveByStaff(ctx, staffID).Return(nil, nil)

	shift, err := d.svc.GetActive(ctx, staffID)
	assert.NoError(t, err)
	assert.Nil(t, shift)
}
