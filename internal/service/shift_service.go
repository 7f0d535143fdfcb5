package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ShiftServiceImpl implements ports.ShiftService.
type ShiftServiceImpl struct {
	shiftRepo  ports.ShiftRepository
	ledgerRepo ports.LedgerRepository
	transactor ports.DBTransactor
	log        zerolog.Logger
}

// NewShiftService creates a new ShiftServiceImpl.
func NewShiftService(
	shiftRepo ports.ShiftRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *ShiftServiceImpl {
	return &ShiftServiceImpl{
		shiftRepo:  shiftRepo,
		ledgerRepo: ledgerRepo,
		transactor: transactor,
		log:        log,
	}
}

// Schedule creates a shift in the initial SCHEDULED state.
func (s *ShiftServiceImpl) Schedule(ctx context.Context, req ports.ScheduleShiftRequest) (*domain.Shift, error) {
	if !req.ScheduledEnd.After(req.ScheduledStart) {
		return nil, apperror.Validation("scheduled_end must be after scheduled_start")
	}
	if req.ShiftType == "" {
		req.ShiftType = "regular"
	}

	shift := domain.NewScheduledShift(req.StaffID, req.ShiftType, req.ScheduledStart, req.ScheduledEnd)
	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create shift: %w", err))
	}

	s.log.Info().
		Str("shift_id", shift.ID.String()).
		Str("staff_id", req.StaffID.String()).
		Time("scheduled_start", req.ScheduledStart).
		Msg("shift scheduled")
	return shift, nil
}

// Start transitions SCHEDULED -> ACTIVE, records the opening cash count, and
// writes the drawer's OPENING ledger entry. The partial unique index on
// active shifts makes the single-active-shift check race-free.
func (s *ShiftServiceImpl) Start(ctx context.Context, shiftID uuid.UUID, openingCash decimal.Decimal, by domain.Actor) (*domain.Shift, error) {
	if openingCash.IsNegative() {
		return nil, apperror.ErrInvalidAmount("must not be negative")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	shift, err := s.shiftRepo.GetByIDForUpdate(ctx, dbTx, shiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock shift: %w", err))
	}
	if shift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	if !shift.CanStart() {
		return nil, apperror.ErrShiftStateConflict(fmt.Sprintf("cannot start a %s shift", shift.Status))
	}

	shift.Activate(openingCash, time.Now().UTC())

	if err := s.shiftRepo.Update(ctx, dbTx, shift); err != nil {
		if errors.Is(err, domain.ErrDuplicateActiveShift) {
			return nil, apperror.ErrActiveShiftExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("update shift: %w", err))
	}

	opening := domain.NewOpening(shift.ID, openingCash, by)
	if err := s.ledgerRepo.Create(ctx, dbTx, opening); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create opening entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("shift_id", shift.ID.String()).
		Str("staff_id", shift.StaffID.String()).
		Str("opening_cash", openingCash.String()).
		Msg("shift started")
	return shift, nil
}

// End transitions ACTIVE -> COMPLETED. The expected drawer balance is the
// canonical server-side computation: the sum of the shift's signed cash
// entries (the opening entry included). cashDiscrepancy = closing − expected.
func (s *ShiftServiceImpl) End(ctx context.Context, req ports.EndShiftRequest) (*domain.Shift, error) {
	if req.ClosingCash.IsNegative() {
		return nil, apperror.ErrInvalidAmount("must not be negative")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	shift, err := s.shiftRepo.GetByIDForUpdate(ctx, dbTx, req.ShiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock shift: %w", err))
	}
	if shift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	if !shift.CanEnd() {
		return nil, apperror.ErrShiftStateConflict(fmt.Sprintf("cannot end a %s shift", shift.Status))
	}

	expected, err := s.ledgerRepo.SumSigned(ctx, dbTx, domain.OwnerShift, shift.ID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("sum drawer entries: %w", err))
	}

	closing := domain.NewClosing(shift.ID, expected, req.ClosingCash, req.By)
	shift.Complete(expected, req.ClosingCash, req.DiscrepancyNotes, time.Now().UTC())

	if err := s.shiftRepo.Update(ctx, dbTx, shift); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update shift: %w", err))
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, closing); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create closing entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	logEvent := s.log.Info().
		Str("shift_id", shift.ID.String()).
		Str("expected_cash", expected.String()).
		Str("closing_cash", req.ClosingCash.String()).
		Str("discrepancy", shift.CashDiscrepancy.String())
	if !shift.CashDiscrepancy.IsZero() && req.DiscrepancyNotes == nil {
		logEvent = logEvent.Bool("discrepancy_unexplained", true)
	}
	logEvent.Msg("shift ended")

	return shift, nil
}

// Cancel administratively terminates a SCHEDULED or ACTIVE shift. No cash
// effects; history is retained.
func (s *ShiftServiceImpl) Cancel(ctx context.Context, shiftID uuid.UUID, by domain.Actor) (*domain.Shift, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	shift, err := s.shiftRepo.GetByIDForUpdate(ctx, dbTx, shiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock shift: %w", err))
	}
	if shift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	if !shift.CanCancel() {
		return nil, apperror.ErrShiftStateConflict(fmt.Sprintf("cannot cancel a %s shift", shift.Status))
	}

	shift.Cancel(time.Now().UTC())
	if err := s.shiftRepo.Update(ctx, dbTx, shift); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update shift: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("shift_id", shift.ID.String()).
		Str("cancelled_by", by.ID.String()).
		Msg("shift cancelled")
	return shift, nil
}

// GetByID returns a shift by its identifier.
func (s *ShiftServiceImpl) GetByID(ctx context.Context, shiftID uuid.UUID) (*domain.Shift, error) {
	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get shift: %w", err))
	}
	if shift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	return shift, nil
}

// GetActive returns the staff member's active shift, or nil if none.
func (s *ShiftServiceImpl) GetActive(ctx context.Context, staffID uuid.UUID) (*domain.Shift, error) {
	shift, err := s.shiftRepo.GetActiveByStaff(ctx, staffID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get active shift: %w", err))
	}
	return shift, nil
}

// RecordCashIn records cash received into an active shift's drawer.
func (s *ShiftServiceImpl) RecordCashIn(ctx context.Context, req ports.CashMovementRequest) (*domain.LedgerTransaction, error) {
	return s.recordMovement(ctx, req, true)
}

// RecordCashOut records cash paid out of an active shift's drawer.
func (s *ShiftServiceImpl) RecordCashOut(ctx context.Context, req ports.CashMovementRequest) (*domain.LedgerTransaction, error) {
	return s.recordMovement(ctx, req, false)
}

func (s *ShiftServiceImpl) recordMovement(ctx context.Context, req ports.CashMovementRequest, inbound bool) (*domain.LedgerTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount("must be positive")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	shift, err := s.shiftRepo.GetByIDForUpdate(ctx, dbTx, req.ShiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock shift: %w", err))
	}
	if shift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	if shift.Status != domain.ShiftStatusActive {
		return nil, apperror.ErrShiftStateConflict("drawer movements require an active shift")
	}

	var ref *domain.Reference
	if req.ReferenceID != "" {
		ref = &domain.Reference{ID: req.ReferenceID, Type: req.ReferenceType}
	}

	var entry *domain.LedgerTransaction
	if inbound {
		entry = domain.NewCashIn(shift.ID, shift.CashBalance, req.Amount, ref, req.Description, req.By)
	} else {
		if shift.CashBalance.LessThan(req.Amount) {
			return nil, apperror.ErrInsufficientDrawerCash()
		}
		entry = domain.NewCashOut(shift.ID, shift.CashBalance, req.Amount, ref, req.Description, req.By)
	}
	shift.ApplyCash(entry)

	if err := s.shiftRepo.Update(ctx, dbTx, shift); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update shift: %w", err))
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create drawer entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("shift_id", shift.ID.String()).
		Str("type", string(entry.Type)).
		Str("amount", req.Amount.String()).
		Str("cash_balance", shift.CashBalance.String()).
		Msg("drawer movement recorded")
	return entry, nil
}

// ListTransactions returns the shift's cash sub-ledger, chronologically.
func (s *ShiftServiceImpl) ListTransactions(ctx context.Context, shiftID uuid.UUID) ([]domain.LedgerTransaction, error) {
	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get shift: %w", err))
	}
	if shift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	entries, err := s.ledgerRepo.ListByOwner(ctx, domain.OwnerShift, shiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list drawer entries: %w", err))
	}
	return entries, nil
}
