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
)

const defaultHandoverShiftLength = 8 * time.Hour

// HandoverServiceImpl implements ports.HandoverService.
type HandoverServiceImpl struct {
	handoverRepo ports.HandoverRepository
	shiftRepo    ports.ShiftRepository
	ledgerRepo   ports.LedgerRepository
	transactor   ports.DBTransactor
	log          zerolog.Logger
}

// NewHandoverService creates a new HandoverServiceImpl.
func NewHandoverService(
	handoverRepo ports.HandoverRepository,
	shiftRepo ports.ShiftRepository,
	ledgerRepo ports.LedgerRepository,
	transactor ports.DBTransactor,
	log zerolog.Logger,
) *HandoverServiceImpl {
	return &HandoverServiceImpl{
		handoverRepo: handoverRepo,
		shiftRepo:    shiftRepo,
		ledgerRepo:   ledgerRepo,
		transactor:   transactor,
		log:          log,
	}
}

// Initiate opens a pending handover, snapshotting the declared amount from
// the outgoing shift's current drawer balance.
func (s *HandoverServiceImpl) Initiate(ctx context.Context, req ports.InitiateHandoverRequest) (*domain.CashHandover, error) {
	if req.FromStaffID == req.ToStaffID {
		return nil, apperror.Validation("cannot hand over to the same staff member")
	}

	fromShift, err := s.shiftRepo.GetByID(ctx, req.FromShiftID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get outgoing shift: %w", err))
	}
	if fromShift == nil {
		return nil, apperror.ErrNotFound("shift")
	}
	if fromShift.StaffID != req.FromStaffID {
		return nil, apperror.ErrShiftStateConflict("shift is not owned by the outgoing staff member")
	}
	if fromShift.Status != domain.ShiftStatusActive {
		return nil, apperror.ErrShiftStateConflict("handover requires an active outgoing shift")
	}

	handover := domain.NewCashHandover(req.FromStaffID, req.ToStaffID, req.FromShiftID, fromShift.CashBalance, req.Notes)
	if err := s.handoverRepo.Create(ctx, handover); err != nil {
		if errors.Is(err, domain.ErrDuplicatePendingHandover) {
			return nil, apperror.ErrHandoverStateConflict("shift already has a pending handover")
		}
		return nil, apperror.InternalError(fmt.Errorf("create handover: %w", err))
	}

	s.log.Info().
		Str("handover_id", handover.ID.String()).
		Str("from_staff", req.FromStaffID.String()).
		Str("to_staff", req.ToStaffID.String()).
		Str("declared_cash", handover.DeclaredCash.String()).
		Msg("handover initiated")
	return handover, nil
}

// Receive completes a pending handover as one atomic unit: it verifies the
// receiving staff member, opens their shift with the counted amount, empties
// the outgoing drawer, and marks the handover completed. Any failure rolls
// back the whole call; a handover is never left completed without its shift,
// nor a shift created with the handover still pending.
func (s *HandoverServiceImpl) Receive(ctx context.Context, req ports.ReceiveHandoverRequest) (*domain.CashHandover, *domain.Shift, error) {
	if req.ConfirmedCash.IsNegative() {
		return nil, nil, apperror.ErrInvalidAmount("must not be negative")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	handover, err := s.handoverRepo.GetByIDForUpdate(ctx, dbTx, req.HandoverID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock handover: %w", err))
	}
	if handover == nil {
		return nil, nil, apperror.ErrNotFound("handover")
	}
	if !handover.IsPending() {
		return nil, nil, apperror.ErrHandoverStateConflict("already completed")
	}
	if req.ByStaff.ID != handover.ToStaffID {
		return nil, nil, apperror.ErrHandoverUnauthorized()
	}

	fromShift, err := s.shiftRepo.GetByIDForUpdate(ctx, dbTx, handover.FromShiftID)
	if err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("lock outgoing shift: %w", err))
	}
	if fromShift == nil {
		return nil, nil, apperror.ErrNotFound("shift")
	}
	// The shift was active at Initiate; it may have been ended or cancelled
	// since. A reconciled shift's cash fields are final, so the carry-forward
	// must be refused rather than rewriting them.
	if fromShift.Status != domain.ShiftStatusActive {
		return nil, nil, apperror.ErrShiftStateConflict("outgoing shift is no longer active")
	}

	now := time.Now().UTC()
	scheduledEnd := req.ScheduledEnd
	if scheduledEnd.IsZero() {
		scheduledEnd = now.Add(defaultHandoverShiftLength)
	}
	shiftType := req.ShiftType
	if shiftType == "" {
		shiftType = fromShift.ShiftType
	}

	// The incoming shift opens with the counted amount, not the declared one.
	newShift := domain.NewScheduledShift(handover.ToStaffID, shiftType, now, scheduledEnd)
	newShift.Activate(req.ConfirmedCash, now)
	if err := s.shiftRepo.CreateInTx(ctx, dbTx, newShift); err != nil {
		if errors.Is(err, domain.ErrDuplicateActiveShift) {
			return nil, nil, apperror.ErrActiveShiftExists()
		}
		return nil, nil, apperror.InternalError(fmt.Errorf("create incoming shift: %w", err))
	}

	// Drawer carry-forward: one outgoing entry emptying the old drawer, one
	// incoming entry opening the new one with the counted amount.
	out := domain.NewHandoverOut(fromShift.ID, fromShift.CashBalance, handover.ID, req.ByStaff)
	fromShift.ApplyCash(out)
	if err := s.shiftRepo.Update(ctx, dbTx, fromShift); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("update outgoing shift: %w", err))
	}
	if err := s.ledgerRepo.Create(ctx, dbTx, out); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("create handover-out entry: %w", err))
	}

	in := domain.NewHandoverIn(newShift.ID, req.ConfirmedCash, handover.ID, req.ByStaff)
	if err := s.ledgerRepo.Create(ctx, dbTx, in); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("create handover-in entry: %w", err))
	}

	handover.Complete(newShift.ID, req.ConfirmedCash, req.DiscrepancyNotes, now)
	if err := s.handoverRepo.Complete(ctx, dbTx, handover); err != nil {
		if errors.Is(err, domain.ErrHandoverNotPending) {
			return nil, nil, apperror.ErrHandoverStateConflict("already completed")
		}
		return nil, nil, apperror.InternalError(fmt.Errorf("complete handover: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	logEvent := s.log.Info().
		Str("handover_id", handover.ID.String()).
		Str("new_shift_id", newShift.ID.String()).
		Str("declared_cash", handover.DeclaredCash.String()).
		Str("confirmed_cash", req.ConfirmedCash.String()).
		Str("discrepancy", handover.Discrepancy.String())
	if !handover.Discrepancy.IsZero() && req.DiscrepancyNotes == nil {
		logEvent = logEvent.Bool("discrepancy_unexplained", true)
	}
	logEvent.Msg("handover received")

	return handover, newShift, nil
}

// ListPending returns handovers awaiting the given staff member.
func (s *HandoverServiceImpl) ListPending(ctx context.Context, toStaffID uuid.UUID) ([]domain.CashHandover, error) {
	handovers, err := s.handoverRepo.ListPending(ctx, toStaffID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list pending handovers: %w", err))
	}
	return handovers, nil
}
