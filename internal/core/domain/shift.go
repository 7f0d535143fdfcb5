package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShiftStatus represents the lifecycle state of a staff shift.
type ShiftStatus string

const (
	ShiftStatusScheduled ShiftStatus = "SCHEDULED"
	ShiftStatusActive    ShiftStatus = "ACTIVE"
	ShiftStatusCompleted ShiftStatus = "COMPLETED"
	ShiftStatusCancelled ShiftStatus = "CANCELLED"
)

// Shift is a staff member's work session, including custody of the cash
// drawer while the shift is active. CashBalance is the drawer's running
// recorded balance and always equals the balance_after of the shift's most
// recent cash entry.
type Shift struct {
	ID               uuid.UUID        `json:"id"`
	StaffID          uuid.UUID        `json:"staff_id"`
	Status           ShiftStatus      `json:"status"`
	ShiftType        string           `json:"shift_type"`
	ScheduledStart   time.Time        `json:"scheduled_start"`
	ScheduledEnd     time.Time        `json:"scheduled_end"`
	ActualStart      *time.Time       `json:"actual_start,omitempty"`
	ActualEnd        *time.Time       `json:"actual_end,omitempty"`
	OpeningCash      decimal.Decimal  `json:"opening_cash"`
	CashBalance      decimal.Decimal  `json:"cash_balance"`
	ClosingCash      *decimal.Decimal `json:"closing_cash,omitempty"`
	ExpectedCash     *decimal.Decimal `json:"expected_cash,omitempty"`
	CashDiscrepancy  *decimal.Decimal `json:"cash_discrepancy,omitempty"`
	DiscrepancyNotes *string          `json:"discrepancy_notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewScheduledShift creates a shift in the initial SCHEDULED state.
func NewScheduledShift(staffID uuid.UUID, shiftType string, scheduledStart, scheduledEnd time.Time) *Shift {
	now := time.Now().UTC()
	return &Shift{
		ID:             uuid.New(),
		StaffID:        staffID,
		Status:         ShiftStatusScheduled,
		ShiftType:      shiftType,
		ScheduledStart: scheduledStart,
		ScheduledEnd:   scheduledEnd,
		OpeningCash:    decimal.Zero,
		CashBalance:    decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsTerminal returns true once no further transition can leave the shift.
func (s *Shift) IsTerminal() bool {
	return s.Status == ShiftStatusCompleted || s.Status == ShiftStatusCancelled
}

// CanStart reports whether the SCHEDULED -> ACTIVE transition is legal.
func (s *Shift) CanStart() bool {
	return s.Status == ShiftStatusScheduled
}

// CanEnd reports whether the ACTIVE -> COMPLETED transition is legal.
func (s *Shift) CanEnd() bool {
	return s.Status == ShiftStatusActive
}

// CanCancel reports whether the shift may still be administratively cancelled.
func (s *Shift) CanCancel() bool {
	return s.Status == ShiftStatusScheduled || s.Status == ShiftStatusActive
}

// Activate applies the SCHEDULED -> ACTIVE transition. actualStart and the
// opening cash are set exactly once, here.
func (s *Shift) Activate(openingCash decimal.Decimal, at time.Time) {
	s.Status = ShiftStatusActive
	s.ActualStart = &at
	s.OpeningCash = openingCash
	s.CashBalance = openingCash
	s.UpdatedAt = at
}

// Complete applies the ACTIVE -> COMPLETED transition with the reconciliation
// result. cashDiscrepancy = closing − expected.
func (s *Shift) Complete(expected, closing decimal.Decimal, notes *string, at time.Time) {
	discrepancy := closing.Sub(expected)
	s.Status = ShiftStatusCompleted
	s.ActualEnd = &at
	s.ExpectedCash = &expected
	s.ClosingCash = &closing
	s.CashDiscrepancy = &discrepancy
	s.DiscrepancyNotes = notes
	s.CashBalance = closing
	s.UpdatedAt = at
}

// Cancel applies the administrative terminal transition. No cash effects.
func (s *Shift) Cancel(at time.Time) {
	s.Status = ShiftStatusCancelled
	s.UpdatedAt = at
}

// ApplyCash folds a completed drawer entry into the running cash balance.
func (s *Shift) ApplyCash(t *LedgerTransaction) {
	s.CashBalance = t.BalanceAfter
	s.UpdatedAt = t.CreatedAt
}
