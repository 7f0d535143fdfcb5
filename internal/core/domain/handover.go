package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HandoverStatus represents the state of a cash-custody transfer.
type HandoverStatus string

const (
	HandoverStatusPending   HandoverStatus = "PENDING"
	HandoverStatusCompleted HandoverStatus = "COMPLETED"
)

// CashHandover transfers cash-drawer custody from an outgoing staff member's
// shift to an incoming one. ToShiftID is nil exactly while the handover is
// pending; a handover is completed by at most one successful receive.
type CashHandover struct {
	ID               uuid.UUID        `json:"id"`
	FromStaffID      uuid.UUID        `json:"from_staff_id"`
	ToStaffID        uuid.UUID        `json:"to_staff_id"`
	FromShiftID      uuid.UUID        `json:"from_shift_id"`
	ToShiftID        *uuid.UUID       `json:"to_shift_id,omitempty"`
	Status           HandoverStatus   `json:"status"`
	DeclaredCash     decimal.Decimal  `json:"declared_cash"`
	ConfirmedCash    *decimal.Decimal `json:"confirmed_cash,omitempty"`
	Discrepancy      *decimal.Decimal `json:"discrepancy,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	DiscrepancyNotes *string          `json:"discrepancy_notes,omitempty"`
	HandoverTime     *time.Time       `json:"handover_time,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// NewCashHandover creates a pending handover with the declared amount
// snapshotted from the outgoing shift's drawer balance.
func NewCashHandover(fromStaffID, toStaffID, fromShiftID uuid.UUID, declaredCash decimal.Decimal, notes *string) *CashHandover {
	return &CashHandover{
		ID:           uuid.New(),
		FromStaffID:  fromStaffID,
		ToStaffID:    toStaffID,
		FromShiftID:  fromShiftID,
		Status:       HandoverStatusPending,
		DeclaredCash: declaredCash,
		Notes:        notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// IsPending reports whether the handover can still be received.
func (h *CashHandover) IsPending() bool {
	return h.Status == HandoverStatusPending
}

// Complete records the counted amount and the shift it opened.
// discrepancy = confirmed − declared.
func (h *CashHandover) Complete(toShiftID uuid.UUID, confirmedCash decimal.Decimal, discrepancyNotes *string, at time.Time) {
	discrepancy := confirmedCash.Sub(h.DeclaredCash)
	h.Status = HandoverStatusCompleted
	h.ToShiftID = &toShiftID
	h.ConfirmedCash = &confirmedCash
	h.Discrepancy = &discrepancy
	h.DiscrepancyNotes = discrepancyNotes
	h.HandoverTime = &at
}
