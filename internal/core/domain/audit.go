package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionDeposit      AuditAction = "DEPOSIT"
	AuditActionWithdraw     AuditAction = "WITHDRAW"
	AuditActionPayment      AuditAction = "PAYMENT"
	AuditActionRefund       AuditAction = "REFUND"
	AuditActionAdjust       AuditAction = "ADJUST"
	AuditActionShiftStart   AuditAction = "SHIFT_START"
	AuditActionShiftEnd     AuditAction = "SHIFT_END"
	AuditActionShiftCancel  AuditAction = "SHIFT_CANCEL"
	AuditActionCashMovement AuditAction = "CASH_MOVEMENT"
	AuditActionHandoverInit AuditAction = "HANDOVER_INITIATE"
	AuditActionHandoverRecv AuditAction = "HANDOVER_RECEIVE"
)

// AuditLog records a single audited API action. The ledger itself is the
// authoritative money trail; this table captures who called what, from where.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	StaffID      *uuid.UUID  `json:"staff_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
