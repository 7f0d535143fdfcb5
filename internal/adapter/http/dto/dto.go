package dto

import (
	"clinic-ledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Monetary amounts travel as decimal strings ("150.00") so no client-side
// float representation ever reaches the ledger. ParseAmount in validators.go
// is the single entry point for turning them into decimal.Decimal.

// CreateWalletRequest is the request body for wallet get-or-create.
type CreateWalletRequest struct {
	PatientID string `json:"patient_id" binding:"required,uuid"`
}

// DepositRequest is the request body for a wallet deposit.
type DepositRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Method      string `json:"method" binding:"omitempty,max=30"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// WithdrawRequest is the request body for a wallet withdrawal.
type WithdrawRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// PayRequest is the request body for settling an invoice from a wallet.
type PayRequest struct {
	Amount        string `json:"amount" binding:"required"`
	ReferenceID   string `json:"reference_id" binding:"required,max=100,safe_id"`
	ReferenceType string `json:"reference_type" binding:"omitempty,max=50"`
	Description   string `json:"description" binding:"omitempty,max=500"`
}

// RefundRequest is the request body for a wallet refund.
type RefundRequest struct {
	Amount        string `json:"amount" binding:"required"`
	ReferenceID   string `json:"reference_id" binding:"omitempty,max=100,safe_id"`
	ReferenceType string `json:"reference_type" binding:"omitempty,max=50"`
	Description   string `json:"description" binding:"omitempty,max=500"`
}

// AdjustRequest is the request body for a manual signed correction.
// Amount carries the sign ("-20.00" reduces the balance).
type AdjustRequest struct {
	Amount      string `json:"amount" binding:"required"`
	Description string `json:"description" binding:"required,max=500"`
}

// SetActiveRequest is the request body for freezing or unfreezing a wallet.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// ScheduleShiftRequest is the request body for scheduling a shift.
type ScheduleShiftRequest struct {
	StaffID        string `json:"staff_id" binding:"required,uuid"`
	ShiftType      string `json:"shift_type" binding:"required,max=30"`
	ScheduledStart string `json:"scheduled_start" binding:"required"` // RFC 3339
	ScheduledEnd   string `json:"scheduled_end" binding:"required"`   // RFC 3339
}

// StartShiftRequest is the request body for activating a scheduled shift.
type StartShiftRequest struct {
	OpeningCash string `json:"opening_cash" binding:"required"`
}

// EndShiftRequest is the request body for completing an active shift.
type EndShiftRequest struct {
	ClosingCash      string  `json:"closing_cash" binding:"required"`
	DiscrepancyNotes *string `json:"discrepancy_notes,omitempty" binding:"omitempty,max=500"`
}

// CashMovementRequest is the request body for an interim drawer movement.
type CashMovementRequest struct {
	Amount        string `json:"amount" binding:"required"`
	ReferenceID   string `json:"reference_id" binding:"omitempty,max=100,safe_id"`
	ReferenceType string `json:"reference_type" binding:"omitempty,max=50"`
	Description   string `json:"description" binding:"omitempty,max=500"`
}

// InitiateHandoverRequest is the request body for starting a cash handover.
// The outgoing staff member is taken from the bearer token.
type InitiateHandoverRequest struct {
	ToStaffID   string  `json:"to_staff_id" binding:"required,uuid"`
	FromShiftID string  `json:"from_shift_id" binding:"required,uuid"`
	Notes       *string `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// ReceiveHandoverRequest is the request body for completing a handover.
type ReceiveHandoverRequest struct {
	ConfirmedCash    string  `json:"confirmed_cash" binding:"required"`
	ShiftType        string  `json:"shift_type" binding:"required,max=30"`
	ScheduledEnd     string  `json:"scheduled_end" binding:"required"` // RFC 3339
	DiscrepancyNotes *string `json:"discrepancy_notes,omitempty" binding:"omitempty,max=500"`
}

// ReferenceResponse mirrors domain.Reference in responses.
type ReferenceResponse struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// TransactionResponse is the response body for ledger entries.
type TransactionResponse struct {
	ID              string             `json:"id"`
	OwnerType       string             `json:"owner_type"`
	OwnerID         string             `json:"owner_id"`
	Type            string             `json:"type"`
	Status          string             `json:"status"`
	Amount          string             `json:"amount"`
	BalanceBefore   string             `json:"balance_before"`
	BalanceAfter    string             `json:"balance_after"`
	Reference       *ReferenceResponse `json:"reference,omitempty"`
	PaymentMethod   *string            `json:"payment_method,omitempty"`
	Description     string             `json:"description,omitempty"`
	ProcessedBy     string             `json:"processed_by"`
	ProcessedByName string             `json:"processed_by_name"`
	CreatedAt       string             `json:"created_at"`
}

// TransactionListResponse wraps a paginated ledger entry list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// WalletResponse is the response body for wallet state.
type WalletResponse struct {
	ID                string  `json:"id"`
	PatientID         string  `json:"patient_id"`
	Balance           string  `json:"balance"`
	TotalDeposits     string  `json:"total_deposits"`
	TotalWithdrawals  string  `json:"total_withdrawals"`
	TotalPayments     string  `json:"total_payments"`
	TotalRefunds      string  `json:"total_refunds"`
	IsActive          bool    `json:"is_active"`
	LowBalanceAlert   bool    `json:"low_balance_alert"`
	LastTransactionAt *string `json:"last_transaction_at,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// ShiftResponse is the response body for shift state.
type ShiftResponse struct {
	ID               string  `json:"id"`
	StaffID          string  `json:"staff_id"`
	Status           string  `json:"status"`
	ShiftType        string  `json:"shift_type"`
	ScheduledStart   string  `json:"scheduled_start"`
	ScheduledEnd     string  `json:"scheduled_end"`
	ActualStart      *string `json:"actual_start,omitempty"`
	ActualEnd        *string `json:"actual_end,omitempty"`
	OpeningCash      string  `json:"opening_cash"`
	CashBalance      string  `json:"cash_balance"`
	ClosingCash      *string `json:"closing_cash,omitempty"`
	ExpectedCash     *string `json:"expected_cash,omitempty"`
	CashDiscrepancy  *string `json:"cash_discrepancy,omitempty"`
	DiscrepancyNotes *string `json:"discrepancy_notes,omitempty"`
}

// HandoverResponse is the response body for handover state.
type HandoverResponse struct {
	ID               string  `json:"id"`
	FromStaffID      string  `json:"from_staff_id"`
	ToStaffID        string  `json:"to_staff_id"`
	FromShiftID      string  `json:"from_shift_id"`
	ToShiftID        *string `json:"to_shift_id,omitempty"`
	Status           string  `json:"status"`
	DeclaredCash     string  `json:"declared_cash"`
	ConfirmedCash    *string `json:"confirmed_cash,omitempty"`
	Discrepancy      *string `json:"discrepancy,omitempty"`
	Notes            *string `json:"notes,omitempty"`
	DiscrepancyNotes *string `json:"discrepancy_notes,omitempty"`
	HandoverTime     *string `json:"handover_time,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ReceiveHandoverResponse pairs the completed handover with the shift the
// receive opened.
type ReceiveHandoverResponse struct {
	Handover HandoverResponse `json:"handover"`
	NewShift ShiftResponse    `json:"new_shift"`
}

// WalletStatsResponse is the response body for wallet statistics.
type WalletStatsResponse struct {
	WalletID          string  `json:"wallet_id"`
	Balance           string  `json:"balance"`
	TotalDeposits     string  `json:"total_deposits"`
	TotalWithdrawals  string  `json:"total_withdrawals"`
	TotalPayments     string  `json:"total_payments"`
	TotalRefunds      string  `json:"total_refunds"`
	TransactionCount  int64   `json:"transaction_count"`
	LastTransactionAt *string `json:"last_transaction_at,omitempty"`
}

// DecimalPtr formats an optional decimal for a response.
func DecimalPtr(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.StringFixed(2)
	return &s
}

// RefResponse converts an optional domain reference.
func RefResponse(r *domain.Reference) *ReferenceResponse {
	if r == nil {
		return nil
	}
	return &ReferenceResponse{ID: r.ID, Type: r.Type}
}
