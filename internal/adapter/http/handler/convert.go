package handler

import (
	"time"

	"clinic-ledger/internal/adapter/http/dto"
	"clinic-ledger/internal/adapter/http/middleware"
	"clinic-ledger/internal/core/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// staffActor pulls the authenticated staff identity off the request context.
func staffActor(c *gin.Context) (domain.Actor, bool) {
	sid, ok := c.Get(middleware.CtxStaffID)
	if !ok {
		return domain.Actor{}, false
	}
	id, ok := sid.(uuid.UUID)
	if !ok {
		return domain.Actor{}, false
	}
	name, _ := c.Get(middleware.CtxStaffName)
	nameStr, _ := name.(string)
	return domain.Actor{ID: id, Name: nameStr}, true
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func toTransactionResponse(t *domain.LedgerTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:              t.ID.String(),
		OwnerType:       string(t.OwnerType),
		OwnerID:         t.OwnerID.String(),
		Type:            string(t.Type),
		Status:          string(t.Status),
		Amount:          t.Amount.StringFixed(2),
		BalanceBefore:   t.BalanceBefore.StringFixed(2),
		BalanceAfter:    t.BalanceAfter.StringFixed(2),
		Reference:       dto.RefResponse(t.Reference),
		PaymentMethod:   t.PaymentMethod,
		Description:     t.Description,
		ProcessedBy:     t.ProcessedBy.String(),
		ProcessedByName: t.ProcessedByName,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:                w.ID.String(),
		PatientID:         w.PatientID.String(),
		Balance:           w.Balance.StringFixed(2),
		TotalDeposits:     w.TotalDeposits.StringFixed(2),
		TotalWithdrawals:  w.TotalWithdrawals.StringFixed(2),
		TotalPayments:     w.TotalPayments.StringFixed(2),
		TotalRefunds:      w.TotalRefunds.StringFixed(2),
		IsActive:          w.IsActive,
		LowBalanceAlert:   w.BelowAlertThreshold(),
		LastTransactionAt: timePtr(w.LastTransactionAt),
		CreatedAt:         w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toShiftResponse(s *domain.Shift) dto.ShiftResponse {
	return dto.ShiftResponse{
		ID:               s.ID.String(),
		StaffID:          s.StaffID.String(),
		Status:           string(s.Status),
		ShiftType:        s.ShiftType,
		ScheduledStart:   s.ScheduledStart.UTC().Format(time.RFC3339),
		ScheduledEnd:     s.ScheduledEnd.UTC().Format(time.RFC3339),
		ActualStart:      timePtr(s.ActualStart),
		ActualEnd:        timePtr(s.ActualEnd),
		OpeningCash:      s.OpeningCash.StringFixed(2),
		CashBalance:      s.CashBalance.StringFixed(2),
		ClosingCash:      dto.DecimalPtr(s.ClosingCash),
		ExpectedCash:     dto.DecimalPtr(s.ExpectedCash),
		CashDiscrepancy:  dto.DecimalPtr(s.CashDiscrepancy),
		DiscrepancyNotes: s.DiscrepancyNotes,
	}
}

func toHandoverResponse(h *domain.CashHandover) dto.HandoverResponse {
	var toShiftID *string
	if h.ToShiftID != nil {
		s := h.ToShiftID.String()
		toShiftID = &s
	}
	return dto.HandoverResponse{
		ID:               h.ID.String(),
		FromStaffID:      h.FromStaffID.String(),
		ToStaffID:        h.ToStaffID.String(),
		FromShiftID:      h.FromShiftID.String(),
		ToShiftID:        toShiftID,
		Status:           string(h.Status),
		DeclaredCash:     h.DeclaredCash.StringFixed(2),
		ConfirmedCash:    dto.DecimalPtr(h.ConfirmedCash),
		Discrepancy:      dto.DecimalPtr(h.Discrepancy),
		Notes:            h.Notes,
		DiscrepancyNotes: h.DiscrepancyNotes,
		HandoverTime:     timePtr(h.HandoverTime),
		CreatedAt:        h.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionList(items []domain.LedgerTransaction, total int64, page, pageSize int) dto.TransactionListResponse {
	out := make([]dto.TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, toTransactionResponse(&items[i]))
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return dto.TransactionListResponse{
		Items:      out,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
