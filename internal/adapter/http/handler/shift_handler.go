package handler

import (
	"context"
	"time"

	"clinic-ledger/internal/adapter/http/dto"
	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/pkg/apperror"
	"clinic-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ShiftHandler handles shift lifecycle and cash-drawer endpoints.
type ShiftHandler struct {
	shiftSvc ports.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(shiftSvc ports.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc}
}

// Schedule handles POST /api/v1/shifts.
func (h *ShiftHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		response.Error(c, apperror.Validation("staff_id must be a UUID"))
		return
	}
	start, err := time.Parse(time.RFC3339, req.ScheduledStart)
	if err != nil {
		response.Error(c, apperror.Validation("scheduled_start must be RFC 3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, req.ScheduledEnd)
	if err != nil {
		response.Error(c, apperror.Validation("scheduled_end must be RFC 3339"))
		return
	}

	shift, err := h.shiftSvc.Schedule(c.Request.Context(), ports.ScheduleShiftRequest{
		StaffID:        staffID,
		ShiftType:      req.ShiftType,
		ScheduledStart: start,
		ScheduledEnd:   end,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toShiftResponse(shift))
}

// Start handles POST /api/v1/shifts/:id/start.
func (h *ShiftHandler) Start(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.StartShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	openingCash, err := dto.ParseAmount(req.OpeningCash)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err.Error()))
		return
	}

	shift, err := h.shiftSvc.Start(c.Request.Context(), shiftID, openingCash, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toShiftResponse(shift))
}

// End handles POST /api/v1/shifts/:id/end.
func (h *ShiftHandler) End(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.EndShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	closingCash, err := dto.ParseAmount(req.ClosingCash)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err.Error()))
		return
	}

	shift, err := h.shiftSvc.End(c.Request.Context(), ports.EndShiftRequest{
		ShiftID:          shiftID,
		ClosingCash:      closingCash,
		DiscrepancyNotes: req.DiscrepancyNotes,
		By:               actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toShiftResponse(shift))
}

// Cancel handles POST /api/v1/shifts/:id/cancel.
func (h *ShiftHandler) Cancel(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	shift, err := h.shiftSvc.Cancel(c.Request.Context(), shiftID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toShiftResponse(shift))
}

// Get handles GET /api/v1/shifts/:id.
func (h *ShiftHandler) Get(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	shift, err := h.shiftSvc.GetByID(c.Request.Context(), shiftID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toShiftResponse(shift))
}

// GetActive handles GET /api/v1/shifts/active?staff_id=. Without a staff_id
// query it returns the caller's own active shift.
func (h *ShiftHandler) GetActive(c *gin.Context) {
	var staffID uuid.UUID
	if s := c.Query("staff_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.Error(c, apperror.Validation("staff_id must be a UUID"))
			return
		}
		staffID = id
	} else {
		actor, ok := staffActor(c)
		if !ok {
			response.Error(c, apperror.ErrInvalidToken())
			return
		}
		staffID = actor.ID
	}

	shift, err := h.shiftSvc.GetActive(c.Request.Context(), staffID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if shift == nil {
		response.Error(c, apperror.ErrNotFound("active shift"))
		return
	}

	response.OK(c, toShiftResponse(shift))
}

// RecordCashIn handles POST /api/v1/shifts/:id/cash-in.
func (h *ShiftHandler) RecordCashIn(c *gin.Context) {
	h.recordCashMovement(c, h.shiftSvc.RecordCashIn)
}

// RecordCashOut handles POST /api/v1/shifts/:id/cash-out.
func (h *ShiftHandler) RecordCashOut(c *gin.Context) {
	h.recordCashMovement(c, h.shiftSvc.RecordCashOut)
}

func (h *ShiftHandler) recordCashMovement(c *gin.Context, op func(context.Context, ports.CashMovementRequest) (*domain.LedgerTransaction, error)) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CashMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := dto.ParseAmount(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err.Error()))
		return
	}

	entry, err := op(c.Request.Context(), ports.CashMovementRequest{
		ShiftID:       shiftID,
		Amount:        amount,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		Description:   req.Description,
		By:            actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(entry))
}

// ListTransactions handles GET /api/v1/shifts/:id/transactions.
func (h *ShiftHandler) ListTransactions(c *gin.Context) {
	shiftID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	items, err := h.shiftSvc.ListTransactions(c.Request.Context(), shiftID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.TransactionResponse, 0, len(items))
	for i := range items {
		out = append(out, toTransactionResponse(&items[i]))
	}
	response.OK(c, out)
}
