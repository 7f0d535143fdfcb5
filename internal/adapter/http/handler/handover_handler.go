package handler

import (
	"time"

	"clinic-ledger/internal/adapter/http/dto"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/pkg/apperror"
	"clinic-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HandoverHandler handles cash-custody handover endpoints.
type HandoverHandler struct {
	handoverSvc ports.HandoverService
}

// NewHandoverHandler creates a new HandoverHandler.
func NewHandoverHandler(handoverSvc ports.HandoverService) *HandoverHandler {
	return &HandoverHandler{handoverSvc: handoverSvc}
}

// Initiate handles POST /api/v1/handovers. The outgoing staff member is the
// caller; only the owner of the active shift may initiate.
func (h *HandoverHandler) Initiate(c *gin.Context) {
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.InitiateHandoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	toStaffID, err := uuid.Parse(req.ToStaffID)
	if err != nil {
		response.Error(c, apperror.Validation("to_staff_id must be a UUID"))
		return
	}
	fromShiftID, err := uuid.Parse(req.FromShiftID)
	if err != nil {
		response.Error(c, apperror.Validation("from_shift_id must be a UUID"))
		return
	}

	handover, err := h.handoverSvc.Initiate(c.Request.Context(), ports.InitiateHandoverRequest{
		FromStaffID: actor.ID,
		ToStaffID:   toStaffID,
		FromShiftID: fromShiftID,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toHandoverResponse(handover))
}

// Receive handles POST /api/v1/handovers/:id/receive. On success it returns
// the completed handover together with the shift the receive opened.
func (h *HandoverHandler) Receive(c *gin.Context) {
	handoverID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ReceiveHandoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	confirmedCash, err := dto.ParseAmount(req.ConfirmedCash)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount(err.Error()))
		return
	}
	scheduledEnd, err := time.Parse(time.RFC3339, req.ScheduledEnd)
	if err != nil {
		response.Error(c, apperror.Validation("scheduled_end must be RFC 3339"))
		return
	}

	handover, newShift, err := h.handoverSvc.Receive(c.Request.Context(), ports.ReceiveHandoverRequest{
		HandoverID:       handoverID,
		ByStaff:          actor,
		ConfirmedCash:    confirmedCash,
		DiscrepancyNotes: req.DiscrepancyNotes,
		ScheduledEnd:     scheduledEnd,
		ShiftType:        req.ShiftType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ReceiveHandoverResponse{
		Handover: toHandoverResponse(handover),
		NewShift: toShiftResponse(newShift),
	})
}

// ListPending handles GET /api/v1/handovers/pending?staff_id=. Without a
// staff_id query it lists handovers addressed to the caller.
func (h *HandoverHandler) ListPending(c *gin.Context) {
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

	items, err := h.handoverSvc.ListPending(c.Request.Context(), staffID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := make([]dto.HandoverResponse, 0, len(items))
	for i := range items {
		out = append(out, toHandoverResponse(&items[i]))
	}
	response.OK(c, out)
}
