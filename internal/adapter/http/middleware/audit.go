package middleware

import (
	"encoding/json"
	"time"

	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLog creates an audit middleware that logs successful write operations.
// It maps route templates to audit actions.
func AuditLog(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only audit successful write operations (status 2xx)
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			return
		}
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			return
		}

		action, resourceType := mapRouteToAction(c.FullPath(), c.Request.Method)
		if action == "" {
			return
		}

		var staffID *uuid.UUID
		if sid, exists := c.Get(CtxStaffID); exists {
			if id, ok := sid.(uuid.UUID); ok {
				staffID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": c.Writer.Status(),
		})

		auditSvc.Log(c.Request.Context(), &domain.AuditLog{
			ID:           uuid.New(),
			StaffID:      staffID,
			Action:       action,
			ResourceType: resourceType,
			ResourceID:   c.Param("id"),
			IPAddress:    c.ClientIP(),
			Details:      string(details),
			CreatedAt:    time.Now(),
		})
	}
}

func mapRouteToAction(route, method string) (domain.AuditAction, string) {
	if method != "POST" && method != "PATCH" {
		return "", ""
	}
	switch route {
	case "/api/v1/wallets/:id/deposit":
		return domain.AuditActionDeposit, "wallet"
	case "/api/v1/wallets/:id/withdraw":
		return domain.AuditActionWithdraw, "wallet"
	case "/api/v1/wallets/:id/pay":
		return domain.AuditActionPayment, "wallet"
	case "/api/v1/wallets/:id/refund":
		return domain.AuditActionRefund, "wallet"
	case "/api/v1/wallets/:id/adjust":
		return domain.AuditActionAdjust, "wallet"
	case "/api/v1/shifts/:id/start":
		return domain.AuditActionShiftStart, "shift"
	case "/api/v1/shifts/:id/end":
		return domain.AuditActionShiftEnd, "shift"
	case "/api/v1/shifts/:id/cancel":
		return domain.AuditActionShiftCancel, "shift"
	case "/api/v1/shifts/:id/cash-in", "/api/v1/shifts/:id/cash-out":
		return domain.AuditActionCashMovement, "shift"
	case "/api/v1/handovers":
		return domain.AuditActionHandoverInit, "handover"
	case "/api/v1/handovers/:id/receive":
		return domain.AuditActionHandoverRecv, "handover"
	}
	return "", ""
}
