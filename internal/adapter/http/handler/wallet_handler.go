package handler

import (
	"strconv"
	"time"

	"clinic-ledger/internal/adapter/http/dto"
	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/pkg/apperror"
	"clinic-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles patient wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets. Get-or-create by patient: posting an
// already-known patient returns the existing wallet.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		response.Error(c, apperror.Validation("patient_id must be a UUID"))
		return
	}

	wallet, err := h.walletSvc.GetOrCreate(c.Request.Context(), patientID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	wallet, err := h.walletSvc.GetByID(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// Deposit handles POST /api/v1/wallets/:id/deposit.
func (h *WalletHandler) Deposit(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.DepositRequest
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

	entry, err := h.walletSvc.Deposit(c.Request.Context(), ports.DepositRequest{
		WalletID:    walletID,
		Amount:      amount,
		Method:      req.Method,
		Description: req.Description,
		By:          actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(entry))
}

// Withdraw handles POST /api/v1/wallets/:id/withdraw.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.WithdrawRequest
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

	entry, err := h.walletSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		WalletID:    walletID,
		Amount:      amount,
		Description: req.Description,
		By:          actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(entry))
}

// Pay handles POST /api/v1/wallets/:id/pay.
func (h *WalletHandler) Pay(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.PayRequest
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

	entry, err := h.walletSvc.Pay(c.Request.Context(), ports.PayRequest{
		WalletID:      walletID,
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

// Refund handles POST /api/v1/wallets/:id/refund.
func (h *WalletHandler) Refund(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.RefundRequest
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

	entry, err := h.walletSvc.Refund(c.Request.Context(), ports.RefundRequest{
		WalletID:      walletID,
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

// Adjust handles POST /api/v1/wallets/:id/adjust. The amount carries the
// sign of the correction.
func (h *WalletHandler) Adjust(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	actor, ok := staffActor(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.AdjustRequest
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

	entry, err := h.walletSvc.Adjust(c.Request.Context(), ports.AdjustRequest{
		WalletID:     walletID,
		SignedAmount: amount,
		Description:  req.Description,
		By:           actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransactionResponse(entry))
}

// SetActive handles PATCH /api/v1/wallets/:id/active.
func (h *WalletHandler) SetActive(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.walletSvc.SetActive(c.Request.Context(), walletID, *req.Active); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"id": walletID.String(), "is_active": *req.Active})
}

// GetStats handles GET /api/v1/wallets/:id/stats.
func (h *WalletHandler) GetStats(c *gin.Context) {
	walletID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.walletSvc.GetStats(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.WalletStatsResponse{
		WalletID:          stats.WalletID.String(),
		Balance:           stats.Balance.StringFixed(2),
		TotalDeposits:     stats.TotalDeposits.StringFixed(2),
		TotalWithdrawals:  stats.TotalWithdrawals.StringFixed(2),
		TotalPayments:     stats.TotalPayments.StringFixed(2),
		TotalRefunds:      stats.TotalRefunds.StringFixed(2),
		TransactionCount:  stats.TransactionCount,
		LastTransactionAt: timePtr(stats.LastTransactionAt),
	})
}

// ListTransactions handles GET /api/v1/transactions.
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.LedgerListParams{Page: page, PageSize: pageSize}

	if s := c.Query("wallet_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.Error(c, apperror.Validation("wallet_id must be a UUID"))
			return
		}
		params.WalletID = &id
	}
	if s := c.Query("patient_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.Error(c, apperror.Validation("patient_id must be a UUID"))
			return
		}
		params.PatientID = &id
	}
	if s := c.Query("type"); s != "" {
		t := domain.TransactionType(s)
		params.Type = &t
	}
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(c, apperror.Validation("from must be RFC 3339"))
			return
		}
		params.From = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			response.Error(c, apperror.Validation("to must be RFC 3339"))
			return
		}
		params.To = &t
	}

	items, total, err := h.walletSvc.ListTransactions(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTransactionList(items, total, page, pageSize))
}

// pathUUID parses a UUID path parameter, writing the error response itself.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.Validation(name+" must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}
