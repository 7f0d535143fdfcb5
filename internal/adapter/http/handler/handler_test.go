package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-ledger/internal/adapter/http/dto"
	"clinic-ledger/internal/adapter/http/middleware"
	"clinic-ledger/internal/core/domain"
	"clinic-ledger/internal/core/ports"
	"clinic-ledger/internal/core/ports/mocks"
	"clinic-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testContext builds a gin context with an authenticated staff member and an
// optional :id path parameter.
func testContext(t *testing.T, method, path string, body interface{}, actor domain.Actor, id string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")

	c.Set(middleware.CtxStaffID, actor.ID)
	c.Set(middleware.CtxStaffName, actor.Name)
	if id != "" {
		c.Params = gin.Params{{Key: "id", Value: id}}
	}
	return c, w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %s", w.Body.String())
	return data
}

// --- Wallet Handler Tests ---

func TestWalletCreate_GetOrCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)

	patientID := uuid.New()
	wallet := domain.NewWallet(patientID)
	walletSvc.EXPECT().GetOrCreate(gomock.Any(), patientID).Return(wallet, nil)

	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/api/v1/wallets", dto.CreateWalletRequest{
		PatientID: patientID.String(),
	}, actor, "")

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataField(t, w)
	assert.Equal(t, wallet.ID.String(), data["id"])
	assert.Equal(t, patientID.String(), data["patient_id"])
	assert.Equal(t, "0.00", data["balance"])
}

func TestWalletDeposit_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)

	walletID := uuid.New()
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	entry := domain.NewDeposit(walletID, decimal.NewFromInt(50), decimal.RequireFromString("100.00"), "CASH", "copay", actor)

	walletSvc.EXPECT().Deposit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.DepositRequest) (*domain.LedgerTransaction, error) {
			assert.Equal(t, walletID, req.WalletID)
			assert.True(t, req.Amount.Equal(decimal.RequireFromString("100.00")))
			assert.Equal(t, "CASH", req.Method)
			assert.Equal(t, actor.ID, req.By.ID)
			return entry, nil
		})

	c, w := testContext(t, http.MethodPost, "/deposit", dto.DepositRequest{
		Amount: "100.00",
		Method: "CASH",
	}, actor, walletID.String())

	h.Deposit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "DEPOSIT", data["type"])
	assert.Equal(t, "100.00", data["amount"])
	assert.Equal(t, "150.00", data["balance_after"])
}

func TestWalletDeposit_MalformedAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}

	for _, amount := range []string{"abc", "1e3", "10.001"} {
		c, w := testContext(t, http.MethodPost, "/deposit", dto.DepositRequest{
			Amount: amount,
		}, actor, uuid.New().String())

		h.Deposit(c)

		assert.Equal(t, http.StatusBadRequest, w.Code, "amount %q", amount)
		assert.Contains(t, w.Body.String(), "WAL_001")
	}
}

func TestWalletDeposit_BadWalletID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}

	c, w := testContext(t, http.MethodPost, "/deposit", dto.DepositRequest{
		Amount: "10.00",
	}, actor, "not-a-uuid")

	h.Deposit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "REQ_001")
}

func TestWalletWithdraw_InsufficientBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)

	walletSvc.EXPECT().Withdraw(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrInsufficientBalance())

	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/withdraw", dto.WithdrawRequest{
		Amount: "999.00",
	}, actor, uuid.New().String())

	h.Withdraw(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "WAL_002")
}

func TestWalletPay_MissingReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewWalletHandler(mocks.NewMockWalletService(ctrl))
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}

	c, w := testContext(t, http.MethodPost, "/pay", dto.PayRequest{
		Amount: "40.00",
	}, actor, uuid.New().String())

	h.Pay(c)

	// binding rejects the empty reference_id
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWalletAdjust_Negative(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)

	walletID := uuid.New()
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	entry := domain.NewAdjustment(walletID, decimal.NewFromInt(50), decimal.RequireFromString("-20.00"), "billing correction", actor)

	walletSvc.EXPECT().Adjust(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.AdjustRequest) (*domain.LedgerTransaction, error) {
			assert.True(t, req.SignedAmount.Equal(decimal.RequireFromString("-20.00")))
			return entry, nil
		})

	c, w := testContext(t, http.MethodPost, "/adjust", dto.AdjustRequest{
		Amount:      "-20.00",
		Description: "billing correction",
	}, actor, walletID.String())

	h.Adjust(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "ADJUSTMENT", data["type"])
	assert.Equal(t, "30.00", data["balance_after"])
}

func TestWalletSetActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)

	walletID := uuid.New()
	walletSvc.EXPECT().SetActive(gomock.Any(), walletID, false).Return(nil)

	active := false
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPatch, "/active", dto.SetActiveRequest{
		Active: &active,
	}, actor, walletID.String())

	h.SetActive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, false, data["is_active"])
}

func TestListTransactions_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	walletSvc := mocks.NewMockWalletService(ctrl)
	h := NewWalletHandler(walletSvc)

	walletID := uuid.New()
	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	entry := domain.NewDeposit(walletID, decimal.Zero, decimal.NewFromInt(100), "CASH", "", actor)

	walletSvc.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, params ports.LedgerListParams) ([]domain.LedgerTransaction, int64, error) {
			require.NotNil(t, params.WalletID)
			assert.Equal(t, walletID, *params.WalletID)
			require.NotNil(t, params.Type)
			assert.Equal(t, domain.TransactionTypeDeposit, *params.Type)
			assert.Equal(t, 2, params.Page)
			assert.Equal(t, 10, params.PageSize)
			return []domain.LedgerTransaction{*entry}, 11, nil
		})

	c, w := testContext(t, http.MethodGet,
		"/api/v1/transactions?wallet_id="+walletID.String()+"&type=DEPOSIT&page=2&page_size=10",
		nil, actor, "")

	h.ListTransactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, float64(11), data["total"])
	assert.Equal(t, float64(2), data["total_pages"])
}

// --- Shift Handler Tests ---

func TestShiftSchedule_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shiftSvc := mocks.NewMockShiftService(ctrl)
	h := NewShiftHandler(shiftSvc)

	staffID := uuid.New()
	start := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	end := start.Add(8 * time.Hour)
	shift := domain.NewScheduledShift(staffID, "MORNING", start, end)

	shiftSvc.EXPECT().Schedule(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.ScheduleShiftRequest) (*domain.Shift, error) {
			assert.Equal(t, staffID, req.StaffID)
			assert.Equal(t, "MORNING", req.ShiftType)
			assert.True(t, req.ScheduledStart.Equal(start))
			return shift, nil
		})

	actor := domain.Actor{ID: staffID, Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/api/v1/shifts", dto.ScheduleShiftRequest{
		StaffID:        staffID.String(),
		ShiftType:      "MORNING",
		ScheduledStart: start.Format(time.RFC3339),
		ScheduledEnd:   end.Format(time.RFC3339),
	}, actor, "")

	h.Schedule(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "SCHEDULED", data["status"])
	assert.Equal(t, staffID.String(), data["staff_id"])
}

func TestShiftStart_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shiftSvc := mocks.NewMockShiftService(ctrl)
	h := NewShiftHandler(shiftSvc)

	staffID := uuid.New()
	shift := domain.NewScheduledShift(staffID, "MORNING", time.Now(), time.Now().Add(8*time.Hour))
	shift.Activate(decimal.NewFromInt(100), time.Now())

	shiftSvc.EXPECT().Start(gomock.Any(), shift.ID, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, _ uuid.UUID, openingCash decimal.Decimal, by domain.Actor) (*domain.Shift, error) {
			assert.True(t, openingCash.Equal(decimal.NewFromInt(100)))
			assert.Equal(t, staffID, by.ID)
			return shift, nil
		})

	actor := domain.Actor{ID: staffID, Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/start", dto.StartShiftRequest{
		OpeningCash: "100.00",
	}, actor, shift.ID.String())

	h.Start(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "ACTIVE", data["status"])
	assert.Equal(t, "100.00", data["cash_balance"])
}

func TestShiftStart_AlreadyActive(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shiftSvc := mocks.NewMockShiftService(ctrl)
	h := NewShiftHandler(shiftSvc)

	shiftSvc.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrShiftStateConflict("shift is ACTIVE"))

	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/start", dto.StartShiftRequest{
		OpeningCash: "100.00",
	}, actor, uuid.New().String())

	h.Start(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "SHF_001")
}

func TestShiftEnd_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shiftSvc := mocks.NewMockShiftService(ctrl)
	h := NewShiftHandler(shiftSvc)

	staffID := uuid.New()
	shift := domain.NewScheduledShift(staffID, "MORNING", time.Now(), time.Now().Add(8*time.Hour))
	shift.Activate(decimal.NewFromInt(100), time.Now())
	shift.Complete(decimal.NewFromInt(200), decimal.NewFromInt(195), nil, time.Now())

	shiftSvc.EXPECT().End(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.EndShiftRequest) (*domain.Shift, error) {
			assert.True(t, req.ClosingCash.Equal(decimal.NewFromInt(195)))
			return shift, nil
		})

	actor := domain.Actor{ID: staffID, Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/end", dto.EndShiftRequest{
		ClosingCash: "195.00",
	}, actor, shift.ID.String())

	h.End(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "COMPLETED", data["status"])
	assert.Equal(t, "-5.00", data["cash_discrepancy"])
}

func TestShiftCashOut_InsufficientDrawer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shiftSvc := mocks.NewMockShiftService(ctrl)
	h := NewShiftHandler(shiftSvc)

	shiftSvc.EXPECT().RecordCashOut(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInsufficientDrawerCash())

	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/cash-out", dto.CashMovementRequest{
		Amount: "500.00",
	}, actor, uuid.New().String())

	h.RecordCashOut(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "SHF_003")
}

func TestShiftGetActive_None(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	shiftSvc := mocks.NewMockShiftService(ctrl)
	h := NewShiftHandler(shiftSvc)

	actor := domain.Actor{ID: uuid.New(), Name: "Dr. Chen"}
	shiftSvc.EXPECT().GetActive(gomock.Any(), actor.ID).Return(nil, nil)

	c, w := testContext(t, http.MethodGet, "/api/v1/shifts/active", nil, actor, "")

	h.GetActive(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RES_001")
}

// --- Handover Handler Tests ---

func TestHandoverInitiate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handoverSvc := mocks.NewMockHandoverService(ctrl)
	h := NewHandoverHandler(handoverSvc)

	fromStaffID := uuid.New()
	toStaffID := uuid.New()
	fromShiftID := uuid.New()
	handover := domain.NewCashHandover(fromStaffID, toStaffID, fromShiftID, decimal.NewFromInt(300), nil)

	handoverSvc.EXPECT().Initiate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.InitiateHandoverRequest) (*domain.CashHandover, error) {
			assert.Equal(t, fromStaffID, req.FromStaffID)
			assert.Equal(t, toStaffID, req.ToStaffID)
			assert.Equal(t, fromShiftID, req.FromShiftID)
			return handover, nil
		})

	actor := domain.Actor{ID: fromStaffID, Name: "Dr. Chen"}
	c, w := testContext(t, http.MethodPost, "/api/v1/handovers", dto.InitiateHandoverRequest{
		ToStaffID:   toStaffID.String(),
		FromShiftID: fromShiftID.String(),
	}, actor, "")

	h.Initiate(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	data := dataField(t, w)
	assert.Equal(t, "PENDING", data["status"])
	assert.Equal(t, "300.00", data["declared_cash"])
}

func TestHandoverReceive_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handoverSvc := mocks.NewMockHandoverService(ctrl)
	h := NewHandoverHandler(handoverSvc)

	toStaffID := uuid.New()
	handover := domain.NewCashHandover(uuid.New(), toStaffID, uuid.New(), decimal.NewFromInt(300), nil)
	newShift := domain.NewScheduledShift(toStaffID, "EVENING", time.Now(), time.Now().Add(8*time.Hour))
	newShift.Activate(decimal.RequireFromString("295.00"), time.Now())
	handover.Complete(newShift.ID, decimal.RequireFromString("295.00"), nil, time.Now())

	handoverSvc.EXPECT().Receive(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ interface{}, req ports.ReceiveHandoverRequest) (*domain.CashHandover, *domain.Shift, error) {
			assert.Equal(t, handover.ID, req.HandoverID)
			assert.Equal(t, toStaffID, req.ByStaff.ID)
			assert.True(t, req.ConfirmedCash.Equal(decimal.RequireFromString("295.00")))
			return handover, newShift, nil
		})

	actor := domain.Actor{ID: toStaffID, Name: "Nurse Patel"}
	c, w := testContext(t, http.MethodPost, "/receive", dto.ReceiveHandoverRequest{
		ConfirmedCash: "295.00",
		ShiftType:     "EVENING",
		ScheduledEnd:  time.Now().Add(8 * time.Hour).Format(time.RFC3339),
	}, actor, handover.ID.String())

	h.Receive(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	hv := data["handover"].(map[string]interface{})
	ns := data["new_shift"].(map[string]interface{})
	assert.Equal(t, "COMPLETED", hv["status"])
	assert.Equal(t, "-5.00", hv["discrepancy"])
	assert.Equal(t, "ACTIVE", ns["status"])
	assert.Equal(t, "295.00", ns["cash_balance"])
}

func TestHandoverReceive_WrongStaff(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handoverSvc := mocks.NewMockHandoverService(ctrl)
	h := NewHandoverHandler(handoverSvc)

	handoverSvc.EXPECT().Receive(gomock.Any(), gomock.Any()).
		Return(nil, nil, apperror.ErrHandoverUnauthorized())

	actor := domain.Actor{ID: uuid.New(), Name: "Intruder"}
	c, w := testContext(t, http.MethodPost, "/receive", dto.ReceiveHandoverRequest{
		ConfirmedCash: "295.00",
		ShiftType:     "EVENING",
		ScheduledEnd:  time.Now().Add(8 * time.Hour).Format(time.RFC3339),
	}, actor, uuid.New().String())

	h.Receive(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "HND_002")
}

func TestHandoverListPending_DefaultsToCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handoverSvc := mocks.NewMockHandoverService(ctrl)
	h := NewHandoverHandler(handoverSvc)

	actor := domain.Actor{ID: uuid.New(), Name: "Nurse Patel"}
	handover := domain.NewCashHandover(uuid.New(), actor.ID, uuid.New(), decimal.NewFromInt(120), nil)
	handoverSvc.EXPECT().ListPending(gomock.Any(), actor.ID).
		Return([]domain.CashHandover{*handover}, nil)

	c, w := testContext(t, http.MethodGet, "/api/v1/handovers/pending", nil, actor, "")

	h.ListPending(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "PENDING", items[0].(map[string]interface{})["status"])
}

// --- Health Handler Tests ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Ping(_ context.Context) error { return f.err }
func (f fakeChecker) Name() string                 { return f.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", HealthCheck(
		fakeChecker{name: "postgresql"},
		fakeChecker{name: "redis", err: errors.New("connection refused")},
	))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	assert.Equal(t, "unhealthy", deps["redis"].(map[string]interface{})["status"])
}
