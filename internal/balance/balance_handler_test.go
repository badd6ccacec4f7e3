package balance_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leavedesk/internal/balance"
	balanceerrors "go-leavedesk/internal/balance/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, body []byte) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	return env
}

type fakeBalanceService struct {
	getFn     func(ctx context.Context, employeeID string, year int) (balance.LedgerResponse, error)
	historyFn func(ctx context.Context, employeeID string) ([]balance.LedgerResponse, error)
	resetFn   func(ctx context.Context, employeeID string, year int, req balance.ResetBalanceRequest) (balance.LedgerResponse, error)
}

func (f *fakeBalanceService) Get(ctx context.Context, employeeID string, year int) (balance.LedgerResponse, error) {
	return f.getFn(ctx, employeeID, year)
}
func (f *fakeBalanceService) History(ctx context.Context, employeeID string) ([]balance.LedgerResponse, error) {
	return f.historyFn(ctx, employeeID)
}
func (f *fakeBalanceService) Reset(ctx context.Context, employeeID string, year int, req balance.ResetBalanceRequest) (balance.LedgerResponse, error) {
	return f.resetFn(ctx, employeeID, year, req)
}

func TestBalanceHandler_Get(t *testing.T) {
	gin.SetMode(gin.TestMode)
	empID := uuid.NewString()

	t.Run("success with year query", func(t *testing.T) {
		svc := &fakeBalanceService{
			getFn: func(ctx context.Context, employeeID string, year int) (balance.LedgerResponse, error) {
				assert.Equal(t, empID, employeeID)
				assert.Equal(t, 2024, year)
				return balance.LedgerResponse{EmployeeID: employeeID, Year: year, AnnualRemaining: 30, AbsenceRemaining: 15}, nil
			},
		}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/balances/"+empID+"?year=2024", nil)
		c.Params = gin.Params{{Key: "employee_id", Value: empID}}

		balance.NewHandler(svc).Get(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		var got balance.LedgerResponse
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, 30, got.AnnualRemaining)
	})

	t.Run("bad year", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/balances/"+empID+"?year=abc", nil)
		c.Params = gin.Params{{Key: "employee_id", Value: empID}}

		balance.NewHandler(&fakeBalanceService{}).Get(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service not found", func(t *testing.T) {
		svc := &fakeBalanceService{
			getFn: func(ctx context.Context, employeeID string, year int) (balance.LedgerResponse, error) {
				return balance.LedgerResponse{}, balanceerrors.ErrEmployeeNotFound
			},
		}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/balances/"+empID, nil)
		c.Params = gin.Params{{Key: "employee_id", Value: empID}}

		balance.NewHandler(svc).Get(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.False(t, env.Ok)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})
}

func TestBalanceHandler_Reset(t *testing.T) {
	gin.SetMode(gin.TestMode)
	empID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc := &fakeBalanceService{
			resetFn: func(ctx context.Context, employeeID string, year int, req balance.ResetBalanceRequest) (balance.LedgerResponse, error) {
				assert.Equal(t, 2025, year)
				assert.Equal(t, 12, *req.AnnualRemaining)
				return balance.LedgerResponse{EmployeeID: employeeID, Year: year, AnnualRemaining: *req.AnnualRemaining, AbsenceRemaining: *req.AbsenceRemaining}, nil
			},
		}
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/balances/"+empID+"/2025/reset", strings.NewReader(`{"annual_remaining":12,"absence_remaining":0}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "employee_id", Value: empID}, {Key: "year", Value: "2025"}}

		balance.NewHandler(svc).Reset(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPut, "/balances/"+empID+"/2025/reset", strings.NewReader(`{"annual_remaining":-1}`))
		c.Request.Header.Set("Content-Type", "application/json")
		c.Params = gin.Params{{Key: "employee_id", Value: empID}, {Key: "year", Value: "2025"}}

		balance.NewHandler(&fakeBalanceService{}).Reset(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w.Body.Bytes())
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	})
}
