package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledger-api/internal/engine"
)

type mockAdminService struct {
	mock.Mock
}

func (m *mockAdminService) UndoTransaction(ctx context.Context, request *engine.ReversalRequest) (*engine.ReversalResult, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*engine.ReversalResult), args.Error(1)
}

func setupAdminRouter(admin *mockAdminService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	log := logrus.New()
	log.SetOutput(io.Discard)

	router := gin.New()
	router.POST("/api/ledger/admin/undo-transaction", func(c *gin.Context) {
		c.Set("user_id", "admin-1")
		c.Set("user_role", "admin")
	}, NewAdminController(admin, log).UndoTransaction)
	return router
}

func postUndo(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/ledger/admin/undo-transaction", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUndoTransaction_Success(t *testing.T) {
	admin := &mockAdminService{}
	router := setupAdminRouter(admin)

	admin.On("UndoTransaction", mock.Anything, mock.MatchedBy(func(r *engine.ReversalRequest) bool {
		return r.TransactionID == "TXN-1" && r.Reason == "Fraud" && r.ReversedBy == "admin-1"
	})).Return(&engine.ReversalResult{
		Success:               true,
		ReversalTransactionID: "REV-TXN-1",
		ActionsTaken:          []string{"Updated wallet balance by $-50.00"},
		Message:               "Successfully reversed transaction. 1 actions taken.",
	}, nil)

	rec := postUndo(router, `{"transaction_id":"TXN-1","reason":"Fraud"}`)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body engine.ReversalResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "REV-TXN-1", body.ReversalTransactionID)
	admin.AssertExpectations(t)
}

func TestUndoTransaction_BadRequestBody(t *testing.T) {
	admin := &mockAdminService{}
	router := setupAdminRouter(admin)

	tests := []struct {
		name string
		body string
	}{
		{name: "missing transaction id", body: `{"reason":"Fraud"}`},
		{name: "malformed json", body: `{`},
		{name: "bad transaction id characters", body: `{"transaction_id":"no spaces allowed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postUndo(router, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	admin.AssertNotCalled(t, "UndoTransaction", mock.Anything, mock.Anything)
}

func TestUndoTransaction_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        engine.ErrTransactionNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "already reversed",
			err:        engine.ErrAlreadyReversed,
			wantStatus: http.StatusConflict,
			wantCode:   "already_reversed",
		},
		{
			name:       "not reversible",
			err:        engine.ErrNotReversible,
			wantStatus: http.StatusConflict,
			wantCode:   "not_reversible",
		},
		{
			name:       "in progress",
			err:        engine.ErrReversalInProgress,
			wantStatus: http.StatusConflict,
			wantCode:   "reversal_in_progress",
		},
		{
			name:       "validation",
			err:        &engine.ValidationError{Field: "reversed_by", Message: "reversed_by is required"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation_failed",
		},
		{
			name:       "persistence",
			err:        &engine.PersistenceError{Op: "record compensating transaction", Err: assert.AnError},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			admin := &mockAdminService{}
			router := setupAdminRouter(admin)
			admin.On("UndoTransaction", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := postUndo(router, `{"transaction_id":"TXN-1"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestUndoTransaction_PartialFailureIncludesActions(t *testing.T) {
	admin := &mockAdminService{}
	router := setupAdminRouter(admin)

	admin.On("UndoTransaction", mock.Anything, mock.Anything).Return(nil, &engine.PartialReversalError{
		ReversalTransactionID: "REV-TXN-1",
		ActionsTaken:          []string{"Updated wallet balance by $-50.00"},
		Failures:              []string{"Failed to update campaign_budget: campaign budget camp-1: not found"},
		FailedLedgers:         []string{"campaign_budget"},
	})

	rec := postUndo(router, `{"transaction_id":"TXN-1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "partial_reversal", body.Code)
	assert.Equal(t, []string{"Updated wallet balance by $-50.00"}, body.ActionsTaken)
	require.Len(t, body.Failures, 1)
	assert.Contains(t, body.Failures[0], "campaign_budget")
}

func TestUndoTransaction_ForwardsIdempotencyKey(t *testing.T) {
	admin := &mockAdminService{}
	router := setupAdminRouter(admin)

	admin.On("UndoTransaction", mock.Anything, mock.MatchedBy(func(r *engine.ReversalRequest) bool {
		return r.IdempotencyKey == "key-123"
	})).Return(&engine.ReversalResult{Success: true}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/ledger/admin/undo-transaction",
		bytes.NewBufferString(`{"transaction_id":"TXN-1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "key-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	admin.AssertExpectations(t)
}
