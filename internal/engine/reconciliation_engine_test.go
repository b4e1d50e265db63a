package engine

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ledger-api/internal/models"
	"ledger-api/internal/repository"
)

func unmarkedReversal(originalID string) *models.Transaction {
	return &models.Transaction{
		TransactionID: "REV-" + originalID,
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(-50),
		Kind:          models.KindBalanceCorrection,
		Status:        models.StatusCompleted,
		ReversalOf:    originalID,
		Metadata: models.TransactionMetadata{
			OriginalTransactionID: originalID,
			ReversalReason:        "Admin reversal",
			ReversedBy:            "admin-1",
		},
		CreatedAt: time.Now().UTC().Add(-time.Minute),
	}
}

func TestReconciliationRun_RepairsUnmarkedOriginals(t *testing.T) {
	transactions := &mockTransactionRepository{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	transactions.On("GetUnreconciledReversals", mock.Anything, 100).
		Return([]*models.Transaction{unmarkedReversal("TXN-1"), unmarkedReversal("TXN-2")}, nil)

	transactions.On("MarkReversed", mock.Anything, "TXN-1", mock.MatchedBy(func(info models.ReversalInfo) bool {
		return info.IsReversed &&
			info.ReversalTransactionID == "REV-TXN-1" &&
			info.ReversedBy == "admin-1"
	})).Return(nil)
	transactions.On("MarkReversed", mock.Anything, "TXN-2", mock.Anything).Return(nil)

	reconciler := NewReconciliationEngine(transactions, 100, log)
	report, err := reconciler.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 2, report.Repaired)
	assert.Equal(t, 0, report.Failed)
	transactions.AssertExpectations(t)
}

func TestReconciliationRun_AlreadyMarkedCountsAsRepaired(t *testing.T) {
	transactions := &mockTransactionRepository{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	transactions.On("GetUnreconciledReversals", mock.Anything, 100).
		Return([]*models.Transaction{unmarkedReversal("TXN-1")}, nil)
	transactions.On("MarkReversed", mock.Anything, "TXN-1", mock.Anything).
		Return(repository.ErrAlreadyMarked)

	reconciler := NewReconciliationEngine(transactions, 100, log)
	report, err := reconciler.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, 0, report.Failed)
}

func TestReconciliationRun_CountsFailures(t *testing.T) {
	transactions := &mockTransactionRepository{}
	log := logrus.New()
	log.SetOutput(io.Discard)

	transactions.On("GetUnreconciledReversals", mock.Anything, 100).
		Return([]*models.Transaction{unmarkedReversal("TXN-1")}, nil)
	transactions.On("MarkReversed", mock.Anything, "TXN-1", mock.Anything).
		Return(assert.AnError)

	reconciler := NewReconciliationEngine(transactions, 100, log)
	report, err := reconciler.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, report.Repaired)
	assert.Equal(t, 1, report.Failed)
}
