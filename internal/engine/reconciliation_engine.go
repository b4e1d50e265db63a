package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ledger-api/internal/models"
	"ledger-api/internal/repository"
)

// ReconciliationReport summarizes one reconciliation sweep.
type ReconciliationReport struct {
	Scanned  int
	Repaired int
	Failed   int
}

// ReconciliationEngine repairs half-committed reversals: compensating
// transactions whose original was never marked reversed, which happens
// when the process dies between the insert and the marker update.
type ReconciliationEngine interface {
	Run(ctx context.Context) (*ReconciliationReport, error)
}

type reconciliationEngine struct {
	transactions repository.TransactionRepository
	batchSize    int
	logger       *logrus.Logger
}

func NewReconciliationEngine(transactions repository.TransactionRepository, batchSize int, logger *logrus.Logger) ReconciliationEngine {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &reconciliationEngine{
		transactions: transactions,
		batchSize:    batchSize,
		logger:       logger,
	}
}

func (e *reconciliationEngine) Run(ctx context.Context) (*ReconciliationReport, error) {
	reversals, err := e.transactions.GetUnreconciledReversals(ctx, e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("reconciliation scan failed: %w", err)
	}

	report := &ReconciliationReport{Scanned: len(reversals)}
	for _, reversal := range reversals {
		if err := e.repair(ctx, reversal); err != nil {
			report.Failed++
			e.logger.WithFields(logrus.Fields{
				"reversal_transaction_id": reversal.TransactionID,
				"original_transaction_id": reversal.ReversalOf,
				"error":                   err.Error(),
			}).Error("Failed to repair unmarked reversal")
			continue
		}
		report.Repaired++
	}

	if report.Scanned > 0 {
		e.logger.WithFields(logrus.Fields{
			"scanned":  report.Scanned,
			"repaired": report.Repaired,
			"failed":   report.Failed,
		}).Info("Reconciliation sweep completed")
	}

	return report, nil
}

// repair re-applies the reversal marker from the compensating
// transaction's snapshot metadata.
func (e *reconciliationEngine) repair(ctx context.Context, reversal *models.Transaction) error {
	reversedAt := reversal.CreatedAt
	info := models.ReversalInfo{
		IsReversed:            true,
		ReversedAt:            &reversedAt,
		ReversedBy:            reversal.Metadata.ReversedBy,
		ReversalTransactionID: reversal.TransactionID,
		Reason:                reversal.Metadata.ReversalReason,
	}

	err := e.transactions.MarkReversed(ctx, reversal.ReversalOf, info)
	if err != nil {
		// Marked by someone else between the scan and the repair.
		if errors.Is(err, repository.ErrAlreadyMarked) {
			return nil
		}
		return err
	}
	return nil
}
