package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"ledger-api/internal/models"
	"ledger-api/internal/repository"
)

// ReversalRecorder persists the durable record of a reversal: the
// compensating transaction and the marker on the original.
type ReversalRecorder struct {
	transactions repository.TransactionRepository
	retry        RetryConfig
	logger       *logrus.Logger
}

func NewReversalRecorder(transactions repository.TransactionRepository, retry RetryConfig, logger *logrus.Logger) *ReversalRecorder {
	return &ReversalRecorder{
		transactions: transactions,
		retry:        retry,
		logger:       logger,
	}
}

// Record inserts the compensating transaction for original. The unique
// index on reversal_of makes this the commit point: a duplicate insert
// means another reversal already committed and ErrAlreadyReversed is
// returned with the existing compensating transaction.
func (r *ReversalRecorder) Record(ctx context.Context, original, reversal *models.Transaction) (*models.Transaction, error) {
	err := r.transactions.Create(ctx, reversal)
	if err == nil {
		return reversal, nil
	}

	if errors.Is(err, repository.ErrDuplicate) {
		existing, getErr := r.transactions.GetReversalOf(ctx, original.TransactionID)
		if getErr != nil {
			return nil, fmt.Errorf("%w (existing compensating transaction could not be loaded: %v)", ErrAlreadyReversed, getErr)
		}
		return existing, ErrAlreadyReversed
	}

	return nil, &PersistenceError{Op: "record compensating transaction", Err: err}
}

// MarkOriginal sets the reversal marker on the original transaction. The
// compensating transaction is already durable at this point, so a marking
// failure leaves a repairable half-committed state rather than a lost
// reversal; the reconciliation sweep picks those up.
func (r *ReversalRecorder) MarkOriginal(ctx context.Context, original, reversal *models.Transaction) error {
	info := models.ReversalInfo{
		IsReversed:            true,
		ReversedBy:            reversal.Metadata.ReversedBy,
		ReversalTransactionID: reversal.TransactionID,
		Reason:                reversal.Metadata.ReversalReason,
	}
	now := reversal.CreatedAt
	info.ReversedAt = &now

	err := retryOnConflict(ctx, r.retry, func() error {
		return r.transactions.MarkReversed(ctx, original.TransactionID, info)
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyMarked) {
			return nil
		}
		r.logger.WithFields(logrus.Fields{
			"transaction_id":          original.TransactionID,
			"reversal_transaction_id": reversal.TransactionID,
			"error":                   err.Error(),
		}).Error("Failed to mark original transaction reversed, leaving for reconciliation")
		return fmt.Errorf("failed to mark original %s reversed: %w", original.TransactionID, err)
	}
	return nil
}
