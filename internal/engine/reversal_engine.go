package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"ledger-api/internal/repository"
)

// ReversalRequest describes one reversal attempt.
type ReversalRequest struct {
	TransactionID  string
	Reason         string
	ReversedBy     string
	IdempotencyKey string
}

// ReversalResult is the outcome of a completed reversal.
type ReversalResult struct {
	Success               bool     `json:"success"`
	ReversalTransactionID string   `json:"reversal_transaction_id"`
	ActionsTaken          []string `json:"actions_taken"`
	Message               string   `json:"message"`
}

// ReversalEngine undoes committed transactions by applying compensating
// adjustments across the affected ledgers and recording a compensating
// transaction.
type ReversalEngine interface {
	ReverseTransaction(ctx context.Context, request *ReversalRequest) (*ReversalResult, error)
}

type reversalEngine struct {
	transactions   repository.TransactionRepository
	adjusters      map[Ledger]LedgerAdjuster
	recorder       *ReversalRecorder
	locks          *repository.ReversalLockManager
	idempotency    repository.IdempotencyRepository
	idempotencyTTL time.Duration
	logger         *logrus.Logger
}

func NewReversalEngine(
	transactions repository.TransactionRepository,
	adjusters []LedgerAdjuster,
	recorder *ReversalRecorder,
	locks *repository.ReversalLockManager,
	idempotency repository.IdempotencyRepository,
	idempotencyTTL time.Duration,
	logger *logrus.Logger,
) ReversalEngine {
	byLedger := make(map[Ledger]LedgerAdjuster, len(adjusters))
	for _, adjuster := range adjusters {
		byLedger[adjuster.Ledger()] = adjuster
	}

	return &reversalEngine{
		transactions:   transactions,
		adjusters:      byLedger,
		recorder:       recorder,
		locks:          locks,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		logger:         logger,
	}
}

func (e *reversalEngine) ReverseTransaction(ctx context.Context, request *ReversalRequest) (*ReversalResult, error) {
	if err := e.validateRequest(request); err != nil {
		return nil, err
	}

	if request.IdempotencyKey != "" {
		var cached ReversalResult
		found, err := e.idempotency.Get(ctx, request.IdempotencyKey, &cached)
		if err != nil {
			e.logger.WithError(err).Warn("Idempotency lookup failed, proceeding without cache")
		} else if found {
			e.logger.WithFields(logrus.Fields{
				"transaction_id":  request.TransactionID,
				"idempotency_key": request.IdempotencyKey,
			}).Info("Replaying cached reversal result")
			return &cached, nil
		}
	}

	token, err := e.locks.Lock(ctx, request.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrLockNotAcquired) {
			return nil, ErrReversalInProgress
		}
		return nil, fmt.Errorf("failed to lock transaction %s: %w", request.TransactionID, err)
	}
	defer func() {
		if unlockErr := e.locks.Unlock(context.WithoutCancel(ctx), request.TransactionID, token); unlockErr != nil {
			e.logger.WithError(unlockErr).WithField("transaction_id", request.TransactionID).
				Warn("Failed to release reversal lock")
		}
	}()

	// Re-read under the lock so a reversal that committed while we were
	// waiting is seen.
	original, err := e.transactions.GetByTransactionID(ctx, request.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", request.TransactionID, err)
	}

	if original.Reversal.IsReversed {
		return nil, ErrAlreadyReversed
	}
	if !original.IsReversible() {
		return nil, ErrNotReversible
	}

	plan := RouteEffects(original)
	if plan.Unknown {
		e.logger.WithFields(logrus.Fields{
			"transaction_id": original.TransactionID,
			"kind":           original.Kind,
		}).Warn("Unknown transaction kind, applying wallet-only reversal")
	}

	trail := NewAuditTrail()
	for _, ledger := range plan.Ledgers {
		adjuster, ok := e.adjusters[ledger]
		if !ok {
			trail.RecordFailure(string(ledger), fmt.Errorf("no adjuster registered"))
			continue
		}
		if err := adjuster.Apply(ctx, original, trail); err != nil {
			e.logger.WithFields(logrus.Fields{
				"transaction_id": original.TransactionID,
				"ledger":         ledger,
				"error":          err.Error(),
			}).Error("Ledger adjustment failed")
			trail.RecordFailure(string(ledger), err)
		}
	}

	// The compensating transaction is recorded even when some ledgers
	// failed; a partial reversal must leave a durable trace of what it
	// did apply. Once adjusters have run the record phase must not be
	// interrupted by request cancellation.
	recordCtx := context.WithoutCancel(ctx)
	reversal := original.NewReversal(request.Reason, request.ReversedBy, trail.Actions())
	recorded, err := e.recorder.Record(recordCtx, original, reversal)
	if err != nil {
		if errors.Is(err, ErrAlreadyReversed) {
			return nil, ErrAlreadyReversed
		}
		return nil, err
	}

	if err := e.recorder.MarkOriginal(recordCtx, original, recorded); err != nil {
		trail.RecordFailure("transaction record", err)
	}

	if trail.HasFailures() {
		return nil, &PartialReversalError{
			ReversalTransactionID: recorded.TransactionID,
			ActionsTaken:          trail.Actions(),
			Failures:              trail.Failures(),
			FailedLedgers:         trail.FailedLedgers(),
		}
	}

	result := &ReversalResult{
		Success:               true,
		ReversalTransactionID: recorded.TransactionID,
		ActionsTaken:          trail.Actions(),
		Message:               fmt.Sprintf("Successfully reversed transaction. %d actions taken.", len(trail.Actions())),
	}

	if request.IdempotencyKey != "" {
		if err := e.idempotency.Set(ctx, request.IdempotencyKey, result, e.idempotencyTTL); err != nil {
			e.logger.WithError(err).Warn("Failed to store idempotency record")
		}
	}

	e.logger.WithFields(logrus.Fields{
		"transaction_id":          original.TransactionID,
		"reversal_transaction_id": recorded.TransactionID,
		"actions":                 len(trail.Actions()),
	}).Info("Transaction reversed")

	return result, nil
}

func (e *reversalEngine) validateRequest(request *ReversalRequest) error {
	if request == nil || request.TransactionID == "" {
		return &ValidationError{Field: "transaction_id", Message: "transaction_id is required"}
	}
	if request.ReversedBy == "" {
		return &ValidationError{Field: "reversed_by", Message: "reversed_by is required"}
	}
	return nil
}
