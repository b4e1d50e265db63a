package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ledger-api/internal/engine"
	"ledger-api/internal/messaging"
	"ledger-api/internal/models"
	"ledger-api/internal/monitoring"
	"ledger-api/internal/repository"
)

// AdminService fronts the reversal engine for the admin API: it runs the
// reversal, persists the audit record, publishes the event, and keeps the
// metrics honest, regardless of outcome.
type AdminService interface {
	UndoTransaction(ctx context.Context, request *engine.ReversalRequest) (*engine.ReversalResult, error)
}

type adminService struct {
	engine       engine.ReversalEngine
	transactions repository.TransactionRepository
	auditLogs    repository.AuditLogRepository
	publisher    messaging.EventPublisher
	metrics      *monitoring.Metrics
	logger       *logrus.Logger
}

func NewAdminService(
	reversalEngine engine.ReversalEngine,
	transactions repository.TransactionRepository,
	auditLogs repository.AuditLogRepository,
	publisher messaging.EventPublisher,
	metrics *monitoring.Metrics,
	logger *logrus.Logger,
) AdminService {
	return &adminService{
		engine:       reversalEngine,
		transactions: transactions,
		auditLogs:    auditLogs,
		publisher:    publisher,
		metrics:      metrics,
		logger:       logger,
	}
}

func (s *adminService) UndoTransaction(ctx context.Context, request *engine.ReversalRequest) (*engine.ReversalResult, error) {
	start := time.Now()

	result, err := s.engine.ReverseTransaction(ctx, request)
	duration := time.Since(start)

	outcome := s.classify(err)
	s.metrics.ObserveReversal(outcome, duration)

	var partial *engine.PartialReversalError
	if errors.As(err, &partial) {
		for _, ledger := range partial.FailedLedgers {
			s.metrics.ObserveAdjusterFailure(ledger)
		}
	}

	// malformed requests never reached the ledger and name no transaction
	var validation *engine.ValidationError
	if !errors.As(err, &validation) {
		s.recordAudit(ctx, request, result, partial, outcome, duration)
	}

	if result != nil {
		s.publishReversed(ctx, request, result.ReversalTransactionID, result.ActionsTaken, false)
	} else if partial != nil {
		s.publishReversed(ctx, request, partial.ReversalTransactionID, partial.ActionsTaken, true)
	}

	return result, err
}

func (s *adminService) classify(err error) string {
	switch {
	case err == nil:
		return monitoring.OutcomeSuccess
	case errors.Is(err, engine.ErrAlreadyReversed):
		return monitoring.OutcomeAlreadyReversed
	case errors.Is(err, engine.ErrNotReversible):
		return monitoring.OutcomeNotReversible
	case errors.Is(err, engine.ErrTransactionNotFound):
		return monitoring.OutcomeNotFound
	case errors.Is(err, engine.ErrReversalInProgress):
		return monitoring.OutcomeInProgress
	default:
		var partial *engine.PartialReversalError
		if errors.As(err, &partial) {
			return monitoring.OutcomePartial
		}
		return monitoring.OutcomeError
	}
}

// recordAudit writes the durable audit row. Every attempt is recorded,
// including rejected ones: who tried to reverse an already-reversed
// transaction is itself compliance-relevant.
func (s *adminService) recordAudit(
	ctx context.Context,
	request *engine.ReversalRequest,
	result *engine.ReversalResult,
	partial *engine.PartialReversalError,
	outcome string,
	duration time.Duration,
) {
	log := &models.AuditLog{
		Action:        "undo_transaction",
		TransactionID: request.TransactionID,
		PerformedBy:   request.ReversedBy,
		Reason:        request.Reason,
		DurationMs:    duration.Milliseconds(),
	}

	switch {
	case result != nil:
		log.Outcome = models.AuditOutcomeSuccess
		log.ActionsTaken = result.ActionsTaken
	case partial != nil:
		log.Outcome = models.AuditOutcomePartial
		log.ActionsTaken = partial.ActionsTaken
		log.Failures = partial.Failures
	case outcome == monitoring.OutcomeAlreadyReversed,
		outcome == monitoring.OutcomeNotReversible,
		outcome == monitoring.OutcomeInProgress,
		outcome == monitoring.OutcomeNotFound:
		log.Outcome = models.AuditOutcomeRejected
		log.Failures = []string{outcome}
	default:
		log.Outcome = models.AuditOutcomeFailed
	}

	if err := s.auditLogs.Create(ctx, log); err != nil {
		s.logger.WithError(err).WithField("transaction_id", request.TransactionID).
			Error("Failed to persist audit log")
	}
}

func (s *adminService) publishReversed(ctx context.Context, request *engine.ReversalRequest, reversalTxID string, actions []string, isPartial bool) {
	event := &messaging.TransactionReversedEvent{
		TransactionID:         request.TransactionID,
		ReversalTransactionID: reversalTxID,
		Reason:                request.Reason,
		ReversedBy:            request.ReversedBy,
		ActionsTaken:          actions,
		Partial:               isPartial,
		OccurredAt:            time.Now().UTC(),
	}

	if original, err := s.transactions.GetByTransactionID(ctx, request.TransactionID); err == nil {
		event.UserID = original.UserID
		event.Amount = original.Amount.String()
	}

	if err := s.publisher.PublishTransactionReversed(ctx, event); err != nil {
		s.logger.WithError(err).WithField("transaction_id", request.TransactionID).
			Error("Failed to publish transaction.reversed event")
	}
}
