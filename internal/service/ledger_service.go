package service

import (
	"context"

	"ledger-api/internal/models"
	"ledger-api/internal/repository"
)

// LedgerService serves the read side of the ledger API.
type LedgerService interface {
	GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, error)
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	GetAuditLogs(ctx context.Context, transactionID string) ([]*models.AuditLog, error)
}

type ledgerService struct {
	transactions repository.TransactionRepository
	wallets      repository.WalletRepository
	auditLogs    repository.AuditLogRepository
}

func NewLedgerService(
	transactions repository.TransactionRepository,
	wallets repository.WalletRepository,
	auditLogs repository.AuditLogRepository,
) LedgerService {
	return &ledgerService{
		transactions: transactions,
		wallets:      wallets,
		auditLogs:    auditLogs,
	}
}

func (s *ledgerService) GetTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.transactions.GetByTransactionID(ctx, transactionID)
}

func (s *ledgerService) GetUserTransactions(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.transactions.GetByUserID(ctx, userID, limit, offset)
}

func (s *ledgerService) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.wallets.GetByUserID(ctx, userID)
}

func (s *ledgerService) GetAuditLogs(ctx context.Context, transactionID string) ([]*models.AuditLog, error) {
	return s.auditLogs.GetByTransactionID(ctx, transactionID)
}
