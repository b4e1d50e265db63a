package engine

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"ledger-api/internal/models"
	"ledger-api/internal/repository"
)

type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	args := m.Called(ctx, transaction)
	return args.Error(0)
}

func (m *mockTransactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) GetReversalOf(ctx context.Context, originalTransactionID string) (*models.Transaction, error) {
	args := m.Called(ctx, originalTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) MarkReversed(ctx context.Context, transactionID string, reversal models.ReversalInfo) error {
	args := m.Called(ctx, transactionID, reversal)
	return args.Error(0)
}

func (m *mockTransactionRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) GetUnreconciledReversals(ctx context.Context, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) CreateIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockWalletRepository struct {
	mock.Mock
}

func (m *mockWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *mockWalletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Wallet), args.Error(1)
}

func (m *mockWalletRepository) UpdateBalances(ctx context.Context, wallet *models.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *mockWalletRepository) CreateIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockCampaignBudgetRepository struct {
	mock.Mock
}

func (m *mockCampaignBudgetRepository) GetByCampaignID(ctx context.Context, campaignID string) (*models.CampaignBudget, error) {
	args := m.Called(ctx, campaignID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CampaignBudget), args.Error(1)
}

func (m *mockCampaignBudgetRepository) UpdateBudgetUsed(ctx context.Context, budget *models.CampaignBudget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *mockCampaignBudgetRepository) CreateIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockBoostBudgetRepository struct {
	mock.Mock
}

func (m *mockBoostBudgetRepository) GetByBoostID(ctx context.Context, boostID string) (*models.BoostBudget, error) {
	args := m.Called(ctx, boostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BoostBudget), args.Error(1)
}

func (m *mockBoostBudgetRepository) UpdateBudgetUsed(ctx context.Context, budget *models.BoostBudget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *mockBoostBudgetRepository) CreateIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockReferralRepository struct {
	mock.Mock
}

func (m *mockReferralRepository) GetByReferralID(ctx context.Context, referralID string) (*models.Referral, error) {
	args := m.Called(ctx, referralID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *mockReferralRepository) UpdateReward(ctx context.Context, referral *models.Referral) error {
	args := m.Called(ctx, referral)
	return args.Error(0)
}

func (m *mockReferralRepository) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockReferralRepository) UpdateProfileEarnings(ctx context.Context, profile *models.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *mockReferralRepository) CreateIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockTeamEarningRepository struct {
	mock.Mock
}

func (m *mockTeamEarningRepository) GetBySourceTransactionID(ctx context.Context, teamID, sourceTransactionID string) (*models.TeamEarning, error) {
	args := m.Called(ctx, teamID, sourceTransactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TeamEarning), args.Error(1)
}

func (m *mockTeamEarningRepository) DeleteBySourceTransactionID(ctx context.Context, teamID, sourceTransactionID string) (int64, error) {
	args := m.Called(ctx, teamID, sourceTransactionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTeamEarningRepository) CreateIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockLockRepository struct {
	mock.Mock
}

func (m *mockLockRepository) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockLockRepository) ReleaseLock(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

func (m *mockLockRepository) ExtendLock(ctx context.Context, key, token string, ttl time.Duration) error {
	args := m.Called(ctx, key, token, ttl)
	return args.Error(0)
}

type mockIdempotencyRepository struct {
	mock.Mock
}

func (m *mockIdempotencyRepository) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *mockIdempotencyRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ repository.TransactionRepository = (*mockTransactionRepository)(nil)
var _ repository.WalletRepository = (*mockWalletRepository)(nil)
var _ repository.CampaignBudgetRepository = (*mockCampaignBudgetRepository)(nil)
var _ repository.BoostBudgetRepository = (*mockBoostBudgetRepository)(nil)
var _ repository.ReferralRepository = (*mockReferralRepository)(nil)
var _ repository.TeamEarningRepository = (*mockTeamEarningRepository)(nil)
var _ repository.LockRepository = (*mockLockRepository)(nil)
var _ repository.IdempotencyRepository = (*mockIdempotencyRepository)(nil)
