package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"ledger-api/internal/config"
	"ledger-api/internal/repository"
)

// ConnectMongo opens and verifies the MongoDB connection.
func ConnectMongo(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// ConnectRedis opens and verifies the Redis connection.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Repositories bundles every store the service uses.
type Repositories struct {
	Transactions    repository.TransactionRepository
	Wallets         repository.WalletRepository
	CampaignBudgets repository.CampaignBudgetRepository
	BoostBudgets    repository.BoostBudgetRepository
	Referrals       repository.ReferralRepository
	TeamEarnings    repository.TeamEarningRepository
	AuditLogs       repository.AuditLogRepository
	Locks           repository.LockRepository
	Idempotency     repository.IdempotencyRepository
}

func NewRepositories(db *mongo.Database, redisClient *redis.Client) *Repositories {
	return &Repositories{
		Transactions:    repository.NewTransactionRepository(db),
		Wallets:         repository.NewWalletRepository(db),
		CampaignBudgets: repository.NewCampaignBudgetRepository(db),
		BoostBudgets:    repository.NewBoostBudgetRepository(db),
		Referrals:       repository.NewReferralRepository(db),
		TeamEarnings:    repository.NewTeamEarningRepository(db),
		AuditLogs:       repository.NewAuditLogRepository(db),
		Locks:           repository.NewLockRepository(redisClient),
		Idempotency:     repository.NewIdempotencyRepository(redisClient),
	}
}

// EnsureIndexes creates every collection's indexes. Safe to run on every
// startup.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	indexed := []interface {
		CreateIndexes(ctx context.Context) error
	}{
		r.Transactions,
		r.Wallets,
		r.CampaignBudgets,
		r.BoostBudgets,
		r.Referrals,
		r.TeamEarnings,
		r.AuditLogs,
	}

	for _, repo := range indexed {
		if err := repo.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
