package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ledger-api/internal/models"
)

type WalletRepository interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	GetByUserID(ctx context.Context, userID string) (*models.Wallet, error)
	UpdateBalances(ctx context.Context, wallet *models.Wallet) error
	CreateIndexes(ctx context.Context) error
}

type walletRepository struct {
	collection *mongo.Collection
}

func NewWalletRepository(db *mongo.Database) WalletRepository {
	return &walletRepository{
		collection: db.Collection("wallets"),
	}
}

func (r *walletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	now := time.Now().UTC()
	wallet.CreatedAt = now
	wallet.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, wallet)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("wallet for user %s: %w", wallet.UserID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	wallet.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&wallet)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("wallet for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get wallet for user %s: %w", userID, err)
	}
	return &wallet, nil
}

// UpdateBalances writes the wallet's balance fields conditionally on the
// version read. A matched count of zero means a concurrent writer won and
// the caller must re-read and retry.
func (r *walletRepository) UpdateBalances(ctx context.Context, wallet *models.Wallet) error {
	filter := bson.M{
		"user_id": wallet.UserID,
		"version": wallet.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"balance":         wallet.Balance,
			"total_earned":    wallet.TotalEarned,
			"total_withdrawn": wallet.TotalWithdrawn,
			"updated_at":      time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update wallet for user %s: %w", wallet.UserID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"user_id": wallet.UserID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("wallet for user %s: %w", wallet.UserID, ErrNotFound)
		}
		return fmt.Errorf("wallet for user %s: %w", wallet.UserID, ErrVersionConflict)
	}

	wallet.Version++
	return nil
}

func (r *walletRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create wallet indexes: %w", err)
	}
	return nil
}
