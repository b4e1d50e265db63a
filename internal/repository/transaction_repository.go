package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ledger-api/internal/models"
)

// Sentinel errors shared by the repositories.
var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict is returned when a conditional update matched no
	// row because another writer advanced the version first.
	ErrVersionConflict = errors.New("version conflict")
	// ErrDuplicate is returned when a unique index rejected an insert.
	ErrDuplicate = errors.New("duplicate record")
	// ErrAlreadyMarked is returned when a reversal marker could not be
	// applied because the transaction is already marked reversed.
	ErrAlreadyMarked = errors.New("transaction already marked reversed")
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) error
	GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	GetReversalOf(ctx context.Context, originalTransactionID string) (*models.Transaction, error)
	MarkReversed(ctx context.Context, transactionID string, reversal models.ReversalInfo) error
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, error)
	GetUnreconciledReversals(ctx context.Context, limit int) ([]*models.Transaction, error)
	CreateIndexes(ctx context.Context) error
}

type transactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) TransactionRepository {
	return &transactionRepository{
		collection: db.Collection("transactions"),
	}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	transaction.UpdatedAt = time.Now().UTC()
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = transaction.UpdatedAt
	}

	result, err := r.collection.InsertOne(ctx, transaction)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("transaction %s: %w", transaction.TransactionID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	transaction.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (r *transactionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"transaction_id": transactionID}).Decode(&transaction)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	return &transaction, nil
}

// GetReversalOf finds the compensating transaction for an original, if one
// has been recorded.
func (r *transactionRepository) GetReversalOf(ctx context.Context, originalTransactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"reversal_of": originalTransactionID}).Decode(&transaction)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("reversal of %s: %w", originalTransactionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reversal of %s: %w", originalTransactionID, err)
	}
	return &transaction, nil
}

// MarkReversed sets the reversal marker, guarded so that a transaction can
// be marked at most once. A matched count of zero distinguishes the
// already-marked case from a missing row.
func (r *transactionRepository) MarkReversed(ctx context.Context, transactionID string, reversal models.ReversalInfo) error {
	filter := bson.M{
		"transaction_id":       transactionID,
		"reversal.is_reversed": bson.M{"$ne": true},
	}
	update := bson.M{
		"$set": bson.M{
			"reversal":   reversal,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark transaction %s reversed: %w", transactionID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"transaction_id": transactionID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("transaction %s: %w", transactionID, ErrNotFound)
		}
		return fmt.Errorf("transaction %s: %w", transactionID, ErrAlreadyMarked)
	}
	return nil
}

func (r *transactionRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, error) {
	filter := bson.M{"user_id": userID}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(int64(offset)).
		SetSort(bson.M{"created_at": -1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var transactions []*models.Transaction
	for cursor.Next(ctx) {
		var transaction models.Transaction
		if err := cursor.Decode(&transaction); err != nil {
			continue
		}
		transactions = append(transactions, &transaction)
	}

	return transactions, cursor.Err()
}

// GetUnreconciledReversals returns compensating transactions whose
// original has not been marked reversed yet: the half-committed state the
// reconciliation sweep repairs.
func (r *transactionRepository) GetUnreconciledReversals(ctx context.Context, limit int) ([]*models.Transaction, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"reversal_of": bson.M{"$exists": true, "$ne": ""}}},
		{"$lookup": bson.M{
			"from":         "transactions",
			"localField":   "reversal_of",
			"foreignField": "transaction_id",
			"as":           "original",
		}},
		{"$match": bson.M{"original.reversal.is_reversed": bson.M{"$ne": true}}},
		{"$limit": int64(limit)},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to find unreconciled reversals: %w", err)
	}
	defer cursor.Close(ctx)

	var reversals []*models.Transaction
	for cursor.Next(ctx) {
		var transaction models.Transaction
		if err := cursor.Decode(&transaction); err != nil {
			continue
		}
		reversals = append(reversals, &transaction)
	}

	return reversals, cursor.Err()
}

// CreateIndexes creates the transaction indexes. The unique partial index
// on reversal_of is the storage-level guard against a second compensating
// row for the same original.
func (r *transactionRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reversal_of", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"reversal_of": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "kind", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "reversal.is_reversed", Value: 1}, {Key: "kind", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create transaction indexes: %w", err)
	}
	return nil
}
