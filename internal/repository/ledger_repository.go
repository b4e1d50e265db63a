package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ledger-api/internal/models"
)

// CampaignBudgetRepository tracks spend against campaign budgets.
type CampaignBudgetRepository interface {
	GetByCampaignID(ctx context.Context, campaignID string) (*models.CampaignBudget, error)
	UpdateBudgetUsed(ctx context.Context, budget *models.CampaignBudget) error
	CreateIndexes(ctx context.Context) error
}

type campaignBudgetRepository struct {
	collection *mongo.Collection
}

func NewCampaignBudgetRepository(db *mongo.Database) CampaignBudgetRepository {
	return &campaignBudgetRepository{
		collection: db.Collection("campaign_budgets"),
	}
}

func (r *campaignBudgetRepository) GetByCampaignID(ctx context.Context, campaignID string) (*models.CampaignBudget, error) {
	var budget models.CampaignBudget
	err := r.collection.FindOne(ctx, bson.M{"campaign_id": campaignID}).Decode(&budget)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("campaign budget %s: %w", campaignID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get campaign budget %s: %w", campaignID, err)
	}
	return &budget, nil
}

func (r *campaignBudgetRepository) UpdateBudgetUsed(ctx context.Context, budget *models.CampaignBudget) error {
	filter := bson.M{
		"campaign_id": budget.CampaignID,
		"version":     budget.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"budget_used": budget.BudgetUsed,
			"updated_at":  time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update campaign budget %s: %w", budget.CampaignID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"campaign_id": budget.CampaignID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("campaign budget %s: %w", budget.CampaignID, ErrNotFound)
		}
		return fmt.Errorf("campaign budget %s: %w", budget.CampaignID, ErrVersionConflict)
	}

	budget.Version++
	return nil
}

func (r *campaignBudgetRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "campaign_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create campaign budget indexes: %w", err)
	}
	return nil
}

// BoostBudgetRepository tracks spend against boost budgets.
type BoostBudgetRepository interface {
	GetByBoostID(ctx context.Context, boostID string) (*models.BoostBudget, error)
	UpdateBudgetUsed(ctx context.Context, budget *models.BoostBudget) error
	CreateIndexes(ctx context.Context) error
}

type boostBudgetRepository struct {
	collection *mongo.Collection
}

func NewBoostBudgetRepository(db *mongo.Database) BoostBudgetRepository {
	return &boostBudgetRepository{
		collection: db.Collection("boost_budgets"),
	}
}

func (r *boostBudgetRepository) GetByBoostID(ctx context.Context, boostID string) (*models.BoostBudget, error) {
	var budget models.BoostBudget
	err := r.collection.FindOne(ctx, bson.M{"boost_id": boostID}).Decode(&budget)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("boost budget %s: %w", boostID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get boost budget %s: %w", boostID, err)
	}
	return &budget, nil
}

func (r *boostBudgetRepository) UpdateBudgetUsed(ctx context.Context, budget *models.BoostBudget) error {
	filter := bson.M{
		"boost_id": budget.BoostID,
		"version":  budget.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"budget_used": budget.BudgetUsed,
			"updated_at":  time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update boost budget %s: %w", budget.BoostID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.collection.CountDocuments(ctx, bson.M{"boost_id": budget.BoostID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("boost budget %s: %w", budget.BoostID, ErrNotFound)
		}
		return fmt.Errorf("boost budget %s: %w", budget.BoostID, ErrVersionConflict)
	}

	budget.Version++
	return nil
}

func (r *boostBudgetRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "boost_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create boost budget indexes: %w", err)
	}
	return nil
}

// ReferralRepository covers both sides of a referral payout: the referral
// row's accumulated reward and the referrer profile's lifetime earnings.
type ReferralRepository interface {
	GetByReferralID(ctx context.Context, referralID string) (*models.Referral, error)
	UpdateReward(ctx context.Context, referral *models.Referral) error
	GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
	UpdateProfileEarnings(ctx context.Context, profile *models.Profile) error
	CreateIndexes(ctx context.Context) error
}

type referralRepository struct {
	referrals *mongo.Collection
	profiles  *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) ReferralRepository {
	return &referralRepository{
		referrals: db.Collection("referrals"),
		profiles:  db.Collection("profiles"),
	}
}

func (r *referralRepository) GetByReferralID(ctx context.Context, referralID string) (*models.Referral, error) {
	var referral models.Referral
	err := r.referrals.FindOne(ctx, bson.M{"referral_id": referralID}).Decode(&referral)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("referral %s: %w", referralID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get referral %s: %w", referralID, err)
	}
	return &referral, nil
}

func (r *referralRepository) UpdateReward(ctx context.Context, referral *models.Referral) error {
	filter := bson.M{
		"referral_id": referral.ReferralID,
		"version":     referral.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"reward_earned": referral.RewardEarned,
			"updated_at":    time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.referrals.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update referral %s: %w", referral.ReferralID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.referrals.CountDocuments(ctx, bson.M{"referral_id": referral.ReferralID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("referral %s: %w", referral.ReferralID, ErrNotFound)
		}
		return fmt.Errorf("referral %s: %w", referral.ReferralID, ErrVersionConflict)
	}

	referral.Version++
	return nil
}

func (r *referralRepository) GetProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.profiles.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("profile for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile for user %s: %w", userID, err)
	}
	return &profile, nil
}

func (r *referralRepository) UpdateProfileEarnings(ctx context.Context, profile *models.Profile) error {
	filter := bson.M{
		"user_id": profile.UserID,
		"version": profile.Version,
	}
	update := bson.M{
		"$set": bson.M{
			"referral_earnings": profile.ReferralEarnings,
			"updated_at":        time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.profiles.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %s: %w", profile.UserID, err)
	}
	if result.MatchedCount == 0 {
		count, countErr := r.profiles.CountDocuments(ctx, bson.M{"user_id": profile.UserID})
		if countErr == nil && count == 0 {
			return fmt.Errorf("profile for user %s: %w", profile.UserID, ErrNotFound)
		}
		return fmt.Errorf("profile for user %s: %w", profile.UserID, ErrVersionConflict)
	}

	profile.Version++
	return nil
}

func (r *referralRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.referrals.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "referral_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "referrer_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create referral indexes: %w", err)
	}

	_, err = r.profiles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create profile indexes: %w", err)
	}
	return nil
}

// TeamEarningRepository stores the per-payout team earning rows. Reversal
// deletes the row rather than adjusting it.
type TeamEarningRepository interface {
	GetBySourceTransactionID(ctx context.Context, teamID, sourceTransactionID string) (*models.TeamEarning, error)
	DeleteBySourceTransactionID(ctx context.Context, teamID, sourceTransactionID string) (int64, error)
	CreateIndexes(ctx context.Context) error
}

type teamEarningRepository struct {
	collection *mongo.Collection
}

func NewTeamEarningRepository(db *mongo.Database) TeamEarningRepository {
	return &teamEarningRepository{
		collection: db.Collection("team_earnings"),
	}
}

func (r *teamEarningRepository) GetBySourceTransactionID(ctx context.Context, teamID, sourceTransactionID string) (*models.TeamEarning, error) {
	var earning models.TeamEarning
	filter := bson.M{
		"team_id":               teamID,
		"source_transaction_id": sourceTransactionID,
	}
	err := r.collection.FindOne(ctx, filter).Decode(&earning)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("team earning for transaction %s: %w", sourceTransactionID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get team earning for transaction %s: %w", sourceTransactionID, err)
	}
	return &earning, nil
}

func (r *teamEarningRepository) DeleteBySourceTransactionID(ctx context.Context, teamID, sourceTransactionID string) (int64, error) {
	filter := bson.M{
		"team_id":               teamID,
		"source_transaction_id": sourceTransactionID,
	}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete team earnings for transaction %s: %w", sourceTransactionID, err)
	}
	return result.DeletedCount, nil
}

func (r *teamEarningRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "team_id", Value: 1}, {Key: "source_transaction_id", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create team earning indexes: %w", err)
	}
	return nil
}
