package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CampaignBudget tracks how much of a campaign's budget has been paid out.
type CampaignBudget struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	CampaignID string             `bson:"campaign_id" json:"campaign_id"`
	Budget     decimal.Decimal    `bson:"budget" json:"budget"`
	BudgetUsed decimal.Decimal    `bson:"budget_used" json:"budget_used"`
	Version    int64              `bson:"version" json:"version"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// ReverseUsed subtracts a payout's contribution from budget_used, clamped
// at zero. Clamping can under-subtract if an earlier correction already
// floored the counter; the caller records the clamp in the audit trail.
func (c *CampaignBudget) ReverseUsed(amount decimal.Decimal) (old, new decimal.Decimal, clamped bool) {
	old = c.BudgetUsed
	next := c.BudgetUsed.Sub(amount)
	clamped = next.IsNegative()
	c.BudgetUsed = clampZero(next)
	return old, c.BudgetUsed, clamped
}

// BoostBudget tracks spend against a boost (bounty) campaign.
type BoostBudget struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	BoostID    string             `bson:"boost_id" json:"boost_id"`
	Budget     decimal.Decimal    `bson:"budget" json:"budget"`
	BudgetUsed decimal.Decimal    `bson:"budget_used" json:"budget_used"`
	Version    int64              `bson:"version" json:"version"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

func (b *BoostBudget) ReverseUsed(amount decimal.Decimal) (old, new decimal.Decimal, clamped bool) {
	old = b.BudgetUsed
	next := b.BudgetUsed.Sub(amount)
	clamped = next.IsNegative()
	b.BudgetUsed = clampZero(next)
	return old, b.BudgetUsed, clamped
}

// Referral records a referral relationship and the reward it has earned.
type Referral struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ReferralID   string             `bson:"referral_id" json:"referral_id"`
	ReferrerID   string             `bson:"referrer_id" json:"referrer_id"`
	RewardEarned decimal.Decimal    `bson:"reward_earned" json:"reward_earned"`
	Version      int64              `bson:"version" json:"version"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

func (r *Referral) ReverseReward(amount decimal.Decimal) (old, new decimal.Decimal) {
	old = r.RewardEarned
	r.RewardEarned = clampZero(r.RewardEarned.Sub(amount))
	return old, r.RewardEarned
}

// Profile holds the slice of a user profile this service mutates: the
// accumulated referral earnings counter.
type Profile struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID           string             `bson:"user_id" json:"user_id"`
	ReferralEarnings decimal.Decimal    `bson:"referral_earnings" json:"referral_earnings"`
	Version          int64              `bson:"version" json:"version"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

func (p *Profile) ReverseReferralEarnings(amount decimal.Decimal) (old, new decimal.Decimal) {
	old = p.ReferralEarnings
	p.ReferralEarnings = clampZero(p.ReferralEarnings.Sub(amount))
	return old, p.ReferralEarnings
}

// TeamEarning is a single commission event, keyed by the transaction that
// produced it. A reversal deletes the row rather than decrementing it.
type TeamEarning struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TeamID              string             `bson:"team_id" json:"team_id"`
	UserID              string             `bson:"user_id" json:"user_id"`
	SourceTransactionID string             `bson:"source_transaction_id" json:"source_transaction_id"`
	Amount              decimal.Decimal    `bson:"amount" json:"amount"`
	CreatedAt           time.Time          `bson:"created_at" json:"created_at"`
}
