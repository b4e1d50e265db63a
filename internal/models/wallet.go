package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Wallet is a creator's balance record. Balance is the spendable amount
// and may go negative under an admin correction; TotalEarned and
// TotalWithdrawn are monotonic lifetime counters that a reversal decreases
// but never pushes below zero.
type Wallet struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID         string             `bson:"user_id" json:"user_id"`
	Balance        decimal.Decimal    `bson:"balance" json:"balance"`
	TotalEarned    decimal.Decimal    `bson:"total_earned" json:"total_earned"`
	TotalWithdrawn decimal.Decimal    `bson:"total_withdrawn" json:"total_withdrawn"`
	Currency       string             `bson:"currency" json:"currency"`

	// Version guards read-modify-write cycles; every conditional update
	// filters on the version it read and increments it.
	Version int64 `bson:"version" json:"version"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// NewWallet creates an empty wallet for a user.
func NewWallet(userID string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:         userID,
		Balance:        decimal.Zero,
		TotalEarned:    decimal.Zero,
		TotalWithdrawn: decimal.Zero,
		Currency:       "USD",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddBalance applies a signed delta to the spendable balance. No clamp:
// a correction may legitimately leave the balance negative.
func (w *Wallet) AddBalance(delta decimal.Decimal) (old, new decimal.Decimal) {
	old = w.Balance
	w.Balance = w.Balance.Add(delta)
	return old, w.Balance
}

// ReverseEarned subtracts an original earning's contribution from the
// lifetime earned counter, clamped at zero.
func (w *Wallet) ReverseEarned(amount decimal.Decimal) (old, new decimal.Decimal) {
	old = w.TotalEarned
	w.TotalEarned = clampZero(w.TotalEarned.Sub(amount))
	return old, w.TotalEarned
}

// ReverseWithdrawn subtracts an original withdrawal's contribution from
// the lifetime withdrawn counter, clamped at zero.
func (w *Wallet) ReverseWithdrawn(amount decimal.Decimal) (old, new decimal.Decimal) {
	old = w.TotalWithdrawn
	w.TotalWithdrawn = clampZero(w.TotalWithdrawn.Sub(amount))
	return old, w.TotalWithdrawn
}

// Validate checks the wallet invariants that hold outside of a correction.
func (w *Wallet) Validate() error {
	if w.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if w.TotalEarned.IsNegative() {
		return fmt.Errorf("total_earned cannot be negative")
	}
	if w.TotalWithdrawn.IsNegative() {
		return fmt.Errorf("total_withdrawn cannot be negative")
	}
	if w.Currency == "" {
		return fmt.Errorf("currency is required")
	}
	return nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
