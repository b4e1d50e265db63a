package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWalletAddBalanceMayGoNegative(t *testing.T) {
	w := NewWallet("user-1")
	w.Balance = decimal.NewFromInt(20)

	old, updated := w.AddBalance(decimal.NewFromInt(-50))

	assert.True(t, old.Equal(decimal.NewFromInt(20)))
	assert.True(t, updated.Equal(decimal.NewFromInt(-30)))
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(-30)))
}

func TestWalletReverseEarnedClampsAtZero(t *testing.T) {
	tests := []struct {
		name   string
		earned int64
		amount int64
		want   int64
	}{
		{name: "normal", earned: 200, amount: 50, want: 150},
		{name: "exact", earned: 50, amount: 50, want: 0},
		{name: "clamped", earned: 30, amount: 50, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWallet("user-1")
			w.TotalEarned = decimal.NewFromInt(tt.earned)

			_, updated := w.ReverseEarned(decimal.NewFromInt(tt.amount))

			assert.True(t, updated.Equal(decimal.NewFromInt(tt.want)))
			assert.True(t, w.TotalEarned.Equal(decimal.NewFromInt(tt.want)))
		})
	}
}

func TestWalletReverseWithdrawnClampsAtZero(t *testing.T) {
	w := NewWallet("user-1")
	w.TotalWithdrawn = decimal.NewFromInt(40)

	_, updated := w.ReverseWithdrawn(decimal.NewFromInt(100))

	assert.True(t, updated.IsZero())
}

func TestCampaignBudgetReverseUsed(t *testing.T) {
	b := &CampaignBudget{
		CampaignID: "camp-1",
		Budget:     decimal.NewFromInt(500),
		BudgetUsed: decimal.NewFromInt(200),
	}

	old, updated, clamped := b.ReverseUsed(decimal.NewFromInt(50))

	assert.True(t, old.Equal(decimal.NewFromInt(200)))
	assert.True(t, updated.Equal(decimal.NewFromInt(150)))
	assert.False(t, clamped)

	_, updated, clamped = b.ReverseUsed(decimal.NewFromInt(999))
	assert.True(t, updated.IsZero())
	assert.True(t, clamped)
}

func TestReferralReverseRewardClampsAtZero(t *testing.T) {
	r := &Referral{ReferralID: "ref-1", RewardEarned: decimal.NewFromInt(10)}

	_, updated := r.ReverseReward(decimal.NewFromInt(25))

	assert.True(t, updated.IsZero())
}
