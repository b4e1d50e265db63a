package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ledger-api/internal/models"
)

func TestRouteEffects(t *testing.T) {
	tests := []struct {
		name        string
		kind        models.TransactionKind
		metadata    models.TransactionMetadata
		wantLedgers []Ledger
		wantUnknown bool
	}{
		{
			name:        "plain earning",
			kind:        models.KindEarning,
			wantLedgers: []Ledger{LedgerWallet},
		},
		{
			name:        "earning from campaign",
			kind:        models.KindEarning,
			metadata:    models.TransactionMetadata{CampaignID: "camp-1"},
			wantLedgers: []Ledger{LedgerWallet, LedgerCampaignBudget},
		},
		{
			name:        "earning from boost",
			kind:        models.KindEarning,
			metadata:    models.TransactionMetadata{BoostID: "boost-1"},
			wantLedgers: []Ledger{LedgerWallet, LedgerBoostBudget},
		},
		{
			name:        "earning from campaign and boost",
			kind:        models.KindEarning,
			metadata:    models.TransactionMetadata{CampaignID: "camp-1", BoostID: "boost-1"},
			wantLedgers: []Ledger{LedgerWallet, LedgerCampaignBudget, LedgerBoostBudget},
		},
		{
			name:        "withdrawal",
			kind:        models.KindWithdrawal,
			wantLedgers: []Ledger{LedgerWallet},
		},
		{
			name:        "referral",
			kind:        models.KindReferral,
			metadata:    models.TransactionMetadata{ReferralID: "ref-1"},
			wantLedgers: []Ledger{LedgerWallet, LedgerReferral},
		},
		{
			name:        "referral without referral id",
			kind:        models.KindReferral,
			wantLedgers: []Ledger{LedgerWallet, LedgerReferral},
		},
		{
			name: "team commission",
			kind: models.KindTeamCommission,
			metadata: models.TransactionMetadata{
				TeamID:     "team-1",
				SourceType: models.SourceTeamCommission,
			},
			wantLedgers: []Ledger{LedgerWallet, LedgerTeamEarning},
		},
		{
			name: "team commission without team id",
			kind: models.KindTeamCommission,
			metadata: models.TransactionMetadata{
				SourceType: models.SourceTeamCommission,
			},
			wantLedgers: []Ledger{LedgerWallet},
		},
		{
			name: "earning sourced from a team commission",
			kind: models.KindEarning,
			metadata: models.TransactionMetadata{
				TeamID:     "team-1",
				SourceType: models.SourceTeamCommission,
			},
			wantLedgers: []Ledger{LedgerWallet, LedgerTeamEarning},
		},
		{
			name:        "unknown kind",
			kind:        models.TransactionKind("bonus"),
			wantLedgers: []Ledger{LedgerWallet},
			wantUnknown: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transaction := &models.Transaction{
				TransactionID: "TXN-1",
				UserID:        "user-1",
				Amount:        decimal.NewFromInt(10),
				Kind:          tt.kind,
				Status:        models.StatusCompleted,
				Metadata:      tt.metadata,
			}

			plan := RouteEffects(transaction)
			assert.Equal(t, tt.wantLedgers, plan.Ledgers)
			assert.Equal(t, tt.wantUnknown, plan.Unknown)
		})
	}
}

func TestRoutingPlanTouches(t *testing.T) {
	plan := RoutingPlan{Ledgers: []Ledger{LedgerWallet, LedgerReferral}}
	assert.True(t, plan.Touches(LedgerWallet))
	assert.True(t, plan.Touches(LedgerReferral))
	assert.False(t, plan.Touches(LedgerCampaignBudget))
}
