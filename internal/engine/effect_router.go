package engine

import (
	"ledger-api/internal/models"
)

// Ledger identifies one of the balance stores a reversal can touch.
type Ledger string

const (
	LedgerWallet         Ledger = "wallet"
	LedgerCampaignBudget Ledger = "campaign_budget"
	LedgerBoostBudget    Ledger = "boost_budget"
	LedgerReferral       Ledger = "referral"
	LedgerTeamEarning    Ledger = "team_earnings"
)

// RoutingPlan is the set of ledgers a reversal must visit, in execution
// order. Unknown reports that the transaction kind was not recognized and
// only the wallet fallback applies.
type RoutingPlan struct {
	Ledgers []Ledger
	Unknown bool
}

// Touches reports whether the plan includes the given ledger.
func (p RoutingPlan) Touches(ledger Ledger) bool {
	for _, l := range p.Ledgers {
		if l == ledger {
			return true
		}
	}
	return false
}

// RouteEffects decides which ledgers a transaction's reversal must adjust,
// from the transaction's kind and metadata alone. The wallet is always
// first so the primary balance store is corrected before the secondary
// ledgers.
func RouteEffects(transaction *models.Transaction) RoutingPlan {
	plan := RoutingPlan{Ledgers: []Ledger{LedgerWallet}}
	meta := transaction.Metadata

	switch transaction.Kind {
	case models.KindEarning:
		if meta.CampaignID != "" {
			plan.Ledgers = append(plan.Ledgers, LedgerCampaignBudget)
		}
		if meta.BoostID != "" {
			plan.Ledgers = append(plan.Ledgers, LedgerBoostBudget)
		}
	case models.KindWithdrawal:
		// wallet only
	case models.KindReferral:
		plan.Ledgers = append(plan.Ledgers, LedgerReferral)
	case models.KindTeamCommission:
		// team earning rows are matched by source transaction below
	case models.KindBalanceCorrection:
		// never routed; callers reject these before routing
	default:
		plan.Unknown = true
		return plan
	}

	if meta.SourceType == models.SourceTeamCommission && meta.TeamID != "" {
		plan.Ledgers = append(plan.Ledgers, LedgerTeamEarning)
	}

	return plan
}
