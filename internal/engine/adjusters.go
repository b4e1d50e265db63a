package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledger-api/internal/models"
	"ledger-api/internal/repository"
)

// RetryConfig bounds the optimistic-concurrency retry loop each adjuster
// runs around its read-modify-write.
type RetryConfig struct {
	MaxRetries int
	Backoff    time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 50 * time.Millisecond
	}
	return c
}

// retryOnConflict runs fn until it succeeds, fails with something other
// than a version conflict, or exhausts the retry budget. Backoff doubles
// per attempt.
func retryOnConflict(ctx context.Context, cfg RetryConfig, fn func() error) error {
	cfg = cfg.withDefaults()
	backoff := cfg.Backoff

	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		err = fn()
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return err
		}
	}
	return err
}

// LedgerAdjuster applies one ledger's share of a reversal. Successful
// adjustments are recorded on the trail; a returned error means this
// ledger was not (fully) adjusted.
type LedgerAdjuster interface {
	Ledger() Ledger
	Apply(ctx context.Context, transaction *models.Transaction, trail *AuditTrail) error
}

// walletAdjuster restores the wallet balance and rolls back the lifetime
// accumulators the original transaction advanced.
type walletAdjuster struct {
	wallets repository.WalletRepository
	retry   RetryConfig
}

func NewWalletAdjuster(wallets repository.WalletRepository, retry RetryConfig) LedgerAdjuster {
	return &walletAdjuster{wallets: wallets, retry: retry}
}

func (a *walletAdjuster) Ledger() Ledger {
	return LedgerWallet
}

func (a *walletAdjuster) Apply(ctx context.Context, transaction *models.Transaction, trail *AuditTrail) error {
	reversalAmount := transaction.Amount.Neg()

	var lines []string
	err := retryOnConflict(ctx, a.retry, func() error {
		lines = lines[:0]

		wallet, err := a.wallets.GetByUserID(ctx, transaction.UserID)
		if err != nil {
			return err
		}

		if transaction.Kind == models.KindEarning && transaction.Amount.IsPositive() {
			old, _ := wallet.ReverseEarned(transaction.Amount)
			line := fmt.Sprintf("Reversed total_earned by %s", money(transaction.Amount))
			if old.LessThan(transaction.Amount) {
				line += " (clamped at 0)"
			}
			lines = append(lines, line)
		}

		if transaction.Kind == models.KindWithdrawal && transaction.Amount.IsNegative() {
			amount := transaction.AbsoluteAmount()
			old, _ := wallet.ReverseWithdrawn(amount)
			line := fmt.Sprintf("Reversed total_withdrawn by %s", money(amount))
			if old.LessThan(amount) {
				line += " (clamped at 0)"
			}
			lines = append(lines, line)
		}

		wallet.AddBalance(reversalAmount)
		lines = append(lines, fmt.Sprintf("Updated wallet balance by %s", money(reversalAmount)))

		return a.wallets.UpdateBalances(ctx, wallet)
	})
	if errors.Is(err, repository.ErrNotFound) {
		trail.Record("No wallet record found")
		return nil
	}
	if err != nil {
		return &LedgerWriteError{Ledger: string(LedgerWallet), Err: err}
	}

	for _, line := range lines {
		trail.Record("%s", line)
	}
	return nil
}

// campaignBudgetAdjuster returns spend to the campaign budget.
type campaignBudgetAdjuster struct {
	budgets repository.CampaignBudgetRepository
	retry   RetryConfig
}

func NewCampaignBudgetAdjuster(budgets repository.CampaignBudgetRepository, retry RetryConfig) LedgerAdjuster {
	return &campaignBudgetAdjuster{budgets: budgets, retry: retry}
}

func (a *campaignBudgetAdjuster) Ledger() Ledger {
	return LedgerCampaignBudget
}

func (a *campaignBudgetAdjuster) Apply(ctx context.Context, transaction *models.Transaction, trail *AuditTrail) error {
	amount := transaction.AbsoluteAmount()

	var line string
	err := retryOnConflict(ctx, a.retry, func() error {
		budget, err := a.budgets.GetByCampaignID(ctx, transaction.Metadata.CampaignID)
		if err != nil {
			return err
		}

		old, updated, clamped := budget.ReverseUsed(amount)
		line = fmt.Sprintf("Reversed campaign budget_used: %s → %s", money(old), money(updated))
		if clamped {
			line += " (clamped at 0)"
		}

		return a.budgets.UpdateBudgetUsed(ctx, budget)
	})
	if err != nil {
		return &LedgerWriteError{Ledger: string(LedgerCampaignBudget), Err: err}
	}

	trail.Record("%s", line)
	return nil
}

// boostBudgetAdjuster returns spend to the boost budget.
type boostBudgetAdjuster struct {
	budgets repository.BoostBudgetRepository
	retry   RetryConfig
}

func NewBoostBudgetAdjuster(budgets repository.BoostBudgetRepository, retry RetryConfig) LedgerAdjuster {
	return &boostBudgetAdjuster{budgets: budgets, retry: retry}
}

func (a *boostBudgetAdjuster) Ledger() Ledger {
	return LedgerBoostBudget
}

func (a *boostBudgetAdjuster) Apply(ctx context.Context, transaction *models.Transaction, trail *AuditTrail) error {
	amount := transaction.AbsoluteAmount()

	var line string
	err := retryOnConflict(ctx, a.retry, func() error {
		budget, err := a.budgets.GetByBoostID(ctx, transaction.Metadata.BoostID)
		if err != nil {
			return err
		}

		old, updated, clamped := budget.ReverseUsed(amount)
		line = fmt.Sprintf("Reversed boost budget_used: %s → %s", money(old), money(updated))
		if clamped {
			line += " (clamped at 0)"
		}

		return a.budgets.UpdateBudgetUsed(ctx, budget)
	})
	if err != nil {
		return &LedgerWriteError{Ledger: string(LedgerBoostBudget), Err: err}
	}

	trail.Record("%s", line)
	return nil
}

// referralAdjuster rolls back a referral payout. The payee profile's
// lifetime referral_earnings is always reversed; the referral row's
// reward only when the transaction names one.
type referralAdjuster struct {
	referrals repository.ReferralRepository
	retry     RetryConfig
}

func NewReferralAdjuster(referrals repository.ReferralRepository, retry RetryConfig) LedgerAdjuster {
	return &referralAdjuster{referrals: referrals, retry: retry}
}

func (a *referralAdjuster) Ledger() Ledger {
	return LedgerReferral
}

func (a *referralAdjuster) Apply(ctx context.Context, transaction *models.Transaction, trail *AuditTrail) error {
	amount := transaction.AbsoluteAmount()

	var earningsLine string
	err := retryOnConflict(ctx, a.retry, func() error {
		profile, err := a.referrals.GetProfileByUserID(ctx, transaction.UserID)
		if err != nil {
			return err
		}

		old, updated := profile.ReverseReferralEarnings(amount)
		earningsLine = fmt.Sprintf("Reversed referral_earnings: %s → %s", money(old), money(updated))
		if old.LessThan(amount) {
			earningsLine += " (clamped at 0)"
		}

		return a.referrals.UpdateProfileEarnings(ctx, profile)
	})
	if err != nil {
		return &LedgerWriteError{Ledger: string(LedgerReferral), Err: err}
	}
	trail.Record("%s", earningsLine)

	if transaction.Metadata.ReferralID == "" {
		return nil
	}

	var rewardLine string
	err = retryOnConflict(ctx, a.retry, func() error {
		referral, err := a.referrals.GetByReferralID(ctx, transaction.Metadata.ReferralID)
		if err != nil {
			return err
		}

		old, updated := referral.ReverseReward(amount)
		rewardLine = fmt.Sprintf("Reversed referral reward_earned: %s → %s", money(old), money(updated))
		if old.LessThan(amount) {
			rewardLine += " (clamped at 0)"
		}

		return a.referrals.UpdateReward(ctx, referral)
	})
	if err != nil {
		return &LedgerWriteError{Ledger: string(LedgerReferral), Err: err}
	}
	trail.Record("%s", rewardLine)

	return nil
}

// teamEarningAdjuster removes the team earning row the original payout
// created. There is no accumulator to adjust; the row itself is the
// record.
type teamEarningAdjuster struct {
	earnings repository.TeamEarningRepository
}

func NewTeamEarningAdjuster(earnings repository.TeamEarningRepository) LedgerAdjuster {
	return &teamEarningAdjuster{earnings: earnings}
}

func (a *teamEarningAdjuster) Ledger() Ledger {
	return LedgerTeamEarning
}

func (a *teamEarningAdjuster) Apply(ctx context.Context, transaction *models.Transaction, trail *AuditTrail) error {
	deleted, err := a.earnings.DeleteBySourceTransactionID(ctx, transaction.Metadata.TeamID, transaction.TransactionID)
	if err != nil {
		return &LedgerWriteError{Ledger: string(LedgerTeamEarning), Err: err}
	}
	if deleted == 0 {
		trail.Record("No team_earnings record found")
		return nil
	}

	trail.Record("Deleted team_earnings record")
	return nil
}
