package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TransactionKind identifies which ledgers a transaction touched when it
// was originally processed.
type TransactionKind string

const (
	KindEarning           TransactionKind = "earning"
	KindWithdrawal        TransactionKind = "withdrawal"
	KindReferral          TransactionKind = "referral"
	KindTeamCommission    TransactionKind = "team_commission"
	KindBalanceCorrection TransactionKind = "balance_correction"
)

// Transaction statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Metadata source types
const (
	SourceCampaign       = "campaign"
	SourceBoost          = "boost"
	SourceTeamCommission = "team_commission"
)

// TransactionMetadata carries the typed per-kind payload. The original
// processing path fills the fields that apply to the transaction's kind;
// the reversal snapshot fields are only set on balance_correction rows.
type TransactionMetadata struct {
	CampaignID string `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	BoostID    string `bson:"boost_id,omitempty" json:"boost_id,omitempty"`
	ReferralID string `bson:"referral_id,omitempty" json:"referral_id,omitempty"`
	TeamID     string `bson:"team_id,omitempty" json:"team_id,omitempty"`
	SourceType string `bson:"source_type,omitempty" json:"source_type,omitempty"`

	OriginalTransactionID string               `bson:"original_transaction_id,omitempty" json:"original_transaction_id,omitempty"`
	OriginalKind          TransactionKind      `bson:"original_kind,omitempty" json:"original_kind,omitempty"`
	OriginalAmount        decimal.Decimal      `bson:"original_amount,omitempty" json:"original_amount,omitempty"`
	OriginalMetadata      *TransactionMetadata `bson:"original_metadata,omitempty" json:"original_metadata,omitempty"`
	ReversalReason        string               `bson:"reversal_reason,omitempty" json:"reversal_reason,omitempty"`
	ReversedBy            string               `bson:"reversed_by,omitempty" json:"reversed_by,omitempty"`
	UndoActions           []string             `bson:"undo_actions,omitempty" json:"undo_actions,omitempty"`
}

// ReversalInfo is set exactly once on a transaction that has been reversed.
type ReversalInfo struct {
	IsReversed            bool       `bson:"is_reversed" json:"is_reversed"`
	ReversedAt            *time.Time `bson:"reversed_at,omitempty" json:"reversed_at,omitempty"`
	ReversedBy            string     `bson:"reversed_by,omitempty" json:"reversed_by,omitempty"`
	ReversalTransactionID string     `bson:"reversal_transaction_id,omitempty" json:"reversal_transaction_id,omitempty"`
	Reason                string     `bson:"reason,omitempty" json:"reason,omitempty"`
}

// Transaction is an entry in the append-only transaction log. Rows are
// immutable after completion except for the reversal marker.
type Transaction struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	TransactionID string             `bson:"transaction_id" json:"transaction_id"`
	UserID        string             `bson:"user_id" json:"user_id"`
	Amount        decimal.Decimal    `bson:"amount" json:"amount"`
	Currency      string             `bson:"currency" json:"currency"`
	Kind          TransactionKind    `bson:"kind" json:"kind"`
	Status        string             `bson:"status" json:"status"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`

	Metadata TransactionMetadata `bson:"metadata" json:"metadata"`
	Reversal ReversalInfo        `bson:"reversal" json:"reversal"`

	// ReversalOf is set only on balance_correction rows and names the
	// transaction this row compensates. A unique partial index on this
	// field guarantees at most one compensating row per original.
	ReversalOf string `bson:"reversal_of,omitempty" json:"reversal_of,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsReversible reports whether this transaction may be the target of a
// reversal. A balance_correction is itself a reversal and is never
// reversible; neither is a non-completed transaction.
func (t *Transaction) IsReversible() bool {
	if t.Status != StatusCompleted {
		return false
	}
	if t.Reversal.IsReversed {
		return false
	}
	return t.Kind != KindBalanceCorrection
}

// AbsoluteAmount returns the unsigned magnitude of the transaction.
func (t *Transaction) AbsoluteAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// NewReversal builds the compensating transaction for t. The amount is
// negated, the kind is balance_correction, and the metadata snapshots the
// original so the row is self-describing for operators.
func (t *Transaction) NewReversal(reason, reversedBy string, actions []string) *Transaction {
	now := time.Now().UTC()
	if reason == "" {
		reason = "Admin reversal"
	}

	originalMeta := t.Metadata
	description := fmt.Sprintf("Reversal of transaction %s", t.TransactionID)
	if reason != "Admin reversal" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}

	return &Transaction{
		TransactionID: fmt.Sprintf("REV-%s", t.TransactionID),
		UserID:        t.UserID,
		Amount:        t.Amount.Neg(),
		Currency:      t.Currency,
		Kind:          KindBalanceCorrection,
		Status:        StatusCompleted,
		Description:   description,
		ReversalOf:    t.TransactionID,
		Metadata: TransactionMetadata{
			OriginalTransactionID: t.TransactionID,
			OriginalKind:          t.Kind,
			OriginalAmount:        t.Amount,
			OriginalMetadata:      &originalMeta,
			ReversalReason:        reason,
			ReversedBy:            reversedBy,
			UndoActions:           actions,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MarkReversed stamps the reversal marker on the original transaction.
func (t *Transaction) MarkReversed(reversalTxID, reversedBy, reason string) {
	now := time.Now().UTC()
	t.Reversal = ReversalInfo{
		IsReversed:            true,
		ReversedAt:            &now,
		ReversedBy:            reversedBy,
		ReversalTransactionID: reversalTxID,
		Reason:                reason,
	}
	t.UpdatedAt = now
}

// Validate checks structural integrity of the transaction row.
func (t *Transaction) Validate() error {
	if t.TransactionID == "" {
		return fmt.Errorf("transaction ID is required")
	}
	if t.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if t.Amount.IsZero() {
		return fmt.Errorf("transaction amount cannot be zero")
	}
	switch t.Kind {
	case KindEarning, KindWithdrawal, KindReferral, KindTeamCommission, KindBalanceCorrection:
	default:
		return fmt.Errorf("invalid transaction kind: %s", t.Kind)
	}
	switch t.Status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("invalid transaction status: %s", t.Status)
	}
	if t.Kind == KindBalanceCorrection && t.ReversalOf == "" {
		return fmt.Errorf("balance_correction requires reversal_of")
	}
	return nil
}
