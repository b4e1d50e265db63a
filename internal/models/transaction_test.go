package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedEarning() *Transaction {
	return &Transaction{
		TransactionID: "TXN-1",
		UserID:        "user-1",
		Amount:        decimal.NewFromInt(50),
		Currency:      "USD",
		Kind:          KindEarning,
		Status:        StatusCompleted,
		Metadata:      TransactionMetadata{CampaignID: "camp-1"},
	}
}

func TestIsReversible(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(tx *Transaction)
		want   bool
	}{
		{name: "completed earning", mutate: func(tx *Transaction) {}, want: true},
		{
			name:   "pending",
			mutate: func(tx *Transaction) { tx.Status = StatusPending },
			want:   false,
		},
		{
			name:   "failed",
			mutate: func(tx *Transaction) { tx.Status = StatusFailed },
			want:   false,
		},
		{
			name:   "already reversed",
			mutate: func(tx *Transaction) { tx.Reversal.IsReversed = true },
			want:   false,
		},
		{
			name: "balance correction",
			mutate: func(tx *Transaction) {
				tx.Kind = KindBalanceCorrection
				tx.ReversalOf = "TXN-0"
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := completedEarning()
			tt.mutate(tx)
			assert.Equal(t, tt.want, tx.IsReversible())
		})
	}
}

func TestNewReversal(t *testing.T) {
	original := completedEarning()
	actions := []string{"Updated wallet balance by $-50.00"}

	reversal := original.NewReversal("Fraud", "admin-1", actions)

	assert.Equal(t, "REV-TXN-1", reversal.TransactionID)
	assert.Equal(t, "TXN-1", reversal.ReversalOf)
	assert.True(t, reversal.Amount.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, KindBalanceCorrection, reversal.Kind)
	assert.Equal(t, StatusCompleted, reversal.Status)
	assert.Equal(t, "Reversal of transaction TXN-1: Fraud", reversal.Description)

	meta := reversal.Metadata
	assert.Equal(t, "TXN-1", meta.OriginalTransactionID)
	assert.Equal(t, KindEarning, meta.OriginalKind)
	assert.True(t, meta.OriginalAmount.Equal(decimal.NewFromInt(50)))
	require.NotNil(t, meta.OriginalMetadata)
	assert.Equal(t, "camp-1", meta.OriginalMetadata.CampaignID)
	assert.Equal(t, "Fraud", meta.ReversalReason)
	assert.Equal(t, "admin-1", meta.ReversedBy)
	assert.Equal(t, actions, meta.UndoActions)

	require.NoError(t, reversal.Validate())
}

func TestNewReversalDefaultsReason(t *testing.T) {
	reversal := completedEarning().NewReversal("", "admin-1", nil)

	assert.Equal(t, "Admin reversal", reversal.Metadata.ReversalReason)
	assert.Equal(t, "Reversal of transaction TXN-1", reversal.Description)
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr string
	}{
		{name: "valid", mutate: func(tx *Transaction) {}},
		{
			name:    "missing transaction id",
			mutate:  func(tx *Transaction) { tx.TransactionID = "" },
			wantErr: "transaction ID is required",
		},
		{
			name:    "zero amount",
			mutate:  func(tx *Transaction) { tx.Amount = decimal.Zero },
			wantErr: "amount cannot be zero",
		},
		{
			name:    "bad kind",
			mutate:  func(tx *Transaction) { tx.Kind = "bonus" },
			wantErr: "invalid transaction kind",
		},
		{
			name: "correction without reversal_of",
			mutate: func(tx *Transaction) {
				tx.Kind = KindBalanceCorrection
			},
			wantErr: "requires reversal_of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := completedEarning()
			tt.mutate(tx)

			err := tx.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
