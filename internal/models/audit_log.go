package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditLog is a durable record of an administrative action against the
// ledger, including the per-ledger trail of what the action changed.
type AuditLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action        string             `bson:"action" json:"action"`
	TransactionID string             `bson:"transaction_id" json:"transaction_id"`
	PerformedBy   string             `bson:"performed_by" json:"performed_by"`
	Outcome       string             `bson:"outcome" json:"outcome"`
	Reason        string             `bson:"reason,omitempty" json:"reason,omitempty"`
	ActionsTaken  []string           `bson:"actions_taken,omitempty" json:"actions_taken,omitempty"`
	Failures      []string           `bson:"failures,omitempty" json:"failures,omitempty"`
	DurationMs    int64              `bson:"duration_ms" json:"duration_ms"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

// Audit outcomes.
const (
	AuditOutcomeSuccess  = "success"
	AuditOutcomePartial  = "partial"
	AuditOutcomeRejected = "rejected"
	AuditOutcomeFailed   = "failed"
)
