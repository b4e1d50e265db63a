package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AuditTrail accumulates the human-readable record of a reversal as it
// runs. Lines are appended in execution order and end up both in the
// compensating transaction's metadata and in the API response.
type AuditTrail struct {
	actions       []string
	failures      []string
	failedLedgers []string
}

func NewAuditTrail() *AuditTrail {
	return &AuditTrail{}
}

func (t *AuditTrail) Record(format string, args ...interface{}) {
	t.actions = append(t.actions, fmt.Sprintf(format, args...))
}

func (t *AuditTrail) RecordFailure(ledger string, err error) {
	t.failures = append(t.failures, fmt.Sprintf("Failed to update %s: %v", ledger, err))
	t.failedLedgers = append(t.failedLedgers, ledger)
}

func (t *AuditTrail) Actions() []string {
	return t.actions
}

func (t *AuditTrail) Failures() []string {
	return t.failures
}

func (t *AuditTrail) FailedLedgers() []string {
	return t.failedLedgers
}

func (t *AuditTrail) HasFailures() bool {
	return len(t.failures) > 0
}

// money formats an amount for the audit trail, always with two decimal
// places.
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
