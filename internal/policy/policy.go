// Package policy renders compliance decisions for proposed transfers. The
// gate is a hard dependency: callers treat every gate error as a denial
// (fail closed). Decisions are never cached or reused across requests.
package policy

import "context"

// ActionTransfer is the action code submitted for wallet-to-wallet transfers.
const ActionTransfer = "transfer"

// Decision is the gate's verdict for one transfer attempt.
type Decision struct {
	Allowed bool
	Reason  string
}

// Gate renders an allow/deny decision for a proposed action.
type Gate interface {
	Check(ctx context.Context, userID, action, targetRegion string) (Decision, error)
}

// StaticGate simulates the policy service for development and tests: it
// denies actions targeting the "Restricted" region and allows everything
// else.
type StaticGate struct{}

// Check applies the static region rule.
func (StaticGate) Check(_ context.Context, _, _, targetRegion string) (Decision, error) {
	if targetRegion == "Restricted" {
		return Decision{Allowed: false, Reason: "Region Restricted"}, nil
	}
	return Decision{Allowed: true, Reason: "Compliant"}, nil
}
