package core

import "time"

// Outcome labels shared by the ledger metrics
const (
	OutcomeSuccess  = "success"
	OutcomeDenied   = "denied"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeUpstream = "upstream_failure"
	OutcomeError    = "error"
)

// Metrics records ledger events. Implementations must be safe for concurrent use.
type Metrics interface {
	// ObserveConsume records the result of a usage-gate call
	ObserveConsume(outcome string)
	// ObserveUsageRecordFailure records a charge that could not be stored after a successful call
	ObserveUsageRecordFailure()
	// ObserveUpstream records the latency of a completion call
	ObserveUpstream(outcome string, elapsed time.Duration)
	// ObserveRedeem records the result of a voucher redemption
	ObserveRedeem(outcome string)
	// ObserveCreditsGranted records credits added by redemptions
	ObserveCreditsGranted(amount int64)
	// ObserveVoucherIssued records an issued voucher
	ObserveVoucherIssued(creditAmount, maxUses int64)
}
