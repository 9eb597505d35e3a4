// internal/wizard/income.go
package wizard

import "time"

// IncomeStatus is the state of the salary-slip verification sub-machine.
type IncomeStatus string

const (
	IncomeIdle     IncomeStatus = "idle"
	IncomePending  IncomeStatus = "pending"
	IncomeResolved IncomeStatus = "resolved"
)

// IncomeVerification is the two-state pending-then-resolved sub-machine
// behind the salary-slip upload. The pending state carries its resolution
// deadline so the transition survives session serialization, and the clock
// is injected so tests resolve it deterministically.
type IncomeVerification struct {
	Status    IncomeStatus `json:"status"`
	StartedAt time.Time    `json:"startedAt,omitempty"`
	ResolveAt time.Time    `json:"resolveAt,omitempty"`
	Income    string       `json:"income,omitempty"`
}

// IncomeVerifier produces the verified income for an uploaded salary slip
// and the delay before the result becomes visible.
type IncomeVerifier interface {
	Verify(slip FileMeta) (income string, delay time.Duration)
}

// CannedVerifier returns a fixed income after a fixed delay. The real
// verification integration slots in behind the same interface.
type CannedVerifier struct {
	Income string
	Delay  time.Duration
}

func (v CannedVerifier) Verify(FileMeta) (string, time.Duration) {
	income := v.Income
	if income == "" {
		income = "45,000 / month"
	}
	return income, v.Delay
}

// StartIncomeVerification stores the slip metadata and moves the
// sub-machine to pending. A second upload restarts the pending window.
func (c *Controller) StartIncomeVerification(slip FileMeta, verifier IncomeVerifier, now time.Time) {
	c.ApplyField(SetSalarySlip{&slip})
	income, delay := verifier.Verify(slip)
	c.Income = IncomeVerification{
		Status:    IncomePending,
		StartedAt: now,
		ResolveAt: now.Add(delay),
		Income:    income,
	}
}

// IncomeState returns the sub-machine state as of now, flipping pending to
// resolved once the deadline has passed.
func (c *Controller) IncomeState(now time.Time) IncomeVerification {
	if c.Income.Status == IncomePending && !now.Before(c.Income.ResolveAt) {
		c.Income.Status = IncomeResolved
	}
	return c.Income
}
