package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finvault/transferflow/internal/domain"
)

// DefaultThreshold is the amount at which transfers start being rejected
var DefaultThreshold = decimal.NewFromInt(1000)

// ThresholdGate approves a transfer iff the amount is strictly below a fixed
// threshold. It is a stand-in for a real risk engine behind the same
// domain.FraudGate contract.
type ThresholdGate struct {
	Threshold decimal.Decimal
}

// NewThresholdGate creates a gate with the given threshold
func NewThresholdGate(threshold decimal.Decimal) *ThresholdGate {
	return &ThresholdGate{Threshold: threshold}
}

// Decide approves iff amount < threshold
func (g *ThresholdGate) Decide(_ context.Context, _ string, amount decimal.Decimal) (bool, error) {
	return amount.LessThan(g.Threshold), nil
}

// TimeboxedGate bounds the latency of an inner gate. A gate that does not
// answer within the timeout is reported as unavailable; the worker fails
// closed on that error.
type TimeboxedGate struct {
	Inner   domain.FraudGate
	Timeout time.Duration
}

// NewTimeboxedGate wraps an inner gate with a decision deadline
func NewTimeboxedGate(inner domain.FraudGate, timeout time.Duration) *TimeboxedGate {
	return &TimeboxedGate{Inner: inner, Timeout: timeout}
}

// Decide runs the inner gate with a deadline
func (g *TimeboxedGate) Decide(ctx context.Context, accountNumber string, amount decimal.Decimal) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	type verdict struct {
		approved bool
		err      error
	}
	ch := make(chan verdict, 1)
	go func() {
		approved, err := g.Inner.Decide(ctx, accountNumber, amount)
		ch <- verdict{approved: approved, err: err}
	}()

	select {
	case v := <-ch:
		return v.approved, v.err
	case <-ctx.Done():
		return false, fmt.Errorf("fraud gate did not answer in time: %w", ctx.Err())
	}
}
