package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the flow trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s as %s -> %s\n", event.Seq, event.Op, event.Actor, event.Outcome)
	}
	return buf.String()
}

// evaluateAssertions runs every assertion and returns the failure messages.
func (h *Harness) evaluateAssertions(ctx context.Context, result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertBalance:
			err = h.assertBalance(ctx, a)
		case AssertStatus:
			err = h.assertStatus(ctx, a)
		case AssertLedgerCount:
			err = h.assertLedgerCount(ctx, a)
		case AssertOutcomeCount:
			err = assertOutcomeCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			if ae, ok := err.(*AssertionError); ok {
				ae.Trace = result.Trace
			}
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func (h *Harness) assertBalance(ctx context.Context, a Assertion) error {
	want, err := decimal.NewFromString(a.Equals)
	if err != nil {
		return fmt.Errorf("balance: equals %q is not a decimal", a.Equals)
	}
	got, err := h.engine.GetBalance(ctx, model.BalanceKey{
		EconomyID:  h.economyID,
		UserID:     a.User,
		CurrencyID: h.currency(a.Currency),
	})
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if !got.Equal(want) {
		return &AssertionError{
			Type:     AssertBalance,
			Expected: fmt.Sprintf("%s holds %s %s", a.User, want, a.Currency),
			Actual:   got.String(),
		}
	}
	return nil
}

func (h *Harness) assertStatus(ctx context.Context, a Assertion) error {
	ref, ok := h.saved[a.Request]
	if !ok {
		return fmt.Errorf("status: no step saved as %q", a.Request)
	}

	var status string
	switch ref.kind {
	case "transfer":
		t, err := h.engine.GetTransfer(ctx, h.economyID, ref.id)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		status = string(t.Status)
	case "exchange":
		x, err := h.engine.GetExchange(ctx, h.economyID, ref.id)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		status = string(x.Status)
	default:
		return fmt.Errorf("status: %q is a %s, not a request", a.Request, ref.kind)
	}

	if status != a.Equals {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("%s is %s", a.Request, a.Equals),
			Actual:   status,
		}
	}
	return nil
}

func (h *Harness) assertLedgerCount(ctx context.Context, a Assertion) error {
	entries, err := h.engine.ListActivities(ctx, store.ActivityFilter{
		EconomyID: h.economyID,
		UserID:    a.User,
	})
	if err != nil {
		return fmt.Errorf("ledger_count: %w", err)
	}
	if len(entries) != a.Count {
		scope := "economy"
		if a.User != "" {
			scope = a.User
		}
		return &AssertionError{
			Type:     AssertLedgerCount,
			Expected: fmt.Sprintf("%d entries for %s", a.Count, scope),
			Actual:   fmt.Sprintf("%d entries", len(entries)),
		}
	}
	return nil
}

// assertOutcomeCount counts flow steps with the given op, and outcome
// when set.
func assertOutcomeCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op != a.Op {
			continue
		}
		if a.Outcome != "" && event.Outcome != a.Outcome {
			continue
		}
		count++
	}
	if count != a.Count {
		what := a.Op
		if a.Outcome != "" {
			what += " -> " + a.Outcome
		}
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%s %d times", what, a.Count),
			Actual:   fmt.Sprintf("%d times", count),
			Trace:    trace,
		}
	}
	return nil
}
