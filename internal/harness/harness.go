package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
	"github.com/roach88/pointecon/internal/store"
	"github.com/roach88/pointecon/internal/testutil"
)

// Harness holds the per-run engine and the names a scenario refers to.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	logger *slog.Logger

	economyID  string
	currencies map[string]string // scenario key -> currency id
	keys       map[string]string // currency id -> scenario key
	saved      map[string]savedRef
}

type savedRef struct {
	kind string // "transfer", "exchange" or "button"
	id   string
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Deterministic helpers ensure reproducible results.
//
// Execution flow:
//  1. Create fresh in-memory database and engine
//  2. Create the economy and its currencies
//  3. Execute setup steps (any failure aborts the run)
//  4. Execute flow steps with expect validation
//  5. Evaluate assertions and snapshot the ledger
//
// A returned error means the scenario could not run at all. Failed
// expectations are reported in Result.Errors instead.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	eng := engine.New(st,
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
		engine.WithLogger(logger),
	)

	h := &Harness{
		store:      st,
		engine:     eng,
		logger:     logger,
		currencies: make(map[string]string, len(scenario.Currencies)),
		keys:       make(map[string]string, len(scenario.Currencies)),
		saved:      make(map[string]savedRef),
	}

	ctx := context.Background()
	if err := h.bootstrap(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to create economy: %w", err)
	}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for _, errMsg := range h.evaluateAssertions(ctx, result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	ledger, err := h.snapshotLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	result.Ledger = ledger
	return result, nil
}

func (h *Harness) bootstrap(ctx context.Context, scenario *Scenario) error {
	name := scenario.Economy
	if name == "" {
		name = scenario.Name
	}
	econ, err := h.engine.CreateEconomy(ctx, name)
	if err != nil {
		return err
	}
	h.economyID = econ.ID

	for _, def := range scenario.Currencies {
		c, err := h.engine.CreateCurrency(ctx, engine.CurrencyInput{
			EconomyID: econ.ID,
			Name:      def.Name,
			Symbol:    def.Symbol,
			CreatedBy: "harness",
		})
		if err != nil {
			return fmt.Errorf("currency %s: %w", def.Key, err)
		}
		h.currencies[def.Key] = c.ID
		h.keys[c.ID] = def.Key
	}
	return nil
}

// executeSetup runs all setup steps. Setup steps must succeed.
func (h *Harness) executeSetup(ctx context.Context, setup []Step) error {
	for i, step := range setup {
		if _, err := h.execute(ctx, step); err != nil {
			return fmt.Errorf("setup[%d] %s: %w", i, step.Op, err)
		}
		h.logger.Info("setup step completed", "step", i, "op", step.Op, "actor", step.As)
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
// Engine rejections are recorded as outcomes; anything else aborts.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		fields, err := h.execute(ctx, step)

		outcome := "ok"
		if err != nil {
			code := engine.CodeOf(err)
			if code == "" {
				return fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
			}
			outcome = string(code)
			fields = nil
		}
		result.AddTrace(step.Op, step.As, outcome, fields)

		for _, msg := range checkExpect(step, outcome, fields) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}
	}
	return nil
}

// checkExpect compares one step's outcome with its expect clause.
func checkExpect(step Step, outcome string, fields map[string]string) []string {
	want := "ok"
	if step.Expect != nil && step.Expect.Error != "" {
		want = step.Expect.Error
	}
	if outcome != want {
		return []string{fmt.Sprintf("expected outcome %s, got %s", want, outcome)}
	}
	if step.Expect == nil {
		return nil
	}

	var errs []string
	for key, expected := range step.Expect.Result {
		actual, ok := fields[key]
		if !ok {
			errs = append(errs, fmt.Sprintf("result field %q missing", key))
			continue
		}
		if !valuesMatch(expected, actual) {
			errs = append(errs, fmt.Sprintf("result field %q: expected %s, got %s", key, expected, actual))
		}
	}
	return errs
}

// valuesMatch compares numerically when both sides are decimals.
func valuesMatch(expected, actual string) bool {
	if expected == actual {
		return true
	}
	e, err1 := decimal.NewFromString(expected)
	a, err2 := decimal.NewFromString(actual)
	return err1 == nil && err2 == nil && e.Equal(a)
}

// execute runs one step and returns its visible result fields.
func (h *Harness) execute(ctx context.Context, step Step) (map[string]string, error) {
	args := step.Args
	econ := h.economyID

	switch step.Op {
	case OpRecordActivity:
		points, err := argDecimal(args, "points")
		if err != nil {
			return nil, err
		}
		a, err := h.engine.RecordActivity(ctx, engine.ActivityInput{
			EconomyID:   econ,
			CurrencyID:  h.currency(args["currency"]),
			UserID:      step.As,
			Description: args["description"],
			Points:      points,
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{"points": a.Points.String()}, nil

	case OpCreateButton:
		points, err := argDecimal(args, "points")
		if err != nil {
			return nil, err
		}
		b, err := h.engine.CreateButton(ctx, engine.ButtonInput{
			EconomyID:  econ,
			CurrencyID: h.currency(args["currency"]),
			Label:      args["label"],
			Points:     points,
			Color:      args["color"],
			CreatedBy:  step.As,
		})
		if err != nil {
			return nil, err
		}
		h.save(step.Save, "button", b.ID)
		return map[string]string{"label": b.Label, "points": b.Points.String()}, nil

	case OpPressButton:
		a, err := h.engine.PressButton(ctx, econ, h.ref(args["button"]), step.As)
		if err != nil {
			return nil, err
		}
		return map[string]string{"description": a.Description, "points": a.Points.String()}, nil

	case OpCreateTransfer:
		amount, err := argDecimal(args, "amount")
		if err != nil {
			return nil, err
		}
		t, err := h.engine.CreateTransfer(ctx, engine.TransferInput{
			EconomyID:  econ,
			CurrencyID: h.currency(args["currency"]),
			FromUser:   step.As,
			ToUser:     args["to"],
			Amount:     amount,
			Memo:       args["memo"],
		})
		if err != nil {
			return nil, err
		}
		h.save(step.Save, "transfer", t.ID)
		return transferFields(t), nil

	case OpAcceptTransfer, OpRejectTransfer, OpCancelTransfer:
		action := h.engine.AcceptTransfer
		switch step.Op {
		case OpRejectTransfer:
			action = h.engine.RejectTransfer
		case OpCancelTransfer:
			action = h.engine.CancelTransfer
		}
		t, err := action(ctx, econ, h.ref(args["request"]), step.As)
		if err != nil {
			return nil, err
		}
		return transferFields(t), nil

	case OpCreateExchange:
		amount, err := argDecimal(args, "amount")
		if err != nil {
			return nil, err
		}
		x, err := h.engine.CreateExchange(ctx, engine.ExchangeInput{
			EconomyID:      econ,
			FromCurrencyID: h.currency(args["from"]),
			ToCurrencyID:   h.currency(args["to"]),
			AmountFrom:     amount,
			CreatedBy:      step.As,
		})
		if err != nil {
			return nil, err
		}
		h.save(step.Save, "exchange", x.ID)
		return exchangeFields(x), nil

	case OpSubmitRate:
		rate, err := argDecimal(args, "rate")
		if err != nil {
			return nil, err
		}
		sub, err := h.engine.SubmitRate(ctx, econ, h.ref(args["request"]), step.As, rate)
		if err != nil {
			return nil, err
		}
		return map[string]string{"rate": sub.Rate.String()}, nil

	case OpFinalizeExchange:
		x, err := h.engine.FinalizeExchange(ctx, econ, h.ref(args["request"]), step.As)
		if err != nil {
			return nil, err
		}
		return exchangeFields(x), nil

	case OpCancelExchange:
		x, err := h.engine.CancelExchange(ctx, econ, h.ref(args["request"]), step.As)
		if err != nil {
			return nil, err
		}
		return exchangeFields(x), nil
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func transferFields(t model.TransferRequest) map[string]string {
	return map[string]string{"status": string(t.Status), "amount": t.Amount.String()}
}

func exchangeFields(x model.ExchangeRequest) map[string]string {
	fields := map[string]string{"status": string(x.Status), "amount_from": x.AmountFrom.String()}
	if x.FinalRate != nil {
		fields["final_rate"] = x.FinalRate.String()
	}
	if x.AmountTo != nil {
		fields["amount_to"] = x.AmountTo.String()
	}
	return fields
}

// argDecimal parses a decimal argument. A missing argument is zero.
func argDecimal(args map[string]string, key string) (decimal.Decimal, error) {
	raw, ok := args[key]
	if !ok || raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("argument %s: %w", key, err)
	}
	return d, nil
}

// currency resolves a scenario key, passing unknown names through.
func (h *Harness) currency(key string) string {
	if id, ok := h.currencies[key]; ok {
		return id
	}
	return key
}

// ref resolves a saved label, passing unknown names through.
func (h *Harness) ref(label string) string {
	if r, ok := h.saved[label]; ok {
		return r.id
	}
	return label
}

func (h *Harness) save(label, kind, id string) {
	if label != "" {
		h.saved[label] = savedRef{kind: kind, id: id}
	}
}

// snapshotLedger lists every entry in replay order.
func (h *Harness) snapshotLedger(ctx context.Context) ([]LedgerLine, error) {
	entries, err := h.engine.ListActivities(ctx, store.ActivityFilter{EconomyID: h.economyID})
	if err != nil {
		return nil, err
	}
	lines := make([]LedgerLine, 0, len(entries))
	for _, a := range entries {
		lines = append(lines, LedgerLine{
			Currency:    h.keys[a.CurrencyID],
			User:        a.CreatedBy,
			Points:      a.Points.String(),
			Description: a.Description,
		})
	}
	return lines, nil
}

