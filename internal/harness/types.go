package harness

// TraceEvent records one executed flow step.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Op    string `json:"op"`
	Actor string `json:"actor"`

	// Outcome is "ok" or the engine error code.
	Outcome string `json:"outcome"`

	// Result holds the step's visible fields (id, status, amounts).
	Result map[string]string `json:"result,omitempty"`
}

// LedgerLine is one ledger entry in snapshot form. Currency is the
// scenario key, not the generated id.
type LedgerLine struct {
	Currency    string `json:"currency"`
	User        string `json:"user"`
	Points      string `json:"points"`
	Description string `json:"description"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Ledger []LedgerLine `json:"ledger"`

	// Errors is empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Ledger: []LedgerLine{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome with the next sequence number.
func (r *Result) AddTrace(op, actor, outcome string, result map[string]string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:     len(r.Trace) + 1,
		Op:      op,
		Actor:   actor,
		Outcome: outcome,
		Result:  result,
	})
}
