package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a ledger scenario: an economy, its currencies, a flow
// of engine operations with expected outcomes, and final-state assertions.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Economy is the name of the economy created for the run.
	// Defaults to the scenario name.
	Economy string `yaml:"economy,omitempty"`

	// Currencies are created in order before setup runs.
	Currencies []CurrencyDef `yaml:"currencies"`

	// Setup steps establish initial state and must all succeed.
	Setup []Step `yaml:"setup,omitempty"`

	// Flow is the main sequence under test.
	Flow []Step `yaml:"flow"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// CurrencyDef declares a currency under a scenario-local key.
type CurrencyDef struct {
	Key    string `yaml:"key"`
	Name   string `yaml:"name"`
	Symbol string `yaml:"symbol"`
}

// Step is one engine operation performed by a user.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// As is the acting user.
	As string `yaml:"as"`

	// Args holds the operation arguments. Decimal values are strings.
	Args map[string]string `yaml:"args,omitempty"`

	// Save labels the created request or button for later steps.
	Save string `yaml:"save,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect specifies the expected outcome of a step.
type Expect struct {
	// Error is the expected engine error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Result is a subset match on the step's result fields.
	// Decimal fields compare numerically.
	Result map[string]string `yaml:"result,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	User     string `yaml:"user,omitempty"`
	Currency string `yaml:"currency,omitempty"`
	Request  string `yaml:"request,omitempty"`
	Op       string `yaml:"op,omitempty"`
	Outcome  string `yaml:"outcome,omitempty"`

	// Equals is the expected balance or status.
	Equals string `yaml:"equals,omitempty"`

	// Count is the expected number of entries or steps.
	Count int `yaml:"count,omitempty"`
}

// Operation names accepted in Step.Op.
const (
	OpRecordActivity   = "record_activity"
	OpCreateButton     = "create_button"
	OpPressButton      = "press_button"
	OpCreateTransfer   = "create_transfer"
	OpAcceptTransfer   = "accept_transfer"
	OpRejectTransfer   = "reject_transfer"
	OpCancelTransfer   = "cancel_transfer"
	OpCreateExchange   = "create_exchange"
	OpSubmitRate       = "submit_rate"
	OpFinalizeExchange = "finalize_exchange"
	OpCancelExchange   = "cancel_exchange"
)

// Assertion type constants.
const (
	AssertBalance      = "balance"
	AssertStatus       = "status"
	AssertLedgerCount  = "ledger_count"
	AssertOutcomeCount = "outcome_count"
)

var knownOps = map[string]bool{
	OpRecordActivity:   true,
	OpCreateButton:     true,
	OpPressButton:      true,
	OpCreateTransfer:   true,
	OpAcceptTransfer:   true,
	OpRejectTransfer:   true,
	OpCancelTransfer:   true,
	OpCreateExchange:   true,
	OpSubmitRate:       true,
	OpFinalizeExchange: true,
	OpCancelExchange:   true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Currencies) == 0 {
		return fmt.Errorf("currencies list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	keys := make(map[string]bool, len(s.Currencies))
	for i, c := range s.Currencies {
		if c.Key == "" || c.Name == "" || c.Symbol == "" {
			return fmt.Errorf("currencies[%d]: key, name and symbol are required", i)
		}
		if keys[c.Key] {
			return fmt.Errorf("currencies[%d]: duplicate key %q", i, c.Key)
		}
		keys[c.Key] = true
	}

	for i, step := range s.Setup {
		if err := validateStep("setup", i, step); err != nil {
			return err
		}
		if step.Expect != nil {
			return fmt.Errorf("setup[%d]: expect is not allowed in setup", i)
		}
	}
	for i, step := range s.Flow {
		if err := validateStep("flow", i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(section string, index int, step Step) error {
	if step.Op == "" {
		return fmt.Errorf("%s[%d]: op is required", section, index)
	}
	if !knownOps[step.Op] {
		return fmt.Errorf("%s[%d]: unknown op %q", section, index, step.Op)
	}
	if step.As == "" {
		return fmt.Errorf("%s[%d]: as is required", section, index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBalance:
		if a.User == "" || a.Currency == "" || a.Equals == "" {
			return fmt.Errorf("assertions[%d]: user, currency and equals are required for balance", index)
		}
	case AssertStatus:
		if a.Request == "" || a.Equals == "" {
			return fmt.Errorf("assertions[%d]: request and equals are required for status", index)
		}
	case AssertLedgerCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for ledger_count", index)
		}
	case AssertOutcomeCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for outcome_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
