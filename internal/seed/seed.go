// Package seed loads CUE economy seed files and applies them through the
// engine.
//
// A seed describes one economy with its currencies and one-tap buttons.
// Files are unified with the embedded #Seed schema, so typos in field names
// and malformed colors are rejected before anything is written.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/shopspring/decimal"

	"github.com/roach88/pointecon/internal/engine"
	"github.com/roach88/pointecon/internal/model"
)

//go:embed schema.cue
var schemaCUE string

// Seed is a decoded seed file.
type Seed struct {
	Economy struct {
		Name string `json:"name"`
	} `json:"economy"`
	CreatedBy  string     `json:"created_by"`
	Currencies []Currency `json:"currencies"`
	Buttons    []Button   `json:"buttons"`
}

// Currency is one currency entry of a seed.
type Currency struct {
	Key    string `json:"key"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	Rules  string `json:"rules"`
	Color  string `json:"color"`
}

// Button is one preset entry of a seed. Currency refers to a Currency.Key.
type Button struct {
	Currency string          `json:"currency"`
	Label    string          `json:"label"`
	Points   decimal.Decimal `json:"points"`
	Color    string          `json:"color"`
}

// Result is what Apply created.
type Result struct {
	Economy    model.Economy             `json:"economy"`
	Currencies map[string]model.Currency `json:"currencies"`
	Buttons    []model.ActivityButton    `json:"buttons"`
}

// LoadFile reads and validates a seed file.
func LoadFile(path string) (*Seed, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	return Parse(path, src)
}

// Parse validates CUE source against #Seed and decodes it.
func Parse(filename string, src []byte) (*Seed, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile seed schema: %w", err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}

	v := schema.LookupPath(cue.ParsePath("#Seed")).Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	// Round-trip through JSON so points keep their exact decimal text.
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", filename, err)
	}
	var s Seed
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	if err := s.checkReferences(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return &s, nil
}

func (s *Seed) checkReferences() error {
	keys := make(map[string]bool, len(s.Currencies))
	for _, c := range s.Currencies {
		if keys[c.Key] {
			return fmt.Errorf("duplicate currency key %q", c.Key)
		}
		keys[c.Key] = true
	}
	for _, b := range s.Buttons {
		if !keys[b.Currency] {
			return fmt.Errorf("button %q references unknown currency %q", b.Label, b.Currency)
		}
	}
	return nil
}

// Apply creates the economy, then its currencies and buttons in file order.
// It is not transactional: a failure part-way leaves what was already
// created.
func Apply(ctx context.Context, eng *engine.Engine, s *Seed) (*Result, error) {
	econ, err := eng.CreateEconomy(ctx, s.Economy.Name)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Economy:    econ,
		Currencies: make(map[string]model.Currency, len(s.Currencies)),
		Buttons:    []model.ActivityButton{},
	}
	for _, c := range s.Currencies {
		created, err := eng.CreateCurrency(ctx, engine.CurrencyInput{
			EconomyID: econ.ID,
			Name:      c.Name,
			Symbol:    c.Symbol,
			Rules:     c.Rules,
			Color:     c.Color,
			CreatedBy: s.CreatedBy,
		})
		if err != nil {
			return res, fmt.Errorf("currency %q: %w", c.Key, err)
		}
		res.Currencies[c.Key] = created
	}
	for _, b := range s.Buttons {
		created, err := eng.CreateButton(ctx, engine.ButtonInput{
			EconomyID:  econ.ID,
			CurrencyID: res.Currencies[b.Currency].ID,
			Label:      b.Label,
			Points:     b.Points,
			Color:      b.Color,
			CreatedBy:  s.CreatedBy,
		})
		if err != nil {
			return res, fmt.Errorf("button %q: %w", b.Label, err)
		}
		res.Buttons = append(res.Buttons, created)
	}
	return res, nil
}
