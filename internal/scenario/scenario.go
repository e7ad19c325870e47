// Package scenario loads and validates negotiation scenarios.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parleylab/parley/internal/core"
)

// Secrets is one party's private information for a scenario.
type Secrets struct {
	Role core.Role `json:"role"`
	// MinimumAcceptablePrice is the seller's walk-away floor.
	MinimumAcceptablePrice *float64 `json:"minimum_acceptable_price,omitempty"`
	// MaximumBudget is the buyer's walk-away ceiling.
	MaximumBudget *float64 `json:"maximum_budget,omitempty"`
	IdealPrice    *float64 `json:"ideal_price,omitempty"`
	Strategy      string   `json:"strategy,omitempty"`
}

// Profile derives the party's negotiation profile: the absolute limit is
// the role-appropriate walk-away bound.
func (s Secrets) Profile() core.Profile {
	p := core.Profile{Role: s.Role, IdealValue: s.IdealPrice}
	switch s.Role {
	case core.RoleSeller:
		p.AbsoluteLimit = s.MinimumAcceptablePrice
	case core.RoleBuyer:
		p.AbsoluteLimit = s.MaximumBudget
	}
	return p
}

// Scenario describes one negotiation setting.
type Scenario struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Type          string         `json:"type"`
	PublicInfo    map[string]any `json:"public_info"`
	PartyASecrets Secrets        `json:"party_a_secrets"`
	PartyBSecrets Secrets        `json:"party_b_secrets"`
	MarketValue   map[string]any `json:"market_value,omitempty"`
}

// SecretsFor returns the named party's private information.
func (s *Scenario) SecretsFor(party core.PartyID) Secrets {
	if party == core.PartyA {
		return s.PartyASecrets
	}
	return s.PartyBSecrets
}

// Validate checks a scenario for the fields a run requires.
func (s *Scenario) Validate() []string {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "missing required field: name")
	}
	if len(s.PublicInfo) == 0 {
		errs = append(errs, "missing required field: public_info")
	}
	for party, sec := range map[string]Secrets{"party_a_secrets": s.PartyASecrets, "party_b_secrets": s.PartyBSecrets} {
		switch sec.Role {
		case core.RoleSeller, core.RoleBuyer:
		case "":
			errs = append(errs, fmt.Sprintf("%s: missing role", party))
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown role %q", party, sec.Role))
		}
	}
	sort.Strings(errs)
	return errs
}

// Loader loads scenario JSON files from a directory and keeps the
// built-in scenario available under its name.
type Loader struct {
	scenarios map[string]*Scenario
}

// NewLoader creates a loader seeded with the built-in scenario.
func NewLoader() *Loader {
	builtin := Builtin()
	return &Loader{scenarios: map[string]*Scenario{builtin.Name: builtin}}
}

// LoadDir loads every *.json scenario in dir. Files that fail to parse
// are skipped with a warning error entry in the returned slice.
func (l *Loader) LoadDir(dir string) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []error{fmt.Errorf("failed to read scenario directory: %w", err)}
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read %s: %w", path, err))
			continue
		}
		var sc Scenario
		if err := json.Unmarshal(data, &sc); err != nil {
			errs = append(errs, fmt.Errorf("invalid scenario %s: %w", path, err))
			continue
		}
		if sc.Name == "" {
			sc.Name = strings.TrimSuffix(entry.Name(), ".json")
		}
		l.scenarios[sc.Name] = &sc
	}
	return errs
}

// Get returns a scenario by name, or nil if not found.
func (l *Loader) Get(name string) *Scenario {
	return l.scenarios[name]
}

// List returns all loaded scenario names, sorted.
func (l *Loader) List() []string {
	names := make([]string, 0, len(l.scenarios))
	for name := range l.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns the default used-car scenario.
func Builtin() *Scenario {
	return &Scenario{
		Name:        "used_car",
		Description: "Private sale of a used 2018 Honda Civic",
		Type:        "price_negotiation",
		PublicInfo: map[string]any{
			"item":         "2018 Honda Civic",
			"condition":    "good, 78k miles, minor cosmetic wear",
			"asking_price": 900,
		},
		PartyASecrets: Secrets{
			Role:                   core.RoleSeller,
			MinimumAcceptablePrice: core.Float(600),
			IdealPrice:             core.Float(900),
			Strategy:               "Start high, justify with condition, concede slowly.",
		},
		PartyBSecrets: Secrets{
			Role:          core.RoleBuyer,
			MaximumBudget: core.Float(800),
			IdealPrice:    core.Float(650),
			Strategy:      "Anchor low, cite comparable listings, walk if over budget.",
		},
		MarketValue: map[string]any{
			"estimated_value": 750,
		},
	}
}
