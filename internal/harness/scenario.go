package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ratesynth/internal/sampling"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Model is the model file. Relative paths are resolved against the
	// scenario file's directory by LoadScenario.
	Model string `yaml:"model"`

	// Strategy is "normal" or "lognormal". Default: lognormal.
	Strategy string `yaml:"strategy,omitempty"`

	// ExpBase is the log-normal base. Default: 10.
	ExpBase float64 `yaml:"exp_base,omitempty"`

	// ApproveCorrection allows an invalid covariance to be replaced.
	ApproveCorrection bool `yaml:"approve_correction,omitempty"`

	// Seed seeds the scenario's private random source.
	Seed uint64 `yaml:"seed"`

	// Draws is the number of vectors generated.
	Draws int `yaml:"draws,omitempty"`

	// ExpectError, when set, makes the scenario pass only if the model is
	// refused with a matching error.
	ExpectError *ExpectError `yaml:"expect_error,omitempty"`

	// Assertions validate the generated batch.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectError describes the error a scenario expects.
type ExpectError struct {
	// Kind is "config" or "covariance".
	Kind string `yaml:"kind"`

	// Code is the expected ConfigError code. Only used with kind config.
	Code string `yaml:"code,omitempty"`
}

// Assertion validates the generated batch.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Behavior names the behavior checked by min, max and mean_near.
	Behavior string `yaml:"behavior,omitempty"`

	// Behaviors lists the expected order (order) or the pair (correlation_sign).
	Behaviors []string `yaml:"behaviors,omitempty"`

	// Value is the bound for min and max, or the expected mean for mean_near.
	Value float64 `yaml:"value,omitempty"`

	// Tolerance is the allowed distance for mean_near.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Channel is the expected channel. Empty means no channel.
	Channel string `yaml:"channel,omitempty"`

	// Sign is "positive" or "negative" for correlation_sign.
	Sign string `yaml:"sign,omitempty"`
}

// Assertion type constants.
const (
	AssertWithinBounds    = "within_bounds"
	AssertMin             = "min"
	AssertMax             = "max"
	AssertMeanNear        = "mean_near"
	AssertOrder           = "order"
	AssertChannel         = "channel"
	AssertCorrelationSign = "correlation_sign"
	AssertDeterministic   = "deterministic"
)

// Expected error kinds.
const (
	ErrorKindConfig     = "config"
	ErrorKindCovariance = "covariance"
)

// DefaultDraws is used when a scenario does not set draws.
const DefaultDraws = 200

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve the model path relative to the scenario file
	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML and applies defaults.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Strategy == "" {
		scenario.Strategy = sampling.KindLogNormal
	}
	if scenario.ExpBase == 0 {
		scenario.ExpBase = sampling.DefaultExpBase
	}
	if scenario.Draws == 0 {
		scenario.Draws = DefaultDraws
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
	if s.Model == "" {
		return fmt.Errorf("model is required")
	}
	if s.Draws < 0 {
		return fmt.Errorf("draws must be positive, got %d", s.Draws)
	}

	if s.ExpectError != nil {
		switch s.ExpectError.Kind {
		case ErrorKindConfig, ErrorKindCovariance:
		default:
			return fmt.Errorf("expect_error.kind must be %q or %q, got %q", ErrorKindConfig, ErrorKindCovariance, s.ExpectError.Kind)
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect_error")
		}
		return nil
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertion %d (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertWithinBounds, AssertDeterministic:
		return nil
	case AssertMin, AssertMax:
		if a.Behavior == "" {
			return fmt.Errorf("behavior is required")
		}
	case AssertMeanNear:
		if a.Behavior == "" {
			return fmt.Errorf("behavior is required")
		}
		if a.Tolerance <= 0 {
			return fmt.Errorf("tolerance must be positive")
		}
	case AssertOrder:
		if len(a.Behaviors) == 0 {
			return fmt.Errorf("behaviors is required")
		}
	case AssertChannel:
		return nil
	case AssertCorrelationSign:
		if len(a.Behaviors) != 2 {
			return fmt.Errorf("behaviors must name exactly two behaviors")
		}
		if a.Sign != "positive" && a.Sign != "negative" {
			return fmt.Errorf("sign must be positive or negative, got %q", a.Sign)
		}
	default:
		return fmt.Errorf("unknown assertion type")
	}
	return nil
}
