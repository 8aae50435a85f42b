package harness

import "github.com/roach88/ratesynth/internal/sampling"

// AssertionOutcome records one evaluated assertion.
type AssertionOutcome struct {
	Type    string `json:"type"`
	Subject string `json:"subject,omitempty"`
	Pass    bool   `json:"pass"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	Scenario  string   `json:"scenario"`
	Model     string   `json:"model,omitempty"`
	Strategy  string   `json:"strategy"`
	Draws     int      `json:"draws"`
	Behaviors []string `json:"behaviors,omitempty"`
	Corrected bool     `json:"corrected"`

	// Refused holds the error kind (and code) when the model was refused as
	// the scenario expected.
	Refused string `json:"refused,omitempty"`

	// Assertions lists outcomes in scenario order.
	Assertions []AssertionOutcome `json:"assertions,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Vectors holds the generated batch.
	Vectors []sampling.RateVector `json:"-"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(scenario *Scenario) *Result {
	return &Result{
		Pass:     true,
		Scenario: scenario.Name,
		Strategy: scenario.Strategy,
		Draws:    scenario.Draws,
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
