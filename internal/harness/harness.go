package harness

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/ratesynth/internal/behavior"
	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
	"github.com/roach88/ratesynth/internal/sampling"
)

// Run executes a test scenario and returns the result.
//
// Each scenario draws from its own source seeded with scenario.Seed, so
// scenarios never disturb the shared default source or each other.
//
// Execution flow:
// 1. Build the strategy
// 2. Load and validate the model
// 3. Check the expected error, if any
// 4. Draw the batch
// 5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	strategy, err := sampling.FromConfig(scenario.Strategy, scenario.ExpBase)
	if err != nil {
		return nil, fmt.Errorf("failed to build strategy: %w", err)
	}

	result := NewResult(scenario)
	m, err := behavior.New(behavior.Options{
		Path:     scenario.Model,
		Strategy: strategy,
		Policy:   covariance.PolicyFor(scenario.ApproveCorrection),
		Source:   random.New(scenario.Seed),
	})

	if scenario.ExpectError != nil {
		checkExpectedError(scenario.ExpectError, err, result)
		return result, nil
	}
	if err != nil {
		result.AddError(fmt.Sprintf("model refused: %v", err))
		return result, nil
	}

	spec := m.Spec()
	result.Model = spec.ID()
	result.Behaviors = spec.Behaviors()
	result.Corrected = m.Corrected()

	result.Vectors = make([]sampling.RateVector, scenario.Draws)
	for i := range result.Vectors {
		result.Vectors[i] = m.Rates()
	}

	actx := &AssertionContext{
		Spec:     spec,
		Strategy: strategy,
		Seed:     scenario.Seed,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	slog.Debug("scenario completed",
		"scenario", scenario.Name,
		"model", result.Model,
		"draws", scenario.Draws,
		"pass", result.Pass,
	)
	return result, nil
}

// checkExpectedError records whether err matches the expected refusal.
func checkExpectedError(want *ExpectError, err error, result *Result) {
	if err == nil {
		result.AddError(fmt.Sprintf("expected %s error, model was accepted", want.Kind))
		return
	}

	switch want.Kind {
	case ErrorKindCovariance:
		if !covariance.IsInvalidCovariance(err) {
			result.AddError(fmt.Sprintf("expected covariance error, got: %v", err))
			return
		}
		result.Refused = ErrorKindCovariance
	case ErrorKindConfig:
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) {
			result.AddError(fmt.Sprintf("expected config error, got: %v", err))
			return
		}
		if want.Code != "" && cfgErr.Code != want.Code {
			result.AddError(fmt.Sprintf("expected config error %s, got %s", want.Code, cfgErr.Code))
			return
		}
		result.Refused = ErrorKindConfig + " " + cfgErr.Code
	}
}
