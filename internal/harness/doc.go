// Package harness provides conformance testing for behavior models.
//
// The harness loads a model, draws a batch of rate vectors with a fixed seed
// and checks the batch against declared assertions. Results are summarized
// in a snapshot that holds no sampled values, so golden files stay stable
// across platforms.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	model: models/churn_v2.csv
//	strategy: lognormal
//	exp_base: 10
//	seed: 42
//	draws: 500
//	assertions:
//	  - type: within_bounds
//	  - type: max
//	    behavior: post
//	    value: 40
//	  - type: mean_near
//	    behavior: like
//	    value: 25
//	    tolerance: 0.1
//
// A scenario that expects the model to be refused names the error instead
// of assertions:
//
//	expect_error:
//	  kind: covariance
//
// # Assertion Types
//
//   - within_bounds: every rate is at or above the strategy floor and, for
//     strategies that honor them, at or below the declared maximum
//   - min: every rate of behavior is at or above value
//   - max: every rate of behavior is at or below value
//   - mean_near: the sample mean of behavior is within tolerance of value
//   - order: every vector lists behaviors in the given order
//   - channel: every vector carries the given channel
//   - correlation_sign: the sample correlation of two behaviors has the
//     given sign ("positive" or "negative")
//   - deterministic: a second run with the same seed draws identical vectors
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/churn.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
package harness
