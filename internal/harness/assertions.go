package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
	"github.com/roach88/ratesynth/internal/sampling"
)

// AssertionContext carries what assertions need beyond the batch.
type AssertionContext struct {
	Spec     *model.Spec
	Strategy sampling.Strategy
	Seed     uint64
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Draw     int    // Index of the offending vector, or -1
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Draw >= 0 {
		fmt.Fprintf(&buf, "  Draw: %d\n", e.Draw)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result.Vectors, records
// an outcome per assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for _, a := range assertions {
		err := evaluate(result.Vectors, a, actx)
		result.Assertions = append(result.Assertions, AssertionOutcome{
			Type:    a.Type,
			Subject: subject(a),
			Pass:    err == nil,
		})
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func subject(a Assertion) string {
	switch {
	case a.Behavior != "":
		return a.Behavior
	case len(a.Behaviors) > 0:
		return strings.Join(a.Behaviors, ",")
	case a.Type == AssertChannel:
		return a.Channel
	default:
		return ""
	}
}

func evaluate(vectors []sampling.RateVector, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertWithinBounds:
		return assertWithinBounds(vectors, actx)
	case AssertMin:
		return assertBound(vectors, a, actx.Spec, func(v float64) bool { return v >= a.Value }, ">=")
	case AssertMax:
		return assertBound(vectors, a, actx.Spec, func(v float64) bool { return v <= a.Value }, "<=")
	case AssertMeanNear:
		return assertMeanNear(vectors, a, actx.Spec)
	case AssertOrder:
		return assertOrder(vectors, a)
	case AssertChannel:
		return assertChannel(vectors, a)
	case AssertCorrelationSign:
		return assertCorrelationSign(vectors, a, actx.Spec)
	case AssertDeterministic:
		return assertDeterministic(vectors, actx)
	default:
		return &AssertionError{Type: a.Type, Expected: "known assertion type", Actual: a.Type, Draw: -1}
	}
}

// bounds returns the per-behavior range a strategy promises.
func bounds(spec *model.Spec, strategy sampling.Strategy) (lo, hi []float64, err error) {
	n := spec.Len()
	lo = make([]float64, n)
	hi = make([]float64, n)
	for i := range n {
		hi[i] = math.Inf(1)
	}

	switch s := strategy.(type) {
	case sampling.Normal:
		floor := s.Floor(spec)
		for i := range lo {
			lo[i] = floor
		}
	case sampling.LogNormal:
		for i := range lo {
			lo[i] = sampling.LogNormalFloor
			if ceil, ok := spec.MaxAt(i); ok {
				hi[i] = ceil
				// Clipping to the max happens last.
				lo[i] = math.Min(lo[i], ceil)
			}
		}
	default:
		return nil, nil, fmt.Errorf("no bounds known for strategy %s", strategy.Name())
	}
	return lo, hi, nil
}

func assertWithinBounds(vectors []sampling.RateVector, actx *AssertionContext) error {
	lo, hi, err := bounds(actx.Spec, actx.Strategy)
	if err != nil {
		return &AssertionError{Type: AssertWithinBounds, Expected: "a strategy with known bounds", Actual: err.Error(), Draw: -1}
	}
	for d, v := range vectors {
		for i, r := range v.Rates {
			if r.MonthlyRate < lo[i] || r.MonthlyRate > hi[i] {
				return &AssertionError{
					Type:     AssertWithinBounds,
					Expected: fmt.Sprintf("%s in [%g, %g]", r.Behavior, lo[i], hi[i]),
					Actual:   fmt.Sprintf("%g", r.MonthlyRate),
					Draw:     d,
				}
			}
		}
	}
	return nil
}

func behaviorIndex(spec *model.Spec, name, assertion string) (int, error) {
	i := spec.Index(name)
	if i < 0 {
		return -1, &AssertionError{Type: assertion, Expected: fmt.Sprintf("behavior %q in model", name), Actual: "not found", Draw: -1}
	}
	return i, nil
}

func assertBound(vectors []sampling.RateVector, a Assertion, spec *model.Spec, ok func(float64) bool, op string) error {
	i, err := behaviorIndex(spec, a.Behavior, a.Type)
	if err != nil {
		return err
	}
	for d, v := range vectors {
		if r := v.Rates[i].MonthlyRate; !ok(r) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%s %s %g", a.Behavior, op, a.Value),
				Actual:   fmt.Sprintf("%g", r),
				Draw:     d,
			}
		}
	}
	return nil
}

func column(vectors []sampling.RateVector, i int) []float64 {
	out := make([]float64, len(vectors))
	for d, v := range vectors {
		out[d] = v.Rates[i].MonthlyRate
	}
	return out
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func assertMeanNear(vectors []sampling.RateVector, a Assertion, spec *model.Spec) error {
	i, err := behaviorIndex(spec, a.Behavior, a.Type)
	if err != nil {
		return err
	}
	if len(vectors) == 0 {
		return &AssertionError{Type: a.Type, Expected: "at least one draw", Actual: "none", Draw: -1}
	}
	got := mean(column(vectors, i))
	if math.Abs(got-a.Value) > a.Tolerance {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("mean of %s within %g of %g", a.Behavior, a.Tolerance, a.Value),
			Actual:   fmt.Sprintf("%g", got),
			Draw:     -1,
		}
	}
	return nil
}

func assertOrder(vectors []sampling.RateVector, a Assertion) error {
	for d, v := range vectors {
		if got := v.Behaviors(); !slices.Equal(got, a.Behaviors) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%v", a.Behaviors),
				Actual:   fmt.Sprintf("%v", got),
				Draw:     d,
			}
		}
	}
	return nil
}

func assertChannel(vectors []sampling.RateVector, a Assertion) error {
	for d, v := range vectors {
		if v.Channel != a.Channel {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("channel %q", a.Channel),
				Actual:   fmt.Sprintf("%q", v.Channel),
				Draw:     d,
			}
		}
	}
	return nil
}

// correlation returns the Pearson correlation of xs and ys.
func correlation(xs, ys []float64) float64 {
	mx, my := mean(xs), mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	return sxy / math.Sqrt(sxx*syy)
}

func assertCorrelationSign(vectors []sampling.RateVector, a Assertion, spec *model.Spec) error {
	i, err := behaviorIndex(spec, a.Behaviors[0], a.Type)
	if err != nil {
		return err
	}
	j, err := behaviorIndex(spec, a.Behaviors[1], a.Type)
	if err != nil {
		return err
	}

	r := correlation(column(vectors, i), column(vectors, j))
	positive := r > 0
	if math.IsNaN(r) || positive != (a.Sign == "positive") {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s correlation between %s and %s", a.Sign, a.Behaviors[0], a.Behaviors[1]),
			Actual:   fmt.Sprintf("%g", r),
			Draw:     -1,
		}
	}
	return nil
}

func assertDeterministic(vectors []sampling.RateVector, actx *AssertionContext) error {
	src := random.New(actx.Seed)
	for d, v := range vectors {
		again := actx.Strategy.Generate(actx.Spec, src)
		for i, r := range v.Rates {
			if math.Float64bits(r.MonthlyRate) != math.Float64bits(again.Rates[i].MonthlyRate) {
				return &AssertionError{
					Type:     AssertDeterministic,
					Expected: fmt.Sprintf("%s = %g on replay", r.Behavior, r.MonthlyRate),
					Actual:   fmt.Sprintf("%g", again.Rates[i].MonthlyRate),
					Draw:     d,
				}
			}
		}
	}
	return nil
}
