package sampling

import (
	"fmt"
	"math"

	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
)

// LogNormal post-processing constants.
const (
	LogNormalShift = 0.667
	LogNormalFloor = 0.333
)

// DefaultExpBase is used when a configuration does not name a base.
const DefaultExpBase = 10.0

// LogNormal samples log_ExpBase(rates) from N(log_ExpBase(means), Σ).
type LogNormal struct {
	ExpBase float64
}

// NewLogNormal validates the base and returns the strategy.
func NewLogNormal(expBase float64) (LogNormal, error) {
	if !isFinite(expBase) || expBase <= 0 || expBase == 1 {
		return LogNormal{}, &model.ConfigError{
			Code:    model.ErrCodeInvalidParameter,
			Field:   "exp_base",
			Message: fmt.Sprintf("exponential base must be positive and not 1, got %g", expBase),
		}
	}
	return LogNormal{ExpBase: expBase}, nil
}

// Name implements Strategy.
func (LogNormal) Name() string { return KindLogNormal }

// Validate implements SpecValidator: every mean must be positive to have a
// logarithm.
func (l LogNormal) Validate(spec *model.Spec) error {
	for i, m := range spec.Means() {
		if m <= 0 {
			return &model.ConfigError{
				Code:    model.ErrCodeInvalidParameter,
				Path:    spec.Path(),
				Field:   model.ColumnMean,
				Message: fmt.Sprintf("behavior %q: log-normal sampling needs a positive mean, got %g", spec.Behavior(i), m),
			}
		}
	}
	return nil
}

func (l LogNormal) log(x float64) float64 {
	return math.Log(x) / math.Log(l.ExpBase)
}

func (l LogNormal) exp(x float64) float64 {
	return math.Pow(l.ExpBase, x)
}

// Generate implements Strategy. The vector's Channel is the model version.
func (l LogNormal) Generate(spec *model.Spec, src random.Source) RateVector {
	mu := spec.Means()
	for i, m := range mu {
		mu[i] = l.log(m)
	}

	x := drawMVN(mu, spec.Factor(), src)
	for i, v := range x {
		rate := math.Max(l.exp(v)-LogNormalShift, LogNormalFloor)
		if ceil, ok := spec.MaxAt(i); ok {
			rate = math.Min(rate, ceil)
		}
		x[i] = rate
	}
	return vector(spec, x, spec.Version())
}
