package sampling

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
)

// Strategy names accepted by FromConfig.
const (
	KindNormal    = "normal"
	KindLogNormal = "lognormal"
)

// Rate is one behavior's monthly event rate.
type Rate struct {
	Behavior    string  `json:"behavior"`
	MonthlyRate float64 `json:"monthly_rate"`
}

// RateVector is one customer's rates in model behavior order.
type RateVector struct {
	Rates []Rate `json:"rates"`

	// Channel is the model version for LogNormal draws, empty otherwise.
	Channel string `json:"channel,omitempty"`
}

// Behaviors returns the behavior names in order.
func (v RateVector) Behaviors() []string {
	out := make([]string, len(v.Rates))
	for i, r := range v.Rates {
		out[i] = r.Behavior
	}
	return out
}

// Values returns the rates in order.
func (v RateVector) Values() []float64 {
	out := make([]float64, len(v.Rates))
	for i, r := range v.Rates {
		out[i] = r.MonthlyRate
	}
	return out
}

// Strategy draws a rate vector from a model.
type Strategy interface {
	// Name returns the strategy kind.
	Name() string

	// Generate draws one vector. It advances src and never fails on a
	// validated spec.
	Generate(spec *model.Spec, src random.Source) RateVector
}

// SpecValidator is implemented by strategies that place extra requirements
// on a model, checked once at model construction.
type SpecValidator interface {
	Validate(spec *model.Spec) error
}

// FromConfig returns the strategy named kind. expBase is only used by
// LogNormal.
func FromConfig(kind string, expBase float64) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindNormal:
		return Normal{}, nil
	case KindLogNormal, "log-normal", "log_normal":
		return NewLogNormal(expBase)
	default:
		return nil, &model.ConfigError{
			Code:    model.ErrCodeInvalidParameter,
			Field:   "strategy",
			Message: fmt.Sprintf("unknown strategy %q (want %s or %s)", kind, KindNormal, KindLogNormal),
		}
	}
}

// drawMVN returns mu + L·z with z ~ N(0, I), drawing z in index order.
func drawMVN(mu []float64, l mat.Matrix, src random.Source) []float64 {
	n := len(mu)
	z := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		z.SetVec(i, src.NormFloat64())
	}

	var x mat.VecDense
	x.MulVec(l, z)
	x.AddVec(&x, mat.NewVecDense(n, mu))
	return x.RawVector().Data
}

func vector(spec *model.Spec, values []float64, channel string) RateVector {
	rates := make([]Rate, len(values))
	for i, v := range values {
		rates[i] = Rate{Behavior: spec.Behavior(i), MonthlyRate: v}
	}
	return RateVector{Rates: rates, Channel: channel}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
