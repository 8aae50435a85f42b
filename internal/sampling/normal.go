package sampling

import (
	"math"

	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
)

// NormalFloorFraction scales the smallest mean into the Normal rate floor.
const NormalFloorFraction = 0.01

// Normal samples rates from the multivariate normal N(means, Σ).
type Normal struct{}

// Name implements Strategy.
func (Normal) Name() string { return KindNormal }

// Floor returns the lower bound applied to every Normal rate.
func (Normal) Floor(spec *model.Spec) float64 {
	return spec.MinMean() * NormalFloorFraction
}

// Generate implements Strategy. Declared maxima are ignored.
func (n Normal) Generate(spec *model.Spec, src random.Source) RateVector {
	floor := n.Floor(spec)
	x := drawMVN(spec.Means(), spec.Factor(), src)
	for i := range x {
		x[i] = math.Max(x[i], floor)
	}
	return vector(spec, x, "")
}
