package model

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gonum.org/v1/gonum/mat"

	"github.com/roach88/ratesynth/internal/covariance"
)

// Definition is an unvalidated behavior model as read from a table.
// Means, Maxima and Covariance rows/columns follow Behaviors order.
type Definition struct {
	Name       string
	Version    string
	Path       string
	Behaviors  []string
	Means      []float64
	Covariance [][]float64
	// Maxima holds one upper bound per behavior; +Inf means unbounded.
	// A nil slice means no max column was declared.
	Maxima []float64
}

// Spec is a validated behavior model. It is immutable once built.
type Spec struct {
	name      string
	version   string
	path      string
	behaviors []string
	index     map[string]int
	means     []float64
	maxima    []float64
	hasMaxima bool
	cov       *mat.SymDense
	factor    *mat.Dense
	corrected bool
}

// Build validates def and returns a Spec. The covariance is checked under
// policy and replaced by M·Mᵗ at most once when the policy approves it.
func Build(def Definition, policy covariance.Policy) (*Spec, error) {
	n := len(def.Behaviors)
	if n == 0 {
		return nil, configErr(ErrCodeNoBehaviors, "behavior", "model declares no behaviors")
	}
	if len(def.Means) != n {
		return nil, configErr(ErrCodeShape, "mean", "%d means for %d behaviors", len(def.Means), n)
	}
	if len(def.Covariance) != n {
		return nil, configErr(ErrCodeShape, "covariance", "%d rows for %d behaviors", len(def.Covariance), n)
	}
	if def.Maxima != nil && len(def.Maxima) != n {
		return nil, configErr(ErrCodeShape, "max", "%d maxima for %d behaviors", len(def.Maxima), n)
	}

	s := &Spec{
		name:      def.Name,
		version:   def.Version,
		path:      def.Path,
		behaviors: make([]string, n),
		index:     make(map[string]int, n),
		means:     make([]float64, n),
		maxima:    make([]float64, n),
		hasMaxima: def.Maxima != nil,
	}

	for i, b := range def.Behaviors {
		name := NormalizeName(b)
		if name == "" {
			return nil, configErr(ErrCodeInvalidValue, "behavior", "row %d has an empty behavior name", i+1)
		}
		if _, dup := s.index[name]; dup {
			return nil, configErr(ErrCodeDuplicate, "behavior", "behavior %q declared more than once", name)
		}
		s.behaviors[i] = name
		s.index[name] = i
	}

	raw := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		if !isFinite(def.Means[i]) {
			return nil, configErr(ErrCodeInvalidValue, "mean", "behavior %q has non-finite mean", s.behaviors[i])
		}
		s.means[i] = def.Means[i]

		s.maxima[i] = unbounded
		if def.Maxima != nil {
			m := def.Maxima[i]
			if math.IsNaN(m) || math.IsInf(m, -1) {
				return nil, configErr(ErrCodeInvalidValue, "max", "behavior %q has invalid max", s.behaviors[i])
			}
			s.maxima[i] = m
		}

		row := def.Covariance[i]
		if len(row) != n {
			return nil, configErr(ErrCodeShape, "covariance", "row %q has %d columns, want %d", s.behaviors[i], len(row), n)
		}
		for j, v := range row {
			if !isFinite(v) {
				return nil, configErr(ErrCodeInvalidValue, "covariance",
					"cell (%s, %s) is not finite", s.behaviors[i], s.behaviors[j])
			}
			raw.Set(i, j, v)
		}
	}

	res, err := covariance.Check(raw, policy)
	if err != nil {
		return nil, err
	}
	factor, err := covariance.Factor(res.Matrix)
	if err != nil {
		return nil, &covariance.InvalidCovarianceError{
			Symmetric: true,
			Corrected: res.Corrected,
			Reason:    err.Error(),
		}
	}

	s.cov = res.Matrix
	s.factor = factor
	s.corrected = res.Corrected
	return s, nil
}

// NormalizeName trims and NFC-normalizes a behavior name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Name returns the model name.
func (s *Spec) Name() string { return s.name }

// Version returns the model version.
func (s *Spec) Version() string { return s.version }

// Path returns the file the model was loaded from, if any.
func (s *Spec) Path() string { return s.path }

// ID returns {name}_{version}.
func (s *Spec) ID() string { return s.name + "_" + s.version }

// Len returns the number of behaviors.
func (s *Spec) Len() int { return len(s.behaviors) }

// Behaviors returns a copy of the ordered behavior names.
func (s *Spec) Behaviors() []string {
	return append([]string(nil), s.behaviors...)
}

// Behavior returns the i-th behavior name.
func (s *Spec) Behavior(i int) string { return s.behaviors[i] }

// Index returns the position of a behavior, or -1.
func (s *Spec) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Means returns a copy of the mean vector in behavior order.
func (s *Spec) Means() []float64 {
	return append([]float64(nil), s.means...)
}

// Mean returns the mean of one behavior.
func (s *Spec) Mean(name string) (float64, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.means[i], true
}

// MinMean returns the smallest mean across all behaviors.
func (s *Spec) MinMean() float64 {
	lo := s.means[0]
	for _, m := range s.means[1:] {
		if m < lo {
			lo = m
		}
	}
	return lo
}

// HasMaxima reports whether the model declared a max column.
func (s *Spec) HasMaxima() bool { return s.hasMaxima }

// Max returns the declared upper bound of a behavior. ok is false when the
// behavior is unknown or unbounded.
func (s *Spec) Max(name string) (float64, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return s.MaxAt(i)
}

// MaxAt is Max by position.
func (s *Spec) MaxAt(i int) (float64, bool) {
	m := s.maxima[i]
	if math.IsInf(m, 1) {
		return 0, false
	}
	return m, true
}

// Covariance returns a copy of the validated covariance matrix.
func (s *Spec) Covariance() *mat.SymDense {
	out := mat.NewSymDense(s.Len(), nil)
	out.CopySym(s.cov)
	return out
}

// Factor returns the sampling factor L with L·Lᵗ equal to the covariance.
// The returned matrix must not be modified.
func (s *Spec) Factor() mat.Matrix { return s.factor }

// Corrected reports whether the covariance was replaced by M·Mᵗ.
func (s *Spec) Corrected() bool { return s.corrected }

func (s *Spec) String() string {
	return fmt.Sprintf("%s (%d behaviors)", s.ID(), s.Len())
}
