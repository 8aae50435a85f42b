package covariance

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tolerances for the symmetry test, matching numpy.allclose defaults.
const (
	RelTol = 1e-5
	AbsTol = 1e-8
)

// psdTol is how negative an eigenvalue of a corrected matrix may be before it
// is treated as a real defect rather than round-off.
const psdTol = 1e-9

// Policy decides whether an invalid covariance may be corrected.
type Policy int

const (
	// PolicyReject fails loading when the covariance is invalid.
	PolicyReject Policy = iota
	// PolicyApprove replaces an invalid covariance with M·Mᵗ.
	PolicyApprove
)

// String returns the policy name used in logs and CLI output.
func (p Policy) String() string {
	switch p {
	case PolicyApprove:
		return "approve"
	default:
		return "reject"
	}
}

// PolicyFor maps a yes/no decision to a Policy.
func PolicyFor(approve bool) Policy {
	if approve {
		return PolicyApprove
	}
	return PolicyReject
}

// IsSymmetric reports whether m is square and |a-aᵗ| ≤ AbsTol + RelTol·|aᵗ|
// holds for every element.
func IsSymmetric(m mat.Matrix) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			a, at := m.At(i, j), m.At(j, i)
			if math.IsNaN(a) || math.IsNaN(at) {
				return false
			}
			if math.Abs(a-at) > AbsTol+RelTol*math.Abs(at) {
				return false
			}
			if math.Abs(at-a) > AbsTol+RelTol*math.Abs(a) {
				return false
			}
		}
	}
	return true
}

// IsValid reports whether m is symmetric with strictly positive eigenvalues.
func IsValid(m mat.Matrix) bool {
	if !IsSymmetric(m) {
		return false
	}
	vals, ok := Eigenvalues(Symmetrize(m))
	if !ok {
		return false
	}
	for _, v := range vals {
		if !(v > 0) {
			return false
		}
	}
	return true
}

// Eigenvalues returns the eigenvalues of s in ascending order.
func Eigenvalues(s mat.Symmetric) ([]float64, bool) {
	var es mat.EigenSym
	if ok := es.Factorize(s, false); !ok {
		return nil, false
	}
	return es.Values(nil), true
}

// Correct returns m·mᵗ. The input is not modified.
func Correct(m mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Mul(m, m.T())
	return &out
}

// Symmetrize builds a SymDense from the upper triangle of a square matrix.
func Symmetrize(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, m.At(i, j))
		}
	}
	return s
}

// Result is the outcome of Check.
type Result struct {
	// Matrix is the covariance to sample with.
	Matrix *mat.SymDense
	// Corrected is true when Matrix is the M·Mᵗ replacement.
	Corrected bool
}

// Check validates m and applies the correction when policy allows it.
// m itself is never modified.
func Check(m *mat.Dense, policy Policy) (Result, error) {
	r, c := m.Dims()
	if r != c {
		return Result{}, &InvalidCovarianceError{
			Reason: fmt.Sprintf("matrix is %dx%d, not square", r, c),
		}
	}

	if IsValid(m) {
		return Result{Matrix: Symmetrize(m)}, nil
	}

	diag := diagnose(m)
	if policy != PolicyApprove {
		return Result{}, diag
	}

	slog.Warn("covariance is not positive-definite, applying M·Mᵗ correction",
		"symmetric", diag.Symmetric,
		"min_eigenvalue", diag.MinEigenvalue,
	)

	corrected := Symmetrize(Correct(m))
	vals, ok := Eigenvalues(corrected)
	if !ok {
		return Result{}, &InvalidCovarianceError{
			Symmetric: true,
			Corrected: true,
			Reason:    "eigendecomposition of corrected matrix failed",
		}
	}
	if vals[0] < -psdTol {
		return Result{}, &InvalidCovarianceError{
			Symmetric:     true,
			MinEigenvalue: vals[0],
			Corrected:     true,
			Reason:        fmt.Sprintf("corrected matrix has negative eigenvalue %g", vals[0]),
		}
	}

	return Result{Matrix: corrected, Corrected: true}, nil
}

// diagnose explains why m failed IsValid.
func diagnose(m mat.Matrix) *InvalidCovarianceError {
	if !IsSymmetric(m) {
		return &InvalidCovarianceError{Reason: "matrix is not symmetric"}
	}
	vals, ok := Eigenvalues(Symmetrize(m))
	if !ok {
		return &InvalidCovarianceError{Symmetric: true, Reason: "eigendecomposition failed"}
	}
	return &InvalidCovarianceError{
		Symmetric:     true,
		MinEigenvalue: vals[0],
		Reason:        fmt.Sprintf("smallest eigenvalue %g is not positive", vals[0]),
	}
}
