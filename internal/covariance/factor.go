package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Factor returns a matrix L with L·Lᵗ = s, used to turn independent standard
// normal draws into correlated ones.
//
// Positive-definite matrices get their lower Cholesky factor. Positive
// semi-definite matrices (possible after correction) fall back to
// Q·diag(√λ) from the eigendecomposition, with tiny negative eigenvalues
// clamped to zero.
func Factor(s mat.Symmetric) (*mat.Dense, error) {
	n := s.SymmetricDim()

	var chol mat.Cholesky
	if chol.Factorize(s) {
		var l mat.TriDense
		chol.LTo(&l)
		out := mat.NewDense(n, n, nil)
		out.Copy(&l)
		return out, nil
	}

	var es mat.EigenSym
	if !es.Factorize(s, true) {
		return nil, fmt.Errorf("factor covariance: eigendecomposition failed")
	}
	vals := es.Values(nil)
	var q mat.Dense
	es.VectorsTo(&q)

	out := mat.NewDense(n, n, nil)
	for j, v := range vals {
		if v < -psdTol {
			return nil, fmt.Errorf("factor covariance: negative eigenvalue %g", v)
		}
		root := math.Sqrt(math.Max(v, 0))
		for i := 0; i < n; i++ {
			out.Set(i, j, q.At(i, j)*root)
		}
	}
	return out, nil
}
