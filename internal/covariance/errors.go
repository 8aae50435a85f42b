package covariance

import (
	"errors"
	"fmt"
)

// ErrInvalidCovariance is the sentinel wrapped by every InvalidCovarianceError.
var ErrInvalidCovariance = errors.New("covariance is not symmetric positive-definite")

// InvalidCovarianceError reports a matrix that failed validation and was not
// (or could not be) corrected.
type InvalidCovarianceError struct {
	// Symmetric is false when the matrix failed the symmetry test.
	Symmetric bool

	// MinEigenvalue is the smallest eigenvalue found. Zero when the matrix was
	// not symmetric and no eigendecomposition was attempted.
	MinEigenvalue float64

	// Corrected is true when the failure happened after M·Mᵗ was applied.
	Corrected bool

	// Reason is a human-readable explanation.
	Reason string
}

func (e *InvalidCovarianceError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInvalidCovariance, e.Reason)
}

func (e *InvalidCovarianceError) Unwrap() error {
	return ErrInvalidCovariance
}

// IsInvalidCovariance reports whether err is, or wraps, an InvalidCovarianceError.
func IsInvalidCovariance(err error) bool {
	var ice *InvalidCovarianceError
	return errors.As(err, &ice)
}
