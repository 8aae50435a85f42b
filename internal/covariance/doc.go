// Package covariance validates and corrects behavior-model covariance matrices.
//
// A covariance matrix is usable for sampling when it is symmetric (within
// numpy-style allclose tolerances) and every eigenvalue is strictly positive.
// An invalid matrix can be replaced by M·Mᵗ, but only when the caller's Policy
// approves it. The correction is lossy and is applied at most once per model.
package covariance
