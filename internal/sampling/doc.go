// Package sampling draws customer rate vectors from a behavior model.
//
// A Strategy turns a validated model.Spec and a random.Source into one
// RateVector per call. Two strategies exist:
//
//   - Normal draws from N(means, Σ) and floors every rate at 1% of the
//     smallest mean.
//   - LogNormal draws in log space (base ExpBase), exponentiates, shifts and
//     floors at 0.333, then clips to declared maxima.
//
// Both strategies read the standard normal draws from the source in behavior
// order, so identically seeded sources give bit-identical vectors.
package sampling
