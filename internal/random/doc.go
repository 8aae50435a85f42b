// Package random provides the random sources used to draw customer rate vectors.
//
// Two kinds of source exist:
//   - Sources returned by New are owned by the caller. They carry no locking,
//     so a single source must not be shared between goroutines.
//   - Default returns the single process-wide source. It is guarded by a mutex
//     and can be reseeded with Seed for reproducible runs.
//
// Callers that need independent reproducible streams (for example one per
// worker) should create their own sources with New instead of sharing Default.
package random
