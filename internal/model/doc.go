// Package model loads and holds behavior models.
//
// A behavior model is a small table addressed by {name}_{version}:
//
//	behavior,mean,max,post,like,share
//	post,10,40,4,1,0.5
//	like,25,,1,9,0.3
//	share,2,8,0.5,0.3,1
//
// Row order defines the canonical behavior ordering. The columns named after
// behaviors form the covariance block and may appear in any order; they are
// re-indexed to row order on load. The max column is optional and a blank
// cell leaves that behavior unbounded.
//
// The same table can be written in YAML (see LoadYAML). Every Spec returned by
// this package has had its covariance validated, and corrected if the
// caller's policy allowed it.
package model
