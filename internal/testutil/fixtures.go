// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TwoBehaviorCSV is the A/B model: means {A: 10, B: 5}, covariance
// [[4,0],[0,1]], no max column.
const TwoBehaviorCSV = `behavior,mean,A,B
A,10,4,0
B,5,0,1
`

// ChurnCSV is a correlated three-behavior model with a partial max column.
// "like" has no declared maximum.
const ChurnCSV = `behavior,mean,max,post,like,share
post,10,40,0.09,0.02,0.01
like,25,,0.02,0.16,0.03
share,2,6,0.01,0.03,0.25
`

// ChurnYAML is ChurnCSV written as YAML.
const ChurnYAML = `behaviors:
  - name: post
    mean: 10
    max: 40
    covariance: {post: 0.09, like: 0.02, share: 0.01}
  - name: like
    mean: 25
    covariance: {post: 0.02, like: 0.16, share: 0.03}
  - name: share
    mean: 2
    max: 6
    covariance: {post: 0.01, like: 0.03, share: 0.25}
`

// IndefiniteCSV is symmetric but has a negative eigenvalue.
const IndefiniteCSV = `behavior,mean,A,B
A,10,1,2
B,5,2,1
`

// WriteFile writes content to dir/name and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteModel writes a model file into a fresh temp dir and returns its path.
func WriteModel(t *testing.T, name, content string) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), name, content)
}
