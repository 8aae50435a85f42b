package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/sampling"
	"github.com/roach88/ratesynth/internal/testutil"
)

func requireLoadCode(t *testing.T, err error, code string) *LoadError {
	t.Helper()
	require.Error(t, err)
	var le *LoadError
	require.True(t, errors.As(err, &le), "expected *LoadError, got %T: %v", err, err)
	assert.Equal(t, code, le.Code)
	return le
}

func TestParse_Defaults(t *testing.T) {
	run, err := Parse([]byte(`model: path: "churn_v2.csv"`), "run.cue")
	require.NoError(t, err)

	assert.Equal(t, "churn_v2.csv", run.Model.Path)
	assert.Equal(t, ".", run.Model.Dir)
	assert.Equal(t, "lognormal", run.Strategy)
	assert.Equal(t, 10.0, run.ExpBase)
	assert.Nil(t, run.Seed)
	assert.False(t, run.ApproveCorrection)
	assert.Equal(t, "", run.OutputRoot)
	assert.Equal(t, 1, run.Customers)
	assert.Nil(t, run.Store)
}

func TestParse_AllFields(t *testing.T) {
	src := `
model: {
	dir:     "models"
	name:    "churn"
	version: "v2"
}
strategy:           "normal"
exp_base:           2
seed:               42
approve_correction: true
output_root:        "out"
customers:          25
start_of_month:     "2024-03"
store: path:        "events.db"
`
	run, err := Parse([]byte(src), "run.cue")
	require.NoError(t, err)

	assert.Equal(t, ModelRef{Dir: "models", Name: "churn", Version: "v2"}, run.Model)
	assert.Equal(t, "normal", run.Strategy)
	assert.Equal(t, 2.0, run.ExpBase)
	require.NotNil(t, run.Seed)
	assert.Equal(t, uint64(42), *run.Seed)
	assert.True(t, run.ApproveCorrection)
	assert.Equal(t, "out", run.OutputRoot)
	assert.Equal(t, 25, run.Customers)
	assert.Equal(t, "2024-03", run.StartOfMonth)
	require.NotNil(t, run.Store)
	assert.Equal(t, Store{Path: "events.db", Schema: "main"}, *run.Store)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown top-level field", `model: {path: "m_v1.csv"}, colour: "red"`},
		{"unknown model field", `model: {path: "m_v1.csv", extension: "csv"}`},
		{"unknown strategy", `model: {path: "m_v1.csv"}, strategy: "uniform"`},
		{"base of one", `model: {path: "m_v1.csv"}, exp_base: 1`},
		{"negative base", `model: {path: "m_v1.csv"}, exp_base: -2`},
		{"negative seed", `model: {path: "m_v1.csv"}, seed: -1`},
		{"zero customers", `model: {path: "m_v1.csv"}, customers: 0`},
		{"wrong type", `model: {path: "m_v1.csv"}, customers: "ten"`},
		{"bad month", `model: {path: "m_v1.csv"}, start_of_month: "March"`},
		{"store without path", `model: {path: "m_v1.csv"}, store: schema: "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "run.cue")
			requireLoadCode(t, err, ErrCodeSchema)
		})
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte(`model: {path: `), "run.cue")
	le := requireLoadCode(t, err, ErrCodeSyntax)
	assert.Contains(t, le.Error(), "run.cue")
}

func TestLoad(t *testing.T) {
	path := testutil.WriteModel(t, "run.cue", `model: {name: "churn", version: "v2"}`)
	run, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "churn", run.Model.Name)
}

func TestLoad_Unreadable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.cue"))
	requireLoadCode(t, err, ErrCodeUnreadable)
}

func TestLoad_IncompleteModel(t *testing.T) {
	path := testutil.WriteModel(t, "run.cue", `model: name: "churn"`)
	run, err := Load(path)
	require.NoError(t, err)
	requireLoadCode(t, run.CheckModel(), ErrCodeModel)

	run.Model.Version = "v2"
	assert.NoError(t, run.CheckModel())
}

func TestDefault(t *testing.T) {
	run := Default()
	assert.Equal(t, "lognormal", run.Strategy)
	assert.Equal(t, 1, run.Customers)
	requireLoadCode(t, run.CheckModel(), ErrCodeModel)
}

func TestRun_StrategyValue(t *testing.T) {
	run := Default()
	s, err := run.StrategyValue()
	require.NoError(t, err)
	assert.Equal(t, sampling.LogNormal{ExpBase: 10}, s)

	run.Strategy = "normal"
	s, err = run.StrategyValue()
	require.NoError(t, err)
	assert.Equal(t, sampling.Normal{}, s)

	run.Strategy = "lognormal"
	run.ExpBase = 1
	_, err = run.StrategyValue()
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, model.ErrCodeInvalidParameter, cfgErr.Code)
}

func TestRun_Policy(t *testing.T) {
	run := Default()
	assert.Equal(t, covariance.PolicyReject, run.Policy())
	run.ApproveCorrection = true
	assert.Equal(t, covariance.PolicyApprove, run.Policy())
}

func TestRun_Month(t *testing.T) {
	now := time.Date(2024, time.July, 19, 15, 4, 5, 0, time.UTC)
	run := Default()

	got, err := run.Month(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), got)

	run.StartOfMonth = "2023-11-20"
	got, err = run.Month(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.November, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseMonth("2024-13")
	requireLoadCode(t, err, ErrCodeValue)
}
