package behavior

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
	"github.com/roach88/ratesynth/internal/sampling"
	"github.com/roach88/ratesynth/internal/store"
	"github.com/roach88/ratesynth/internal/testutil"
)

func requireConfigCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, code, cfgErr.Code)
}

func TestNew_FromPath(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)

	m, err := New(Options{Path: path, Strategy: sampling.Normal{}, Source: random.New(1)})
	require.NoError(t, err)

	assert.Equal(t, "churn_v2", m.Spec().ID())
	assert.Equal(t, sampling.KindNormal, m.Strategy().Name())
	assert.False(t, m.Corrected())
	assert.Empty(t, m.ArchivePath())
	assert.Equal(t, []string{"post", "like", "share"}, m.Rates().Behaviors())
}

func TestNew_FromDirNameVersion(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "churn_v2.yaml", testutil.ChurnYAML)

	m, err := New(Options{Dir: dir, Name: "churn", Version: "v2", Source: random.New(1)})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "churn_v2.yaml"), m.Spec().Path())
}

func TestNew_DefaultsToLogNormal(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)

	m, err := New(Options{Path: path, Source: random.New(1)})
	require.NoError(t, err)
	assert.Equal(t, sampling.LogNormal{ExpBase: sampling.DefaultExpBase}, m.Strategy())
	assert.Equal(t, "v2", m.Rates().Channel)
}

func TestNew_NeedsModel(t *testing.T) {
	_, err := New(Options{Name: "churn"})
	requireConfigCode(t, err, model.ErrCodeInvalidParameter)
}

func TestNew_LoadErrorsSurface(t *testing.T) {
	_, err := New(Options{Path: filepath.Join(t.TempDir(), "missing_v1.csv")})
	requireConfigCode(t, err, model.ErrCodeUnreadable)
}

func TestNew_IndefiniteRejectedByDefault(t *testing.T) {
	path := testutil.WriteModel(t, "ab_v1.csv", testutil.IndefiniteCSV)

	_, err := New(Options{Path: path})
	require.Error(t, err)
	assert.True(t, covariance.IsInvalidCovariance(err))
}

func TestNew_IndefiniteCorrectedWhenApproved(t *testing.T) {
	path := testutil.WriteModel(t, "ab_v1.csv", testutil.IndefiniteCSV)

	m, err := New(Options{Path: path, Policy: covariance.PolicyApprove, Source: random.New(3)})
	require.NoError(t, err)
	assert.True(t, m.Corrected())

	// Generation proceeds on the corrected matrix.
	for range 50 {
		for _, r := range m.Rates().Rates {
			assert.False(t, math.IsNaN(r.MonthlyRate))
		}
	}
}

func TestNew_LogNormalRejectsNonPositiveMean(t *testing.T) {
	path := testutil.WriteModel(t, "ab_v1.csv", "behavior,mean,A,B\nA,0,1,0\nB,5,0,1\n")

	_, err := New(Options{Path: path, Strategy: sampling.LogNormal{ExpBase: 10}})
	requireConfigCode(t, err, model.ErrCodeInvalidParameter)

	// The same model is fine for the normal strategy.
	_, err = New(Options{Path: path, Strategy: sampling.Normal{}, Source: random.New(1)})
	require.NoError(t, err)
}

func TestNew_ArchivesModel(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	root := t.TempDir()

	m, err := New(Options{Path: path, BackupRoot: root, Source: random.New(1)})
	require.NoError(t, err)

	want := filepath.Join(root, "churn", "churn_v2_simulation_model.csv")
	assert.Equal(t, want, m.ArchivePath())
	got, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, testutil.ChurnCSV, string(got))
}

func TestNew_ArchiveFailureIsFatal(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	blocker := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	m, err := New(Options{Path: path, BackupRoot: blocker})
	require.Error(t, err)
	assert.Nil(t, m)
}

func TestNew_InvalidModelNotArchived(t *testing.T) {
	path := testutil.WriteModel(t, "ab_v1.csv", testutil.IndefiniteCSV)
	root := t.TempDir()

	_, err := New(Options{Path: path, BackupRoot: root})
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(root, "ab"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestNew_SeedReseedsSharedDefault(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	seed := uint64(42)

	a, err := New(Options{Path: path, Strategy: sampling.Normal{}, Seed: &seed})
	require.NoError(t, err)
	first := a.Rates().Values()

	b, err := New(Options{Path: path, Strategy: sampling.Normal{}, Seed: &seed})
	require.NoError(t, err)
	assert.Equal(t, first, b.Rates().Values())

	want := sampling.Normal{}.Generate(a.Spec(), random.New(seed)).Values()
	assert.Equal(t, want, first)
}

func TestNew_SourceOptsOutOfSharedDefault(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	seed := uint64(42)

	own, err := New(Options{Path: path, Strategy: sampling.Normal{}, Source: random.New(7), Seed: &seed})
	require.NoError(t, err)

	// Drawing from the shared default does not disturb the private source.
	random.Default().NormFloat64()

	want := sampling.Normal{}.Generate(own.Spec(), random.New(7)).Values()
	assert.Equal(t, want, own.Rates().Values())
}

func TestGenerateCustomer(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	ids := testutil.NewSequentialIDGenerator("cust")

	m, err := New(Options{Path: path, Source: random.New(5), IDs: ids})
	require.NoError(t, err)

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	args := map[string]any{"cohort": "spring"}

	c1 := m.GenerateCustomer(start, args)
	c2 := m.GenerateCustomer(start, nil)

	assert.Equal(t, "cust-0001", c1.ID)
	assert.Equal(t, "cust-0002", c2.ID)
	assert.Equal(t, start, c1.StartOfMonth)
	assert.Equal(t, args, c1.Args)
	assert.Equal(t, "v2", c1.Channel)
	require.Len(t, c1.Rates, 3)
	assert.NotEqual(t, c1.Rates, c2.Rates, "each customer gets a fresh draw")
}

func TestGenerateCustomer_DefaultIDs(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	m, err := New(Options{Path: path, Source: random.New(5)})
	require.NoError(t, err)

	c := m.GenerateCustomer(time.Now(), nil)
	assert.Len(t, c.ID, 36)
}

func TestRegisterEventTypes(t *testing.T) {
	path := testutil.WriteModel(t, "churn_v2.csv", testutil.ChurnCSV)
	m, err := New(Options{Path: path, Source: random.New(5)})
	require.NoError(t, err)

	st, err := store.Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	n, err := m.RegisterEventTypes(ctx, "churn", st)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = m.RegisterEventTypes(ctx, "churn", st)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := st.List(ctx, "churn")
	require.NoError(t, err)
	assert.Equal(t, []store.EventType{{ID: 0, Name: "post"}, {ID: 1, Name: "like"}, {ID: 2, Name: "share"}}, got)
}
