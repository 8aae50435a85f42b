// Package behavior ties the pieces of rate synthesis together: it loads a
// model, validates its covariance under an explicit policy, checks the
// chosen strategy accepts it, archives the model file and then hands out
// rate vectors and customers.
//
// A Model is immutable after New. Generation never fails; every failure
// surfaces from New.
package behavior

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/ratesynth/internal/backup"
	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/customer"
	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/random"
	"github.com/roach88/ratesynth/internal/registrar"
	"github.com/roach88/ratesynth/internal/sampling"
)

// Options configures New.
type Options struct {
	// Path is the model file. When empty, the model is located as
	// Dir/{Name}_{Version} with a supported extension.
	Path    string
	Dir     string
	Name    string
	Version string

	// Strategy draws rate vectors. Default: LogNormal with base 10.
	Strategy sampling.Strategy

	// Policy governs what happens to an invalid covariance matrix.
	// Default: PolicyReject.
	Policy covariance.Policy

	// Seed reseeds the shared default source when set. Ignored when Source
	// is set.
	Seed *uint64

	// Source replaces the shared default source for this model.
	Source random.Source

	// BackupRoot is the directory the model file is archived under.
	// Empty disables archival.
	BackupRoot string

	// IDs generates customer IDs. Default: UUIDv7Generator.
	IDs customer.IDGenerator
}

// Model is a validated behavior model bound to a strategy and a source.
type Model struct {
	spec     *model.Spec
	strategy sampling.Strategy
	src      random.Source
	ids      customer.IDGenerator
	archive  string
}

// New loads and validates a model and prepares it for generation.
func New(opts Options) (*Model, error) {
	if opts.Path == "" && (opts.Name == "" || opts.Version == "") {
		return nil, &model.ConfigError{
			Code:    model.ErrCodeInvalidParameter,
			Field:   "model",
			Message: "need a model path or a name and version",
		}
	}

	strategy := opts.Strategy
	if strategy == nil {
		strategy = sampling.LogNormal{ExpBase: sampling.DefaultExpBase}
	}

	var (
		spec *model.Spec
		err  error
	)
	if opts.Path != "" {
		spec, err = model.Load(opts.Path, model.WithPolicy(opts.Policy))
	} else {
		spec, err = model.LoadNamed(opts.Dir, opts.Name, opts.Version, model.WithPolicy(opts.Policy))
	}
	if err != nil {
		return nil, err
	}

	if v, ok := strategy.(sampling.SpecValidator); ok {
		if err := v.Validate(spec); err != nil {
			return nil, err
		}
	}

	m := &Model{spec: spec, strategy: strategy, ids: opts.IDs}
	if m.ids == nil {
		m.ids = customer.UUIDv7Generator{}
	}

	if opts.BackupRoot != "" {
		dest, err := backup.Archive(spec.Path(), opts.BackupRoot, spec.Name(), spec.Version())
		if err != nil {
			return nil, err
		}
		m.archive = dest
	}

	switch {
	case opts.Source != nil:
		m.src = opts.Source
	case opts.Seed != nil:
		random.Seed(*opts.Seed)
		m.src = random.Default()
	default:
		m.src = random.Default()
	}

	slog.Info("behavior model ready",
		"model", spec.ID(),
		"strategy", strategy.Name(),
		"behaviors", spec.Len(),
		"corrected", spec.Corrected(),
	)
	return m, nil
}

// Spec returns the validated model.
func (m *Model) Spec() *model.Spec { return m.spec }

// Strategy returns the strategy in use.
func (m *Model) Strategy() sampling.Strategy { return m.strategy }

// Corrected reports whether the covariance was replaced during validation.
func (m *Model) Corrected() bool { return m.spec.Corrected() }

// ArchivePath returns where the model file was archived, or "" when
// archival was disabled.
func (m *Model) ArchivePath() string { return m.archive }

// Rates draws one fresh rate vector.
func (m *Model) Rates() sampling.RateVector {
	return m.strategy.Generate(m.spec, m.src)
}

// GenerateCustomer draws a rate vector and wraps it in a new customer.
func (m *Model) GenerateCustomer(startOfMonth time.Time, args map[string]any) customer.Customer {
	return customer.New(m.ids.Generate(), m.Rates(), startOfMonth, args)
}

// RegisterEventTypes makes sure every behavior of the model is a known event
// type in schema. Store errors are returned unchanged.
func (m *Model) RegisterEventTypes(ctx context.Context, schema string, store registrar.EventTypeStore) (int, error) {
	return registrar.EnsureRegistered(ctx, schema, store, m.spec.Behaviors())
}
