// Package config loads run configuration for the generate command.
//
// A run file is CUE. It is unified with the embedded #Run schema, which
// closes the struct, supplies defaults and constrains values; the result must
// be concrete before it is decoded into a Run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/customer"
	"github.com/roach88/ratesynth/internal/sampling"
)

//go:embed schema.cue
var schemaSource string

// Error codes for run configuration.
const (
	ErrCodeUnreadable = "R001" // run file missing or unreadable
	ErrCodeSyntax     = "R002" // run file is not valid CUE
	ErrCodeSchema     = "R003" // run file violates #Run
	ErrCodeModel      = "R004" // model reference incomplete
	ErrCodeValue      = "R005" // value accepted by the schema but unusable
)

// LoadError is a run configuration error with an optional CUE position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ModelRef names the model file.
type ModelRef struct {
	Path    string `json:"path,omitempty"`
	Dir     string `json:"dir"`
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// Store names the event-type database.
type Store struct {
	Path   string `json:"path"`
	Schema string `json:"schema"`
}

// Run is a decoded run file.
type Run struct {
	Model             ModelRef `json:"model"`
	Strategy          string   `json:"strategy"`
	ExpBase           float64  `json:"exp_base"`
	Seed              *uint64  `json:"seed,omitempty"`
	ApproveCorrection bool     `json:"approve_correction"`
	OutputRoot        string   `json:"output_root"`
	Customers         int      `json:"customers"`
	StartOfMonth      string   `json:"start_of_month,omitempty"`
	Store             *Store   `json:"store,omitempty"`
}

// Load reads and decodes a run file. The model reference may be incomplete;
// call CheckModel once flag overrides are applied.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnreadable, Message: fmt.Sprintf("cannot read run file %s", path), Err: err}
	}
	return Parse(data, path)
}

// Parse unifies data with #Run and decodes it. filename is used in positions.
func Parse(data []byte, filename string) (*Run, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile run schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Run"))

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, cueError(ErrCodeSyntax, err)
	}

	value := def.Unify(file)
	if err := value.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	var run Run
	if err := value.Decode(&run); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}
	return &run, nil
}

// Default returns a Run holding only schema defaults.
func Default() *Run {
	run, err := Parse(nil, "default.cue")
	if err != nil {
		panic(fmt.Sprintf("config: schema defaults do not validate: %v", err))
	}
	return run
}

func cueError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil), Err: err}
	if pos := cueerrors.Positions(err); len(pos) > 0 {
		le.Pos = pos[0]
	}
	return le
}

// CheckModel reports whether the model reference is complete.
func (r *Run) CheckModel() error {
	if r.Model.Path != "" {
		return nil
	}
	if r.Model.Name == "" || r.Model.Version == "" {
		return &LoadError{Code: ErrCodeModel, Message: "model needs a path, or a name and version"}
	}
	return nil
}

// StrategyValue builds the configured sampling strategy.
func (r *Run) StrategyValue() (sampling.Strategy, error) {
	return sampling.FromConfig(r.Strategy, r.ExpBase)
}

// Policy returns the covariance correction policy.
func (r *Run) Policy() covariance.Policy {
	return covariance.PolicyFor(r.ApproveCorrection)
}

// Month returns the start of the configured month, or of now's month when
// none is configured.
func (r *Run) Month(now time.Time) (time.Time, error) {
	if r.StartOfMonth == "" {
		return customer.StartOfMonth(now), nil
	}
	return ParseMonth(r.StartOfMonth)
}

// ParseMonth accepts "2006-01" or "2006-01-02" and returns the first of
// that month at midnight UTC.
func ParseMonth(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return customer.StartOfMonth(t), nil
		}
	}
	return time.Time{}, &LoadError{Code: ErrCodeValue, Message: fmt.Sprintf("start_of_month %q is not YYYY-MM or YYYY-MM-DD", s)}
}
