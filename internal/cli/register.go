package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/registrar"
	"github.com/roach88/ratesynth/internal/store"
)

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Database          string
	Schema            string
	ApproveCorrection bool
}

// RegisterResult is the JSON payload of register.
type RegisterResult struct {
	Model      string            `json:"model"`
	Schema     string            `json:"schema"`
	Inserted   int               `json:"inserted"`
	EventTypes []store.EventType `json:"event_types"`
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <model-file>",
		Short: "Register a model's behaviors as event types",
		Long: `Make sure every behavior of a model is a known event type.

Behaviors missing from the schema are inserted with their position in the
model as the event type id. Existing entries are left untouched, so the
command is safe to repeat.

Example:
  ratesynth register --db ./events.db models/churn_v2.csv
  ratesynth register --db ./events.db --schema churn models/churn_v2.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "main", "event type schema")
	cmd.Flags().BoolVar(&opts.ApproveCorrection, "approve-correction", false, "replace an invalid covariance with M·Mᵗ")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRegister(opts *RegisterOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Schema == "" {
		return invalidFlag(formatter, "--schema must not be empty")
	}

	spec, err := model.Load(path, model.WithPolicy(covariance.PolicyFor(opts.ApproveCorrection)))
	if err != nil {
		return reportError(formatter, err)
	}

	formatter.VerboseLog("Opening database %s", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		return reportError(formatter, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	inserted, err := registrar.EnsureRegistered(ctx, opts.Schema, st, spec.Behaviors())
	if err != nil {
		return reportError(formatter, err)
	}

	eventTypes, err := st.List(ctx, opts.Schema)
	if err != nil {
		return reportError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(RegisterResult{
			Model:      spec.ID(),
			Schema:     opts.Schema,
			Inserted:   inserted,
			EventTypes: eventTypes,
		})
	}

	formatter.Check("%s: %d new event type(s) in schema %s", spec.ID(), inserted, opts.Schema)
	for _, et := range eventTypes {
		formatter.Field(et.Name, "%d", et.ID)
	}
	return nil
}
