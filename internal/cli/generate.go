package cli

import (
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ratesynth/internal/behavior"
	"github.com/roach88/ratesynth/internal/config"
	"github.com/roach88/ratesynth/internal/customer"
	"github.com/roach88/ratesynth/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	ConfigFile        string
	ModelFile         string
	Strategy          string
	ExpBase           float64
	Seed              uint64
	Count             int
	Start             string
	BackupRoot        string
	ApproveCorrection bool

	// IDs allows overriding the customer ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs customer.IDGenerator

	// Now allows overriding the clock used for the default month (for testing).
	Now func() time.Time
}

// GenerateResult is the JSON payload of generate.
type GenerateResult struct {
	Model     string              `json:"model"`
	Strategy  string              `json:"strategy"`
	Corrected bool                `json:"corrected"`
	Archive   string              `json:"archive,omitempty"`
	Customers []customer.Customer `json:"customers"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate customers from a behavior model",
		Long: `Generate a batch of customers with sampled monthly rates.

Settings come from a CUE run file (--config) and are overridden by any
flag given on the command line. Without a run file, --model is required.

Example:
  ratesynth generate --model models/churn_v2.csv --count 10 --seed 42
  ratesynth generate --config run.cue --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "CUE run file")
	cmd.Flags().StringVarP(&opts.ModelFile, "model", "m", "", "model file (overrides run file)")
	cmd.Flags().StringVar(&opts.Strategy, "strategy", "lognormal", "sampling strategy (normal|lognormal)")
	cmd.Flags().Float64Var(&opts.ExpBase, "exp-base", 10, "exponential base for log-normal sampling")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed the shared random source")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", 1, "number of customers")
	cmd.Flags().StringVar(&opts.Start, "start", "", "start of month (YYYY-MM or YYYY-MM-DD, default current month)")
	cmd.Flags().StringVar(&opts.BackupRoot, "backup-root", "", "archive the model file under this directory")
	cmd.Flags().BoolVar(&opts.ApproveCorrection, "approve-correction", false, "replace an invalid covariance with M·Mᵗ")

	return cmd
}

func runGenerate(opts *GenerateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	run := config.Default()
	if opts.ConfigFile != "" {
		var err error
		run, err = config.Load(opts.ConfigFile)
		if err != nil {
			return reportError(formatter, err)
		}
		formatter.VerboseLog("Loaded run file %s", opts.ConfigFile)
	}

	if err := applyGenerateFlags(opts, cmd, run); err != nil {
		return invalidFlag(formatter, "%v", err)
	}
	if err := run.CheckModel(); err != nil {
		return reportError(formatter, err)
	}

	strategy, err := run.StrategyValue()
	if err != nil {
		return reportError(formatter, err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	month, err := run.Month(now())
	if err != nil {
		return reportError(formatter, err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = customer.UUIDv7Generator{}
	}

	m, err := behavior.New(behavior.Options{
		Path:       run.Model.Path,
		Dir:        run.Model.Dir,
		Name:       run.Model.Name,
		Version:    run.Model.Version,
		Strategy:   strategy,
		Policy:     run.Policy(),
		Seed:       run.Seed,
		BackupRoot: run.OutputRoot,
		IDs:        ids,
	})
	if err != nil {
		return reportError(formatter, err)
	}

	if run.Store != nil {
		if err := registerWithStore(cmd, m, run.Store); err != nil {
			return reportError(formatter, err)
		}
	}

	customers := make([]customer.Customer, 0, run.Customers)
	for range run.Customers {
		customers = append(customers, m.GenerateCustomer(month, nil))
	}
	slog.Debug("customers generated", "model", m.Spec().ID(), "count", len(customers))

	if formatter.Format == "json" {
		return formatter.Success(GenerateResult{
			Model:     m.Spec().ID(),
			Strategy:  strategy.Name(),
			Corrected: m.Corrected(),
			Archive:   m.ArchivePath(),
			Customers: customers,
		})
	}
	return outputGenerateText(formatter, m, customers)
}

// applyGenerateFlags overrides run file values with flags the user set.
func applyGenerateFlags(opts *GenerateOptions, cmd *cobra.Command, run *config.Run) error {
	flags := cmd.Flags()
	if flags.Changed("model") {
		run.Model = config.ModelRef{Path: opts.ModelFile}
	}
	if flags.Changed("strategy") {
		run.Strategy = opts.Strategy
	}
	if flags.Changed("exp-base") {
		run.ExpBase = opts.ExpBase
	}
	if flags.Changed("seed") {
		seed := opts.Seed
		run.Seed = &seed
	}
	if flags.Changed("count") {
		if opts.Count < 1 {
			return fmt.Errorf("--count must be at least 1, got %d", opts.Count)
		}
		run.Customers = opts.Count
	}
	if flags.Changed("start") {
		run.StartOfMonth = opts.Start
	}
	if flags.Changed("backup-root") {
		run.OutputRoot = opts.BackupRoot
	}
	if flags.Changed("approve-correction") {
		run.ApproveCorrection = opts.ApproveCorrection
	}
	return nil
}

func registerWithStore(cmd *cobra.Command, m *behavior.Model, cfg *config.Store) error {
	st, err := store.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	_, err = m.RegisterEventTypes(cmd.Context(), cfg.Schema, st)
	return err
}

func outputGenerateText(formatter *OutputFormatter, m *behavior.Model, customers []customer.Customer) error {
	spec := m.Spec()
	formatter.Check("generated %d customer(s) from %s (%s)", len(customers), spec.ID(), m.Strategy().Name())
	if m.Corrected() {
		formatter.Warn("covariance was replaced by M·Mᵗ")
	}
	if m.ArchivePath() != "" {
		formatter.Field("archive", "%s", m.ArchivePath())
	}
	fmt.Fprintln(formatter.Writer)

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "id\tmonth\t%s\n", strings.Join(spec.Behaviors(), "\t"))
	for _, c := range customers {
		cells := make([]string, len(c.Rates))
		for i, r := range c.Rates {
			cells[i] = fmt.Sprintf("%.3f", r.MonthlyRate)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.StartOfMonth.Format("2006-01"), strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
