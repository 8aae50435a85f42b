package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/model"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	ApproveCorrection bool
}

// ValidationResult is the JSON payload of a successful validate.
type ValidationResult struct {
	Valid     bool               `json:"valid"`
	Model     string             `json:"model"`
	Behaviors []string           `json:"behaviors"`
	Means     []float64          `json:"means"`
	Maxima    map[string]float64 `json:"maxima,omitempty"`
	Corrected bool               `json:"corrected"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <model-file>",
		Short: "Validate a behavior model",
		Long: `Load a behavior model and check its covariance matrix.

The covariance must be symmetric positive-definite. An invalid matrix is
rejected unless --approve-correction is given, in which case it is
replaced by M·Mᵗ and re-checked.

Example:
  ratesynth validate models/churn_v2.csv
  ratesynth validate --approve-correction --format json models/churn_v2.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ApproveCorrection, "approve-correction", false, "replace an invalid covariance with M·Mᵗ")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	policy := covariance.PolicyFor(opts.ApproveCorrection)
	formatter.VerboseLog("Validating %s (policy %s)", path, policy)

	spec, err := model.Load(path, model.WithPolicy(policy))
	if err != nil {
		return outputValidationFailure(formatter, path, err)
	}

	result := ValidationResult{
		Valid:     true,
		Model:     spec.ID(),
		Behaviors: spec.Behaviors(),
		Means:     spec.Means(),
		Corrected: spec.Corrected(),
	}
	if spec.HasMaxima() {
		result.Maxima = map[string]float64{}
		for i, b := range result.Behaviors {
			if m, ok := spec.MaxAt(i); ok {
				result.Maxima[b] = m
			}
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputValidateText(formatter, spec)
	return nil
}

func outputValidateText(formatter *OutputFormatter, spec *model.Spec) {
	formatter.Check("%s valid", spec.ID())

	values := spec.Means()
	means := make([]string, 0, spec.Len())
	maxima := make([]string, 0, spec.Len())
	for i, b := range spec.Behaviors() {
		means = append(means, fmt.Sprintf("%s=%g", b, values[i]))
		if m, ok := spec.MaxAt(i); ok {
			maxima = append(maxima, fmt.Sprintf("%s=%g", b, m))
		}
	}

	formatter.Field("behaviors", "%d", spec.Len())
	formatter.Field("means", "%s", strings.Join(means, ", "))
	if len(maxima) > 0 {
		formatter.Field("maxima", "%s", strings.Join(maxima, ", "))
	} else {
		formatter.Field("maxima", "none")
	}
	if spec.Corrected() {
		formatter.Field("corrected", "yes")
		formatter.Warn("covariance was replaced by M·Mᵗ")
	} else {
		formatter.Field("corrected", "no")
	}
}

// outputValidationFailure reports a model that failed to load.
func outputValidationFailure(formatter *OutputFormatter, path string, err error) error {
	if formatter.Format == "json" {
		return reportError(formatter, err)
	}

	code, exit := classify(err)
	formatter.Cross("%s invalid", path)
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, err.Error())
	return WrapExitError(exit, code, err)
}
