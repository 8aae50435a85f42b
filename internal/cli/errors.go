package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/ratesynth/internal/config"
	"github.com/roach88/ratesynth/internal/covariance"
	"github.com/roach88/ratesynth/internal/model"
	"github.com/roach88/ratesynth/internal/store"
)

// Error code constants for failures that carry no code of their own.
// Model errors keep their C0xx code and run file errors their R0xx code.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeInvalidFlag  = "E002" // Flag value out of range
	ErrCodeNotSymmetric = "E101" // Covariance is not symmetric
	ErrCodeNotPosDef    = "E102" // Covariance is not positive-definite
	ErrCodeStore        = "E201" // Event-type database failure
)

// classify maps an error to a response code and exit code.
func classify(err error) (code string, exit int) {
	var (
		cfgErr   *model.ConfigError
		covErr   *covariance.InvalidCovarianceError
		runErr   *config.LoadError
		storeErr *store.StoreError
		exitErr  *ExitError
	)
	switch {
	case errors.As(err, &cfgErr):
		return cfgErr.Code, ExitFailure
	case errors.As(err, &covErr):
		if !covErr.Symmetric {
			return ErrCodeNotSymmetric, ExitFailure
		}
		return ErrCodeNotPosDef, ExitFailure
	case errors.As(err, &runErr):
		return runErr.Code, ExitCommandError
	case errors.As(err, &storeErr):
		return ErrCodeStore, ExitCommandError
	case errors.As(err, &exitErr):
		return ErrCodeGeneric, exitErr.Code
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}

// reportError writes err through the formatter and returns the ExitError the
// command should return.
func reportError(formatter *OutputFormatter, err error) error {
	code, exit := classify(err)
	_ = formatter.Error(code, err.Error(), nil)
	return WrapExitError(exit, code, err)
}

func invalidFlag(formatter *OutputFormatter, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	_ = formatter.Error(ErrCodeInvalidFlag, msg, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeInvalidFlag, msg))
}
