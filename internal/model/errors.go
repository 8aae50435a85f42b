package model

import (
	"errors"
	"fmt"
)

// Config error codes.
const (
	ErrCodeUnreadable        = "C001" // file missing or unreadable
	ErrCodeUnsupportedFormat = "C002" // unknown file extension
	ErrCodeMalformed         = "C003" // table could not be parsed
	ErrCodeMissingColumn     = "C004" // behavior or mean column absent
	ErrCodeNoBehaviors       = "C005" // table has no rows
	ErrCodeDuplicate         = "C006" // behavior declared twice
	ErrCodeMissingCovariance = "C007" // behavior has no covariance column
	ErrCodeUnknownColumn     = "C008" // column is neither a field nor a behavior
	ErrCodeInvalidValue      = "C009" // non-numeric or non-finite cell
	ErrCodeBadName           = "C010" // file name is not {name}_{version}
	ErrCodeInvalidParameter  = "C011" // strategy parameter out of range
	ErrCodeShape             = "C012" // vector/matrix sizes disagree
)

// ConfigError reports a malformed or inconsistent behavior model.
type ConfigError struct {
	Code    string
	Path    string
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is, or wraps, a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func configErr(code, field, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}
