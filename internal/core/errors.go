package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn means a key column is not defined by its table.
	ErrUnknownColumn = errors.New("column not found")

	// ErrUnsupportedJoin means the join type is not left, right, inner or outer.
	ErrUnsupportedJoin = errors.New("unsupported join type")

	// ErrEmptyInput means a table has no columns, so no key can be resolved.
	ErrEmptyInput = errors.New("empty input: table has no columns")
)

// ConfigurationError reports an invalid merge request. The merge is never
// attempted when one is returned.
type ConfigurationError struct {
	Field  string // Offending setting: "key_a", "key_b", "join", ...
	Reason string
	Err    error // Sentinel for errors.Is matching
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid merge configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid merge configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func unknownColumnError(field, column, table string) error {
	return &ConfigurationError{
		Field:  field,
		Reason: fmt.Sprintf("column not found: %q in table %q", column, table),
		Err:    ErrUnknownColumn,
	}
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
