package options

import "fmt"

// InvalidValueError is returned by Validate for an option out of its range.
type InvalidValueError struct {
	Value any
	Name  string
}

func (err InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %v for %s", err.Value, err.Name)
}

// ConfigFileError wraps the diagnostics of a config file that could not be decoded.
type ConfigFileError struct {
	Err  error
	Path string
}

func (err ConfigFileError) Error() string {
	return fmt.Sprintf("failed to parse config file %s: %v", err.Path, err.Err)
}

func (err ConfigFileError) Unwrap() error {
	return err.Err
}
