package model

import "fmt"

// ConfigurationError reports an invalid or incompatible model
// configuration: dimension mismatches, bad enumerations, malformed
// parameter blocks. It is always fatal and always raised before any
// simulation resource is allocated.
type ConfigurationError struct {
	Component string // component (or component pair) at fault
	Detail    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("abseir: invalid configuration (%s): %s", e.Component, e.Detail)
}

// ConfigErrorf builds a ConfigurationError with a formatted detail message.
func ConfigErrorf(component, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Component: component, Detail: fmt.Sprintf(format, args...)}
}
