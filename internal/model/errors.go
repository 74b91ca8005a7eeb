package model

import (
	"errors"
	"fmt"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// ConfigError reports missing or invalid settings. It is fatal and
// carries a remediation hint for the user.
type ConfigError struct {
	Component string
	Err       error
	Hint      string
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s is not configured: %v", e.Component, e.Err)
	if e.Hint != "" {
		msg += "\n" + e.Hint
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError aggregates problems into a single ConfigError. It
// returns nil when problems is empty.
func NewConfigError(component, hint string, problems []error) error {
	agg := utilerrors.NewAggregate(problems)
	if agg == nil {
		return nil
	}
	return &ConfigError{Component: component, Err: agg, Hint: hint}
}

// AuthError indicates that the mail server or an API rejected the
// supplied credentials.
type AuthError struct {
	Service string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Service, e.Message)
}

// NotFoundError indicates that a named resource (for example a mailbox
// label) does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// ParseError reports malformed mail content or model output. It is
// recovered locally by dropping the offending message or batch.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TransportError reports a network or API failure.
type TransportError struct {
	Service    string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (%d): %v", e.Service, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsConfigError reports whether err (or any error in its chain) is a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsNotFoundError reports whether err (or any error in its chain) is a NotFoundError.
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsParseError reports whether err (or any error in its chain) is a ParseError.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// missingSetting builds the error used by config validation.
func missingSetting(name, env string) error {
	if env == "" {
		return fmt.Errorf("%s is required", name)
	}
	return fmt.Errorf("%s is required (set %s)", name, env)
}

// joinHint joins remediation lines.
func joinHint(lines ...string) string {
	return strings.Join(lines, "\n")
}
