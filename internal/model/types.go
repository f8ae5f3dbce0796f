// Package model defines the domain types for the threatscan CLI.
//
// All entities here are transient per-invocation representations: the only
// persistent state in the system is the micromamba environment store on
// disk, which is owned entirely by micromamba itself. This package never
// reads or writes that store.
package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ScoreValue holds the "score" field of a script result. The external
// scoring scripts are not consistent about the JSON type of this field:
// some emit a number (0.87), some emit a string ("high"). This type
// accepts both and preserves the original literal for display.
type ScoreValue string

// UnmarshalJSON accepts either a JSON number or a JSON string.
// Numbers keep their exact source representation (0.87 stays "0.87",
// not "0.870000"), which matters because the formatted output echoes
// the score verbatim.
func (s *ScoreValue) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("score: empty JSON value")
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ScoreValue(str)
		return nil
	}
	// json.Number rejects booleans, objects, and arrays while preserving
	// the literal digits of any valid number.
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = ScoreValue(num.String())
	return nil
}

// MarshalJSON emits a raw number when the value parses as one, and a
// quoted string otherwise. This round-trips both input shapes.
//
// Both checks are needed: strconv.ParseFloat alone accepts literals that
// are not JSON numbers ("Inf", "NaN", hex floats), and emitting those raw
// would corrupt the enclosing document.
func (s ScoreValue) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseFloat(string(s), 64); err == nil && json.Valid([]byte(s)) {
		return []byte(s), nil
	}
	return json.Marshal(string(s))
}

// String returns the score exactly as it appeared in the script output.
func (s ScoreValue) String() string {
	return string(s)
}

// ScanResult is the structured output of the external scoring script:
// a score and a human-readable reason. No further invariants are
// enforced on either field; the script owns their semantics.
type ScanResult struct {
	// Score is the threat score reported by the script.
	Score ScoreValue `json:"score"`

	// Reason is the script's explanation for the score.
	Reason string `json:"reason"`
}

// EnvironmentSpec describes a micromamba environment to provision:
// a name and the Python interpreter version to pin inside it.
// The spec is never persisted by this system; micromamba's own store
// is the source of truth for which environments exist.
type EnvironmentSpec struct {
	// Name is the environment name, unique within a root prefix.
	Name string `json:"name"`

	// PythonVersion is the interpreter version to install
	// (e.g. "3.11"). Passed to micromamba as python=<version>.
	PythonVersion string `json:"pythonVersion"`
}

// PackageInstallResult records the outcome of a single pip install
// attempt inside an environment. Installs are independent: one failed
// package never aborts the rest, so callers receive one of these per
// requested package.
type PackageInstallResult struct {
	// Package is the pip package identifier that was attempted.
	Package string `json:"package"`

	// OK reports whether pip exited with status zero.
	OK bool `json:"ok"`

	// Detail carries the failure description when OK is false.
	// Empty on success.
	Detail string `json:"detail,omitempty"`
}

// envNameRegex validates environment names: they become directory names
// under the root prefix, so only a conservative character set is allowed.
var envNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// ValidateEnvName checks whether name is acceptable as a micromamba
// environment name: non-empty, starts with an alphanumeric character,
// and contains only alphanumerics, dots, underscores, and hyphens.
func ValidateEnvName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !envNameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must start with an alphanumeric character and contain only alphanumerics, dots, underscores, and hyphens", name)
	}
	return nil
}

// ExitCode defines the CLI exit codes. These allow scripts and CI
// systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitValidationFailed indicates the message was rejected by the
	// input validator (empty or containing disallowed characters).
	ExitValidationFailed ExitCode = 2

	// ExitMambaFailed indicates micromamba could not be launched or a
	// micromamba command exited with a non-zero status.
	ExitMambaFailed ExitCode = 3

	// ExitProvisionFailed indicates environment creation failed.
	ExitProvisionFailed ExitCode = 4

	// ExitEnvNotFound indicates the requested environment does not
	// exist under the configured root prefix.
	ExitEnvNotFound ExitCode = 5

	// ExitNoResult indicates the script ran but produced no parseable
	// JSON result.
	ExitNoResult ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
