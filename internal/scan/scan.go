// Package scan implements the orchestrator: the single public entry point
// that sequences validation, environment probing, conditional
// provisioning, script invocation, and result formatting.
//
// Per-invocation state machine (no loops, no retries, no concurrency):
//
//	Start → Validating → (fail → Aborted)
//	      → Probing → (found → Invoking | missing → Provisioning → Invoking)
//	      → Invoking → (result → Formatted | no result → FailureMessage)
//	      → End
package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"github.com/mmr-tortoise/threatscan/internal/mamba"
	"github.com/mmr-tortoise/threatscan/internal/message"
	"github.com/mmr-tortoise/threatscan/internal/model"
	"github.com/mmr-tortoise/threatscan/internal/script"
)

// FailureMessage is the fixed user-facing string produced when the script
// yields no parseable result. Callers match on it verbatim, so it must
// never change shape.
const FailureMessage = "Failed to retrieve result from the Python script."

// Defaults applied by Options.applyDefaults.
const (
	// DefaultPythonVersion is the interpreter version pinned into newly
	// created environments when none is specified.
	DefaultPythonVersion = "3.11"

	// DefaultEnvName is the conventional environment name.
	DefaultEnvName = "langchain"
)

// DefaultRootPrefix returns the default environment storage root: the
// per-user application-data directory plus "/micromamba". Resolution is
// platform-aware via the XDG base directory spec (~/.local/share on
// Linux, ~/Library/Application Support on macOS, %LOCALAPPDATA% on
// Windows).
func DefaultRootPrefix() string {
	return filepath.Join(xdg.DataHome, "micromamba")
}

// Options are the orchestrator inputs. Message and ScriptPath are
// required; everything else has a documented default.
type Options struct {
	// Message is the text to score. Must pass message.Validate.
	Message string

	// ScriptPath locates the external Python scoring script.
	ScriptPath string

	// PythonVersion pins the interpreter for a newly created
	// environment. Default: DefaultPythonVersion.
	PythonVersion string

	// EnvName is the target environment name. Default: DefaultEnvName.
	EnvName string

	// RootPrefix is the environment storage root.
	// Default: DefaultRootPrefix().
	RootPrefix string

	// Packages lists extra pip packages installed after environment
	// creation. Ignored when the environment already exists.
	Packages []string

	// TrustedHost relaxes certificate verification for pip installs.
	TrustedHost bool

	// NoProvision disables environment creation: a missing environment
	// is a hard error (ExitEnvNotFound) instead of being created. Useful
	// when environments are prepared ahead of time and an unexpected
	// creation (with its download cost) should never happen implicitly.
	NoProvision bool

	// Timeout bounds the whole invocation. Zero means no timeout,
	// which matches the original contract; external tooling limits
	// still apply either way.
	Timeout time.Duration

	// MambaBinary overrides the micromamba executable. Empty means
	// resolve "micromamba" via PATH. Tests point this at stubs.
	MambaBinary string

	// Log receives verbose diagnostics. May be nil.
	Log func(format string, args ...interface{})
}

// applyDefaults fills the zero-valued optional fields in place.
func (o *Options) applyDefaults() {
	if o.PythonVersion == "" {
		o.PythonVersion = DefaultPythonVersion
	}
	if o.EnvName == "" {
		o.EnvName = DefaultEnvName
	}
	if o.RootPrefix == "" {
		o.RootPrefix = DefaultRootPrefix()
	}
	if o.Log == nil {
		o.Log = func(string, ...interface{}) {}
	}
}

// Outcome is the full record of one scan invocation. Output is the
// user-facing string the original contract promises; the remaining
// fields exist for structured (JSON) consumers.
type Outcome struct {
	// RunID uniquely identifies this invocation in logs and output.
	RunID string `json:"id"`

	// EnvName is the environment the script ran in.
	EnvName string `json:"environment"`

	// Provisioned reports whether the environment was created during
	// this invocation (false when it already existed).
	Provisioned bool `json:"provisioned"`

	// PackageReport holds per-package install outcomes. Only populated
	// when the environment was provisioned with extra packages.
	PackageReport []model.PackageInstallResult `json:"packageReport,omitempty"`

	// Result is the parsed script output, nil when the script produced
	// no parseable result.
	Result *model.ScanResult `json:"result,omitempty"`

	// Output is the formatted human-readable string: either
	// "Score: {score}\n\nReason: {reason}" or FailureMessage.
	Output string `json:"output"`
}

// Run executes the full scan pipeline and returns its outcome.
//
// Hard failures (validation, micromamba unavailable, environment creation
// failure) return a non-nil error, always a *model.CLIError, and a nil
// outcome. A script that runs but yields no parseable result is NOT an
// error: the outcome carries FailureMessage and a nil Result.
func Run(ctx context.Context, opts Options) (*Outcome, error) {
	opts.applyDefaults()

	runID := uuid.NewString()
	opts.Log("scan %s: env=%q root=%q script=%q", runID, opts.EnvName, opts.RootPrefix, opts.ScriptPath)

	if opts.ScriptPath == "" {
		return nil, model.NewCLIError(model.ExitGeneralError, "script path is required")
	}
	if err := model.ValidateEnvName(opts.EnvName); err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid environment name", err)
	}

	// Validation failure is a hard error: nothing is spawned for a
	// message that fails the character-class check.
	msg, err := message.Validate(opts.Message)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitValidationFailed, "message validation failed", err)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	runner := mamba.NewRunner(opts.RootPrefix)
	if opts.MambaBinary != "" {
		runner.Binary = opts.MambaBinary
	}

	outcome := &Outcome{RunID: runID, EnvName: opts.EnvName}

	exists, err := runner.EnvExists(ctx, opts.EnvName)
	if err != nil {
		return nil, err
	}

	if exists {
		opts.Log("scan %s: environment %q already exists", runID, opts.EnvName)
	} else {
		if opts.NoProvision {
			return nil, model.NewCLIError(
				model.ExitEnvNotFound,
				fmt.Sprintf("environment %q does not exist and provisioning is disabled", opts.EnvName),
			)
		}
		opts.Log("scan %s: environment %q missing, creating (python %s)", runID, opts.EnvName, opts.PythonVersion)

		spec := model.EnvironmentSpec{Name: opts.EnvName, PythonVersion: opts.PythonVersion}
		// Creation failure aborts the run: invoking a script inside a
		// half-created environment produces garbage, not a result.
		if err := runner.CreateEnv(ctx, spec); err != nil {
			return nil, err
		}
		outcome.Provisioned = true

		if len(opts.Packages) > 0 {
			outcome.PackageReport = runner.InstallPackages(ctx, opts.EnvName, opts.Packages, opts.TrustedHost)
			for _, res := range outcome.PackageReport {
				if res.OK {
					opts.Log("scan %s: installed %s", runID, res.Package)
				} else {
					// Non-fatal: the script reports its own import errors.
					opts.Log("scan %s: install failed for %s: %s", runID, res.Package, res.Detail)
				}
			}
		}
	}

	outcome.Result = script.Invoke(ctx, runner, opts.EnvName, opts.ScriptPath, msg, opts.Log)
	outcome.Output = FormatResult(outcome.Result)
	return outcome, nil
}

// FormatResult renders a script result as the user-facing string.
// A nil result yields the fixed FailureMessage.
func FormatResult(result *model.ScanResult) string {
	if result == nil {
		return FailureMessage
	}
	return fmt.Sprintf("Score: %s\n\nReason: %s", result.Score, result.Reason)
}
