package mamba

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mmr-tortoise/threatscan/internal/model"
)

// DefaultBinary is the micromamba executable name resolved via PATH when
// no explicit binary path is configured.
const DefaultBinary = "micromamba"

// Runner executes micromamba commands against a specific root prefix.
//
// The zero value is not useful; construct with NewRunner. Runner is
// stateless apart from its configuration and safe to reuse across calls,
// though concurrent operations against the same environment name are
// unsupported (micromamba itself does not lock its store).
type Runner struct {
	// Binary is the micromamba executable to invoke. Defaults to
	// DefaultBinary; tests point it at stub scripts.
	Binary string

	// RootPrefix is the directory under which micromamba stores all
	// environments. When non-empty it is passed to every child process
	// as MAMBA_ROOT_PREFIX. The parent environment is never modified.
	RootPrefix string
}

// NewRunner creates a Runner that stores environments under rootPrefix.
// An empty rootPrefix defers to whatever micromamba resolves on its own
// (its built-in default or an inherited MAMBA_ROOT_PREFIX).
func NewRunner(rootPrefix string) *Runner {
	return &Runner{
		Binary:     DefaultBinary,
		RootPrefix: rootPrefix,
	}
}

// Run executes a micromamba command with the given arguments.
//
// It captures stdout and stderr separately. On success (exit code 0) it
// returns the stdout output. On failure it returns a model.CLIError with
// ExitMambaFailed, including the trimmed stderr output in the error
// message for diagnostics.
func (r *Runner) Run(ctx context.Context, args ...string) (string, error) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	// #nosec G204 — args are constructed internally; the only
	// user-influenced value (the message) has passed the validator.
	cmd := exec.CommandContext(ctx, binary, args...)

	// Inherit the current process environment and override the root
	// prefix for the child only. os.Environ() returns a copy, and a
	// later duplicate key wins, so appending is a safe override.
	cmd.Env = os.Environ()
	if r.RootPrefix != "" {
		cmd.Env = append(cmd.Env, "MAMBA_ROOT_PREFIX="+r.RootPrefix)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		msg := fmt.Sprintf("micromamba %s failed", strings.Join(args, " "))
		if stderrStr != "" {
			msg = fmt.Sprintf("%s: %s", msg, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitMambaFailed, msg, err)
	}

	return stdout.String(), nil
}
