// Package cli — scan.go implements the "threatscan scan" command.
//
// The scan command is the primary user-facing operation. It drives the
// full pipeline in internal/scan: validate the message, probe for the
// environment, provision it if missing, invoke the scoring script, and
// print the formatted result.
package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/threatscan/internal/config"
	"github.com/mmr-tortoise/threatscan/internal/model"
	"github.com/mmr-tortoise/threatscan/internal/scan"
)

// scanFlags holds the flag values for the scan command.
// These are bound to cobra flags in NewScanCommand.
type scanFlags struct {
	script        string        // --script: path to the scoring script
	pythonVersion string        // --python-version: pinned interpreter version
	envName       string        // --env: target environment name
	rootPrefix    string        // --root-prefix: environment storage root
	packages      []string      // --package: extra pip packages (repeatable)
	trustedHost   bool          // --trusted-host: relax pip cert verification
	noProvision   bool          // --no-provision: fail instead of creating a missing env
	timeout       time.Duration // --timeout: bound on the whole invocation
	profile       string        // --config: profile file (JSONC or YAML)
}

// NewScanCommand creates the "scan" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewScanCommand() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan <message>",
		Short: "Score a message with the external Python script",
		Long: `Score a message by running the configured Python script inside a micromamba
environment. The environment is created on first use with the pinned Python
version and any extra packages.

The message may contain only letters, digits, spaces, periods, commas,
hyphens, and underscores. Anything else is rejected before any process is
spawned.

Examples:
  threatscan scan --script ./detect.py "Check this text for threats"
  threatscan scan --script ./detect.py --env scoring --python-version 3.12 "suspicious text"
  threatscan scan --config scanprofile.jsonc "Check this text for threats"`,

		// Args validates that exactly one positional argument (the message)
		// is provided.
		Args: cobra.ExactArgs(1),

		// RunE is used instead of Run so we can return errors. Cobra will
		// pass them to the Execute error handler in root.go.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.script, "script", "", "Path to the Python scoring script (required unless set in --config)")
	cmd.Flags().StringVar(&flags.pythonVersion, "python-version", scan.DefaultPythonVersion, "Python version for the environment")
	cmd.Flags().StringVar(&flags.envName, "env", scan.DefaultEnvName, "Target environment name")
	cmd.Flags().StringVar(&flags.rootPrefix, "root-prefix", "", "Environment storage root (default: per-user data dir + /micromamba)")
	cmd.Flags().StringArrayVar(&flags.packages, "package", nil, "Extra pip package to install on environment creation (repeatable)")
	cmd.Flags().BoolVar(&flags.trustedHost, "trusted-host", false, "Skip certificate verification for the standard pip registries")
	cmd.Flags().BoolVar(&flags.noProvision, "no-provision", false, "Fail if the environment does not exist instead of creating it")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Bound on the whole invocation (0 = no timeout)")
	cmd.Flags().StringVar(&flags.profile, "config", "", "Scan profile file (.json/.jsonc/.yaml/.yml)")

	return cmd
}

// runScan assembles scan.Options from the profile (if any) and the flags,
// runs the pipeline, and prints the outcome. Flags explicitly set on the
// command line override profile values.
func runScan(cmd *cobra.Command, msg string, flags *scanFlags) error {
	opts := scan.Options{
		Message:       msg,
		ScriptPath:    flags.script,
		PythonVersion: flags.pythonVersion,
		EnvName:       flags.envName,
		RootPrefix:    flags.rootPrefix,
		Packages:      flags.packages,
		TrustedHost:   flags.trustedHost,
		NoProvision:   flags.noProvision,
		Timeout:       flags.timeout,
		Log:           VerboseLog,
	}

	if flags.profile != "" {
		profile, err := config.Load(flags.profile)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to load scan profile", err)
		}
		VerboseLog("Loaded profile: %s", flags.profile)
		applyProfile(&opts, profile, cmd)
	}

	if opts.ScriptPath == "" {
		return model.NewCLIError(model.ExitGeneralError, "a script path is required (--script or the profile's script field)")
	}

	outcome, err := scan.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	printScanOutcome(outcome)

	// The formatted output has already been printed; the exit code still
	// signals "no result" so callers can branch without string matching.
	if outcome.Result == nil {
		return model.NewCLIError(model.ExitNoResult, "the script produced no parseable result")
	}
	return nil
}

// applyProfile copies profile values into opts for every setting the user
// did NOT set explicitly on the command line. cobra's Changed tracking
// gives us exact flag-over-profile precedence, including flags set to
// their default value on purpose.
func applyProfile(opts *scan.Options, profile *config.Profile, cmd *cobra.Command) {
	set := cmd.Flags().Changed

	if !set("script") && profile.Script != "" {
		opts.ScriptPath = profile.Script
	}
	if !set("python-version") && profile.PythonVersion != "" {
		opts.PythonVersion = profile.PythonVersion
	}
	if !set("env") && profile.EnvName != "" {
		opts.EnvName = profile.EnvName
	}
	if !set("root-prefix") && profile.RootPrefix != "" {
		opts.RootPrefix = profile.RootPrefix
	}
	if !set("package") && len(profile.Packages) > 0 {
		opts.Packages = profile.Packages
	}
	if !set("trusted-host") && profile.TrustedHost {
		opts.TrustedHost = true
	}
}

// printScanOutcome outputs the scan outcome in text or JSON format.
// Text mode prints exactly the orchestrator's formatted string: either
// "Score: ...\n\nReason: ..." or the fixed failure message.
func printScanOutcome(outcome *scan.Outcome) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(outcome, "", "  ")
		fmt.Println(string(data))
		return
	}
	fmt.Println(outcome.Output)
}
