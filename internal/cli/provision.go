// Package cli — provision.go implements the "threatscan provision" command.
//
// provision creates an environment (and installs extra packages) without
// running a scan. This is the same path the scan command takes when the
// environment is missing, exposed directly so environments can be prepared
// ahead of time (by CI, or before going offline).
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/threatscan/internal/mamba"
	"github.com/mmr-tortoise/threatscan/internal/model"
	"github.com/mmr-tortoise/threatscan/internal/scan"
)

// provisionFlags holds the flag values for the provision command.
type provisionFlags struct {
	pythonVersion string   // --python-version: pinned interpreter version
	rootPrefix    string   // --root-prefix: environment storage root
	packages      []string // --package: extra pip packages (repeatable)
	trustedHost   bool     // --trusted-host: relax pip cert verification
	force         bool     // --force: create even if the name already exists
}

// NewProvisionCommand creates the "provision" cobra command.
func NewProvisionCommand() *cobra.Command {
	flags := &provisionFlags{}

	cmd := &cobra.Command{
		Use:   "provision <env-name>",
		Short: "Create a micromamba environment with a pinned Python version",
		Long: `Create a named micromamba environment with the pinned Python version and
install any extra pip packages into it.

Package installs are independent: one failed package does not abort the
rest, and the per-package report shows exactly what succeeded.

Examples:
  threatscan provision langchain
  threatscan provision scoring --python-version 3.12 --package langchain --package requests
  threatscan provision airgapped --package langchain --trusted-host`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.pythonVersion, "python-version", scan.DefaultPythonVersion, "Python version for the environment")
	cmd.Flags().StringVar(&flags.rootPrefix, "root-prefix", "", "Environment storage root (default: per-user data dir + /micromamba)")
	cmd.Flags().StringArrayVar(&flags.packages, "package", nil, "Extra pip package to install (repeatable)")
	cmd.Flags().BoolVar(&flags.trustedHost, "trusted-host", false, "Skip certificate verification for the standard pip registries")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Attempt creation even if an environment with this name exists")

	return cmd
}

// runProvision creates the environment and installs the requested
// packages, then prints the per-package report.
func runProvision(cmd *cobra.Command, envName string, flags *provisionFlags) error {
	if err := model.ValidateEnvName(envName); err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid environment name", err)
	}

	rootPrefix := flags.rootPrefix
	if rootPrefix == "" {
		rootPrefix = scan.DefaultRootPrefix()
	}
	runner := mamba.NewRunner(rootPrefix)

	// Idempotence: creating an existing environment is a no-op unless
	// the user explicitly forces recreation semantics onto micromamba.
	if !flags.force {
		exists, err := runner.EnvExists(cmd.Context(), envName)
		if err != nil {
			return err
		}
		if exists {
			VerboseLog("Environment %q already exists, nothing to do", envName)
			printProvisionResult(envName, false, nil)
			return nil
		}
	}

	VerboseLog("Creating environment %q (python %s) under %s", envName, flags.pythonVersion, rootPrefix)
	spec := model.EnvironmentSpec{Name: envName, PythonVersion: flags.pythonVersion}
	if err := runner.CreateEnv(cmd.Context(), spec); err != nil {
		return err
	}

	var report []model.PackageInstallResult
	if len(flags.packages) > 0 {
		report = runner.InstallPackages(cmd.Context(), envName, flags.packages, flags.trustedHost)
	}

	printProvisionResult(envName, true, report)
	return nil
}

// printProvisionResult outputs the provisioning outcome in text or JSON.
func printProvisionResult(envName string, created bool, report []model.PackageInstallResult) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"environment":   envName,
			"created":       created,
			"packageReport": report,
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	if created {
		fmt.Printf("Created environment %q\n", envName)
	} else {
		fmt.Printf("Environment %q already exists\n", envName)
	}

	for _, res := range report {
		if res.OK {
			fmt.Printf("  installed  %s\n", res.Package)
		} else {
			fmt.Printf("  FAILED     %s: %s\n", res.Package, res.Detail)
		}
	}
}
