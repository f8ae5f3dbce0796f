// Package cli — envs.go implements the "threatscan envs" command.
//
// envs lists the environments under a root prefix. It exists mostly for
// operability: when a scan misbehaves, the first question is "which
// environments does this machine actually have?".
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/threatscan/internal/mamba"
	"github.com/mmr-tortoise/threatscan/internal/scan"
)

// envsFlags holds the flag values for the envs command.
type envsFlags struct {
	rootPrefix string // --root-prefix: environment storage root
}

// NewEnvsCommand creates the "envs" cobra command.
func NewEnvsCommand() *cobra.Command {
	flags := &envsFlags{}

	cmd := &cobra.Command{
		Use:   "envs",
		Short: "List micromamba environments under the storage root",
		Long: `List the names of all micromamba environments under the configured storage
root. The same listing backs the scan command's existence probe.`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnvs(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.rootPrefix, "root-prefix", "", "Environment storage root (default: per-user data dir + /micromamba)")

	return cmd
}

// runEnvs queries the listing and prints one environment name per line
// (or a JSON array with --json).
func runEnvs(cmd *cobra.Command, flags *envsFlags) error {
	rootPrefix := flags.rootPrefix
	if rootPrefix == "" {
		rootPrefix = scan.DefaultRootPrefix()
	}
	VerboseLog("Listing environments under %s", rootPrefix)

	runner := mamba.NewRunner(rootPrefix)
	names, err := runner.ListEnvNames(cmd.Context())
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]interface{}{
			"rootPrefix":   rootPrefix,
			"environments": names,
		}, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if len(names) == 0 {
		fmt.Println("No environments found.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}
