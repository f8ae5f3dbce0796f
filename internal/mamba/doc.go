// Package mamba drives the external micromamba CLI.
//
// This package wraps micromamba subcommands (env list, create, run) via
// os/exec. It serves as the environment-manager integration layer for
// threatscan: probing for named environments, creating them with a pinned
// Python version, installing pip packages into them, and running commands
// inside them.
//
// Design decisions:
//   - We shell out to `micromamba` rather than linking a solver library
//     because micromamba is the product: its exit codes and output ARE the
//     interface, and no Go bindings exist.
//   - The root prefix is an explicit Runner field injected into child
//     process environments as MAMBA_ROOT_PREFIX. The parent process
//     environment is never mutated, which keeps concurrent test runs and
//     library embedding safe.
//   - All micromamba failures are wrapped in model.CLIError with
//     ExitMambaFailed (or ExitProvisionFailed for create) so the CLI layer
//     can map them to process exit codes.
package mamba
