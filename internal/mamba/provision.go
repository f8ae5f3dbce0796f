package mamba

import (
	"context"
	"fmt"

	"github.com/mmr-tortoise/threatscan/internal/model"
)

// defaultChannel is the package-index channel used for newly created
// environments. conda-forge is the community baseline channel and the
// only one micromamba can use without licensing concerns.
const defaultChannel = "conda-forge"

// trustedHosts are the package registries pip is told to trust when
// certificate verification must be relaxed (air-gapped or TLS-intercepting
// enterprise networks).
var trustedHosts = []string{"pypi.org", "files.pythonhosted.org"}

// CreateEnv creates a new environment with the given name and pinned
// Python version, pulling from the baseline channel.
//
// A non-zero micromamba exit status is a hard failure: the returned
// error carries ExitProvisionFailed and callers must not proceed to run
// anything inside the half-created environment.
func (r *Runner) CreateEnv(ctx context.Context, spec model.EnvironmentSpec) error {
	_, err := r.Run(ctx,
		"create", "-y",
		"-n", spec.Name,
		"python="+spec.PythonVersion,
		"-c", defaultChannel,
	)
	if err != nil {
		return model.WrapCLIError(
			model.ExitProvisionFailed,
			fmt.Sprintf("failed to create environment %q (python %s)", spec.Name, spec.PythonVersion),
			err,
		)
	}
	return nil
}

// InstallPackages installs each package into the named environment via
// pip, one child process per package.
//
// Installs are independent: a failed package is recorded in the returned
// report and the remaining packages are still attempted. The caller
// decides whether partial failure is acceptable; for scan environments
// it is, because the script reports its own import errors.
//
// When trustedHost is true, pip skips certificate verification for the
// standard package registries (see trustedHosts).
func (r *Runner) InstallPackages(ctx context.Context, env string, packages []string, trustedHost bool) []model.PackageInstallResult {
	results := make([]model.PackageInstallResult, 0, len(packages))
	for _, pkg := range packages {
		_, err := r.Run(ctx, pipInstallArgs(env, pkg, trustedHost)...)
		res := model.PackageInstallResult{Package: pkg, OK: err == nil}
		if err != nil {
			res.Detail = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// pipInstallArgs builds the micromamba argument list for installing a
// single pip package inside an environment. Split out as a pure function
// so the trusted-host wiring is testable without spawning processes.
func pipInstallArgs(env, pkg string, trustedHost bool) []string {
	args := []string{"run", "-n", env, "python", "-m", "pip", "install"}
	if trustedHost {
		for _, host := range trustedHosts {
			args = append(args, "--trusted-host", host)
		}
	}
	return append(args, pkg)
}
