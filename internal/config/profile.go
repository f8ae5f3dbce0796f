// Package config loads scan profile files.
//
// A profile bundles the orchestrator inputs (script path, Python version,
// environment name, root prefix, package list, trusted-host flag) so teams
// can check a scan setup into a repo instead of repeating flags. Profiles
// come in two formats:
//
//   - JSONC (.json / .jsonc): JSON with comments, stripped with
//     github.com/tidwall/jsonc before standard parsing
//   - YAML (.yaml / .yml): parsed with gopkg.in/yaml.v3
//
// Explicit command-line flags always override profile values; the merge
// happens in the CLI layer, not here.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Profile holds the orchestrator inputs loadable from a file. All fields
// are optional; zero values mean "use the default".
type Profile struct {
	// Script is the path to the Python scoring script.
	Script string `json:"script" yaml:"script"`

	// PythonVersion pins the interpreter version for the environment.
	PythonVersion string `json:"pythonVersion" yaml:"pythonVersion"`

	// EnvName is the target micromamba environment name.
	EnvName string `json:"envName" yaml:"envName"`

	// RootPrefix is the environment storage root.
	RootPrefix string `json:"rootPrefix" yaml:"rootPrefix"`

	// Packages lists extra pip packages to install after creation.
	Packages []string `json:"packages" yaml:"packages"`

	// TrustedHost relaxes certificate verification for pip installs.
	TrustedHost bool `json:"trustedHost" yaml:"trustedHost"`
}

// versionRegex accepts dotted numeric interpreter versions such as
// "3", "3.11", or "3.11.4".
var versionRegex = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Load reads and parses a profile file, dispatching on the file
// extension. Unknown extensions are an error rather than a guess:
// a YAML file parsed as JSON fails with a misleading message otherwise.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var profile Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// jsonc.ToJSON replaces comments and trailing commas with
		// whitespace, preserving offsets for error reporting.
		if err := json.Unmarshal(jsonc.ToJSON(data), &profile); err != nil {
			return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &profile); err != nil {
			return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q (expected .json, .jsonc, .yaml, or .yml)", filepath.Ext(path))
	}

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return &profile, nil
}

// Validate checks the loaded values for internal consistency. Empty
// fields are fine (they fall back to defaults); present fields must be
// well-formed.
func (p *Profile) Validate() error {
	if p.PythonVersion != "" && !versionRegex.MatchString(p.PythonVersion) {
		return fmt.Errorf("pythonVersion %q is not a dotted numeric version", p.PythonVersion)
	}
	for _, pkg := range p.Packages {
		if strings.TrimSpace(pkg) == "" {
			return fmt.Errorf("packages must not contain empty entries")
		}
	}
	return nil
}
