package mamba

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
)

// envListing mirrors the JSON emitted by `micromamba env list --json`:
//
//	{"envs": ["/root/prefix", "/root/prefix/envs/langchain", ...]}
//
// Each entry is the absolute path of an environment directory. The root
// prefix itself appears as the "base" environment.
type envListing struct {
	Envs []string `json:"envs"`
}

// EnvExists reports whether an environment with exactly the given name
// exists under the runner's root prefix.
//
// The check prefers the machine-readable listing (`env list --json`) and
// matches on the exact base name of each listed environment directory.
// If the output is not parseable JSON (older micromamba builds, or a
// wrapper script), it falls back to the plain-text contract: a listing
// line, after whitespace trimming, must exactly equal the requested name.
// In both paths, prefix or substring matches never count: an existing
// "langchain-test" must not satisfy a probe for "langchain".
func (r *Runner) EnvExists(ctx context.Context, name string) (bool, error) {
	output, err := r.Run(ctx, "env", "list", "--json")
	if err != nil {
		return false, err
	}

	if names, ok := parseJSONListing(output); ok {
		for _, n := range names {
			if n == name {
				return true, nil
			}
		}
		return false, nil
	}

	return matchPlainListing(output, name), nil
}

// ListEnvNames returns the names of all environments under the runner's
// root prefix, derived from the machine-readable listing. The root prefix
// itself (micromamba's "base" environment) is reported as "base".
func (r *Runner) ListEnvNames(ctx context.Context) ([]string, error) {
	output, err := r.Run(ctx, "env", "list", "--json")
	if err != nil {
		return nil, err
	}

	names, ok := parseJSONListing(output)
	if !ok {
		// Fall back to scraping the plain listing so a wrapper that
		// ignores --json still yields usable output.
		return parsePlainListing(output), nil
	}
	return names, nil
}

// parseJSONListing decodes `env list --json` output into environment
// names. It returns ok=false when the output is not the expected JSON
// shape, signalling callers to fall back to plain-text parsing.
//
// Name derivation: entries under an envs/ directory take their base name;
// any other entry is a root ("base") environment.
func parseJSONListing(output string) ([]string, bool) {
	var listing envListing
	if err := json.Unmarshal([]byte(output), &listing); err != nil {
		return nil, false
	}

	names := make([]string, 0, len(listing.Envs))
	for _, p := range listing.Envs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if filepath.Base(filepath.Dir(p)) == "envs" {
			names = append(names, filepath.Base(p))
		} else {
			names = append(names, "base")
		}
	}
	return names, true
}

// matchPlainListing applies the exact-match contract over a plain-text
// environment listing: true only if some line, after trimming leading and
// trailing whitespace, equals name exactly.
func matchPlainListing(output, name string) bool {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == name {
			return true
		}
	}
	return false
}

// parsePlainListing extracts candidate environment names from a
// plain-text listing: each non-empty, non-comment line's first field.
// Header separators (lines of dashes) are skipped.
func parsePlainListing(output string) []string {
	var names []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			names = append(names, fields[0])
		}
	}
	return names
}
