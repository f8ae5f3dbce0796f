package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProfile writes a profile file with the given name and content into
// a temp dir and returns its path.
func writeProfile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadJSONC verifies JSONC parsing: comments and trailing commas are
// legal in profile files, matching what users expect from editor-managed
// config.
func TestLoadJSONC(t *testing.T) {
	path := writeProfile(t, "scan.jsonc", `{
	// Scoring script checked into the repo.
	"script": "./detect.py",
	"pythonVersion": "3.12",
	"envName": "scoring",
	"rootPrefix": "/data/micromamba",
	"packages": ["langchain", "requests"], // pip extras
	"trustedHost": true,
}`)

	profile, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./detect.py", profile.Script)
	assert.Equal(t, "3.12", profile.PythonVersion)
	assert.Equal(t, "scoring", profile.EnvName)
	assert.Equal(t, "/data/micromamba", profile.RootPrefix)
	assert.Equal(t, []string{"langchain", "requests"}, profile.Packages)
	assert.True(t, profile.TrustedHost)
}

// TestLoadYAML verifies the YAML format end to end.
func TestLoadYAML(t *testing.T) {
	path := writeProfile(t, "scan.yaml", `script: ./detect.py
pythonVersion: "3.11"
envName: langchain
packages:
  - langchain
`)

	profile, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./detect.py", profile.Script)
	assert.Equal(t, "3.11", profile.PythonVersion)
	assert.Equal(t, "langchain", profile.EnvName)
	assert.Equal(t, []string{"langchain"}, profile.Packages)
	assert.False(t, profile.TrustedHost)
}

// TestLoadUnknownExtension verifies that unrecognized file formats are
// rejected up front instead of mis-parsed.
func TestLoadUnknownExtension(t *testing.T) {
	path := writeProfile(t, "scan.toml", `script = "./detect.py"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported profile format")
}

// TestLoadMissingFile verifies the error for a nonexistent path.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// TestLoadMalformed verifies parse errors are surfaced with the path.
func TestLoadMalformed(t *testing.T) {
	path := writeProfile(t, "scan.json", `{"script": `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

// TestValidateVersion pins the interpreter-version format rules.
func TestValidateVersion(t *testing.T) {
	for _, v := range []string{"", "3", "3.11", "3.11.4"} {
		p := &Profile{PythonVersion: v}
		assert.NoError(t, p.Validate(), "version %q should be accepted", v)
	}

	for _, v := range []string{"3.x", "three", "3.11-rc1", " 3.11"} {
		p := &Profile{PythonVersion: v}
		assert.Error(t, p.Validate(), "version %q should be rejected", v)
	}
}

// TestValidateEmptyPackageEntry verifies that blank package identifiers
// fail validation; they would otherwise become empty pip install args.
func TestValidateEmptyPackageEntry(t *testing.T) {
	p := &Profile{Packages: []string{"langchain", "  "}}
	assert.Error(t, p.Validate())
}
