package script

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/threatscan/internal/mamba"
)

// stubRunner builds a mamba.Runner backed by a shell-script stub, since
// neither micromamba nor Python can be assumed on test hosts. The body
// receives the argv the invoker would hand to micromamba
// (run -n <env> python <script> --message <msg>).
func stubRunner(t *testing.T, body string) *mamba.Runner {
	t.Helper()

	path := filepath.Join(t.TempDir(), "micromamba")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	require.NoError(t, err)

	r := mamba.NewRunner("")
	r.Binary = path
	return r
}

// TestInvokeParsesResult verifies the happy path: one JSON object on
// stdout becomes a ScanResult.
func TestInvokeParsesResult(t *testing.T) {
	r := stubRunner(t, `echo '{"score": 0.87, "reason": "elevated risk language"}'`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "Check this text", nil)
	require.NotNil(t, result)
	assert.Equal(t, "0.87", result.Score.String())
	assert.Equal(t, "elevated risk language", result.Reason)
}

// TestInvokeStringScore verifies that categorical (string) scores parse.
func TestInvokeStringScore(t *testing.T) {
	r := stubRunner(t, `echo '{"score": "high", "reason": "matched keyword list"}'`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "msg", nil)
	require.NotNil(t, result)
	assert.Equal(t, "high", result.Score.String())
}

// TestInvokePassesMessageAsSingleArgument verifies the calling
// convention: the message travels as one argv element after --message,
// spaces and all.
func TestInvokePassesMessageAsSingleArgument(t *testing.T) {
	// The stub echoes $7, the argv slot the message lands in:
	// run -n <env> python <script> --message <msg>
	r := stubRunner(t, `printf '{"score": 1, "reason": "%s"}\n' "$7"`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "Check this text for threats", nil)
	require.NotNil(t, result)
	assert.Equal(t, "Check this text for threats", result.Reason)
}

// TestInvokeNonJSONOutput verifies that non-JSON stdout (a Python
// traceback, say) downgrades to a nil result instead of a fault.
func TestInvokeNonJSONOutput(t *testing.T) {
	r := stubRunner(t, `echo 'Traceback (most recent call last):'`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "msg", nil)
	assert.Nil(t, result)
}

// TestInvokeEmptyOutput verifies that empty stdout yields no result.
func TestInvokeEmptyOutput(t *testing.T) {
	r := stubRunner(t, `exit 0`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "msg", nil)
	assert.Nil(t, result)
}

// TestInvokeNonZeroExit verifies that a failing script yields no result
// even if it printed valid JSON first.
func TestInvokeNonZeroExit(t *testing.T) {
	r := stubRunner(t, `echo '{"score": 1, "reason": "r"}'; exit 2`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "msg", nil)
	assert.Nil(t, result)
}

// TestInvokeLaunchFailure verifies that an unlaunchable binary yields no
// result, with a diagnostic hitting the log sink.
func TestInvokeLaunchFailure(t *testing.T) {
	r := mamba.NewRunner("")
	r.Binary = filepath.Join(t.TempDir(), "no-such-binary")

	var logged []string
	logf := func(format string, args ...interface{}) {
		logged = append(logged, format)
	}

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "msg", logf)
	assert.Nil(t, result)
	assert.NotEmpty(t, logged, "launch failure should be logged")
}

// TestInvokeResultThenCrash covers the script that prints its result and
// then dies with a traceback: the trailing text means the output is not
// exactly one JSON object, so there is no result.
func TestInvokeResultThenCrash(t *testing.T) {
	r := stubRunner(t, `echo '{"score": 1, "reason": "r"}'
echo 'Traceback (most recent call last):'`)

	result := Invoke(context.Background(), r, "langchain", "/opt/detect.py", "msg", nil)
	assert.Nil(t, result)
}

// TestParseResultToleratesWhitespace verifies that leading/trailing
// whitespace around the JSON object is acceptable.
func TestParseResultToleratesWhitespace(t *testing.T) {
	result, err := parseResult("\n  {\"score\": 0.5, \"reason\": \"r\"}  \n")
	require.NoError(t, err)
	assert.Equal(t, "0.5", result.Score.String())
}

// TestParseResultRejectsTrailingData pins the exactly-one-object rule:
// anything after the first JSON value invalidates the whole output.
func TestParseResultRejectsTrailingData(t *testing.T) {
	inputs := []string{
		"{\"score\": 1, \"reason\": \"r\"}\nTraceback (most recent call last):",
		`{"score": 1, "reason": "r"} {"score": 2, "reason": "x"}`,
		`{"score": 1, "reason": "r"} trailing words`,
	}

	for _, input := range inputs {
		_, err := parseResult(input)
		assert.Error(t, err, "input %q must be rejected", input)
	}
}

// TestParseResultRejectsNull verifies that a top-level null is "no
// result", not a zero-valued score and reason.
func TestParseResultRejectsNull(t *testing.T) {
	for _, input := range []string{"null", "  null\n"} {
		_, err := parseResult(input)
		assert.Error(t, err, "input %q must be rejected", input)
	}
}
