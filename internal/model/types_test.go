package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScoreValueUnmarshalNumber verifies that numeric scores keep their
// exact source representation; the formatted output echoes the literal.
func TestScoreValueUnmarshalNumber(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`{"score": 0.87, "reason": "r"}`, "0.87"},
		{`{"score": 1, "reason": "r"}`, "1"},
		{`{"score": 0.870, "reason": "r"}`, "0.870"},
		{`{"score": -2.5, "reason": "r"}`, "-2.5"},
	}

	for _, tc := range cases {
		var result ScanResult
		require.NoError(t, json.Unmarshal([]byte(tc.input), &result))
		assert.Equal(t, tc.want, result.Score.String())
	}
}

// TestScoreValueUnmarshalString verifies that string scores are accepted
// as-is; some scripts report categorical scores like "high".
func TestScoreValueUnmarshalString(t *testing.T) {
	var result ScanResult
	require.NoError(t, json.Unmarshal([]byte(`{"score": "high", "reason": "r"}`), &result))
	assert.Equal(t, "high", result.Score.String())
}

// TestScoreValueUnmarshalRejectsOtherTypes verifies that booleans,
// arrays, and objects are parse errors, not silently coerced.
func TestScoreValueUnmarshalRejectsOtherTypes(t *testing.T) {
	for _, input := range []string{
		`{"score": true, "reason": "r"}`,
		`{"score": [1], "reason": "r"}`,
		`{"score": {"v": 1}, "reason": "r"}`,
	} {
		var result ScanResult
		assert.Error(t, json.Unmarshal([]byte(input), &result), "input: %s", input)
	}
}

// TestScoreValueMarshal verifies round-tripping: numeric literals stay
// raw numbers, anything else becomes a quoted string.
func TestScoreValueMarshal(t *testing.T) {
	numData, err := json.Marshal(ScoreValue("0.87"))
	require.NoError(t, err)
	assert.Equal(t, "0.87", string(numData))

	strData, err := json.Marshal(ScoreValue("high"))
	require.NoError(t, err)
	assert.Equal(t, `"high"`, string(strData))
}

// TestScoreValueMarshalNonJSONNumerics verifies that literals Go parses
// as floats but JSON does not ("Inf", "NaN", hex floats) are emitted as
// quoted strings; emitting them raw would produce invalid JSON and make
// the enclosing document unmarshalable.
func TestScoreValueMarshalNonJSONNumerics(t *testing.T) {
	cases := []struct {
		score ScoreValue
		want  string
	}{
		{"Inf", `"Inf"`},
		{"-Inf", `"-Inf"`},
		{"NaN", `"NaN"`},
		{"0x1p-2", `"0x1p-2"`},
		{"", `""`},
	}

	for _, tc := range cases {
		data, err := json.Marshal(tc.score)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(data))
		assert.True(t, json.Valid(data), "marshaled score %q must be valid JSON", tc.score)
	}
}

// TestValidateEnvName checks the environment-name character rules.
func TestValidateEnvName(t *testing.T) {
	valid := []string{"langchain", "langchain-test", "env_1", "py3.11", "A"}
	for _, name := range valid {
		assert.NoError(t, ValidateEnvName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "  ", "-leading", ".hidden", "has space", "semi;colon", "slash/name"}
	for _, name := range invalid {
		assert.Error(t, ValidateEnvName(name), "name %q should be invalid", name)
	}
}

// TestCLIError verifies error formatting, unwrapping, and that exit
// codes survive a round trip through the error interface.
func TestCLIError(t *testing.T) {
	base := errors.New("exit status 1")
	err := WrapCLIError(ExitProvisionFailed, "failed to create environment", base)

	assert.Equal(t, "failed to create environment: exit status 1", err.Error())
	assert.ErrorIs(t, err, base)

	var cliErr *CLIError
	require.ErrorAs(t, fmt.Errorf("outer: %w", err), &cliErr)
	assert.Equal(t, ExitProvisionFailed, cliErr.Code)

	plain := NewCLIError(ExitValidationFailed, "message validation failed")
	assert.Equal(t, "message validation failed", plain.Error())
	assert.Nil(t, plain.Unwrap())
}
