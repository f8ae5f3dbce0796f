// Package script invokes the external Python scoring script inside a
// micromamba environment and parses its JSON standard output.
//
// The invoker deliberately swallows every fault (launch failure, non-zero
// exit, empty output, non-JSON output) and reports them all as "no
// result", a nil *model.ScanResult. The caller only distinguishes "got a
// structured result" from "did not"; the fixed user-facing failure string
// is the orchestrator's business.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmr-tortoise/threatscan/internal/mamba"
	"github.com/mmr-tortoise/threatscan/internal/model"
)

// Invoke runs scriptPath with the Python interpreter of the named
// environment, passing the sanitized message as a single --message
// argument, and parses stdout as a ScanResult.
//
// The message travels as one argv element, never through a shell, so
// the validator's character class plus this calling convention together
// rule out injection.
//
// Returns nil on any failure; the optional logf sink (may be nil)
// receives a diagnostic line explaining what went wrong.
func Invoke(ctx context.Context, runner *mamba.Runner, env, scriptPath, msg string, logf func(format string, args ...interface{})) *model.ScanResult {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}

	output, err := runner.Run(ctx, "run", "-n", env, "python", scriptPath, "--message", msg)
	if err != nil {
		logf("script invocation failed: %v", err)
		return nil
	}

	result, err := parseResult(output)
	if err != nil {
		logf("script output is not a valid result: %v", err)
		return nil
	}
	return result
}

// parseResult decodes the script's stdout into a ScanResult. The script
// contract is exactly one JSON object on stdout; surrounding whitespace
// is tolerated, anything else is not. A result followed by trailing text
// (say, a traceback from a crash after printing) is rejected, as is a
// top-level null: both mean the script did not deliver a usable result.
func parseResult(output string) (*model.ScanResult, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil, fmt.Errorf("script produced no output")
	}
	if trimmed == "null" {
		return nil, fmt.Errorf("script produced a null result")
	}

	// json.Unmarshal rejects trailing data after the first JSON value,
	// unlike a json.Decoder, which stops at the value boundary.
	var result model.ScanResult
	if err := json.Unmarshal([]byte(trimmed), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
