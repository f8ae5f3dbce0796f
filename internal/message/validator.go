// Package message implements the input validator for scan messages.
//
// The message produced here ends up as a command-line argument to an
// external interpreter launched inside a micromamba environment. The
// validator's whole purpose is to make command/argument injection
// impossible: anything outside a conservative character class (letters,
// digits, space, period, comma, hyphen, underscore) rejects the message
// before any external process is spawned.
package message

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyMessage is returned when the message is empty or consists only
// of whitespace. It is deliberately distinct from InvalidCharactersError
// so callers (and users) can tell "you gave me nothing" apart from
// "you gave me something dangerous".
var ErrEmptyMessage = errors.New("message is empty or contains only whitespace")

// InvalidCharactersError reports every disallowed character found in a
// message. Listing all offenders (not just the first) makes rejected
// messages diagnosable in one pass.
type InvalidCharactersError struct {
	// Chars holds each distinct offending character once,
	// in order of first occurrence.
	Chars []rune
}

// Error lists the offending characters in a quoted, comma-separated form,
// e.g.: message contains invalid characters: '$', '|', '{'.
func (e *InvalidCharactersError) Error() string {
	quoted := make([]string, len(e.Chars))
	for i, r := range e.Chars {
		quoted[i] = fmt.Sprintf("%q", string(r))
	}
	return "message contains invalid characters: " + strings.Join(quoted, ", ")
}

// allowedRune reports whether r belongs to the permitted character class
// [a-zA-Z0-9 .,\-_]. A plain comparison chain is used instead of a regexp
// so the validator inspects every rune and can enumerate all offenders,
// not just fail at the first mismatch.
func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == ' ' || r == '.' || r == ',' || r == '-' || r == '_':
		return true
	default:
		return false
	}
}

// Validate checks msg against the permitted character class and returns
// it unchanged on success.
//
// Failure modes:
//   - empty or whitespace-only input → ErrEmptyMessage
//   - any character outside [a-zA-Z0-9 .,\-_] → *InvalidCharactersError
//     enumerating each distinct offender in order of first occurrence
//
// Note that a tab or newline counts as an invalid character, not as
// whitespace: only a message that trims down to nothing gets the
// "empty" error.
func Validate(msg string) (string, error) {
	if strings.TrimSpace(msg) == "" {
		return "", ErrEmptyMessage
	}

	var offenders []rune
	seen := make(map[rune]bool)
	for _, r := range msg {
		if allowedRune(r) || seen[r] {
			continue
		}
		seen[r] = true
		offenders = append(offenders, r)
	}

	if len(offenders) > 0 {
		return "", &InvalidCharactersError{Chars: offenders}
	}

	// The message is safe to pass through verbatim. No escaping step is
	// needed because the character class excludes every shell and JSON
	// metacharacter, and the message is always passed as a single
	// argv element, never through a shell.
	return msg, nil
}
