// Package sanitize holds the pure text transforms applied around triage
// generation: masking sensitive tokens before the prompt is built, and
// stripping prompt echo from the generated output.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaskedSID replaces Windows security identifier chains.
	MaskedSID = "[SID]"
	// MaskedHex replaces hexadecimal literals.
	MaskedHex = "[HEX]"
	// MaskedPassword replaces password assignments wholesale.
	MaskedPassword = "password=[MASKED]"

	// Unknown renders in place of any missing prompt field so the model
	// always sees a complete, well-formed input line.
	Unknown = "Unknown"

	// maxMessageLen clips the cleaned message embedded in the prompt.
	maxMessageLen = 800

	responseMarker = "### Response:"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	sidRe        = regexp.MustCompile(`S-\d(?:-\d+)+`)
	hexRe        = regexp.MustCompile(`0x[0-9A-Fa-f]+`)
	passwordRe   = regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`)

	// key=value fragments of our own prompt format, removed from model
	// output in case the model echoes the input formatting back.
	leakRe = regexp.MustCompile(`(?:Id|ProviderName|LevelDisplayName|TimeCreated|__Channel|Message_clean)=\S*`)
)

// Clean collapses whitespace and masks security identifiers, hex literals,
// and password assignments.
func Clean(s string) string {
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = sidRe.ReplaceAllString(s, MaskedSID)
	s = hexRe.ReplaceAllString(s, MaskedHex)
	s = passwordRe.ReplaceAllString(s, MaskedPassword)
	return s
}

// Input carries the event fields embedded in a triage prompt.
type Input struct {
	LogType string
	EventID int
	Source  string
	Time    string
	Message []string
}

// InputLine renders the key=value line the generation model was tuned on.
// Message fragments are cleaned, joined with " | " and clipped; missing
// fields render as Unknown, never as an empty string.
func InputLine(in Input) string {
	msg := Clean(strings.Join(in.Message, " | "))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen]
	}

	parts := []string{
		"Id=" + orUnknown(eventIDString(in.EventID)),
		"ProviderName=" + orUnknown(in.Source),
		"LevelDisplayName=Information",
		"TimeCreated=" + orUnknown(in.Time),
		"__Channel=" + orUnknown(in.LogType),
		"Message_clean=" + orUnknown(msg),
	}
	return strings.Join(parts, " ")
}

// BuildPrompt renders the full instruction template around the input line.
func BuildPrompt(in Input) string {
	return fmt.Sprintf(`### Instruction:
Rewrite the event for an on-call runbook with severity and actions.

### Input:
%s

%s
`, InputLine(in), responseMarker)
}

// StripLeakage removes prompt echo from generated text: anything up to and
// including the final response marker, an exact prompt prefix, and residual
// key=value fragments matching our prompt format.
func StripLeakage(output, prompt string) string {
	if i := strings.LastIndex(output, responseMarker); i >= 0 {
		output = output[i+len(responseMarker):]
	}
	output = strings.TrimPrefix(output, prompt)
	output = leakRe.ReplaceAllString(output, "")
	return strings.TrimSpace(output)
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}

func eventIDString(id int) string {
	if id == 0 {
		return ""
	}
	return fmt.Sprintf("%d", id)
}
