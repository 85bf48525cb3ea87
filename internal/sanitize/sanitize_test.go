package sanitize

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"collapses whitespace",
			"An account\tfailed to\n\n log on",
			"An account failed to log on",
		},
		{
			"masks sid",
			"Security ID: S-1-5-21-3623811015-3361044348-30300820-1013",
			"Security ID: [SID]",
		},
		{
			"masks short sid",
			"S-1-0",
			"[SID]",
		},
		{
			"masks hex",
			"Status: 0x1F3A Sub Status: 0xC000006A",
			"Status: [HEX] Sub Status: [HEX]",
		},
		{
			"masks password colon",
			"password: secret123 remained",
			"password=[MASKED] remained",
		},
		{
			"masks password equals case insensitive",
			"PASSWORD=hunter2",
			"password=[MASKED]",
		},
		{
			"leaves clean text alone",
			"Service entered the running state",
			"Service entered the running state",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestInputLine(t *testing.T) {
	t.Parallel()

	got := InputLine(Input{
		LogType: "Security",
		EventID: 4625,
		Source:  "Microsoft-Windows-Security-Auditing",
		Time:    "2025-10-31 06:35:44",
		Message: []string{"user1", "0x0"},
	})

	want := "Id=4625 ProviderName=Microsoft-Windows-Security-Auditing LevelDisplayName=Information TimeCreated=2025-10-31 06:35:44 __Channel=Security Message_clean=user1 | [HEX]"
	if got != want {
		t.Errorf("InputLine =\n%q\nwant\n%q", got, want)
	}
}

func TestInputLine_MissingFields(t *testing.T) {
	t.Parallel()

	got := InputLine(Input{})
	for _, key := range []string{"Id=Unknown", "ProviderName=Unknown", "TimeCreated=Unknown", "__Channel=Unknown", "Message_clean=Unknown"} {
		if !strings.Contains(got, key) {
			t.Errorf("InputLine missing %q in %q", key, got)
		}
	}
	if !strings.Contains(got, "LevelDisplayName=Information") {
		t.Errorf("InputLine missing fixed level field: %q", got)
	}
}

func TestInputLine_ClipsLongMessage(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 2000)
	got := InputLine(Input{Message: []string{long}})
	i := strings.Index(got, "Message_clean=")
	if i < 0 {
		t.Fatalf("no Message_clean in %q", got)
	}
	msg := got[i+len("Message_clean="):]
	if len(msg) != 800 {
		t.Errorf("message length = %d, want 800", len(msg))
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	got := BuildPrompt(Input{LogType: "System", EventID: 7036, Source: "Service Control Manager", Time: "2025-10-31 06:35:44", Message: []string{"Print Spooler", "running"}})

	if !strings.HasPrefix(got, "### Instruction:") {
		t.Errorf("prompt does not start with instruction header: %q", got)
	}
	if !strings.Contains(got, "### Input:\nId=7036 ") {
		t.Errorf("prompt missing input line: %q", got)
	}
	if !strings.Contains(got, "### Response:") {
		t.Errorf("prompt missing response marker: %q", got)
	}
}

func TestStripLeakage(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt(Input{LogType: "Security", EventID: 4625, Source: "sec", Time: "2025-10-31 06:35:44", Message: []string{"user1"}})

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{
			"echoed prompt before marker",
			prompt + "\nSeverity: high. Investigate failed logons for user1.",
			"Severity: high. Investigate failed logons for user1.",
		},
		{
			"clean output untouched",
			"Severity: low. Routine service restart.",
			"Severity: low. Routine service restart.",
		},
		{
			"keyvalue fragments removed",
			"Id=4625 ProviderName=sec Failed logon burst detected.",
			"Failed logon burst detected.",
		},
		{
			"last marker wins",
			"### Response: draft\n### Response:\nFinal note.",
			"Final note.",
		},
		{
			"trims surrounding whitespace",
			"\n\n  note  \n",
			"note",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripLeakage(tt.output, prompt); got != tt.want {
				t.Errorf("StripLeakage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripLeakage_PreservesMultilineNotes(t *testing.T) {
	t.Parallel()

	out := "### Response:\nSeverity: medium\nActions:\n- check spooler\n- review logs"
	got := StripLeakage(out, "")
	want := "Severity: medium\nActions:\n- check spooler\n- review logs"
	if got != want {
		t.Errorf("StripLeakage = %q, want %q", got, want)
	}
}
