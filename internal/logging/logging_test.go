package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"  debug ", DebugLevel},
		{"info", InfoLevel},
		{"WARNING", WarnLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestInitDisabled(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Output: &buf, Level: DebugLevel})
	Error().Msg("dropped")
	For("console").Error().Msg("dropped too")

	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
}

func TestInitEnabled(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Enabled: true, Output: &buf, Level: InfoLevel})

	Debug().Msg("below level")
	For("goeval").Info().Str("unit", "fmt").Msg("unit loaded")

	out := buf.String()
	if strings.Contains(out, "below level") {
		t.Errorf("debug event written at info level: %s", out)
	}
	for _, want := range []string{`"component":"goeval"`, `"unit":"fmt"`, `"message":"unit loaded"`, `"level":"info"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %s missing %s", out, want)
		}
	}
}

func TestInitPretty(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Enabled: true, Output: &buf, Level: WarnLevel, Pretty: true})
	Warn().Msg("careful")

	out := buf.String()
	if !strings.Contains(out, "careful") || !strings.Contains(out, "WRN") {
		t.Errorf("unexpected pretty output %q", out)
	}
}
