package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("Log line is not JSON: %q: %v", line, err)
		}
		lines = append(lines, m)
	}
	return lines
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for name, want := range cases {
		if got := ParseLevel(name); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestLogDocumentLoad(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "info", Output: &buf})

	l.LogDocumentLoad("classic", 15*time.Millisecond, 1200, nil)
	l.LogDocumentLoad("delve", time.Millisecond, 0, errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["service"] != "swornref" || lines[0]["document"] != "classic" {
		t.Errorf("Missing fields: %v", lines[0])
	}
	if lines[0]["identifiers"] != float64(1200) {
		t.Errorf("identifiers = %v", lines[0]["identifiers"])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "boom" {
		t.Errorf("Failure should log at error level: %v", lines[1])
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Level: "warn", Output: &buf})

	l.Info("hidden").Send()
	l.Warn("shown").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Errorf("Expected only the warning, got %v", lines)
	}
}

func TestComponentLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(Config{Output: &buf})

	l.GrpcLogger("/swornref.v1.Reference/Get").Info("call").Send()
	l.LoaderLogger("starforged").Info("read").Send()
	l.WithFields(map[string]any{"request": 7}).Info("fields").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d", len(lines))
	}
	if lines[0]["component"] != "grpc" || lines[0]["method"] != "/swornref.v1.Reference/Get" {
		t.Errorf("gRPC fields missing: %v", lines[0])
	}
	if lines[1]["component"] != "loader" || lines[1]["document"] != "starforged" {
		t.Errorf("Loader fields missing: %v", lines[1])
	}
	if lines[2]["request"] != float64(7) {
		t.Errorf("Extra field missing: %v", lines[2])
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing").Send()
	if l.Zerolog().GetLevel() != zerolog.Disabled {
		t.Errorf("Nop logger should be disabled, got %v", l.Zerolog().GetLevel())
	}
}

func TestInitGlobalLoggerSetsPackageLogger(t *testing.T) {
	saved := log.Logger
	t.Cleanup(func() { log.Logger = saved })

	var buf bytes.Buffer
	InitGlobalLogger(Config{Level: "info", Output: &buf})

	log.Info().Msg("through zerolog/log")
	GetGlobalLogger().Info("through wrapper").Send()

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	for _, line := range lines {
		if line["service"] != "swornref" {
			t.Errorf("Missing service field: %v", line)
		}
	}
}
