package obslog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bot.log")
	l, err := New(Options{Level: "debug", Format: "json", ToFile: true, File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("prediction_rendered", zap.String("outcome", "Draw"))
	_ = l.Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, raw)
	}
	if entry["msg"] != "prediction_rendered" || entry["outcome"] != "Draw" || entry["level"] != "info" {
		t.Fatalf("entry = %v", entry)
	}
}

func TestLevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")
	l, err := New(Options{Level: "warn", Format: "legacy", ToFile: true, File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")
	_ = l.Sync()
	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "hidden") || !strings.Contains(string(raw), "shown") {
		t.Fatalf("log = %s", raw)
	}
	if !strings.Contains(string(raw), " | WARN | ") {
		t.Fatalf("legacy separator missing: %s", raw)
	}
}

func TestSetAndL(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	l := zap.NewExample()
	Set(l)
	if L() != l {
		t.Fatalf("L did not return installed logger")
	}
	Set(nil)
	if L() == nil || L().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("Set(nil) should install a Nop logger")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"DEBUG": zapcore.DebugLevel, "warning": zapcore.WarnLevel, "error": zapcore.ErrorLevel, "bogus": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v", in, got)
		}
	}
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "")
	o := OptionsFromEnv()
	if o.Level != "debug" || o.ToFile || o.Format != "legacy" || !o.Console {
		t.Fatalf("options = %+v", o)
	}
}
