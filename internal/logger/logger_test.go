package logger

import (
	"os"
	"strings"
	"testing"
)

func TestLogger_WritesEachLevelToItsFile(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Info("cycle %d", 1)
	l.Warning("slow frame")
	l.Error("boom: %v", "dimension mismatch")

	expected := map[Level]string{
		LevelInfo:    "cycle 1",
		LevelWarning: "slow frame",
		LevelError:   "boom: dimension mismatch",
	}
	for level, text := range expected {
		data, err := os.ReadFile(l.Path(level))
		if err != nil {
			t.Fatalf("reading %s log: %v", level, err)
		}
		if !strings.Contains(string(data), text) {
			t.Errorf("%s log should contain %q, got %q", level, text, string(data))
		}
	}
}

func TestLogger_Clean(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Info("something")
	if err := l.Clean(LevelInfo); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	info, err := os.Stat(l.Path(LevelInfo))
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("expected empty info log, got %d bytes", info.Size())
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"info", "warning", "error"} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q) returned %v", name, err)
		}
	}
	if _, err := ParseLevel("debug"); err == nil {
		t.Error("expected debug to be rejected")
	}
}
