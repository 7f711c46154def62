package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	l, err := NewLogger(dir, "info")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l.Info("cycle_done")
	l.Debug("hidden")
	_ = l.Sync()

	b, err := os.ReadFile(filepath.Join(dir, "matchalert.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"msg":"cycle_done"`) {
		t.Fatalf("info entry missing: %s", s)
	}
	if strings.Contains(s, "hidden") {
		t.Fatalf("debug entry written at info level: %s", s)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger(t.TempDir(), "loud"); err == nil {
		t.Fatal("want error for unknown level")
	}
}
