package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewFileWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sharpie.log")
	logger, err := NewFile(path, true)
	if err != nil {
		t.Fatalf("new file logger: %v", err)
	}
	logger.Debug("round finished", zap.Int("correct", 12))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"msg":"round finished"`) || !strings.Contains(out, `"correct":12`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}
