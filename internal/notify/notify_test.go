package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestConsole_Plain(t *testing.T) {
	var buf bytes.Buffer
	c := NewPlainConsole(&buf)

	c.Warn("There is no selected project.")
	c.Error("Got an exception while handling deploy. boom")
	c.Success("Deployed api")

	want := "[WARN] There is no selected project.\n" +
		"[FAIL] Got an exception while handling deploy. boom\n" +
		"[OK] Deployed api\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("Console output mismatch (-want +got):\n%s", diff)
	}
}

func TestConsole_Colour(t *testing.T) {
	var buf bytes.Buffer
	c := &Console{out: &buf, color: true}

	c.Warn("careful")

	if !strings.HasPrefix(buf.String(), colorYellow+"[WARN]"+colorReset) {
		t.Errorf("Expected coloured marker, got %q", buf.String())
	}
}

func TestNewConsole_NotATerminal(t *testing.T) {
	orig := IsTerminal
	t.Cleanup(func() { IsTerminal = orig })
	IsTerminal = func(*os.File) bool { return false }

	f, err := os.CreateTemp(t.TempDir(), "console")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer f.Close()

	c := NewConsole(f)
	if c.color {
		t.Error("Colours should be disabled for non-terminals")
	}
}

func TestIsTerminal_Nil(t *testing.T) {
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()

	if got := c.Warnings(); got == nil || len(got) != 0 {
		t.Errorf("Warnings() on empty collector = %#v, want empty non-nil", got)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				c.Warn(fmt.Sprintf("warn %d", i))
			} else {
				c.Error(fmt.Sprintf("error %d", i))
			}
		}(i)
	}
	wg.Wait()

	if len(c.Warnings()) != 10 || len(c.Errors()) != 10 {
		t.Errorf("Collected %d warnings, %d errors; want 10 each", len(c.Warnings()), len(c.Errors()))
	}

	// Returned slices are copies
	c.Warnings()[0] = "changed"
	if c.Warnings()[0] == "changed" {
		t.Error("Warnings() should return a copy")
	}
}

func TestLogger_WriteError(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	l.WriteError("Got an exception while handling deploy. boom")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log entry: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["msg"] != "Got an exception while handling deploy. boom" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["source"] != "deploy" {
		t.Errorf("source = %v, want deploy", entry["source"])
	}
}
