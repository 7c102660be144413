package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestStorePaths(t *testing.T) {
	store := newTestStore(t)

	script := store.ScriptPath("alice_echoer_1", "py")
	if filepath.Base(script) != "alice_echoer_1.py" {
		t.Errorf("unexpected script path: %s", script)
	}
	log := store.LogPath("alice_echoer_1")
	if filepath.Base(log) != "alice_echoer_1.log" {
		t.Errorf("unexpected log path: %s", log)
	}
}

func TestStoreSaveScript(t *testing.T) {
	store := newTestStore(t)

	path, err := store.SaveScript("alice_echoer_1", "py", []byte("print('hi')\n"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("saved script unreadable: %v", err)
	}
	if string(data) != "print('hi')\n" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestStoreCreateLogFileTruncates(t *testing.T) {
	store := newTestStore(t)

	f, err := store.CreateLogFile("alice_echoer_1")
	if err != nil {
		t.Fatalf("create log failed: %v", err)
	}
	fmt.Fprintln(f, "old run output")
	f.Close()

	f, err = store.CreateLogFile("alice_echoer_1")
	if err != nil {
		t.Fatalf("recreate log failed: %v", err)
	}
	f.Close()

	text, err := store.TailLog("alice_echoer_1", TailLimit)
	if err != nil {
		t.Fatalf("tail failed: %v", err)
	}
	if text != "" {
		t.Errorf("log not truncated on new run: %q", text)
	}
}

func TestStoreTailLogMissingFile(t *testing.T) {
	store := newTestStore(t)

	_, err := store.TailLog("never_started_1", TailLimit)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestStoreTailLogBounded(t *testing.T) {
	store := newTestStore(t)

	f, err := store.CreateLogFile("alice_echoer_1")
	if err != nil {
		t.Fatalf("create log failed: %v", err)
	}
	for i := 1; i <= 1500; i++ {
		fmt.Fprintf(f, "line %d\n", i)
	}
	f.Close()

	text, err := store.TailLog("alice_echoer_1", 1000)
	if err != nil {
		t.Fatalf("tail failed: %v", err)
	}

	lines := strings.Split(text, "\n")
	if len(lines) != 1000 {
		t.Fatalf("expected 1000 lines, got %d", len(lines))
	}
	if lines[0] != "line 501" {
		t.Errorf("expected first line 'line 501', got %q", lines[0])
	}
	if lines[999] != "line 1500" {
		t.Errorf("expected last line 'line 1500', got %q", lines[999])
	}
}

func TestStoreTailLogShortFile(t *testing.T) {
	store := newTestStore(t)

	f, _ := store.CreateLogFile("alice_echoer_1")
	fmt.Fprintln(f, "only line")
	f.Close()

	text, err := store.TailLog("alice_echoer_1", 1000)
	if err != nil {
		t.Fatalf("tail failed: %v", err)
	}
	if text != "only line" {
		t.Errorf("unexpected tail: %q", text)
	}
}

func TestStoreRemoveBotFiles(t *testing.T) {
	store := newTestStore(t)

	scriptPath, err := store.SaveScript("alice_echoer_1", "py", []byte("pass\n"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	f, _ := store.CreateLogFile("alice_echoer_1")
	f.Close()

	store.RemoveBotFiles(scriptPath, "alice_echoer_1")

	if _, err := os.Stat(scriptPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("script file still present")
	}
	if _, err := os.Stat(store.LogPath("alice_echoer_1")); !errors.Is(err, os.ErrNotExist) {
		t.Error("log file still present")
	}

	// Removing again must not panic or error; missing files are fine
	store.RemoveBotFiles(scriptPath, "alice_echoer_1")
}
