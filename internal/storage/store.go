// Package storage manages the shared on-disk area holding uploaded bot
// scripts and their per-run log files. File names are derived from the
// unique bot ID, so bots can never collide on the shared root.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TailLimit bounds log responses to keep payloads small.
const TailLimit = 1000

type Store struct {
	root string
}

// New creates the storage root if needed and returns a store rooted there.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) ScriptPath(botID, fileType string) string {
	return filepath.Join(s.root, botID+"."+fileType)
}

func (s *Store) LogPath(botID string) string {
	return filepath.Join(s.root, botID+".log")
}

func (s *Store) SaveScript(botID, fileType string, content []byte) (string, error) {
	path := s.ScriptPath(botID, fileType)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to save script: %w", err)
	}
	return path, nil
}

// CreateLogFile truncates (or creates) the bot's log file for a new run.
// The caller owns the returned handle and passes it to the child process.
func (s *Store) CreateLogFile(botID string) (*os.File, error) {
	f, err := os.Create(s.LogPath(botID))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return f, nil
}

// RemoveBotFiles deletes the bot's script and log files. Missing files are
// not errors: deletion must make forward progress even if a file was
// removed externally.
func (s *Store) RemoveBotFiles(scriptPath, botID string) {
	if scriptPath != "" {
		os.Remove(scriptPath)
	}
	os.Remove(s.LogPath(botID))
}

// TailLog returns at most the last limit lines of the bot's log, in
// original order. A missing file surfaces as os.ErrNotExist so callers can
// distinguish "never started" from a read failure.
func (s *Store) TailLog(botID string, limit int) (string, error) {
	data, err := os.ReadFile(s.LogPath(botID))
	if err != nil {
		return "", err
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return strings.Join(lines, "\n"), nil
}
