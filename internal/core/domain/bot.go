package domain

import (
	"time"
)

type BotStatus string

const (
	BotStatusRunning BotStatus = "running"
	BotStatusStopped BotStatus = "stopped"
)

type FileType string

const (
	FileTypePython FileType = "py"
	FileTypeNode   FileType = "js"
)

// ValidFileType reports whether ext names a supported runtime.
func ValidFileType(ext string) bool {
	switch FileType(ext) {
	case FileTypePython, FileTypeNode:
		return true
	}
	return false
}

// Bot is a registered bot script. Lifecycle status is never stored on the
// record; it is derived from process table membership so it cannot drift
// from actual process liveness.
type Bot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Owner     string    `json:"username"`
	FilePath  string    `json:"filepath"`
	FileType  string    `json:"file_type"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBot(id, name, owner, filePath, fileType string) *Bot {
	return &Bot{
		ID:        id,
		Name:      name,
		Owner:     owner,
		FilePath:  filePath,
		FileType:  fileType,
		CreatedAt: time.Now(),
	}
}
