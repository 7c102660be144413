package domain

import "errors"

var (
	ErrNotFound            = errors.New("bot not found")
	ErrAlreadyRunning      = errors.New("bot already running")
	ErrNotRunning          = errors.New("bot is not running")
	ErrQuotaExceeded       = errors.New("bot quota exceeded")
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrSpawnFailure        = errors.New("failed to start bot process")
)
