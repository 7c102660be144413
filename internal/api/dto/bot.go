package dto

import "time"

// BotView is a bot record merged with its derived runtime state, as
// returned by the list and status endpoints.
type BotView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Username  string     `json:"username"`
	FilePath  string     `json:"filepath"`
	FileType  string     `json:"file_type"`
	CreatedAt time.Time  `json:"created_at"`
	Status    string     `json:"status"`
	CPU       float64    `json:"cpu"`
	Memory    float64    `json:"memory"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// MessageResponse is the generic success/failure envelope.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	BotID   string `json:"bot_id"`
}

type StartResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	PID     int    `json:"pid"`
}

type LogsResponse struct {
	Success bool   `json:"success"`
	Logs    string `json:"logs"`
}

type BotResponse struct {
	Success bool    `json:"success"`
	Bot     BotView `json:"bot"`
}

type BotListResponse struct {
	Success bool      `json:"success"`
	Bots    []BotView `json:"bots"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
