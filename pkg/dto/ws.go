package dto

import "github.com/google/uuid"

// WSEvent is a WebSocket message for real-time run notifications.
type WSEvent struct {
	Type        string    `json:"type"` // started, completed, canceled
	RunID       uuid.UUID `json:"run_id"`
	ModelID     string    `json:"model_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Count       int       `json:"count"`
	Timestamp   string    `json:"timestamp"`
}
