package dto

import "github.com/google/uuid"

// DetectRequest is the JSON form of POST /v1/detections. Image is an
// image URL or data URL and is passed through untouched.
type DetectRequest struct {
	Image   string `json:"image"`
	ModelID string `json:"model_id"`
	Session string `json:"session"`
}

type BoxResponse struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type PlateResponse struct {
	PlateNumber       string      `json:"plate_number"`
	Confidence        float64     `json:"confidence"`
	ConfidencePercent int         `json:"confidence_percent"`
	ConfidenceTier    string      `json:"confidence_tier"` // high, medium, low
	Box               BoxResponse `json:"box"`
}

type ResultResponse struct {
	OriginalImage  string          `json:"original_image"`
	ModelName      string          `json:"model_name"`
	ProcessingTime float64         `json:"processing_time_ms"`
	ProcessingMS   int64           `json:"processing_ms"`
	Detections     []PlateResponse `json:"detections"`
	Summary        string          `json:"summary"`
}

type RunResponse struct {
	ID        uuid.UUID       `json:"id"`
	ModelID   string          `json:"model_id"`
	Session   string          `json:"session,omitempty"`
	Status    string          `json:"status"` // pending, completed, canceled, superseded
	StartedAt string          `json:"started_at"`
	Result    *ResultResponse `json:"result,omitempty"`
}

type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int           `json:"total"`
}
