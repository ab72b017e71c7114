package dto

import (
	"time"

	"Kindred/internal/flow"
	"Kindred/internal/service"
)

// SessionResponse 会话快照
type SessionResponse struct {
	UpdatedAt time.Time   `json:"updated_at"`
	SessionID string      `json:"session_id"`
	State     flow.State  `json:"state"`
	Screen    flow.Screen `json:"screen"`
	Version   int64       `json:"version"`
}

func NewSessionResponse(snap service.Snapshot) SessionResponse {
	return SessionResponse{
		SessionID: snap.SessionID,
		Version:   snap.Version,
		State:     snap.State,
		Screen:    snap.Screen,
		UpdatedAt: snap.UpdatedAt,
	}
}

// HealthResponse 存活检查
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
