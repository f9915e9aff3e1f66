package dto

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionMessage is the queue payload handed to the delivery worker.
type SubmissionMessage struct {
	SubmissionID uuid.UUID         `json:"submission_id"`
	UserID       string            `json:"user_id"`
	Fields       map[string]string `json:"fields"`
	SubmittedAt  time.Time         `json:"submitted_at"`
}

type SessionSummaryResponse struct {
	UserID    string    `json:"user_id"`
	Position  int       `json:"position"`
	Answered  int       `json:"answered"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SubmissionResponse struct {
	ID          uuid.UUID         `json:"id"`
	UserID      string            `json:"user_id"`
	Fields      map[string]string `json:"fields"`
	Status      string            `json:"status"`
	Attempts    int               `json:"attempts"`
	LastError   string            `json:"last_error,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}

type SubmissionListResponse struct {
	Items []SubmissionResponse `json:"items"`
	Total int64                `json:"total"`
}
