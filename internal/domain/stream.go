package domain

import "github.com/google/uuid"

// Stream names
const (
	StreamAssessmentRequest = "stream:assessment:request"
	StreamAssessmentDone    = "stream:assessment:done"
)

// AssessmentRequestEvent - входящее событие на оценку площадки
type AssessmentRequestEvent struct {
	RequestID uuid.UUID `json:"request_id"`
	Lat       *float64  `json:"lat"`
	Lon       *float64  `json:"lon"`
}

// AssessmentDoneEvent - результат оценки
type AssessmentDoneEvent struct {
	RequestID uuid.UUID          `json:"request_id"`
	RunID     *uuid.UUID         `json:"run_id,omitempty"`
	Center    *Coordinate        `json:"center,omitempty"`
	Records   []AssessmentRecord `json:"records,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
