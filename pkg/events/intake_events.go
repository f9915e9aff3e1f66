package events

import "time"

const (
	TypeIntakeCompleted = "INTAKE_COMPLETED"
	TypeIntakeDelivered = "INTAKE_DELIVERED"
)

// IntakeCompleted fires when a user finishes the survey, before the
// record reaches the spreadsheet.
type IntakeCompleted struct {
	SubmissionID string
	UserID       string
	Fields       map[string]string
	OccurredAt   time.Time
}

func (e IntakeCompleted) EventType() string { return TypeIntakeCompleted }

func (e IntakeCompleted) Payload() map[string]interface{} {
	return map[string]interface{}{
		"submission_id": e.SubmissionID,
		"user_id":       e.UserID,
		"fields":        e.Fields,
	}
}

func (e IntakeCompleted) Timestamp() time.Time { return e.OccurredAt }

// IntakeDelivered fires when the record lands in the spreadsheet.
type IntakeDelivered struct {
	SubmissionID string
	UserID       string
	Attempts     int
	OccurredAt   time.Time
}

func (e IntakeDelivered) EventType() string { return TypeIntakeDelivered }

func (e IntakeDelivered) Payload() map[string]interface{} {
	return map[string]interface{}{
		"submission_id": e.SubmissionID,
		"user_id":       e.UserID,
		"attempts":      e.Attempts,
	}
}

func (e IntakeDelivered) Timestamp() time.Time { return e.OccurredAt }
