package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DeliveryStatus tracks whether a submission reached the spreadsheet.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// Submission archives one completed intake, independent of whether the
// spreadsheet delivery succeeded. Failed rows can be resubmitted from
// the admin surface.
type Submission struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID      string         `gorm:"type:varchar(64);not null;index"`
	Fields      datatypes.JSON `gorm:"not null"`
	Status      string         `gorm:"type:varchar(20);default:'pending';index"`
	Attempts    int            `gorm:"default:0"`
	LastError   string         `gorm:"type:text"`
	SubmittedAt time.Time      `gorm:"not null"`
	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
