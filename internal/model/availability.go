package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/pkg/timerange"
)

type WindowStatus string

const (
	WindowStatusActive   WindowStatus = "active"
	WindowStatusInactive WindowStatus = "inactive"
)

// AvailabilityWindow is a practitioner-declared open interval on a calendar
// date during which bookings are solicited. Windows are soft-deleted: an
// inactive row stays behind so appointments keep a valid reference, and at
// most one window per (practitioner, date) may be active at a time.
type AvailabilityWindow struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	PractitionerID uuid.UUID       `db:"practitioner_id" json:"practitioner_id"`
	Date           time.Time       `db:"window_date" json:"date"`
	StartTime      timerange.Clock `db:"start_time" json:"start_time"`
	EndTime        timerange.Clock `db:"end_time" json:"end_time"`
	Status         WindowStatus    `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func (w *AvailabilityWindow) IsActive() bool {
	return w.Status == WindowStatusActive
}

// WindowStats summarizes a practitioner's availability for dashboards.
type WindowStats struct {
	ActiveWindows   int64      `json:"active_windows"`
	UpcomingWindows int64      `json:"upcoming_windows"`
	NextWindowDate  *time.Time `json:"next_window_date,omitempty"`
}

type PublishWindowRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime"`
}

type PublishRangeRequest struct {
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required,clocktime"`
	EndTime   string `json:"end_time" binding:"required,clocktime"`
}

type PublishRecurringRequest struct {
	StartDate  string   `json:"start_date" binding:"required"`
	EndDate    string   `json:"end_date" binding:"required"`
	DaysOfWeek []string `json:"days_of_week" binding:"required,min=1"`
	StartTime  string   `json:"start_time" binding:"required,clocktime"`
	EndTime    string   `json:"end_time" binding:"required,clocktime"`
}
