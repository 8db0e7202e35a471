package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/practiva/scheduling-api/pkg/timerange"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// Appointment is a committed booking reserving a time range against a
// practitioner's availability window. Rows are never physically deleted;
// terminal outcomes are status transitions.
type Appointment struct {
	ID             uuid.UUID         `db:"id" json:"id"`
	PractitionerID uuid.UUID         `db:"practitioner_id" json:"practitioner_id"`
	ClientID       uuid.UUID         `db:"client_id" json:"client_id"`
	Date           time.Time         `db:"appointment_date" json:"date"`
	StartTime      timerange.Clock   `db:"start_time" json:"start_time"`
	EndTime        timerange.Clock   `db:"end_time" json:"end_time"`
	Status         AppointmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentFilters narrows appointment listings.
type AppointmentFilters struct {
	PractitionerID uuid.UUID
	ClientID       uuid.UUID
	Status         AppointmentStatus
	StartDate      time.Time
	EndDate        time.Time
}

type BookAppointmentRequest struct {
	PractitionerID string `json:"practitioner_id" binding:"required,uuid"`
	Date           string `json:"date" binding:"required"`
	StartTime      string `json:"start_time" binding:"required,clocktime"`
	EndTime        string `json:"end_time" binding:"required,clocktime"`
}
