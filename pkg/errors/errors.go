package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Count   int64     `json:"count,omitempty"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrInvalidInput
	ErrInvalidRange
	ErrTooShort
	ErrPastDate
	ErrNotOwner
	ErrHasBoundAppointments
	ErrAlreadyActive
	ErrStorage
	ErrSlotUnavailable
)

// CodeOf returns the error code of err, or zero if err is not an AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewInvalidInput(message string) *AppError {
	return &AppError{
		Code:    ErrInvalidInput,
		Message: message,
	}
}

func NewInvalidRange() *AppError {
	return &AppError{
		Code:    ErrInvalidRange,
		Message: "start time must be before end time",
	}
}

func NewTooShort(minimum string) *AppError {
	return &AppError{
		Code:    ErrTooShort,
		Message: fmt.Sprintf("window must be at least %s long", minimum),
	}
}

func NewPastDate(message string) *AppError {
	return &AppError{
		Code:    ErrPastDate,
		Message: message,
	}
}

func NewNotOwner(message string) *AppError {
	return &AppError{
		Code:    ErrNotOwner,
		Message: message,
	}
}

// NewHasBoundAppointments reports a structural change blocked by scheduled
// appointments. The count is part of the contract and must reach the caller.
func NewHasBoundAppointments(count int64) *AppError {
	return &AppError{
		Code:    ErrHasBoundAppointments,
		Message: fmt.Sprintf("there are %d scheduled appointments on this date, cancel them first", count),
		Count:   count,
	}
}

func NewAlreadyActive() *AppError {
	return &AppError{
		Code:    ErrAlreadyActive,
		Message: "window is already active",
	}
}

func NewSlotUnavailable() *AppError {
	return &AppError{
		Code:    ErrSlotUnavailable,
		Message: "requested time is not available for booking",
	}
}

func NewStorage(err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Message: "storage operation failed",
		Err:     err,
	}
}
