package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrNotFound, CodeOf(NewNotFound("window", nil)))
	assert.Equal(t, ErrSlotUnavailable, CodeOf(NewSlotUnavailable()))
	assert.Equal(t, ErrorCode(0), CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, ErrorCode(0), CodeOf(nil))

	// codes survive wrapping
	wrapped := fmt.Errorf("outer: %w", NewInvalidRange())
	assert.True(t, IsCode(wrapped, ErrInvalidRange))
	assert.False(t, IsCode(wrapped, ErrNotFound))
}

func TestHasBoundAppointmentsCarriesCount(t *testing.T) {
	err := NewHasBoundAppointments(3)
	assert.EqualValues(t, 3, err.Count)
	assert.Contains(t, err.Message, "3 scheduled appointments")
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewStorage(cause)
	assert.Contains(t, err.Error(), "connection refused")
	require.ErrorIs(t, err, cause)

	bare := NewAlreadyActive()
	assert.Equal(t, bare.Message, bare.Error())
	assert.NoError(t, bare.Unwrap())
}
