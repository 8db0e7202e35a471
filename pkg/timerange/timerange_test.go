package timerange

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, c.Hour())
	assert.Equal(t, 30, c.Minute())

	c, err = ParseClock("17:45:00")
	require.NoError(t, err)
	assert.Equal(t, 17, c.Hour())
	assert.Equal(t, 45, c.Minute())

	_, err = ParseClock("25:00")
	assert.Error(t, err)

	_, err = ParseClock("not a time")
	assert.Error(t, err)
}

func TestClockArithmetic(t *testing.T) {
	c := NewClock(9, 0)
	assert.Equal(t, NewClock(9, 25), c.Add(25*time.Minute))
	assert.Equal(t, 90*time.Minute, NewClock(10, 30).Sub(c))
	assert.True(t, c.Before(NewClock(9, 1)))
	assert.True(t, NewClock(9, 1).After(c))
	assert.True(t, c.Equal(NewClock(9, 0)))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(NewClock(9, 0), NewClock(17, 0)))
	assert.False(t, IsValid(NewClock(17, 0), NewClock(9, 0)))
	assert.False(t, IsValid(NewClock(9, 0), NewClock(9, 0)))
}

func TestMeetsMinimumDuration(t *testing.T) {
	assert.True(t, MeetsMinimumDuration(NewClock(9, 0), NewClock(10, 0), time.Hour))
	assert.True(t, MeetsMinimumDuration(NewClock(9, 0), NewClock(11, 0), time.Hour))
	assert.False(t, MeetsMinimumDuration(NewClock(9, 0), NewClock(9, 59), time.Hour))
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd Clock
		want                       bool
	}{
		{"disjoint", NewClock(9, 0), NewClock(10, 0), NewClock(11, 0), NewClock(12, 0), false},
		{"touching endpoints", NewClock(9, 0), NewClock(10, 0), NewClock(10, 0), NewClock(11, 0), false},
		{"partial overlap", NewClock(9, 0), NewClock(10, 30), NewClock(10, 0), NewClock(11, 0), true},
		{"contained", NewClock(9, 0), NewClock(12, 0), NewClock(10, 0), NewClock(11, 0), true},
		{"identical", NewClock(9, 0), NewClock(10, 0), NewClock(9, 0), NewClock(10, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			// overlap is symmetric
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestFormat12Hour(t *testing.T) {
	tests := []struct {
		clock Clock
		want  string
	}{
		{NewClock(0, 0), "12:00 AM"},
		{NewClock(0, 30), "12:30 AM"},
		{NewClock(9, 5), "09:05 AM"},
		{NewClock(11, 59), "11:59 AM"},
		{NewClock(12, 0), "12:00 PM"},
		{NewClock(13, 5), "01:05 PM"},
		{NewClock(23, 59), "11:59 PM"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.clock.Format12Hour())
	}
}

func TestFormatRange(t *testing.T) {
	assert.Equal(t, "12:00 AM - 12:30 AM", FormatRange(NewClock(0, 0), NewClock(0, 30)))
	assert.Equal(t, "01:05 PM - 01:35 PM", FormatRange(NewClock(13, 5), NewClock(13, 35)))
}

func TestClockJSON(t *testing.T) {
	b, err := json.Marshal(NewClock(9, 5))
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(b))

	var c Clock
	require.NoError(t, json.Unmarshal([]byte(`"14:30"`), &c))
	assert.Equal(t, NewClock(14, 30), c)

	assert.Error(t, json.Unmarshal([]byte(`"bad"`), &c))
}

func TestClockSQL(t *testing.T) {
	v, err := NewClock(9, 5).Value()
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", v)

	var c Clock
	require.NoError(t, c.Scan([]byte("14:30:00")))
	assert.Equal(t, NewClock(14, 30), c)

	require.NoError(t, c.Scan("09:15:00"))
	assert.Equal(t, NewClock(9, 15), c)

	require.NoError(t, c.Scan(time.Date(2026, 1, 1, 16, 45, 0, 0, time.UTC)))
	assert.Equal(t, NewClock(16, 45), c)

	require.NoError(t, c.Scan(nil))
	assert.Equal(t, Clock{}, c)

	assert.Error(t, c.Scan(42))
}
