package model

import "github.com/practiva/scheduling-api/pkg/timerange"

// TimeSlot is one fixed-duration sub-interval of an availability window
// offered for booking. Display carries the 12-hour rendering shown to
// clients and tracks the endpoints.
type TimeSlot struct {
	Start     timerange.Clock `json:"start_time"`
	End       timerange.Clock `json:"end_time"`
	Available bool            `json:"available"`
	Display   string          `json:"display_time"`
}

func NewTimeSlot(start, end timerange.Clock, available bool) TimeSlot {
	return TimeSlot{
		Start:     start,
		End:       end,
		Available: available,
		Display:   timerange.FormatRange(start, end),
	}
}

// SetStart moves the slot start and refreshes the display string.
func (s *TimeSlot) SetStart(start timerange.Clock) {
	s.Start = start
	s.Display = timerange.FormatRange(s.Start, s.End)
}

// SetEnd moves the slot end and refreshes the display string.
func (s *TimeSlot) SetEnd(end timerange.Clock) {
	s.End = end
	s.Display = timerange.FormatRange(s.Start, s.End)
}
