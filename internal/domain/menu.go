package domain

import (
	"time"

	"github.com/google/uuid"
)

// MenuTimeSlot bounds a menu offering to a weekday and a time-of-day window
// (breakfast, lunch, dinner). Weekday 0 is Monday, 6 is Sunday. Start and
// end are minutes since midnight, bounds inclusive.
type MenuTimeSlot struct {
	ID          uuid.UUID
	VariantID   uuid.UUID
	ChannelID   uuid.UUID
	Weekday     int
	StartMinute int
	EndMinute   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const minutesPerDay = 24 * 60

// NewMenuTimeSlot creates a validated time slot. A window with start after
// end is accepted but never matches; midnight-spanning windows are not
// treated specially.
func NewMenuTimeSlot(variantID, channelID uuid.UUID, weekday, startMinute, endMinute int, now time.Time) (*MenuTimeSlot, error) {
	if variantID == uuid.Nil {
		return nil, NewValidationError("product_variant", "product variant is required")
	}
	if channelID == uuid.Nil {
		return nil, NewValidationError("channel", "channel is required")
	}
	if weekday < 0 || weekday > 6 {
		return nil, NewValidationError("weekday", "weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	if startMinute < 0 || startMinute >= minutesPerDay {
		return nil, NewValidationError("start_time", "start time must be a valid time of day")
	}
	if endMinute < 0 || endMinute >= minutesPerDay {
		return nil, NewValidationError("end_time", "end time must be a valid time of day")
	}

	return &MenuTimeSlot{
		ID:          uuid.New(),
		VariantID:   variantID,
		ChannelID:   channelID,
		Weekday:     weekday,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// WeekdayIndex maps a time to the Monday-based weekday used by slots.
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// MinuteOfDay returns the minutes elapsed since midnight of t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// IsAvailableAt reports whether the offering is servable at the given
// instant: active slot, matching weekday, and time of day within the
// inclusive window.
func (s *MenuTimeSlot) IsAvailableAt(at time.Time) bool {
	if !s.IsActive {
		return false
	}
	if WeekdayIndex(at) != s.Weekday {
		return false
	}
	minute := MinuteOfDay(at)
	return s.StartMinute <= minute && minute <= s.EndMinute
}

// MenuTimeSlotPatch enumerates the mutable slot fields.
type MenuTimeSlotPatch struct {
	Weekday     *int
	StartMinute *int
	EndMinute   *int
	IsActive    *bool
}

func (s *MenuTimeSlot) ApplyPatch(patch MenuTimeSlotPatch, now time.Time) error {
	if patch.Weekday != nil && (*patch.Weekday < 0 || *patch.Weekday > 6) {
		return NewValidationError("weekday", "weekday must be between 0 (Monday) and 6 (Sunday)")
	}
	if patch.StartMinute != nil && (*patch.StartMinute < 0 || *patch.StartMinute >= minutesPerDay) {
		return NewValidationError("start_time", "start time must be a valid time of day")
	}
	if patch.EndMinute != nil && (*patch.EndMinute < 0 || *patch.EndMinute >= minutesPerDay) {
		return NewValidationError("end_time", "end time must be a valid time of day")
	}

	if patch.Weekday != nil {
		s.Weekday = *patch.Weekday
	}
	if patch.StartMinute != nil {
		s.StartMinute = *patch.StartMinute
	}
	if patch.EndMinute != nil {
		s.EndMinute = *patch.EndMinute
	}
	if patch.IsActive != nil {
		s.IsActive = *patch.IsActive
	}
	s.UpdatedAt = now
	return nil
}

func (s *MenuTimeSlot) Clone() *MenuTimeSlot {
	c := *s
	return &c
}
