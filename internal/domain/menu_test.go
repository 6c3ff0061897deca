package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestSlot(t *testing.T, weekday, startMinute, endMinute int) *MenuTimeSlot {
	t.Helper()
	slot, err := NewMenuTimeSlot(uuid.New(), uuid.New(), weekday, startMinute, endMinute, testNow)
	if err != nil {
		t.Fatalf("Failed to create time slot: %v", err)
	}
	return slot
}

func TestWeekdayIndex(t *testing.T) {
	// 2026-03-09 is a Monday.
	monday := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		got := WeekdayIndex(monday.AddDate(0, 0, i))
		if got != i {
			t.Errorf("Day offset %d: expected weekday index %d, got %d", i, i, got)
		}
	}
}

func TestNewMenuTimeSlot_Validation(t *testing.T) {
	variantID := uuid.New()
	channelID := uuid.New()

	tests := []struct {
		name        string
		weekday     int
		startMinute int
		endMinute   int
		wantField   string
	}{
		{name: "weekday_too_high", weekday: 7, startMinute: 0, endMinute: 60, wantField: "weekday"},
		{name: "weekday_negative", weekday: -1, startMinute: 0, endMinute: 60, wantField: "weekday"},
		{name: "start_out_of_range", weekday: 0, startMinute: 1440, endMinute: 60, wantField: "start_time"},
		{name: "end_negative", weekday: 0, startMinute: 0, endMinute: -1, wantField: "end_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMenuTimeSlot(variantID, channelID, tt.weekday, tt.startMinute, tt.endMinute, testNow)
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Expected *ValidationError, got %T", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, vErr.Field)
			}
		})
	}
}

func TestIsAvailableAt(t *testing.T) {
	// Lunch slot on Wednesday (index 2), 11:00 to 14:30.
	slot := newTestSlot(t, 2, 11*60, 14*60+30)

	wednesday := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	thursday := wednesday.AddDate(0, 0, 1)

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "inside_window", at: wednesday.Add(12 * time.Hour), want: true},
		{name: "window_start_inclusive", at: wednesday.Add(11 * time.Hour), want: true},
		{name: "window_end_inclusive", at: wednesday.Add(14*time.Hour + 30*time.Minute), want: true},
		{name: "one_minute_after_end", at: wednesday.Add(14*time.Hour + 31*time.Minute), want: false},
		{name: "before_window", at: wednesday.Add(10 * time.Hour), want: false},
		{name: "wrong_weekday", at: thursday.Add(12 * time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slot.IsAvailableAt(tt.at); got != tt.want {
				t.Errorf("IsAvailableAt(%v) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestIsAvailableAt_InactiveSlot(t *testing.T) {
	slot := newTestSlot(t, 2, 0, 1439)
	slot.IsActive = false

	wednesday := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	if slot.IsAvailableAt(wednesday) {
		t.Error("Inactive slot must never be available")
	}
}

func TestIsAvailableAt_MidnightSpanNeverMatches(t *testing.T) {
	// 22:00 to 02:00 as literal minutes: start after end, never available.
	slot := newTestSlot(t, 2, 22*60, 2*60)

	wednesday := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	for _, at := range []time.Time{
		wednesday.Add(23 * time.Hour),
		wednesday.Add(1 * time.Hour),
		wednesday.Add(12 * time.Hour),
	} {
		if slot.IsAvailableAt(at) {
			t.Errorf("Start-after-end slot must never match, got available at %v", at)
		}
	}
}
