package slots

import "fmt"

// BusinessHours bounds the bookable hours of a day. Slots start on the hour in
// [StartHour, EndHour) except LunchHour. A negative LunchHour disables the break.
type BusinessHours struct {
	StartHour int `yaml:"start_hour" json:"startHour"`
	EndHour   int `yaml:"end_hour" json:"endHour"`
	LunchHour int `yaml:"lunch_hour" json:"lunchHour"`
}

// DefaultHours returns 08:00-18:00 with a break at 12:00.
func DefaultHours() BusinessHours {
	return BusinessHours{StartHour: 8, EndHour: 18, LunchHour: 12}
}

// Contains reports whether a slot may start at hour.
func (h BusinessHours) Contains(hour int) bool {
	return hour >= h.StartHour && hour < h.EndHour && hour != h.LunchHour
}

// MaxSlots returns the number of slots in a full day.
func (h BusinessHours) MaxSlots() int {
	n := 0
	for hour := h.StartHour; hour < h.EndHour; hour++ {
		if h.Contains(hour) {
			n++
		}
	}
	return n
}

// Validate checks the bounds.
func (h BusinessHours) Validate() error {
	if h.StartHour < 0 || h.StartHour > 23 {
		return fmt.Errorf("start_hour must be 0-23, got %d", h.StartHour)
	}
	if h.EndHour < 1 || h.EndHour > 24 {
		return fmt.Errorf("end_hour must be 1-24, got %d", h.EndHour)
	}
	if h.EndHour <= h.StartHour {
		return fmt.Errorf("end_hour must be after start_hour")
	}
	return nil
}
