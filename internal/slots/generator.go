// Package slots generates and filters bookable one-hour time slots.
package slots

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"time"

	"medbook/internal/models"
)

const (
	// SlotDuration is the length of every slot.
	SlotDuration = time.Hour

	// DayLayout keys slots by calendar day.
	DayLayout = "2006-01-02"

	idSuffixLayout = "2006-01-02-15"
)

// BookingChecker checks if a doctor is already booked. BookedIntervals returns
// every booked interval of doctorID overlapping [from, to) in one read.
type BookingChecker interface {
	IsSlotBooked(ctx context.Context, doctorID string, start, end time.Time) (bool, error)
	BookedIntervals(ctx context.Context, doctorID string, from, to time.Time) ([]models.TimeSlot, error)
}

// Generate yields the slots for doctorID on the calendar day of date, ascending
// by start time. Slots starting before now are skipped. The sequence is pure and
// can be ranged over any number of times.
func Generate(doctorID string, date, now time.Time, hours BusinessHours) iter.Seq[models.TimeSlot] {
	return func(yield func(models.TimeSlot) bool) {
		for hour := hours.StartHour; hour < hours.EndHour; hour++ {
			if !hours.Contains(hour) {
				continue
			}
			start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
			if start.Before(now) {
				continue
			}
			slot := models.TimeSlot{
				ID:        SlotID(doctorID, start),
				DoctorID:  doctorID,
				StartTime: start,
				EndTime:   start.Add(SlotDuration),
				Available: true,
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// Collect drains a slot sequence into a slice.
func Collect(seq iter.Seq[models.TimeSlot]) []models.TimeSlot {
	result := make([]models.TimeSlot, 0)
	for s := range seq {
		result = append(result, s)
	}
	return result
}

// Generator produces multi-day slot windows and marks booked slots unavailable.
type Generator struct {
	checker BookingChecker
	hours   BusinessHours
}

// NewGenerator creates a generator. checker may be nil.
func NewGenerator(checker BookingChecker, hours BusinessHours) *Generator {
	return &Generator{checker: checker, hours: hours}
}

// Hours returns the configured business hours.
func (g *Generator) Hours() BusinessHours {
	return g.hours
}

// Window returns the slots of doctorID for days consecutive days starting at from.
// Booked slots are kept with Available=false.
func (g *Generator) Window(ctx context.Context, doctorID string, from time.Time, days int, now time.Time) ([]models.TimeSlot, error) {
	var booked []models.TimeSlot
	if g.checker != nil && doctorID != "" && days > 0 {
		var err error
		booked, err = g.checker.BookedIntervals(ctx, doctorID, from, from.AddDate(0, 0, days))
		if err != nil {
			return nil, fmt.Errorf("check slots: %w", err)
		}
	}

	result := make([]models.TimeSlot, 0, max(days, 0)*g.hours.MaxSlots())
	for d := 0; d < days; d++ {
		date := from.AddDate(0, 0, d)
		for slot := range Generate(doctorID, date, now, g.hours) {
			for _, b := range booked {
				if slot.Overlaps(b) {
					slot.Available = false
					break
				}
			}
			result = append(result, slot)
		}
	}
	return result, nil
}

// Resolve turns a slot id back into a bookable slot. It rejects ids that do not
// belong to doctorID, fall outside business hours, lie in the past or are
// already booked.
func (g *Generator) Resolve(ctx context.Context, id, doctorID string, now time.Time) (models.TimeSlot, error) {
	slotDoctor, start, err := ParseSlotID(id, now.Location())
	if err != nil {
		return models.TimeSlot{}, err
	}
	if slotDoctor != doctorID {
		return models.TimeSlot{}, fmt.Errorf("%w: slot %q does not belong to doctor %q", models.ErrValidation, id, doctorID)
	}
	if !g.hours.Contains(start.Hour()) {
		return models.TimeSlot{}, fmt.Errorf("%w: slot %q is outside business hours", models.ErrValidation, id)
	}
	if start.Before(now) {
		return models.TimeSlot{}, fmt.Errorf("%w: slot %q is in the past", models.ErrValidation, id)
	}

	slot := models.TimeSlot{
		ID:        id,
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   start.Add(SlotDuration),
		Available: true,
	}
	if g.checker != nil {
		booked, err := g.checker.IsSlotBooked(ctx, doctorID, slot.StartTime, slot.EndTime)
		if err != nil {
			return models.TimeSlot{}, fmt.Errorf("check slot: %w", err)
		}
		if booked {
			return models.TimeSlot{}, fmt.Errorf("%w: slot %q is already booked", models.ErrValidation, id)
		}
	}
	return slot, nil
}

// SlotID builds the stable id of a slot: "<doctorID>-yyyy-MM-dd-HH".
func SlotID(doctorID string, start time.Time) string {
	if doctorID == "" {
		return start.Format(idSuffixLayout)
	}
	return doctorID + "-" + start.Format(idSuffixLayout)
}

// ParseSlotID splits a slot id into doctor id and start time in loc.
func ParseSlotID(id string, loc *time.Location) (string, time.Time, error) {
	n := len(idSuffixLayout)
	if len(id) < n {
		return "", time.Time{}, fmt.Errorf("%w: invalid slot id %q", models.ErrValidation, id)
	}

	start, err := time.ParseInLocation(idSuffixLayout, id[len(id)-n:], loc)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: invalid slot id %q", models.ErrValidation, id)
	}

	prefix := id[:len(id)-n]
	if prefix == "" {
		return "", start, nil
	}
	if len(prefix) < 2 || prefix[len(prefix)-1] != '-' {
		return "", time.Time{}, fmt.Errorf("%w: invalid slot id %q", models.ErrValidation, id)
	}
	return prefix[:len(prefix)-1], start, nil
}

// FilterBookable applies the reschedule predicates to pre-existing slots: not in
// the past, inside business hours, not lunch, available, and not excludeID.
func FilterBookable(slots []models.TimeSlot, now time.Time, hours BusinessHours, excludeID string) []models.TimeSlot {
	result := make([]models.TimeSlot, 0, len(slots))
	for _, s := range slots {
		if s.StartTime.Before(now) {
			continue
		}
		if !hours.Contains(s.StartTime.Hour()) {
			continue
		}
		if !s.Available {
			continue
		}
		if excludeID != "" && s.ID == excludeID {
			continue
		}
		result = append(result, s)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartTime.Before(result[j].StartTime)
	})
	return result
}

// AvailableOnly returns only available slots.
func AvailableOnly(slots []models.TimeSlot) []models.TimeSlot {
	var available []models.TimeSlot
	for _, s := range slots {
		if s.Available {
			available = append(available, s)
		}
	}
	return available
}

// GroupByDay groups slots by their start day (DayLayout keys).
func GroupByDay(slots []models.TimeSlot) map[string][]models.TimeSlot {
	groups := make(map[string][]models.TimeSlot)
	for _, s := range slots {
		key := s.StartTime.Format(DayLayout)
		groups[key] = append(groups[key], s)
	}
	return groups
}

// Days returns the keys of groups in ascending order.
func Days(groups map[string][]models.TimeSlot) []string {
	days := make([]string, 0, len(groups))
	for day := range groups {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// DefaultDay picks the earliest day with an available slot, or tomorrow when
// there is none.
func DefaultDay(slots []models.TimeSlot, now time.Time) string {
	var earliest time.Time
	for _, s := range slots {
		if !s.Available {
			continue
		}
		if earliest.IsZero() || s.StartTime.Before(earliest) {
			earliest = s.StartTime
		}
	}
	if earliest.IsZero() {
		return now.AddDate(0, 0, 1).Format(DayLayout)
	}
	return earliest.Format(DayLayout)
}

// SlotInfo is a simplified representation for display.
type SlotInfo struct {
	ID        string `json:"id"`
	Start     string `json:"start"` // "09:00"
	End       string `json:"end"`   // "10:00"
	Label     string `json:"label"` // "9:00 - 10:00"
	Available bool   `json:"available"`
}

// ToSlotInfo converts slots for display.
func ToSlotInfo(slots []models.TimeSlot) []SlotInfo {
	result := make([]SlotInfo, len(slots))
	for i, s := range slots {
		result[i] = SlotInfo{
			ID:        s.ID,
			Start:     s.StartTime.Format("15:04"),
			End:       s.EndTime.Format("15:04"),
			Label:     Label(s),
			Available: s.Available,
		}
	}
	return result
}

// Label formats a slot as "9:00 - 10:00".
func Label(s models.TimeSlot) string {
	return fmt.Sprintf("%d:%02d - %d:%02d",
		s.StartTime.Hour(), s.StartTime.Minute(),
		s.EndTime.Hour(), s.EndTime.Minute())
}
