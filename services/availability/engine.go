package availability

import (
	"sort"
	"time"

	"coachly/models"
)

// Engine computes bookable slots for a calendar day. It is a pure function
// of its inputs plus Now, which is injectable so tests stay deterministic.
type Engine struct {
	Hours       models.BusinessHours
	WorkingDays map[time.Weekday]bool
	Now         func() time.Time
}

// NewEngine builds an engine for the given business window and working days
// (time.Weekday values).
func NewEngine(hours models.BusinessHours, workingDays []int) *Engine {
	days := make(map[time.Weekday]bool, len(workingDays))
	for _, d := range workingDays {
		days[time.Weekday(d)] = true
	}
	return &Engine{
		Hours:       hours,
		WorkingDays: days,
		Now:         time.Now,
	}
}

// MergeBusyIntervals sorts busy intervals by start and merges overlapping or
// adjacent ranges into maximal disjoint ones. The input may be unsorted and
// overlapping; the result is sorted and disjoint.
func MergeBusyIntervals(busy []models.BusyInterval) []models.BusyInterval {
	if len(busy) == 0 {
		return nil
	}

	sorted := make([]models.BusyInterval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []models.BusyInterval{sorted[0]}
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		// Adjacent intervals merge too: back-to-back events leave no gap.
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// ComputeAvailableSlots derives the ordered free slots for date. It merges
// the busy intervals, walks the business window in fixed slotDurationMinutes
// steps, keeps slots that do not intersect any busy range, and drops slots
// whose start has already passed. A trailing slot that does not fit the
// window whole is dropped rather than offered short. Non-working days yield
// an empty result.
func (e *Engine) ComputeAvailableSlots(date time.Time, slotDurationMinutes int, busy []models.BusyInterval) []models.Slot {
	if slotDurationMinutes <= 0 {
		return nil
	}
	if !e.WorkingDays[date.Weekday()] {
		return nil
	}

	merged := MergeBusyIntervals(busy)
	now := e.Now()
	step := time.Duration(slotDurationMinutes) * time.Minute

	windowStart := time.Date(date.Year(), date.Month(), date.Day(), e.Hours.StartHour, 0, 0, 0, date.Location())
	windowEnd := time.Date(date.Year(), date.Month(), date.Day(), e.Hours.EndHour, 0, 0, 0, date.Location())

	var slots []models.Slot
	for start := windowStart; !start.Add(step).After(windowEnd); start = start.Add(step) {
		end := start.Add(step)
		if start.Before(now) {
			continue
		}
		if conflicts(start, end, merged) {
			continue
		}
		slots = append(slots, models.Slot{
			Start:           start,
			End:             end,
			DurationMinutes: slotDurationMinutes,
		})
	}
	return slots
}

// SlotFree re-checks a single slot against fresh busy intervals. The
// reserving step calls this right before the calendar write so that a slot
// claimed by a concurrent booking since the offer is caught.
func (e *Engine) SlotFree(slot models.Slot, busy []models.BusyInterval) bool {
	merged := MergeBusyIntervals(busy)
	return !conflicts(slot.Start, slot.End, merged)
}

// conflicts applies the half-open interval test against merged, sorted busy
// ranges: a slot collides iff slot.Start < busy.End && slot.End > busy.Start.
func conflicts(start, end time.Time, merged []models.BusyInterval) bool {
	for _, iv := range merged {
		if !iv.Start.Before(end) {
			break
		}
		if iv.Overlaps(start, end) {
			return true
		}
	}
	return false
}
