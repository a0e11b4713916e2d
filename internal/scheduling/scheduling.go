// Package scheduling decides whether appointments may be booked or moved to
// another status. It keeps no state: callers pass the current appointments
// and the current time.
package scheduling

import (
	"errors"
	"fmt"
	"time"

	"vet-clinic/internal/models"
)

// SlotLayout is how a date and a time are joined into one instant
const SlotLayout = "2006-01-02 15:04"

var (
	// ErrConflict is wrapped by every rejection caused by another appointment
	ErrConflict = errors.New("scheduling conflict")
	// ErrSlotTaken means another active appointment holds the slot
	ErrSlotTaken = fmt.Errorf("%w: there is already an appointment at this time", ErrConflict)
	// ErrDuplicate means the same pet is already booked for the slot
	ErrDuplicate = fmt.Errorf("%w: this pet already has an appointment at this time", ErrConflict)
	// ErrNotFuture rejects slots that are not strictly after now
	ErrNotFuture = errors.New("cannot schedule appointments in the past")

	// ErrInvalidTransition rejects a status change outside the lifecycle
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPastReschedule rejects setting a past appointment back to Scheduled
	ErrPastReschedule = fmt.Errorf("%w: cannot set a past appointment to Scheduled", ErrInvalidTransition)
)

// IsConflict reports whether err was caused by another appointment
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// ParseSlot reads date (YYYY-MM-DD) and clock (HH:MM) as an instant in loc
func ParseSlot(date, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(SlotLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse slot %s %s: %w", date, clock, err)
	}
	return t, nil
}

// IsPast reports whether the appointment's slot is before now. A slot that
// cannot be parsed is never in the past.
func IsPast(a models.Appointment, now time.Time) bool {
	slot, err := ParseSlot(a.Date, a.Time, now.Location())
	if err != nil {
		return false
	}
	return slot.Before(now)
}

// IsFuture reports whether the slot is strictly after now. A slot that
// cannot be parsed is never in the future.
func IsFuture(date, clock string, now time.Time) bool {
	slot, err := ParseSlot(date, clock, now.Location())
	if err != nil {
		return false
	}
	return slot.After(now)
}

// HasConflict reports whether an active appointment already holds the slot
func HasConflict(date, clock string, appts []models.Appointment) bool {
	for _, a := range appts {
		if a.Active() && a.Date == date && a.Time == clock {
			return true
		}
	}
	return false
}

// IsDuplicate reports whether the pet already has an active appointment in the slot
func IsDuplicate(ownerName, petName, date, clock string, appts []models.Appointment) bool {
	for _, a := range appts {
		if a.Active() && a.Matches(ownerName, petName, date, clock) {
			return true
		}
	}
	return false
}

// CanTransition reports whether status may move from current to next
func CanTransition(current, next models.AppointmentStatus) bool {
	if current == next {
		return true
	}
	return current == models.StatusScheduled &&
		(next == models.StatusCompleted || next == models.StatusCancelled)
}

// RefreshStatuses marks scheduled appointments whose slot has passed as
// completed and returns how many changed
func RefreshStatuses(appts []models.Appointment, now time.Time) int {
	changed := 0
	for i := range appts {
		if appts[i].Status == models.StatusScheduled && IsPast(appts[i], now) {
			appts[i].Status = models.StatusCompleted
			changed++
		}
	}
	return changed
}

// Schedule books the slot for the pet. Slots that are not in the future are
// rejected first, then taken slots, then duplicates. On success the new
// appointment is appended to appts.
func Schedule(appts []models.Appointment, ownerName, petName, date, clock string, now time.Time) ([]models.Appointment, models.Appointment, error) {
	if !IsFuture(date, clock, now) {
		return appts, models.Appointment{}, ErrNotFuture
	}
	if HasConflict(date, clock, appts) {
		return appts, models.Appointment{}, ErrSlotTaken
	}
	if IsDuplicate(ownerName, petName, date, clock, appts) {
		return appts, models.Appointment{}, ErrDuplicate
	}

	appt := models.Appointment{
		Date:      date,
		Time:      clock,
		OwnerName: ownerName,
		PetName:   petName,
		Status:    models.StatusScheduled,
	}
	return append(appts, appt), appt, nil
}

// UpdateStatus moves a to next if the lifecycle allows it
func UpdateStatus(a *models.Appointment, next models.AppointmentStatus, now time.Time) error {
	if next == models.StatusScheduled && IsPast(*a, now) {
		return ErrPastReschedule
	}
	if !CanTransition(a.Status, next) {
		return fmt.Errorf("%w from %s to %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	return nil
}
