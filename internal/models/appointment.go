package models

import (
	"fmt"

	"vet-clinic/internal/csvcodec"
)

// AppointmentStatus represents where an appointment is in its lifecycle
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "Scheduled"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// Statuses lists every status in lifecycle order
var Statuses = []AppointmentStatus{StatusScheduled, StatusCompleted, StatusCancelled}

// ParseStatus parses an exact status name
func ParseStatus(s string) (AppointmentStatus, error) {
	switch st := AppointmentStatus(s); st {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, s)
	}
}

// Appointment is a booking of one slot for one pet. The owner and pet are
// referenced by name and looked up when needed.
type Appointment struct {
	Date      string
	Time      string
	OwnerName string
	PetName   string
	Status    AppointmentStatus
}

// Active reports whether the appointment still holds its slot
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// Matches reports whether a is the booking of the given pet at the given slot
func (a Appointment) Matches(ownerName, petName, date, clock string) bool {
	return a.OwnerName == ownerName && a.PetName == petName && a.Date == date && a.Time == clock
}

// Record returns the appointments store fields: date, time, petName,
// ownerName, status
func (a Appointment) Record() []string {
	return []string{a.Date, a.Time, a.PetName, a.OwnerName, string(a.Status)}
}

// ToCSV encodes the appointment as a single appointments store line
func (a Appointment) ToCSV() string {
	return csvcodec.Join(a.Record()...)
}

// ParseAppointmentRecord is the inverse of Appointment.Record
func ParseAppointmentRecord(fields []string) (Appointment, error) {
	if len(fields) != 5 {
		return Appointment{}, fmt.Errorf("%w: appointment has %d fields, want 5", ErrInvalidRecord, len(fields))
	}

	status, err := ParseStatus(fields[4])
	if err != nil {
		return Appointment{}, err
	}

	return Appointment{
		Date:      fields[0],
		Time:      fields[1],
		PetName:   fields[2],
		OwnerName: fields[3],
		Status:    status,
	}, nil
}

// ParseAppointmentCSV decodes a line produced by Appointment.ToCSV
func ParseAppointmentCSV(line string) (Appointment, error) {
	return ParseAppointmentRecord(csvcodec.Split(line))
}
