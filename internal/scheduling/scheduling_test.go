package scheduling

import (
	"errors"
	"testing"
	"time"

	"vet-clinic/internal/models"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func appt(date, clock, owner, pet string, status models.AppointmentStatus) models.Appointment {
	return models.Appointment{Date: date, Time: clock, OwnerName: owner, PetName: pet, Status: status}
}

func TestIsPastAndIsFuture(t *testing.T) {
	tests := []struct {
		name       string
		date       string
		clock      string
		wantPast   bool
		wantFuture bool
	}{
		{"yesterday", "2025-06-14", "12:00", true, false},
		{"one minute ago", "2025-06-15", "11:59", true, false},
		{"exactly now", "2025-06-15", "12:00", false, false},
		{"one minute ahead", "2025-06-15", "12:01", false, true},
		{"far future", "2999-01-01", "09:00", false, true},
		{"unparsable time", "2020-01-01", "99:99", false, false},
		{"unparsable date", "garbage", "10:00", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := appt(tt.date, tt.clock, "Jane Doe", "Rex", models.StatusScheduled)
			if got := IsPast(a, now); got != tt.wantPast {
				t.Errorf("IsPast() = %v, want %v", got, tt.wantPast)
			}
			if got := IsFuture(tt.date, tt.clock, now); got != tt.wantFuture {
				t.Errorf("IsFuture() = %v, want %v", got, tt.wantFuture)
			}
		})
	}
}

func TestIsFutureUsesLocationOfNow(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	local := now.In(loc) // 14:00 local

	if IsFuture("2025-06-15", "13:30", local) {
		t.Error("13:30 local is before 14:00 local")
	}
	if !IsFuture("2025-06-15", "14:30", local) {
		t.Error("14:30 local is after 14:00 local")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.AppointmentStatus
		want     bool
	}{
		{models.StatusScheduled, models.StatusScheduled, true},
		{models.StatusScheduled, models.StatusCompleted, true},
		{models.StatusScheduled, models.StatusCancelled, true},
		{models.StatusCompleted, models.StatusCompleted, true},
		{models.StatusCompleted, models.StatusScheduled, false},
		{models.StatusCompleted, models.StatusCancelled, false},
		{models.StatusCancelled, models.StatusCancelled, true},
		{models.StatusCancelled, models.StatusCompleted, false},
		{models.StatusCancelled, models.StatusScheduled, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestHasConflictIgnoresCancelled(t *testing.T) {
	appts := []models.Appointment{
		appt("2999-01-01", "09:00", "Jane Doe", "Rex", models.StatusCancelled),
		appt("2999-01-01", "10:00", "Jane Doe", "Rex", models.StatusCompleted),
	}

	if HasConflict("2999-01-01", "09:00", appts) {
		t.Error("cancelled appointment holds its slot")
	}
	if !HasConflict("2999-01-01", "10:00", appts) {
		t.Error("completed appointment does not hold its slot")
	}
	if !IsDuplicate("Jane Doe", "Rex", "2999-01-01", "10:00", appts) {
		t.Error("IsDuplicate() = false for a matching active appointment")
	}
	if IsDuplicate("Jane Doe", "Max", "2999-01-01", "10:00", appts) {
		t.Error("IsDuplicate() = true for another pet")
	}
}

func TestSchedule(t *testing.T) {
	existing := []models.Appointment{
		appt("2999-01-01", "09:00", "Jane Doe", "Rex", models.StatusScheduled),
	}

	tests := []struct {
		name    string
		owner   string
		pet     string
		date    string
		clock   string
		wantErr error
	}{
		{"past date", "John Roe", "Tom", "2020-01-01", "10:00", ErrNotFuture},
		{"past date wins over conflict", "Jane Doe", "Rex", "2020-01-01", "10:00", ErrNotFuture},
		{"slot taken by another pet", "John Roe", "Tom", "2999-01-01", "09:00", ErrSlotTaken},
		{"same pet same slot", "Jane Doe", "Rex", "2999-01-01", "09:00", ErrSlotTaken},
		{"free slot", "John Roe", "Tom", "2999-01-01", "09:30", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]models.Appointment(nil), existing...)
			out, got, err := Schedule(in, tt.owner, tt.pet, tt.date, tt.clock, now)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Schedule() error = %v, want %v", err, tt.wantErr)
				}
				if len(out) != len(existing) {
					t.Errorf("rejected Schedule() changed the collection")
				}
				return
			}
			if err != nil {
				t.Fatalf("Schedule() error = %v", err)
			}
			want := appt(tt.date, tt.clock, tt.owner, tt.pet, models.StatusScheduled)
			if got != want || out[len(out)-1] != want {
				t.Errorf("Schedule() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestScheduleConflictThenCancel(t *testing.T) {
	appts, first, err := Schedule(nil, "Jane Doe", "Rex", "2999-01-01", "09:00", now)
	if err != nil {
		t.Fatalf("first Schedule() error = %v", err)
	}

	_, _, err = Schedule(appts, "John Roe", "Tom", "2999-01-01", "09:00", now)
	if !IsConflict(err) {
		t.Fatalf("second Schedule() error = %v, want conflict", err)
	}

	if err := UpdateStatus(&appts[0], models.StatusCancelled, now); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if first.Status != models.StatusScheduled {
		t.Error("returned appointment aliases the collection")
	}

	appts, _, err = Schedule(appts, "John Roe", "Tom", "2999-01-01", "09:00", now)
	if err != nil {
		t.Fatalf("Schedule() after cancel error = %v", err)
	}
	if len(appts) != 2 {
		t.Errorf("len(appts) = %d, want 2", len(appts))
	}
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		appt    models.Appointment
		next    models.AppointmentStatus
		wantErr error
	}{
		{"complete future", appt("2999-01-01", "09:00", "a", "b", models.StatusScheduled), models.StatusCompleted, nil},
		{"keep scheduled future", appt("2999-01-01", "09:00", "a", "b", models.StatusScheduled), models.StatusScheduled, nil},
		{"reschedule past", appt("2020-01-01", "09:00", "a", "b", models.StatusScheduled), models.StatusScheduled, ErrPastReschedule},
		{"reopen completed", appt("2999-01-01", "09:00", "a", "b", models.StatusCompleted), models.StatusScheduled, ErrInvalidTransition},
		{"complete cancelled", appt("2999-01-01", "09:00", "a", "b", models.StatusCancelled), models.StatusCompleted, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.appt
			err := UpdateStatus(&a, tt.next, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("UpdateStatus() error = %v, want %v", err, tt.wantErr)
				}
				if a.Status != tt.appt.Status {
					t.Errorf("rejected UpdateStatus() changed status to %s", a.Status)
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateStatus() error = %v", err)
			}
			if a.Status != tt.next {
				t.Errorf("Status = %s, want %s", a.Status, tt.next)
			}
		})
	}

	if !errors.Is(ErrPastReschedule, ErrInvalidTransition) {
		t.Error("ErrPastReschedule does not wrap ErrInvalidTransition")
	}
}

func TestRefreshStatusesIsIdempotent(t *testing.T) {
	appts := []models.Appointment{
		appt("2020-01-01", "09:00", "a", "b", models.StatusScheduled),
		appt("2020-01-02", "09:00", "a", "b", models.StatusCancelled),
		appt("2999-01-01", "09:00", "a", "b", models.StatusScheduled),
		appt("2020-01-03", "99:99", "a", "b", models.StatusScheduled),
	}

	if n := RefreshStatuses(appts, now); n != 1 {
		t.Fatalf("first RefreshStatuses() = %d, want 1", n)
	}
	snapshot := append([]models.Appointment(nil), appts...)

	if n := RefreshStatuses(appts, now); n != 0 {
		t.Errorf("second RefreshStatuses() = %d, want 0", n)
	}
	for i := range appts {
		if appts[i] != snapshot[i] {
			t.Errorf("appointment %d changed on second refresh", i)
		}
	}

	want := []models.AppointmentStatus{
		models.StatusCompleted, models.StatusCancelled, models.StatusScheduled, models.StatusScheduled,
	}
	for i, st := range want {
		if appts[i].Status != st {
			t.Errorf("appts[%d].Status = %s, want %s", i, appts[i].Status, st)
		}
	}
}
