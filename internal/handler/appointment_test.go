package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vet-clinic/internal/models"
	"vet-clinic/internal/scheduling"
	"vet-clinic/internal/storage"
)

type fakeBackend struct {
	saveErr error
}

func (f *fakeBackend) Load(ctx context.Context) (storage.Snapshot, error) {
	return storage.Snapshot{}, nil
}

func (f *fakeBackend) Save(ctx context.Context, snap storage.Snapshot) error {
	return f.saveErr
}

func (f *fakeBackend) Close() error { return nil }

type sentMessage struct {
	phone, message string
}

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(ctx context.Context, phone, message string) error {
	f.sent = append(f.sent, sentMessage{phone, message})
	return f.err
}

func newTestHandler(t *testing.T, backend *fakeBackend, notifier *fakeNotifier) *AppointmentHandler {
	t.Helper()
	ctx := context.Background()

	store := storage.NewStorage(backend, storage.Options{
		Logger: zerolog.Nop(),
		Now:    func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	})
	saveErr := backend.saveErr
	backend.saveErr = nil
	if err := store.AddOwner(ctx, models.NewOwner("Jane Doe", 34, "1 Elm St", "01234567890", "jane@example.com", "secret1")); err != nil {
		t.Fatal(err)
	}
	if err := store.AddPet(ctx, "Jane Doe", models.Pet{Name: "Rex", Breed: "Beagle", Age: 3}); err != nil {
		t.Fatal(err)
	}
	backend.saveErr = saveErr

	return NewAppointmentHandler(store, notifier, &Config{ClinicName: "Elm Vets"}, zerolog.Nop())
}

func TestScheduleNotifiesOwner(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newTestHandler(t, &fakeBackend{}, notifier)

	appt, err := h.Schedule(context.Background(), "Jane Doe", "Rex", "2999-01-01", "09:00")
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if appt.Status != models.StatusScheduled {
		t.Errorf("Status = %s", appt.Status)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(notifier.sent))
	}
	msg := notifier.sent[0]
	if msg.phone != "01234567890" {
		t.Errorf("phone = %q", msg.phone)
	}
	for _, want := range []string{"Jane Doe", "Rex", "Elm Vets", "2999-01-01", "09:00"} {
		if !strings.Contains(msg.message, want) {
			t.Errorf("message %q missing %q", msg.message, want)
		}
	}
}

func TestRejectedScheduleSendsNothing(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newTestHandler(t, &fakeBackend{}, notifier)

	_, err := h.Schedule(context.Background(), "Jane Doe", "Rex", "2020-01-01", "09:00")
	if !errors.Is(err, scheduling.ErrNotFuture) {
		t.Fatalf("Schedule() error = %v, want ErrNotFuture", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("sent %d messages for a rejected booking", len(notifier.sent))
	}
}

func TestNotifyFailureDoesNotUndo(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("offline")}
	h := newTestHandler(t, &fakeBackend{}, notifier)
	ctx := context.Background()

	if _, err := h.Schedule(ctx, "Jane Doe", "Rex", "2999-01-01", "09:00"); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	appt, err := h.Cancel(ctx, "Jane Doe", "Rex", "2999-01-01", "09:00")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if appt.Status != models.StatusCancelled {
		t.Errorf("Status = %s, want Cancelled", appt.Status)
	}
	if len(notifier.sent) != 2 || !strings.Contains(notifier.sent[1].message, "cancelled") {
		t.Errorf("sent = %+v", notifier.sent)
	}
}

func TestPersistenceFailureStillNotifies(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newTestHandler(t, &fakeBackend{saveErr: errors.New("disk full")}, notifier)

	appt, err := h.Schedule(context.Background(), "Jane Doe", "Rex", "2999-01-01", "09:00")
	if !errors.Is(err, storage.ErrPersistence) {
		t.Fatalf("Schedule() error = %v, want ErrPersistence", err)
	}
	if appt.Date != "2999-01-01" {
		t.Errorf("appointment = %+v", appt)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("sent %d messages, want 1", len(notifier.sent))
	}
}

func TestUpdateStatusCompleted(t *testing.T) {
	notifier := &fakeNotifier{}
	h := newTestHandler(t, &fakeBackend{}, notifier)
	ctx := context.Background()

	if _, err := h.Schedule(ctx, "Jane Doe", "Rex", "2999-01-01", "09:00"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.UpdateStatus(ctx, "Jane Doe", "Rex", "2999-01-01", "09:00", models.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if !strings.Contains(notifier.sent[1].message, "Thank you for visiting Elm Vets") {
		t.Errorf("message = %q", notifier.sent[1].message)
	}

	_, err := h.UpdateStatus(ctx, "Jane Doe", "Rex", "2999-01-01", "09:00", models.StatusScheduled)
	if !errors.Is(err, scheduling.ErrInvalidTransition) {
		t.Errorf("UpdateStatus(reopen) error = %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("sent %d messages, want 2", len(notifier.sent))
	}
}
