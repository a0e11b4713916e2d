package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vet-clinic/internal/models"
	"vet-clinic/internal/notify"
	"vet-clinic/internal/storage"
)

// AppointmentHandler changes appointments and tells the owner about it
type AppointmentHandler struct {
	storage  *storage.Storage
	notifier notify.Notifier
	config   *Config
	log      zerolog.Logger
}

// Config holds the clinic details used in owner messages
type Config struct {
	ClinicName string
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(storage *storage.Storage, notifier notify.Notifier, cfg *Config, log zerolog.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		storage:  storage,
		notifier: notifier,
		config:   cfg,
		log:      log.With().Str("component", "handler").Logger(),
	}
}

// Schedule books an appointment and sends the owner a confirmation
func (h *AppointmentHandler) Schedule(ctx context.Context, ownerName, petName, date, clock string) (models.Appointment, error) {
	appt, err := h.storage.ScheduleAppointment(ctx, ownerName, petName, date, clock)
	if err != nil && !errors.Is(err, storage.ErrPersistence) {
		return models.Appointment{}, err
	}

	h.notifyOwner(ctx, appt, h.scheduledMessage(appt))
	return appt, err
}

// UpdateStatus changes the status of an appointment and tells the owner
func (h *AppointmentHandler) UpdateStatus(ctx context.Context, ownerName, petName, date, clock string, next models.AppointmentStatus) (models.Appointment, error) {
	appt, err := h.storage.UpdateAppointmentStatus(ctx, ownerName, petName, date, clock, next)
	if err != nil && !errors.Is(err, storage.ErrPersistence) {
		return models.Appointment{}, err
	}

	h.notifyOwner(ctx, appt, h.statusMessage(appt))
	return appt, err
}

// Cancel cancels an appointment and tells the owner
func (h *AppointmentHandler) Cancel(ctx context.Context, ownerName, petName, date, clock string) (models.Appointment, error) {
	return h.UpdateStatus(ctx, ownerName, petName, date, clock, models.StatusCancelled)
}

// notifyOwner sends msg to the owner of appt. Delivery failures are logged
// and never undo the change.
func (h *AppointmentHandler) notifyOwner(ctx context.Context, appt models.Appointment, msg string) {
	owner, _, ok := h.storage.Resolve(appt)
	if !ok || owner.Phone == "" {
		h.log.Debug().Str("owner", appt.OwnerName).Msg("No phone number to notify")
		return
	}

	if err := h.notifier.Notify(ctx, owner.Phone, msg); err != nil {
		h.log.Warn().Err(err).Str("owner", owner.Name).Msg("Failed to notify owner")
	}
}

func (h *AppointmentHandler) scheduledMessage(appt models.Appointment) string {
	return fmt.Sprintf(
		"Hello %s,\n\n"+
			"%s is booked in at %s on %s at %s.\n\n"+
			"Please contact us if you need to change it.",
		appt.OwnerName, appt.PetName, h.config.ClinicName, appt.Date, appt.Time,
	)
}

func (h *AppointmentHandler) statusMessage(appt models.Appointment) string {
	switch appt.Status {
	case models.StatusCancelled:
		return fmt.Sprintf(
			"Hello %s,\n\n"+
				"The appointment for %s on %s at %s has been cancelled.",
			appt.OwnerName, appt.PetName, appt.Date, appt.Time,
		)
	case models.StatusCompleted:
		return fmt.Sprintf(
			"Hello %s,\n\n"+
				"Thank you for visiting %s with %s. We hope to see you again soon.",
			appt.OwnerName, h.config.ClinicName, appt.PetName,
		)
	default:
		return h.scheduledMessage(appt)
	}
}
