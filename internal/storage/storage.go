// Package storage owns the owners, pets and appointments of the practice.
// Every mutation is applied in memory and then saved through a Backend.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vet-clinic/internal/models"
	"vet-clinic/internal/scheduling"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrOwnerNotFound       = fmt.Errorf("owner %w", ErrNotFound)
	ErrPetNotFound         = fmt.Errorf("pet %w", ErrNotFound)
	ErrAppointmentNotFound = fmt.Errorf("appointment %w", ErrNotFound)

	ErrOwnerExists        = errors.New("an owner with this name already exists")
	ErrPetExists          = errors.New("this owner already has a pet with this name")
	ErrInvalidCredentials = errors.New("invalid name or password")

	// ErrPersistence means the change was applied in memory but not saved
	ErrPersistence = errors.New("changes were not saved")
	// ErrLoadFailed blocks saving after a failed Load so that stored data
	// which could not be read is not overwritten
	ErrLoadFailed = errors.New("stored data could not be loaded, refusing to overwrite it")
)

// Options configures a Storage
type Options struct {
	Logger   zerolog.Logger
	Now      func() time.Time
	Replicas []Replica
}

// OwnedPet is a pet together with the name of its owner
type OwnedPet struct {
	OwnerName string
	Pet       models.Pet
}

// Storage holds the owners and appointments in memory and saves them through
// a Backend after every change
type Storage struct {
	backend      Backend
	replicas     []Replica
	log          zerolog.Logger
	now          func() time.Time
	owners       []models.Owner
	appointments []models.Appointment
	loadFailed   bool
}

// NewStorage creates an empty storage. Call Load to read persisted data.
func NewStorage(backend Backend, opts Options) *Storage {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Storage{
		backend:      backend,
		replicas:     opts.Replicas,
		log:          opts.Logger.With().Str("component", "storage").Logger(),
		now:          now,
		owners:       make([]models.Owner, 0),
		appointments: make([]models.Appointment, 0),
	}
}

// Load replaces the in-memory state with the persisted one. On error the
// storage is left empty, the error is returned and Save refuses to write
// until a later Load succeeds.
func (s *Storage) Load(ctx context.Context) error {
	snap, err := s.backend.Load(ctx)
	if err != nil {
		s.owners = make([]models.Owner, 0)
		s.appointments = make([]models.Appointment, 0)
		s.loadFailed = true
		s.log.Error().Err(err).Msg("Failed to load data, starting with empty collections; changes will not be saved")
		return fmt.Errorf("failed to load data: %w", err)
	}
	s.loadFailed = false

	s.owners = snap.Owners
	s.appointments = snap.Appointments
	if s.owners == nil {
		s.owners = make([]models.Owner, 0)
	}
	if s.appointments == nil {
		s.appointments = make([]models.Appointment, 0)
	}

	if n := s.RefreshStatuses(); n > 0 {
		s.log.Info().Int("count", n).Msg("Marked past appointments as completed")
	}
	s.log.Info().Int("owners", len(s.owners)).Int("appointments", len(s.appointments)).Msg("Loaded data")
	return nil
}

// Save persists the current state, then hands it to every replica.
// Replica failures are only logged.
func (s *Storage) Save(ctx context.Context) error {
	s.RefreshStatuses()
	if s.loadFailed {
		s.log.Error().Err(ErrLoadFailed).Msg("Failed to save data")
		return fmt.Errorf("%w: %w", ErrPersistence, ErrLoadFailed)
	}
	snap := s.Snapshot()

	if err := s.backend.Save(ctx, snap); err != nil {
		s.log.Error().Err(err).Msg("Failed to save data")
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	for _, r := range s.replicas {
		if err := r.Replicate(ctx, snap); err != nil {
			s.log.Error().Err(err).Msg("Failed to replicate data")
		}
	}
	return nil
}

// Snapshot returns a deep copy of the current state
func (s *Storage) Snapshot() Snapshot {
	return Snapshot{Owners: s.Owners(), Appointments: s.copyAppointments()}
}

// RefreshStatuses marks scheduled appointments in the past as completed
func (s *Storage) RefreshStatuses() int {
	return scheduling.RefreshStatuses(s.appointments, s.now())
}

// Owners returns a copy of all owners in insertion order
func (s *Storage) Owners() []models.Owner {
	owners := make([]models.Owner, len(s.owners))
	for i, o := range s.owners {
		owners[i] = o.Clone()
	}
	return owners
}

// Owner returns a copy of the named owner
func (s *Storage) Owner(name string) (models.Owner, error) {
	i := s.ownerIndex(name)
	if i < 0 {
		return models.Owner{}, ErrOwnerNotFound
	}
	return s.owners[i].Clone(), nil
}

// AddOwner adds a new owner. Names are unique across the store.
func (s *Storage) AddOwner(ctx context.Context, owner models.Owner) error {
	if s.ownerIndex(owner.Name) >= 0 {
		return ErrOwnerExists
	}
	s.owners = append(s.owners, owner.Clone())
	s.log.Debug().Str("owner", owner.Name).Msg("Added owner")
	return s.Save(ctx)
}

// UpdateOwnerContact replaces the address, phone and email of an owner
func (s *Storage) UpdateOwnerContact(ctx context.Context, name, address, phone, email string) error {
	i := s.ownerIndex(name)
	if i < 0 {
		return ErrOwnerNotFound
	}
	s.owners[i].Address = address
	s.owners[i].Phone = phone
	s.owners[i].Email = email
	return s.Save(ctx)
}

// DeleteOwner removes an owner, their pets and all their appointments
func (s *Storage) DeleteOwner(ctx context.Context, name string) error {
	i := s.ownerIndex(name)
	if i < 0 {
		return ErrOwnerNotFound
	}
	s.owners = append(s.owners[:i], s.owners[i+1:]...)
	s.removeAppointments(func(a models.Appointment) bool {
		return a.OwnerName == name
	})
	s.log.Debug().Str("owner", name).Msg("Deleted owner")
	return s.Save(ctx)
}

// Pets returns a copy of the pets of an owner
func (s *Storage) Pets(ownerName string) ([]models.Pet, error) {
	o, err := s.Owner(ownerName)
	if err != nil {
		return nil, err
	}
	return o.Pets, nil
}

// AllPets returns every pet grouped by owner in insertion order
func (s *Storage) AllPets() []OwnedPet {
	var pets []OwnedPet
	for _, o := range s.owners {
		for _, p := range o.Pets {
			pets = append(pets, OwnedPet{OwnerName: o.Name, Pet: p})
		}
	}
	return pets
}

// Pet returns a copy of one pet
func (s *Storage) Pet(ownerName, petName string) (models.Pet, error) {
	p, err := s.pet(ownerName, petName)
	if err != nil {
		return models.Pet{}, err
	}
	return *p, nil
}

// AddPet registers a pet to an owner. Pet names are unique per owner.
func (s *Storage) AddPet(ctx context.Context, ownerName string, pet models.Pet) error {
	i := s.ownerIndex(ownerName)
	if i < 0 {
		return ErrOwnerNotFound
	}
	if s.owners[i].Pet(pet.Name) >= 0 {
		return ErrPetExists
	}
	s.owners[i].Pets = append(s.owners[i].Pets, pet)
	s.log.Debug().Str("owner", ownerName).Str("pet", pet.Name).Msg("Added pet")
	return s.Save(ctx)
}

// UpdatePet replaces the medical history and vaccination status of a pet
func (s *Storage) UpdatePet(ctx context.Context, ownerName, petName, medicalHistory string, vaccinated bool) error {
	p, err := s.pet(ownerName, petName)
	if err != nil {
		return err
	}
	p.MedicalHistory = medicalHistory
	p.Vaccinated = vaccinated
	return s.Save(ctx)
}

// ReplaceMedicalHistory overwrites the whole medical history of a pet
func (s *Storage) ReplaceMedicalHistory(ctx context.Context, ownerName, petName, history string) error {
	p, err := s.pet(ownerName, petName)
	if err != nil {
		return err
	}
	p.MedicalHistory = history
	return s.Save(ctx)
}

// AppendMedicalHistory adds an entry stamped with today's date
func (s *Storage) AppendMedicalHistory(ctx context.Context, ownerName, petName, entry string) error {
	p, err := s.pet(ownerName, petName)
	if err != nil {
		return err
	}
	p.AppendHistory(entry, s.now())
	return s.Save(ctx)
}

// DeletePet removes a pet and all of its appointments
func (s *Storage) DeletePet(ctx context.Context, ownerName, petName string) error {
	i := s.ownerIndex(ownerName)
	if i < 0 {
		return ErrOwnerNotFound
	}
	j := s.owners[i].Pet(petName)
	if j < 0 {
		return ErrPetNotFound
	}
	s.owners[i].Pets = append(s.owners[i].Pets[:j], s.owners[i].Pets[j+1:]...)
	s.removeAppointments(func(a models.Appointment) bool {
		return a.OwnerName == ownerName && a.PetName == petName
	})
	s.log.Debug().Str("owner", ownerName).Str("pet", petName).Msg("Deleted pet")
	return s.Save(ctx)
}

// Appointments returns every appointment after refreshing statuses
func (s *Storage) Appointments() []models.Appointment {
	s.RefreshStatuses()
	return s.copyAppointments()
}

// AppointmentsForOwner returns the appointments of one owner
func (s *Storage) AppointmentsForOwner(ownerName string) []models.Appointment {
	return s.filterAppointments(func(a models.Appointment) bool {
		return a.OwnerName == ownerName
	})
}

// AppointmentsForPet returns the appointment history of one pet
func (s *Storage) AppointmentsForPet(ownerName, petName string) []models.Appointment {
	return s.filterAppointments(func(a models.Appointment) bool {
		return a.OwnerName == ownerName && a.PetName == petName
	})
}

// ScheduleAppointment books a slot for an existing pet
func (s *Storage) ScheduleAppointment(ctx context.Context, ownerName, petName, date, clock string) (models.Appointment, error) {
	if _, err := s.pet(ownerName, petName); err != nil {
		return models.Appointment{}, err
	}

	appts, appt, err := scheduling.Schedule(s.appointments, ownerName, petName, date, clock, s.now())
	if err != nil {
		s.log.Debug().Err(err).Str("date", date).Str("time", clock).Msg("Rejected appointment")
		return models.Appointment{}, err
	}
	s.appointments = appts
	s.log.Debug().Str("owner", ownerName).Str("pet", petName).Str("date", date).Str("time", clock).Msg("Scheduled appointment")
	err = s.Save(ctx)
	return appt, err
}

// UpdateAppointmentStatus moves the appointment of a pet at a slot to
// another status
func (s *Storage) UpdateAppointmentStatus(ctx context.Context, ownerName, petName, date, clock string, next models.AppointmentStatus) (models.Appointment, error) {
	s.RefreshStatuses()

	i := s.appointmentIndex(ownerName, petName, date, clock)
	if i < 0 {
		return models.Appointment{}, ErrAppointmentNotFound
	}
	if err := scheduling.UpdateStatus(&s.appointments[i], next, s.now()); err != nil {
		s.log.Debug().Err(err).Msg("Rejected status change")
		return models.Appointment{}, err
	}
	appt := s.appointments[i]
	err := s.Save(ctx)
	return appt, err
}

// CancelAppointment cancels the appointment of a pet at a slot
func (s *Storage) CancelAppointment(ctx context.Context, ownerName, petName, date, clock string) (models.Appointment, error) {
	return s.UpdateAppointmentStatus(ctx, ownerName, petName, date, clock, models.StatusCancelled)
}

// Resolve looks up the owner and pet an appointment refers to. When either
// is missing a placeholder carrying only the referenced name is returned
// and ok is false.
func (s *Storage) Resolve(a models.Appointment) (owner models.Owner, pet models.Pet, ok bool) {
	owner = models.Owner{Name: a.OwnerName}
	pet = models.Pet{Name: a.PetName}

	i := s.ownerIndex(a.OwnerName)
	if i < 0 {
		return owner, pet, false
	}
	owner = s.owners[i].Clone()

	j := owner.Pet(a.PetName)
	if j < 0 {
		return owner, pet, false
	}
	return owner, owner.Pets[j], true
}

// Authenticate checks a customer's name and password
func (s *Storage) Authenticate(name, password string) (models.Owner, error) {
	i := s.ownerIndex(name)
	if i < 0 || !s.owners[i].CheckPassword(password) {
		return models.Owner{}, ErrInvalidCredentials
	}
	return s.owners[i].Clone(), nil
}

func (s *Storage) ownerIndex(name string) int {
	for i, o := range s.owners {
		if o.Name == name {
			return i
		}
	}
	return -1
}

func (s *Storage) pet(ownerName, petName string) (*models.Pet, error) {
	i := s.ownerIndex(ownerName)
	if i < 0 {
		return nil, ErrOwnerNotFound
	}
	j := s.owners[i].Pet(petName)
	if j < 0 {
		return nil, ErrPetNotFound
	}
	return &s.owners[i].Pets[j], nil
}

// appointmentIndex finds the appointment of a pet at a slot. An active
// appointment is preferred over a cancelled one for the same slot.
func (s *Storage) appointmentIndex(ownerName, petName, date, clock string) int {
	found := -1
	for i, a := range s.appointments {
		if !a.Matches(ownerName, petName, date, clock) {
			continue
		}
		if a.Active() {
			return i
		}
		if found < 0 {
			found = i
		}
	}
	return found
}

func (s *Storage) copyAppointments() []models.Appointment {
	appts := make([]models.Appointment, len(s.appointments))
	copy(appts, s.appointments)
	return appts
}

func (s *Storage) filterAppointments(keep func(models.Appointment) bool) []models.Appointment {
	s.RefreshStatuses()

	var result []models.Appointment
	for _, a := range s.appointments {
		if keep(a) {
			result = append(result, a)
		}
	}
	return result
}

func (s *Storage) removeAppointments(drop func(models.Appointment) bool) {
	kept := s.appointments[:0]
	for _, a := range s.appointments {
		if !drop(a) {
			kept = append(kept, a)
		}
	}
	s.appointments = kept
}
