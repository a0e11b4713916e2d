package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"vet-clinic/internal/csvcodec"
	"vet-clinic/internal/models"
)

// Snapshot is the whole persisted state: owners with their pets, and
// appointments, both in insertion order
type Snapshot struct {
	Owners       []models.Owner
	Appointments []models.Appointment
}

// Backend loads and saves a whole snapshot at once
type Backend interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

// Replica receives a copy of every snapshot that was saved successfully
type Replica interface {
	Replicate(ctx context.Context, snap Snapshot) error
}

// FileNames names the three stores
type FileNames struct {
	Owners       string
	Pets         string
	Appointments string
}

// DefaultFileNames are used when a name is left empty
var DefaultFileNames = FileNames{
	Owners:       "owners.csv",
	Pets:         "pets.csv",
	Appointments: "appointments.csv",
}

// WithDefaults fills empty names from DefaultFileNames
func (f FileNames) WithDefaults() FileNames {
	if f.Owners == "" {
		f.Owners = DefaultFileNames.Owners
	}
	if f.Pets == "" {
		f.Pets = DefaultFileNames.Pets
	}
	if f.Appointments == "" {
		f.Appointments = DefaultFileNames.Appointments
	}
	return f
}

// Documents holds the encoded content of the three stores
type Documents struct {
	Owners       []byte
	Pets         []byte
	Appointments []byte
}

// EncodeDocuments renders a snapshot as the three store documents
func EncodeDocuments(snap Snapshot) (Documents, error) {
	var owners, pets, appts bytes.Buffer

	ow := csvcodec.NewWriter(&owners)
	pw := csvcodec.NewWriter(&pets)
	for _, o := range snap.Owners {
		if err := ow.Write(o.Record()); err != nil {
			return Documents{}, fmt.Errorf("failed to encode owner %s: %w", o.Name, err)
		}
		for _, p := range o.Pets {
			if err := pw.Write(p.Record(o.Name)); err != nil {
				return Documents{}, fmt.Errorf("failed to encode pet %s: %w", p.Name, err)
			}
		}
	}

	aw := csvcodec.NewWriter(&appts)
	for _, a := range snap.Appointments {
		if err := aw.Write(a.Record()); err != nil {
			return Documents{}, fmt.Errorf("failed to encode appointment: %w", err)
		}
	}

	for _, w := range []*csvcodec.Writer{ow, pw, aw} {
		if err := w.Flush(); err != nil {
			return Documents{}, fmt.Errorf("failed to flush documents: %w", err)
		}
	}

	return Documents{Owners: owners.Bytes(), Pets: pets.Bytes(), Appointments: appts.Bytes()}, nil
}

// DecodeDocuments parses the three store documents. Rows that cannot be
// parsed, duplicate owners, pets whose owner is unknown and active
// appointments in an already booked slot are skipped with a warning.
func DecodeDocuments(docs Documents, log zerolog.Logger) (Snapshot, error) {
	var snap Snapshot
	index := make(map[string]int)

	err := eachRecord(docs.Owners, "owners", log, func(fields []string) error {
		o, err := models.ParseOwnerRecord(fields)
		if err != nil {
			return err
		}
		if _, dup := index[o.Name]; dup {
			return fmt.Errorf("%w: duplicate owner %q", models.ErrInvalidRecord, o.Name)
		}
		index[o.Name] = len(snap.Owners)
		snap.Owners = append(snap.Owners, o)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	err = eachRecord(docs.Pets, "pets", log, func(fields []string) error {
		ownerName, p, err := models.ParsePetRecord(fields)
		if err != nil {
			return err
		}
		i, ok := index[ownerName]
		if !ok {
			return fmt.Errorf("%w: pet %q belongs to unknown owner %q", models.ErrInvalidRecord, p.Name, ownerName)
		}
		if snap.Owners[i].Pet(p.Name) >= 0 {
			return fmt.Errorf("%w: duplicate pet %q for owner %q", models.ErrInvalidRecord, p.Name, ownerName)
		}
		snap.Owners[i].Pets = append(snap.Owners[i].Pets, p)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	slots := make(activeSlots)
	err = eachRecord(docs.Appointments, "appointments", log, func(fields []string) error {
		a, err := models.ParseAppointmentRecord(fields)
		if err != nil {
			return err
		}
		if !slots.claim(a) {
			return fmt.Errorf("%w: slot %s %s is already booked", models.ErrInvalidRecord, a.Date, a.Time)
		}
		snap.Appointments = append(snap.Appointments, a)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

// activeSlots remembers the slots held by active appointments during a load
type activeSlots map[[2]string]bool

// claim reports whether a can be kept. Cancelled appointments hold no slot.
func (s activeSlots) claim(a models.Appointment) bool {
	if !a.Active() {
		return true
	}
	key := [2]string{a.Date, a.Time}
	if s[key] {
		return false
	}
	s[key] = true
	return true
}

// eachRecord calls fn for every record in doc. Malformed rows and rows that
// fn rejects with models.ErrInvalidRecord are logged and skipped.
func eachRecord(doc []byte, store string, log zerolog.Logger, fn func([]string) error) error {
	r := csvcodec.NewReader(bytes.NewReader(doc))
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, csvcodec.ErrMalformed) {
			log.Warn().Err(err).Str("store", store).Msg("Skipping malformed row")
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", store, err)
		}

		if err := fn(fields); err != nil {
			if !errors.Is(err, models.ErrInvalidRecord) {
				return err
			}
			log.Warn().Err(err).Str("store", store).Int("line", r.Line()).Msg("Skipping row")
		}
	}
}
