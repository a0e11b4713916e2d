package storage

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"vet-clinic/internal/models"
)

// SQL drivers accepted by NewSQLBackend
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS owners (
		seq      INTEGER NOT NULL,
		name     TEXT PRIMARY KEY,
		age      INTEGER NOT NULL,
		address  TEXT NOT NULL,
		phone    TEXT NOT NULL,
		email    TEXT NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pets (
		seq             INTEGER NOT NULL,
		owner_name      TEXT NOT NULL,
		name            TEXT NOT NULL,
		breed           TEXT NOT NULL,
		age             INTEGER NOT NULL,
		medical_history TEXT NOT NULL,
		vaccinated      TEXT NOT NULL,
		PRIMARY KEY (owner_name, name)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		seq        INTEGER NOT NULL,
		appt_date  TEXT NOT NULL,
		appt_time  TEXT NOT NULL,
		pet_name   TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		status     TEXT NOT NULL
	)`,
}

type ownerRow struct {
	Seq      int    `db:"seq"`
	Name     string `db:"name"`
	Age      int    `db:"age"`
	Address  string `db:"address"`
	Phone    string `db:"phone"`
	Email    string `db:"email"`
	Password string `db:"password"`
}

type petRow struct {
	Seq            int    `db:"seq"`
	OwnerName      string `db:"owner_name"`
	Name           string `db:"name"`
	Breed          string `db:"breed"`
	Age            int    `db:"age"`
	MedicalHistory string `db:"medical_history"`
	Vaccinated     string `db:"vaccinated"`
}

type appointmentRow struct {
	Seq       int    `db:"seq"`
	Date      string `db:"appt_date"`
	Time      string `db:"appt_time"`
	PetName   string `db:"pet_name"`
	OwnerName string `db:"owner_name"`
	Status    string `db:"status"`
}

// SQLBackend keeps the three stores as tables in a SQLite or PostgreSQL
// database. Every save replaces the table contents in one transaction.
type SQLBackend struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewSQLBackend opens the database and creates the tables if needed
func NewSQLBackend(ctx context.Context, driver, dsn string, log zerolog.Logger) (*SQLBackend, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &SQLBackend{
		db:  db,
		log: log.With().Str("component", "sql").Str("driver", driver).Logger(),
	}, nil
}

// Load reads every table in insertion order
func (b *SQLBackend) Load(ctx context.Context) (Snapshot, error) {
	var (
		owners []ownerRow
		pets   []petRow
		appts  []appointmentRow
	)

	if err := b.db.SelectContext(ctx, &owners, "SELECT * FROM owners ORDER BY seq"); err != nil {
		return Snapshot{}, fmt.Errorf("failed to query owners: %w", err)
	}
	if err := b.db.SelectContext(ctx, &pets, "SELECT * FROM pets ORDER BY seq"); err != nil {
		return Snapshot{}, fmt.Errorf("failed to query pets: %w", err)
	}
	if err := b.db.SelectContext(ctx, &appts, "SELECT * FROM appointments ORDER BY seq"); err != nil {
		return Snapshot{}, fmt.Errorf("failed to query appointments: %w", err)
	}

	var snap Snapshot
	index := make(map[string]int, len(owners))
	for _, r := range owners {
		index[r.Name] = len(snap.Owners)
		snap.Owners = append(snap.Owners, models.Owner{
			Name:     r.Name,
			Age:      r.Age,
			Address:  r.Address,
			Phone:    r.Phone,
			Email:    r.Email,
			Password: r.Password,
		})
	}

	for _, r := range pets {
		i, ok := index[r.OwnerName]
		if !ok {
			b.log.Warn().Str("owner", r.OwnerName).Str("pet", r.Name).Msg("Skipping pet of unknown owner")
			continue
		}
		snap.Owners[i].Pets = append(snap.Owners[i].Pets, models.Pet{
			Name:           r.Name,
			Breed:          r.Breed,
			Age:            r.Age,
			MedicalHistory: r.MedicalHistory,
			Vaccinated:     r.Vaccinated == "Yes",
		})
	}

	slots := make(activeSlots)
	for _, r := range appts {
		status, err := models.ParseStatus(r.Status)
		if err != nil {
			b.log.Warn().Err(err).Int("seq", r.Seq).Msg("Skipping appointment")
			continue
		}
		a := models.Appointment{
			Date:      r.Date,
			Time:      r.Time,
			OwnerName: r.OwnerName,
			PetName:   r.PetName,
			Status:    status,
		}
		if !slots.claim(a) {
			b.log.Warn().Int("seq", r.Seq).Str("date", a.Date).Str("time", a.Time).Msg("Skipping appointment in an already booked slot")
			continue
		}
		snap.Appointments = append(snap.Appointments, a)
	}

	return snap, nil
}

// Save replaces the contents of every table with snap
func (b *SQLBackend) Save(ctx context.Context, snap Snapshot) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"appointments", "pets", "owners"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	const (
		insertOwner = `INSERT INTO owners (seq, name, age, address, phone, email, password)
			VALUES (:seq, :name, :age, :address, :phone, :email, :password)`
		insertPet = `INSERT INTO pets (seq, owner_name, name, breed, age, medical_history, vaccinated)
			VALUES (:seq, :owner_name, :name, :breed, :age, :medical_history, :vaccinated)`
		insertAppointment = `INSERT INTO appointments (seq, appt_date, appt_time, pet_name, owner_name, status)
			VALUES (:seq, :appt_date, :appt_time, :pet_name, :owner_name, :status)`
	)

	petSeq := 0
	for i, o := range snap.Owners {
		row := ownerRow{
			Seq:      i,
			Name:     o.Name,
			Age:      o.Age,
			Address:  o.Address,
			Phone:    o.Phone,
			Email:    o.Email,
			Password: o.Password,
		}
		if _, err := tx.NamedExecContext(ctx, insertOwner, row); err != nil {
			return fmt.Errorf("failed to insert owner %s: %w", o.Name, err)
		}

		for _, p := range o.Pets {
			row := petRow{
				Seq:            petSeq,
				OwnerName:      o.Name,
				Name:           p.Name,
				Breed:          p.Breed,
				Age:            p.Age,
				MedicalHistory: p.MedicalHistory,
				Vaccinated:     p.VaccinatedLabel(),
			}
			if _, err := tx.NamedExecContext(ctx, insertPet, row); err != nil {
				return fmt.Errorf("failed to insert pet %s: %w", p.Name, err)
			}
			petSeq++
		}
	}

	for i, a := range snap.Appointments {
		row := appointmentRow{
			Seq:       i,
			Date:      a.Date,
			Time:      a.Time,
			PetName:   a.PetName,
			OwnerName: a.OwnerName,
			Status:    string(a.Status),
		}
		if _, err := tx.NamedExecContext(ctx, insertAppointment, row); err != nil {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close closes the database
func (b *SQLBackend) Close() error {
	return b.db.Close()
}
