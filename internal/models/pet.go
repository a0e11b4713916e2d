package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"vet-clinic/internal/csvcodec"
)

// ErrInvalidRecord is returned when a persisted row cannot be turned into a record
var ErrInvalidRecord = errors.New("invalid record")

const (
	vaccinatedYes = "Yes"
	vaccinatedNo  = "No"

	historyDateLayout = "2006-01-02"
	historySeparator  = "\n\n"
)

// Pet represents an animal registered to an owner
type Pet struct {
	Name           string
	Breed          string
	Age            int
	MedicalHistory string
	Vaccinated     bool
}

// VaccinatedLabel returns "Yes" or "No"
func (p Pet) VaccinatedLabel() string {
	if p.Vaccinated {
		return vaccinatedYes
	}
	return vaccinatedNo
}

// AppendHistory adds a dated entry to the medical history
func (p *Pet) AppendHistory(entry string, on time.Time) {
	if p.MedicalHistory != "" {
		p.MedicalHistory += historySeparator
	}
	p.MedicalHistory += "[" + on.Format(historyDateLayout) + "] " + entry
}

// Record returns the pets store fields for this pet: ownerName, petName,
// breed, age, medicalHistory, vaccinated
func (p Pet) Record(ownerName string) []string {
	return []string{
		ownerName,
		p.Name,
		p.Breed,
		strconv.Itoa(p.Age),
		p.MedicalHistory,
		p.VaccinatedLabel(),
	}
}

// ToCSV encodes the pet as a single pets store line
func (p Pet) ToCSV(ownerName string) string {
	return csvcodec.Join(p.Record(ownerName)...)
}

// ParsePetRecord is the inverse of Pet.Record
func ParsePetRecord(fields []string) (string, Pet, error) {
	if len(fields) != 6 {
		return "", Pet{}, fmt.Errorf("%w: pet has %d fields, want 6", ErrInvalidRecord, len(fields))
	}

	age, err := strconv.Atoi(fields[3])
	if err != nil {
		return "", Pet{}, fmt.Errorf("%w: pet age %q", ErrInvalidRecord, fields[3])
	}

	return fields[0], Pet{
		Name:           fields[1],
		Breed:          fields[2],
		Age:            age,
		MedicalHistory: fields[4],
		Vaccinated:     fields[5] == vaccinatedYes,
	}, nil
}

// ParsePetCSV decodes a line produced by Pet.ToCSV
func ParsePetCSV(line string) (string, Pet, error) {
	return ParsePetRecord(csvcodec.Split(line))
}
