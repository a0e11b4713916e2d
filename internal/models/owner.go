package models

import (
	"fmt"
	"strconv"

	"vet-clinic/internal/csvcodec"
)

// Owner represents a pet owner. Name identifies the owner across the store.
type Owner struct {
	Name     string
	Age      int
	Address  string
	Phone    string
	Email    string
	Password string
	Pets     []Pet
}

// NewOwner creates an owner from a plain text password
func NewOwner(name string, age int, address, phone, email, password string) Owner {
	return Owner{
		Name:     name,
		Age:      age,
		Address:  address,
		Phone:    phone,
		Email:    email,
		Password: ObfuscatePassword(password),
	}
}

// CheckPassword reports whether password matches the stored one
func (o Owner) CheckPassword(password string) bool {
	return RevealPassword(o.Password) == password
}

// Pet returns the index of the named pet, or -1
func (o Owner) Pet(name string) int {
	for i, p := range o.Pets {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no pets slice with o
func (o Owner) Clone() Owner {
	if o.Pets != nil {
		pets := make([]Pet, len(o.Pets))
		copy(pets, o.Pets)
		o.Pets = pets
	}
	return o
}

// Record returns the owners store fields: name, age, address, phone, email,
// password. Pets are stored separately.
func (o Owner) Record() []string {
	return []string{
		o.Name,
		strconv.Itoa(o.Age),
		o.Address,
		o.Phone,
		o.Email,
		o.Password,
	}
}

// ToCSV encodes the owner as a single owners store line
func (o Owner) ToCSV() string {
	return csvcodec.Join(o.Record()...)
}

// ParseOwnerRecord is the inverse of Owner.Record
func ParseOwnerRecord(fields []string) (Owner, error) {
	if len(fields) != 6 {
		return Owner{}, fmt.Errorf("%w: owner has %d fields, want 6", ErrInvalidRecord, len(fields))
	}

	age, err := strconv.Atoi(fields[1])
	if err != nil {
		return Owner{}, fmt.Errorf("%w: owner age %q", ErrInvalidRecord, fields[1])
	}

	return Owner{
		Name:     fields[0],
		Age:      age,
		Address:  fields[2],
		Phone:    fields[3],
		Email:    fields[4],
		Password: fields[5],
	}, nil
}

// ParseOwnerCSV decodes a line produced by Owner.ToCSV
func ParseOwnerCSV(line string) (Owner, error) {
	return ParseOwnerRecord(csvcodec.Split(line))
}
