// Package credential keeps the shared passwords of the staff roles.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"

	"vet-clinic/internal/models"
)

const serviceName = "vet-clinic"

// ErrWrongPassword is returned by Verify for a mismatch
var ErrWrongPassword = errors.New("incorrect password")

// DefaultPasswords are written by Seed for roles that have no password yet
var DefaultPasswords = map[models.Role]string{
	models.RoleAdmin: "admin123",
	models.RoleVet:   "vet456",
	models.RoleStaff: "staff789",
}

// Store reads and writes role passwords in a keyring
type Store struct {
	ring keyring.Keyring
}

// Open opens the keyring selected by backend: "file" keeps an encrypted
// file under dir, "system" prefers the OS keychain and falls back to the file
func Open(backend, dir string) (*Store, error) {
	allowed := []keyring.BackendType{keyring.FileBackend}
	switch backend {
	case "", "file":
	case "system":
		allowed = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		}
	default:
		return nil, fmt.Errorf("unsupported credentials backend %q", backend)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              serviceName,
		AllowedBackends:          allowed,
		FileDir:                  dir,
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return New(ring), nil
}

// New wraps an already opened keyring
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Seed stores the default password of every staff role that has none and
// returns the roles it seeded
func (s *Store) Seed() ([]models.Role, error) {
	var seeded []models.Role
	for _, role := range models.StaffRoles {
		_, err := s.ring.Get(string(role))
		if err == nil {
			continue
		}
		if !errors.Is(err, keyring.ErrKeyNotFound) {
			return seeded, fmt.Errorf("failed to read password for %s: %w", role, err)
		}
		if err := s.SetPassword(role, DefaultPasswords[role]); err != nil {
			return seeded, err
		}
		seeded = append(seeded, role)
	}
	return seeded, nil
}

// Verify checks the password of a staff role
func (s *Store) Verify(role models.Role, password string) error {
	item, err := s.ring.Get(string(role))
	if err != nil {
		return fmt.Errorf("failed to read password for %s: %w", role, err)
	}
	if string(item.Data) != password {
		return ErrWrongPassword
	}
	return nil
}

// SetPassword replaces the password of a staff role
func (s *Store) SetPassword(role models.Role, password string) error {
	err := s.ring.Set(keyring.Item{
		Key:         string(role),
		Data:        []byte(password),
		Label:       serviceName + " " + string(role),
		Description: "role password",
	})
	if err != nil {
		return fmt.Errorf("failed to store password for %s: %w", role, err)
	}
	return nil
}
