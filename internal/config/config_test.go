package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Data.Dir != "data" || cfg.Data.OwnersFile != "owners.csv" ||
		cfg.Data.PetsFile != "pets.csv" || cfg.Data.AppointmentsFile != "appointments.csv" {
		t.Errorf("Data = %+v", cfg.Data)
	}
	if cfg.Clinic.Name != "Veterinary Clinic" {
		t.Errorf("Clinic.Name = %q", cfg.Clinic.Name)
	}
	if cfg.Storage.Driver != "csv" {
		t.Errorf("Storage.Driver = %q, want csv", cfg.Storage.Driver)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Backup.S3.Enabled || cfg.Backup.S3.Region != "us-east-1" || cfg.Backup.S3.Prefix != "vet-clinic/" {
		t.Errorf("Backup.S3 = %+v", cfg.Backup.S3)
	}
	if cfg.Credentials.Backend != "file" {
		t.Errorf("Credentials.Backend = %q", cfg.Credentials.Backend)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  dir: /var/lib/vet
storage:
  driver: sqlite3
  dsn: file:/var/lib/vet/vet.db
clock:
  timezone: UTC
notify:
  whatsapp:
    enabled: true
    country_code: "44"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Data.Dir != "/var/lib/vet" || cfg.Data.PetsFile != "pets.csv" {
		t.Errorf("Data = %+v", cfg.Data)
	}
	if cfg.Storage.Driver != "sqlite3" || cfg.Storage.DSN != "file:/var/lib/vet/vet.db" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
	if !cfg.Notify.WhatsApp.Enabled || cfg.Notify.WhatsApp.CountryCode != "44" {
		t.Errorf("Notify.WhatsApp = %+v", cfg.Notify.WhatsApp)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("VET_CLINIC_DATA_DIR", "/tmp/vet")
	t.Setenv("VET_CLINIC_LOG_LEVEL", "debug")
	t.Setenv("VET_CLINIC_UI_PLAIN", "true")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Data.Dir != "/tmp/vet" {
		t.Errorf("Data.Dir = %q", cfg.Data.Dir)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if !cfg.UI.Plain {
		t.Error("UI.Plain = false")
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"driver":   "VET_CLINIC_STORAGE_DRIVER",
		"timezone": "VET_CLINIC_CLOCK_TIMEZONE",
	}

	for name, key := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(key, "Not/AReal_Value")
			if _, err := LoadConfig(""); err == nil {
				t.Errorf("LoadConfig() error = nil for bad %s", name)
			}
		})
	}
}

func TestLoadConfigMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("data: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() error = nil for malformed yaml")
	}
}

func TestLoadConfigStorageDSN(t *testing.T) {
	t.Setenv("VET_CLINIC_DATA_DIR", "/srv/vet")
	t.Setenv("VET_CLINIC_STORAGE_DRIVER", "sqlite3")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if want := filepath.Join("/srv/vet", "vet-clinic.db"); cfg.Storage.DSN != want {
		t.Errorf("Storage.DSN = %q, want %q", cfg.Storage.DSN, want)
	}

	t.Setenv("VET_CLINIC_STORAGE_DRIVER", "pgx")
	if _, err := LoadConfig(""); err == nil {
		t.Error("LoadConfig() error = nil for pgx without a dsn")
	}
}
