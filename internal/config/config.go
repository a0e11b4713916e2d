package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VET_CLINIC_DATA_DIR
const EnvPrefix = "VET_CLINIC"

// EnvConfigFile names the variable holding the config file path
const EnvConfigFile = EnvPrefix + "_CONFIG"

// Config holds the application configuration
type Config struct {
	Clinic      ClinicConfig      `mapstructure:"clinic"`
	Data        DataConfig        `mapstructure:"data"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Log         LogConfig         `mapstructure:"log"`
	Clock       ClockConfig       `mapstructure:"clock"`
	UI          UIConfig          `mapstructure:"ui"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	Backup      BackupConfig      `mapstructure:"backup"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
}

// ClinicConfig names the clinic in menus and messages
type ClinicConfig struct {
	Name string `mapstructure:"name"`
}

// DataConfig locates the store files
type DataConfig struct {
	Dir              string `mapstructure:"dir"`
	OwnersFile       string `mapstructure:"owners_file"`
	PetsFile         string `mapstructure:"pets_file"`
	AppointmentsFile string `mapstructure:"appointments_file"`
}

// StorageConfig selects the backend: csv, sqlite3 or pgx
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig sets the zerolog level and output format
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClockConfig sets the timezone used to judge past dates
type ClockConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// UIConfig switches between styled prompts and plain line input
type UIConfig struct {
	Plain bool `mapstructure:"plain"`
}

// NotifyConfig configures owner notifications
type NotifyConfig struct {
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
}

// WhatsAppConfig configures the WhatsApp session used for notifications
type WhatsAppConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DataDir     string `mapstructure:"data_dir"`
	CountryCode string `mapstructure:"country_code"`
}

// BackupConfig configures replicas of the stores
type BackupConfig struct {
	S3 S3Config `mapstructure:"s3"`
}

// S3Config configures the off-site copy of the stores
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	Prefix    string `mapstructure:"prefix"`
	PathStyle bool   `mapstructure:"path_style"`
}

// CredentialsConfig selects the keyring holding the staff role passwords
type CredentialsConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("clinic.name", "Veterinary Clinic")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.owners_file", "owners.csv")
	v.SetDefault("data.pets_file", "pets.csv")
	v.SetDefault("data.appointments_file", "appointments.csv")
	v.SetDefault("storage.driver", "csv")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("clock.timezone", "Local")
	v.SetDefault("ui.plain", false)
	v.SetDefault("notify.whatsapp.enabled", false)
	v.SetDefault("notify.whatsapp.data_dir", "data/whatsapp")
	v.SetDefault("notify.whatsapp.country_code", "")
	v.SetDefault("backup.s3.enabled", false)
	v.SetDefault("backup.s3.bucket", "")
	v.SetDefault("backup.s3.region", "us-east-1")
	v.SetDefault("backup.s3.endpoint", "")
	v.SetDefault("backup.s3.prefix", "vet-clinic/")
	v.SetDefault("backup.s3.path_style", false)
	v.SetDefault("credentials.backend", "file")
	v.SetDefault("credentials.dir", "data/credentials")
}

// LoadConfig loads configuration from defaults, the optional YAML file at
// path and VET_CLINIC_* environment variables, in increasing priority.
// A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	switch cfg.Storage.Driver {
	case "csv":
	case "sqlite3":
		if cfg.Storage.DSN == "" {
			cfg.Storage.DSN = filepath.Join(cfg.Data.Dir, "vet-clinic.db")
		}
	case "pgx":
		if cfg.Storage.DSN == "" {
			return nil, fmt.Errorf("storage.dsn is required for the pgx driver")
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	return cfg, nil
}

// Location returns the time zone appointments are read in
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Clock.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Clock.Timezone, err)
	}
	return loc, nil
}
