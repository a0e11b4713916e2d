package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"vet-clinic/internal/backup"
	"vet-clinic/internal/cli"
	"vet-clinic/internal/config"
	"vet-clinic/internal/credential"
	"vet-clinic/internal/handler"
	"vet-clinic/internal/logging"
	"vet-clinic/internal/notify"
	"vet-clinic/internal/storage"
	"vet-clinic/internal/whatsapp"
)

func main() {
	configPath := flag.String("config", os.Getenv(config.EnvConfigFile), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("Exiting")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := func() time.Time { return time.Now().In(loc) }

	files := storage.FileNames{
		Owners:       cfg.Data.OwnersFile,
		Pets:         cfg.Data.PetsFile,
		Appointments: cfg.Data.AppointmentsFile,
	}

	backend, err := openBackend(ctx, cfg, files, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close storage backend")
		}
	}()

	var replicas []storage.Replica
	if cfg.Backup.S3.Enabled {
		s3, err := backup.NewS3(ctx, backup.Config{
			Bucket:    cfg.Backup.S3.Bucket,
			Region:    cfg.Backup.S3.Region,
			Endpoint:  cfg.Backup.S3.Endpoint,
			Prefix:    cfg.Backup.S3.Prefix,
			PathStyle: cfg.Backup.S3.PathStyle,
		}, files, log)
		if err != nil {
			return fmt.Errorf("failed to set up backup: %w", err)
		}
		replicas = append(replicas, s3)
	}

	store := storage.NewStorage(backend, storage.Options{
		Logger:   log,
		Now:      now,
		Replicas: replicas,
	})
	// Unreadable data leaves the storage empty and read-only on disk
	if err := store.Load(ctx); err != nil {
		fmt.Printf("Warning: stored data could not be read (%v).\nChanges made in this session will not be saved.\n", err)
	}

	var notifier notify.Notifier = notify.NewLogNotifier(log)
	if cfg.Notify.WhatsApp.Enabled {
		service, err := whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir:     cfg.Notify.WhatsApp.DataDir,
			CountryCode: cfg.Notify.WhatsApp.CountryCode,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to set up WhatsApp: %w", err)
		}
		fmt.Println("Connecting to WhatsApp...")
		if err := service.Connect(ctx, os.Stdout); err != nil {
			return fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		defer service.Disconnect()
		notifier = service
	}

	creds, err := credential.Open(cfg.Credentials.Backend, cfg.Credentials.Dir)
	if err != nil {
		return err
	}
	seeded, err := creds.Seed()
	if err != nil {
		return err
	}
	for _, role := range seeded {
		log.Info().Str("role", string(role)).Msg("Stored default role password")
	}

	appointments := handler.NewAppointmentHandler(store, notifier, &handler.Config{
		ClinicName: cfg.Clinic.Name,
	}, log)

	var prompt cli.Prompter = cli.NewHuhPrompter()
	if cfg.UI.Plain {
		prompt = cli.NewLinePrompter(os.Stdin, os.Stdout)
	}

	app := cli.NewApp(store, appointments, creds, prompt, &cli.Config{
		ClinicName: cfg.Clinic.Name,
		Plain:      cfg.UI.Plain,
		Out:        os.Stdout,
	}, log)

	done := make(chan error, 1)
	go func() {
		done <- app.Run(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return err
		}
	case <-ctx.Done():
		fmt.Println("\n\nShutting down...")
	}
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, files storage.FileNames, log zerolog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
		return storage.NewSQLBackend(ctx, cfg.Storage.Driver, cfg.Storage.DSN, log)
	default:
		return storage.NewCSVBackend(cfg.Data.Dir, files, log), nil
	}
}
