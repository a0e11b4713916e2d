package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// CSVBackend keeps the three stores as comma separated files in one directory
type CSVBackend struct {
	dir   string
	files FileNames
	log   zerolog.Logger
}

// NewCSVBackend creates a backend rooted at dir
func NewCSVBackend(dir string, files FileNames, log zerolog.Logger) *CSVBackend {
	return &CSVBackend{
		dir:   dir,
		files: files.WithDefaults(),
		log:   log.With().Str("component", "csv").Logger(),
	}
}

// Load reads all three files. A missing file is an empty store.
func (b *CSVBackend) Load(ctx context.Context) (Snapshot, error) {
	var docs Documents
	targets := []struct {
		name string
		dst  *[]byte
	}{
		{b.files.Owners, &docs.Owners},
		{b.files.Pets, &docs.Pets},
		{b.files.Appointments, &docs.Appointments},
	}

	for _, t := range targets {
		data, err := os.ReadFile(filepath.Join(b.dir, t.name))
		if errors.Is(err, fs.ErrNotExist) {
			b.log.Debug().Str("file", t.name).Msg("Store file not found, starting empty")
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("failed to read %s: %w", t.name, err)
		}
		*t.dst = data
	}

	return DecodeDocuments(docs, b.log)
}

// Save writes all three files. Each file is first written to a temporary
// file next to it; the originals are only replaced once every temporary
// file has been written and synced.
func (b *CSVBackend) Save(ctx context.Context, snap Snapshot) error {
	docs, err := EncodeDocuments(snap)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	pending := []struct {
		name string
		data []byte
		tmp  string
	}{
		{name: b.files.Owners, data: docs.Owners},
		{name: b.files.Pets, data: docs.Pets},
		{name: b.files.Appointments, data: docs.Appointments},
	}

	defer func() {
		for _, p := range pending {
			if p.tmp != "" {
				_ = os.Remove(p.tmp)
			}
		}
	}()

	for i := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		tmp, err := writeTemp(b.dir, pending[i].name, pending[i].data)
		if err != nil {
			return err
		}
		pending[i].tmp = tmp
	}

	for i, p := range pending {
		if err := os.Rename(p.tmp, filepath.Join(b.dir, p.name)); err != nil {
			return fmt.Errorf("failed to replace %s: %w", p.name, err)
		}
		pending[i].tmp = ""
	}

	b.log.Debug().Int("owners", len(snap.Owners)).Int("appointments", len(snap.Appointments)).Msg("Saved stores")
	return nil
}

// Close is a no-op
func (b *CSVBackend) Close() error {
	return nil
}

func writeTemp(dir, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to set mode on %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	return tmp.Name(), nil
}
