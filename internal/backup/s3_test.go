package backup

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"vet-clinic/internal/models"
	"vet-clinic/internal/storage"
)

type fakeS3 struct {
	objects map[string]string
	failOn  string
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = make(map[string]string)
	}
	f.objects[aws.ToString(in.Bucket)+"/"+key] = string(body)
	return &s3.PutObjectOutput{}, nil
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 30, 45, 0, time.UTC)
}

func TestReplicateUploadsThreeDocuments(t *testing.T) {
	client := &fakeS3{}
	b := newS3(client, Config{Bucket: "vet", Prefix: "clinic/"}, storage.FileNames{}, fixedNow, zerolog.Nop())

	snap := storage.Snapshot{
		Owners: []models.Owner{{Name: "Jane Doe", Age: 34, Pets: []models.Pet{{Name: "Rex", Age: 3, Vaccinated: true}}}},
		Appointments: []models.Appointment{
			{Date: "2999-01-01", Time: "09:00", OwnerName: "Jane Doe", PetName: "Rex", Status: models.StatusScheduled},
		},
	}
	if err := b.Replicate(context.Background(), snap); err != nil {
		t.Fatalf("Replicate() error = %v", err)
	}

	want := map[string]string{
		"vet/clinic/20250615T123045Z/owners.csv":       "Jane Doe,34,,,,\n",
		"vet/clinic/20250615T123045Z/pets.csv":         "Jane Doe,Rex,,3,,Yes\n",
		"vet/clinic/20250615T123045Z/appointments.csv": "2999-01-01,09:00,Rex,Jane Doe,Scheduled\n",
	}
	if len(client.objects) != len(want) {
		t.Fatalf("uploaded %v", client.objects)
	}
	for key, body := range want {
		if client.objects[key] != body {
			t.Errorf("object %s = %q, want %q", key, client.objects[key], body)
		}
	}
}

func TestReplicateReportsUploadFailure(t *testing.T) {
	client := &fakeS3{failOn: "20250615T123045Z/pets.csv"}
	b := newS3(client, Config{Bucket: "vet"}, storage.FileNames{}, fixedNow, zerolog.Nop())

	if err := b.Replicate(context.Background(), storage.Snapshot{}); err == nil {
		t.Fatal("Replicate() error = nil")
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	if _, err := NewS3(context.Background(), Config{}, storage.FileNames{}, zerolog.Nop()); err == nil {
		t.Error("NewS3() error = nil without bucket")
	}
}
