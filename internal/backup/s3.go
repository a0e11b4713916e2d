// Package backup copies every saved snapshot to an S3 compatible bucket.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"vet-clinic/internal/storage"
)

// putObjectAPI is the part of the S3 client used here
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds the bucket settings
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, e.g. a MinIO URL
	Prefix    string
	PathStyle bool
}

// S3 uploads the three store documents under <prefix><timestamp>/
type S3 struct {
	client putObjectAPI
	bucket string
	prefix string
	files  storage.FileNames
	now    func() time.Time
	log    zerolog.Logger
}

// NewS3 builds an S3 client from the default AWS credential chain
func NewS3(ctx context.Context, cfg Config, files storage.FileNames, log zerolog.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newS3(client, cfg, files, time.Now, log), nil
}

func newS3(client putObjectAPI, cfg Config, files storage.FileNames, now func() time.Time, log zerolog.Logger) *S3 {
	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		files:  files.WithDefaults(),
		now:    now,
		log:    log.With().Str("component", "backup").Str("bucket", cfg.Bucket).Logger(),
	}
}

// Replicate uploads snap as the three store documents
func (b *S3) Replicate(ctx context.Context, snap storage.Snapshot) error {
	docs, err := storage.EncodeDocuments(snap)
	if err != nil {
		return err
	}

	dir := b.prefix + b.now().UTC().Format("20060102T150405Z")
	objects := []struct {
		name string
		data []byte
	}{
		{b.files.Owners, docs.Owners},
		{b.files.Pets, docs.Pets},
		{b.files.Appointments, docs.Appointments},
	}

	for _, obj := range objects {
		key := path.Join(dir, obj.name)
		_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(obj.data),
			ContentType: aws.String("text/csv"),
		})
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}
	}

	b.log.Debug().Str("prefix", dir).Msg("Uploaded backup")
	return nil
}
