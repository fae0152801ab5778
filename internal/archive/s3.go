// Package archive stores completed batch reports in S3-compatible object
// storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"itemservice/internal/batch"
	"itemservice/internal/env"
	"itemservice/internal/keys"
)

// ObjectClient is the subset of the MinIO client used by the archive.
type ObjectClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// minioClient adapts *minio.Client to ObjectClient.
type minioClient struct {
	*minio.Client
}

func (c minioClient) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return c.Client.GetObject(ctx, bucketName, objectName, opts)
}

// Report is the archived document of one batch.
type Report struct {
	BatchID     string               `json:"batch_id"`
	StartedAt   time.Time            `json:"started_at"`
	CompletedAt time.Time            `json:"completed_at"`
	Counts      map[batch.Status]int `json:"counts"`
	Outcomes    []batch.Entry        `json:"outcomes"`
}

// NewReport converts a completed result into its archived form.
func NewReport(result *batch.Result) Report {
	entries := make([]batch.Entry, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		entries = append(entries, o.Entry())
	}
	return Report{
		BatchID:     result.BatchID,
		StartedAt:   result.StartedAt,
		CompletedAt: result.CompletedAt,
		Counts:      result.Counts(),
		Outcomes:    entries,
	}
}

// ReportArchive writes batch reports to a bucket. It implements batch.Sink.
type ReportArchive struct {
	client ObjectClient
	bucket string
	log    zerolog.Logger
}

// NewReportArchive connects to the MinIO endpoint described by cfg.
func NewReportArchive(cfg env.MinioConfig, log zerolog.Logger) (*ReportArchive, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("missing one or more required settings: MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.ReportBucket).Msg("Using MinIO report archive")
	return NewReportArchiveWithClient(minioClient{client}, cfg.ReportBucket, log), nil
}

// NewReportArchiveWithClient returns an archive using an existing client.
func NewReportArchiveWithClient(client ObjectClient, bucket string, log zerolog.Logger) *ReportArchive {
	return &ReportArchive{
		client: client,
		bucket: bucket,
		log:    log.With().Str("component", "archive").Logger(),
	}
}

// EnsureBucket creates the report bucket if it does not exist.
func (a *ReportArchive) EnsureBucket(ctx context.Context, location string) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("error checking bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Report stores the result under keys.BatchReport. An existing report with
// the same key is never overwritten.
func (a *ReportArchive) Report(ctx context.Context, result *batch.Result) error {
	objectKey := keys.BatchReport(result.BatchID, result.CompletedAt)

	_, err := a.client.StatObject(ctx, a.bucket, objectKey, minio.StatObjectOptions{})
	if err == nil {
		a.log.Warn().Str("key", objectKey).Msg("Batch report already archived, ignoring write")
		return nil
	}
	if minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("failed to check for existing report: %w", err)
	}

	data, err := json.Marshal(NewReport(result))
	if err != nil {
		return fmt.Errorf("failed to marshal batch report: %w", err)
	}
	_, err = a.client.PutObject(ctx, a.bucket, objectKey, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to store batch report: %w", err)
	}

	a.log.Info().Str("batch_id", result.BatchID).Str("key", objectKey).Msg("Archived batch report")
	return nil
}

// Get loads an archived report by object key.
func (a *ReportArchive) Get(ctx context.Context, objectKey string) (*Report, error) {
	object, err := a.client.GetObject(ctx, a.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	defer object.Close()

	var report Report
	if err := json.NewDecoder(object).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", objectKey, err)
	}
	return &report, nil
}
