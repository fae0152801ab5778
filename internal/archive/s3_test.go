package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemservice/internal/batch"
	"itemservice/internal/env"
	"itemservice/internal/keys"
	"itemservice/internal/models"
)

// memClient is an in-memory ObjectClient.
type memClient struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
	puts    int
	statErr error
}

func newMemClient() *memClient {
	return &memClient{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (c *memClient) BucketExists(_ context.Context, bucket string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buckets[bucket], nil
}

func (c *memClient) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket] = true
	return nil
}

func (c *memClient) StatObject(_ context.Context, bucket, key string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statErr != nil {
		return minio.ObjectInfo{}, c.statErr
	}
	data, ok := c.objects[bucket+"/"+key]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	return minio.ObjectInfo{Key: key, Size: int64(len(data))}, nil
}

func (c *memClient) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[bucket+"/"+key] = data
	c.puts++
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (c *memClient) GetObject(_ context.Context, bucket, key string, _ minio.GetObjectOptions) (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[bucket+"/"+key]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey", Key: key, BucketName: bucket}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func sampleResult() *batch.Result {
	started := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	return &batch.Result{
		BatchID:     "batch-1",
		StartedAt:   started,
		CompletedAt: started.Add(250 * time.Millisecond),
		Outcomes: []batch.Outcome{
			batch.Processed(models.Item{ID: 1, Name: "Item1", Status: models.StatusProcessed, Email: "a@b.com"}),
			batch.Skipped(2, batch.ReasonNotFound),
			batch.Failed(3, batch.ErrPersistence),
		},
	}
}

func TestReportArchive_EnsureBucket(t *testing.T) {
	client := newMemClient()
	a := NewReportArchiveWithClient(client, "reports", zerolog.Nop())

	require.NoError(t, a.EnsureBucket(context.Background(), "us-east-1"))
	assert.True(t, client.buckets["reports"])

	// existing bucket is left alone
	require.NoError(t, a.EnsureBucket(context.Background(), "us-east-1"))
}

func TestReportArchive_ReportAndGet(t *testing.T) {
	client := newMemClient()
	a := NewReportArchiveWithClient(client, "reports", zerolog.Nop())
	res := sampleResult()

	require.NoError(t, a.Report(context.Background(), res))
	key := keys.BatchReport(res.BatchID, res.CompletedAt)
	assert.Equal(t, "batches/2025-03-14/batch-1.json", key)

	got, err := a.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "batch-1", got.BatchID)
	assert.True(t, res.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, map[batch.Status]int{batch.StatusProcessed: 1, batch.StatusSkipped: 1, batch.StatusFailed: 1}, got.Counts)
	require.Len(t, got.Outcomes, 3)
	assert.Equal(t, int64(1), got.Outcomes[0].ID)
	require.NotNil(t, got.Outcomes[0].Item)
	assert.Equal(t, models.StatusProcessed, got.Outcomes[0].Item.Status)
	assert.Equal(t, batch.ReasonNotFound, got.Outcomes[1].Reason)
	assert.Equal(t, batch.ErrPersistence.Error(), got.Outcomes[2].Error)
}

func TestReportArchive_DoesNotOverwrite(t *testing.T) {
	client := newMemClient()
	a := NewReportArchiveWithClient(client, "reports", zerolog.Nop())
	res := sampleResult()

	require.NoError(t, a.Report(context.Background(), res))
	res.Outcomes = nil
	require.NoError(t, a.Report(context.Background(), res))

	assert.Equal(t, 1, client.puts)
	got, err := a.Get(context.Background(), keys.BatchReport(res.BatchID, res.CompletedAt))
	require.NoError(t, err)
	assert.Len(t, got.Outcomes, 3)
}

func TestReportArchive_StatFailure(t *testing.T) {
	client := newMemClient()
	client.statErr = errors.New("connection refused")
	a := NewReportArchiveWithClient(client, "reports", zerolog.Nop())

	err := a.Report(context.Background(), sampleResult())
	assert.ErrorContains(t, err, "connection refused")
	assert.Equal(t, 0, client.puts)
}

func TestReportArchive_GetMissing(t *testing.T) {
	a := NewReportArchiveWithClient(newMemClient(), "reports", zerolog.Nop())
	_, err := a.Get(context.Background(), "batches/2025-01-01/nope.json")
	assert.Error(t, err)
}

func TestNewReportArchive_RequiresCredentials(t *testing.T) {
	_, err := NewReportArchive(env.MinioConfig{Endpoint: "localhost:9000", ReportBucket: "reports"}, zerolog.Nop())
	assert.Error(t, err)
}
