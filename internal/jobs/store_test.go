package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewStore(client, time.Hour)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }
	return store, mr
}

func renderRequest() models.RenderRequest {
	return models.RenderRequest{
		VideoURL:    "https://cdn.example.com/clip.mp4",
		Segments:    []models.Segment{{Start: 0, End: 2, Text: "hello"}},
		StylePreset: "minimal",
	}
}

func TestCreateAndGet(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, renderRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, time.Hour, mr.TTL(jobKey(job.ID)))

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "minimal", got.Request.StylePreset)
	assert.True(t, job.CreatedAt.Equal(got.CreatedAt))
}

func TestGetMissing(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrJobNotFound)

	_, err = store.MarkProcessing(context.Background(), "nope", "w1")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestLifecycle(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, renderRequest())
	require.NoError(t, err)

	job, err = store.MarkProcessing(ctx, job.ID, "worker-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, job.Status)
	assert.Equal(t, "worker-1", job.WorkerID)
	require.NotNil(t, job.StartedAt)
	assert.False(t, job.IsTerminal())

	job, err = store.MarkCompleted(ctx, job.ID, "renders/x.mp4", "https://minio/renders/x.mp4?sig")
	require.NoError(t, err)

	got, err := store.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
	assert.Equal(t, "renders/x.mp4", got.OutputKey)
	assert.Equal(t, "https://minio/renders/x.mp4?sig", got.OutputURL)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.IsTerminal())
}

func TestMarkFailed(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	job, err := store.Create(ctx, renderRequest())
	require.NoError(t, err)

	job, err = store.MarkFailed(ctx, job.ID, errors.New("ffmpeg exploded"))
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, "ffmpeg exploded", job.ErrorMsg)
	assert.True(t, job.IsTerminal())
}
