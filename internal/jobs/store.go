package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// ErrJobNotFound is returned when no status is stored for a job ID
var ErrJobNotFound = errors.New("job not found")

const keyPrefix = "render:job:"

// Store keeps render job status in Redis
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates a job store on an existing Redis client
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
		now:    time.Now,
	}
}

func jobKey(id string) string {
	return keyPrefix + id
}

// Create registers a new queued job for req and returns it
func (s *Store) Create(ctx context.Context, req models.RenderRequest) (*models.RenderJob, error) {
	now := s.now().UTC()
	job := &models.RenderJob{
		ID:        uuid.New().String(),
		Status:    models.JobStatusQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get loads a job by ID
func (s *Store) Get(ctx context.Context, id string) (*models.RenderJob, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job %s: %w", id, err)
	}

	var job models.RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

// MarkProcessing records that workerID picked up the job
func (s *Store) MarkProcessing(ctx context.Context, id, workerID string) (*models.RenderJob, error) {
	return s.update(ctx, id, func(job *models.RenderJob, now time.Time) {
		job.Status = models.JobStatusProcessing
		job.WorkerID = workerID
		job.StartedAt = &now
	})
}

// MarkCompleted records the uploaded output of a finished job
func (s *Store) MarkCompleted(ctx context.Context, id, outputKey, outputURL string) (*models.RenderJob, error) {
	return s.update(ctx, id, func(job *models.RenderJob, now time.Time) {
		job.Status = models.JobStatusCompleted
		job.OutputKey = outputKey
		job.OutputURL = outputURL
		job.ErrorMsg = ""
		job.CompletedAt = &now
	})
}

// MarkFailed records the error that ended a job
func (s *Store) MarkFailed(ctx context.Context, id string, cause error) (*models.RenderJob, error) {
	return s.update(ctx, id, func(job *models.RenderJob, now time.Time) {
		job.Status = models.JobStatusFailed
		if cause != nil {
			job.ErrorMsg = cause.Error()
		}
		job.CompletedAt = &now
	})
}

func (s *Store) update(ctx context.Context, id string, apply func(*models.RenderJob, time.Time)) (*models.RenderJob, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	apply(job, now)
	job.UpdatedAt = now

	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Store) save(ctx context.Context, job *models.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	return nil
}
