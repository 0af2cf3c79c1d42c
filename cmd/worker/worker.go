package main

import (
	"context"
	"os"
	"time"

	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/metrics"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/queue"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/service"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

// Renderer burns subtitles into a video
type Renderer interface {
	Render(ctx context.Context, req models.RenderRequest) (*service.RenderResult, error)
}

// StatusStore records job progress
type StatusStore interface {
	MarkProcessing(ctx context.Context, id, workerID string) (*models.RenderJob, error)
	MarkCompleted(ctx context.Context, id, outputKey, outputURL string) (*models.RenderJob, error)
	MarkFailed(ctx context.Context, id string, cause error) (*models.RenderJob, error)
}

// Uploader stores a rendered video and returns its key and download URL
type Uploader interface {
	UploadRender(ctx context.Context, jobID, filePath string) (string, string, error)
	Delete(ctx context.Context, objectName string) error
	Bucket() string
}

// Worker processes queued render jobs
type Worker struct {
	id       string
	renderer Renderer
	jobs     StatusStore
	uploader Uploader
	logger   *logging.Logger
}

// Handle renders one job. Bad input fails the job for good; processing
// failures are returned for retry and only mark the job failed on the last
// attempt.
func (w *Worker) Handle(ctx context.Context, job *models.RenderJob, attempt int) error {
	logger := w.logger.WithJobID(job.ID).WithField("attempt", attempt)
	start := time.Now()

	if _, err := w.jobs.MarkProcessing(ctx, job.ID, w.id); err != nil {
		logger.WarnWithErr("Failed to mark job processing", err)
	}
	metrics.RecordJobStarted()

	key, url, err := w.process(ctx, job)
	logger.LogRender(job.ID, job.Request.StylePreset, "", time.Since(start), err)

	if err == nil {
		_, err = w.jobs.MarkCompleted(ctx, job.ID, key, url)
		if err == nil {
			metrics.RecordJobCompleted(models.JobStatusCompleted)
			return nil
		}
		logger.WarnWithErr("Failed to mark job completed, discarding upload", err)
		if delErr := w.uploader.Delete(ctx, key); delErr != nil {
			logger.WarnWithErr("Failed to delete uploaded render", delErr)
		}
	}

	permanent := service.Classify(err).Class == service.ClassBadInput
	if permanent || attempt >= queue.MaxRetries {
		if _, markErr := w.jobs.MarkFailed(ctx, job.ID, err); markErr != nil {
			logger.WarnWithErr("Failed to mark job failed", markErr)
		}
		metrics.RecordJobCompleted(models.JobStatusFailed)
	} else {
		metrics.RecordJobCompleted("retry")
	}

	if permanent {
		return queue.Permanent(err)
	}
	return err
}

func (w *Worker) process(ctx context.Context, job *models.RenderJob) (string, string, error) {
	result, err := w.renderer.Render(ctx, job.Request)
	if err != nil {
		return "", "", err
	}
	defer result.Cleanup(w.logger)

	var size int64
	if info, statErr := os.Stat(result.OutputPath); statErr == nil {
		size = info.Size()
	}

	start := time.Now()
	key, url, err := w.uploader.UploadRender(ctx, job.ID, result.OutputPath)
	w.logger.LogStorageOperation("upload", w.uploader.Bucket(), key, size, time.Since(start), err)
	return key, url, err
}
