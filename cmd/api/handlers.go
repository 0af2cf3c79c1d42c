package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/jobs"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/metrics"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/service"
	"github.com/therealutkarshpriyadarshi/subtitler/pkg/models"
)

const (
	serviceName    = "Subtitle Service"
	serviceVersion = "1.0.0"
	outputFilename = "subtitled_video.mp4"
)

// Pipeline runs the synchronous align and render requests
type Pipeline interface {
	Align(ctx context.Context, req models.AlignRequest) (*models.AlignResponse, error)
	Render(ctx context.Context, req models.RenderRequest) (*service.RenderResult, error)
	Styles() models.StyleList
}

// JobStore persists render job status
type JobStore interface {
	Create(ctx context.Context, req models.RenderRequest) (*models.RenderJob, error)
	Get(ctx context.Context, id string) (*models.RenderJob, error)
	MarkFailed(ctx context.Context, id string, cause error) (*models.RenderJob, error)
}

// JobPublisher hands render jobs to the workers
type JobPublisher interface {
	PublishJob(ctx context.Context, job *models.RenderJob) error
}

// HealthChecker reports whether an external tool can be used
type HealthChecker interface {
	CheckAvailable(ctx context.Context) error
}

// API holds the HTTP handlers. jobs and publisher are nil when async
// rendering is not configured.
type API struct {
	pipeline  Pipeline
	jobs      JobStore
	publisher JobPublisher
	ffmpeg    HealthChecker
	logger    *logging.Logger
}

func (api *API) respondError(c *gin.Context, operation string, err error) {
	failure := service.Classify(err)

	l := api.logger.WithField("operation", operation).WithField("class", string(failure.Class))
	if failure.Status >= http.StatusInternalServerError {
		l.ErrorWithErr("Request failed", err)
	} else {
		l.WarnWithErr("Request rejected", err)
	}

	c.JSON(failure.Status, gin.H{
		"error": failure.Message,
		"class": failure.Class,
	})
}

func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	body := gin.H{"status": "ok", "version": serviceVersion}
	if api.ffmpeg != nil {
		if err := api.ffmpeg.CheckAvailable(ctx); err != nil {
			body["status"] = "degraded"
			body["ffmpeg"] = err.Error()
		}
	}
	c.JSON(http.StatusOK, body)
}

func (api *API) root(c *gin.Context) {
	endpoints := gin.H{
		"align":  "/align - POST - Forced alignment of script to audio",
		"render": "/render - POST - Render video with subtitles",
		"styles": "/styles - GET - List style presets",
		"health": "/health - GET - Health check",
	}
	if api.asyncEnabled() {
		endpoints["render_jobs"] = "/render/jobs - POST - Queue a render job"
		endpoints["jobs"] = "/jobs/:id - GET - Render job status"
	}

	c.JSON(http.StatusOK, gin.H{
		"name":      serviceName,
		"version":   serviceVersion,
		"endpoints": endpoints,
	})
}

func (api *API) align(c *gin.Context) {
	var req models.AlignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "class": service.ClassBadInput})
		return
	}

	resp, err := api.pipeline.Align(c.Request.Context(), req)
	if err != nil {
		api.respondError(c, "align", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (api *API) render(c *gin.Context) {
	var req models.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "class": service.ClassBadInput})
		return
	}

	result, err := api.pipeline.Render(c.Request.Context(), req)
	if err != nil {
		api.respondError(c, "render", err)
		return
	}
	defer result.Cleanup(api.logger)

	c.Header("Content-Type", "video/mp4")
	c.FileAttachment(result.OutputPath, outputFilename)
}

func (api *API) styles(c *gin.Context) {
	c.JSON(http.StatusOK, api.pipeline.Styles())
}

func (api *API) asyncEnabled() bool {
	return api.jobs != nil && api.publisher != nil
}

func (api *API) createRenderJob(c *gin.Context) {
	if !api.asyncEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Asynchronous rendering is not enabled"})
		return
	}

	var req models.RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "class": service.ClassBadInput})
		return
	}
	req.ApplyDefaults()
	if err := models.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "class": service.ClassBadInput})
		return
	}

	ctx := c.Request.Context()
	job, err := api.jobs.Create(ctx, req)
	if err != nil {
		api.respondError(c, "create_job", err)
		return
	}

	if err := api.publisher.PublishJob(ctx, job); err != nil {
		if _, markErr := api.jobs.MarkFailed(ctx, job.ID, err); markErr != nil {
			api.logger.WithJobID(job.ID).WarnWithErr("Failed to mark unpublished job", markErr)
		}
		api.respondError(c, "publish_job", err)
		return
	}

	metrics.RecordJobCreated()
	api.logger.LogJobEvent(job.ID, "queued", job.Status, map[string]interface{}{
		"segments": len(req.Segments),
		"preset":   req.StylePreset,
	})

	c.JSON(http.StatusAccepted, job)
}

func (api *API) getJob(c *gin.Context) {
	if !api.asyncEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Asynchronous rendering is not enabled"})
		return
	}

	job, err := api.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, jobs.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		api.respondError(c, "get_job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}
