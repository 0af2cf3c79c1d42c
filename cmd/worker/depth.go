package main

import (
	"context"
	"time"

	"github.com/therealutkarshpriyadarshi/subtitler/internal/logging"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/metrics"
	"github.com/therealutkarshpriyadarshi/subtitler/internal/queue"
)

const depthInterval = 15 * time.Second

// QueueInspector reports how many messages are waiting
type QueueInspector interface {
	GetQueueDepth() (int, error)
	GetDLQDepth() (int, error)
}

func sampleQueueDepth(q QueueInspector, logger *logging.Logger) {
	if depth, err := q.GetQueueDepth(); err != nil {
		logger.WarnWithErr("Failed to inspect render queue", err)
	} else {
		metrics.RecordQueueDepth(queue.RenderQueueName, depth)
	}

	if depth, err := q.GetDLQDepth(); err != nil {
		logger.WarnWithErr("Failed to inspect dead letter queue", err)
	} else {
		metrics.RecordQueueDepth(queue.DeadLetterQueueName, depth)
	}
}

// reportQueueDepth samples queue backlogs until ctx is cancelled
func reportQueueDepth(ctx context.Context, q QueueInspector, interval time.Duration, logger *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sampleQueueDepth(q, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sampleQueueDepth(q, logger)
		}
	}
}
