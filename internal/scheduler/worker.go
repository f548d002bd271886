package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"estateflow_backend/internal/scoring/service"
	"estateflow_backend/platform/config"
	"estateflow_backend/platform/logger"
)

// Rescorer is the orchestrator surface the worker drives.
type Rescorer interface {
	Rescore(ctx context.Context, params service.RescoreParams) (service.RescoreResult, error)
}

// pageEnqueuer queues the follow-up task for the next page.
type pageEnqueuer interface {
	EnqueueRescore(ctx context.Context, params service.RescoreParams) error
}

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	client  pageEnqueuer
	scoring Rescorer
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, scoring Rescorer, client *Client, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		scoring: scoring,
		log:     log,
	}
	if client != nil {
		w.client = client
	}

	mux.HandleFunc(TaskRescoreAll, w.handleRescoreAll)

	return w, nil
}

func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// handleRescoreAll processes one page and re-enqueues itself for the next
// page while the orchestrator reports more work. One task per page keeps
// each unit of work small and retryable.
func (w *Worker) handleRescoreAll(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseRescoreAllPayload(task)
	if err != nil {
		return err
	}

	params := service.RescoreParams{
		OnlyUnscored: payload.OnlyUnscored,
		Limit:        payload.PageSize,
		Offset:       payload.Offset,
	}
	if payload.CompanyID != "" {
		companyID, err := uuid.Parse(payload.CompanyID)
		if err != nil {
			return fmt.Errorf("bad company id %q: %w", payload.CompanyID, err)
		}
		params.CompanyID = &companyID
	}

	result, err := w.scoring.Rescore(ctx, params)
	if err != nil {
		return err
	}

	w.log.Info("background rescore page done",
		"offset", params.Offset,
		"scored", result.Scored,
		"failed", result.Failed,
		"has_more", result.HasMore,
	)

	if result.HasMore && w.client != nil {
		if payload.OnlyUnscored {
			// Scored rows leave the unscored filter, so the next page
			// already starts where this one did. Only rows that failed
			// are stepped over, or they would be retried forever.
			params.Offset = payload.Offset + result.Failed
		} else {
			params.Offset = result.NextOffset
		}
		if err := w.client.EnqueueRescore(ctx, params); err != nil {
			return fmt.Errorf("enqueue next page: %w", err)
		}
	}
	return nil
}
