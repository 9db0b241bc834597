package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/zyjarge/podcast-studio/app/cfg"
	"github.com/zyjarge/podcast-studio/app/database"
	"github.com/zyjarge/podcast-studio/app/ingest"
	"github.com/zyjarge/podcast-studio/app/pipeline"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	sourceRepo  database.SourceRepository
	newsRepo    database.NewsRepository
	httpClient  *http.Client
	parser      *ingest.Parser
	extractor   *ingest.ContentExtractor
	engine      *pipeline.Engine
	userAgent   string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(sourceRepo database.SourceRepository, newsRepo database.NewsRepository,
	httpClient *http.Client, parser *ingest.Parser, extractor *ingest.ContentExtractor,
	engine *pipeline.Engine) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		sourceRepo:  sourceRepo,
		newsRepo:    newsRepo,
		httpClient:  httpClient,
		parser:      parser,
		extractor:   extractor,
		engine:      engine,
		userAgent:   cfg.UserAgent,
		interval:    time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount: cfg.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueFetchTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueFetchTasks()
			}
		}
	}()

}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueFetchTasks schedules a refresh for every enabled auto-mode source
// that is due. Manual sources are only fetched via the API.
func (s *Scheduler) enqueueFetchTasks() {
	sources, err := s.sourceRepo.ListEnabledSources()
	if err != nil {
		slog.Warn("Failed to list enabled sources for scheduling", "error", err)
		return
	}
	if len(sources) == 0 {
		slog.Debug("No enabled sources found")
		return
	}

	now := time.Now().UTC()
	for _, source := range sources {
		if !source.AutoMode {
			slog.Debug("Source not in auto mode, skipping", "source", source.Name)
			continue
		}

		if source.LastFetchedAt != nil && source.LastFetchedAt.Add(s.interval).After(now) {
			slog.Debug("Source not due for refresh yet", "source", source.Name, "last_fetched_at", source.LastFetchedAt)
			continue
		}

		fetchTask := NewFetchNewsTask(source, s.httpClient, s.parser, s.extractor, s.sourceRepo, s.newsRepo, s.userAgent)
		if err := s.EnqueueTask(fetchTask); err != nil {
			slog.Warn("Failed to enqueue FetchNewsTask", "source", source.Name, "error", err)
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	timeout := 5 * time.Minute
	if task.GetType() == TaskTypeGenerateEpisode {
		// A full episode batch makes one remote call per link; give it room.
		timeout = 30 * time.Minute
	}

	taskCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
