package tasks

// TaskSchedulerInterface defines the interface for background task scheduling.
// Used by the main application and the API handlers to run ingestion and
// generation work off the request path.
// Example usage:
//
//	scheduler := NewScheduler(sourceRepo, newsRepo, httpClient, parser, extractor, engine)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewFetchNewsTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
