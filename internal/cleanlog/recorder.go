package cleanlog

import (
	"context"
	"time"

	"github.com/nerrad567/ozmo-core/internal/events"
)

// writeTimeout bounds each recorder write so a stuck database cannot
// stall event delivery for other subscribers.
const writeTimeout = 5 * time.Second

// Recorder persists clean-log and status events as they are published.
type Recorder struct {
	repo   *Repository
	logger events.Logger

	logSub    *events.Subscription[events.CleanLogEvent]
	statusSub *events.Subscription[events.StatusEvent]
}

// NewRecorder subscribes the repository to the bundle's clean-log and
// status emitters. Stop detaches the subscriptions.
func NewRecorder(repo *Repository, bundle *events.Bundle, logger events.Logger) *Recorder {
	r := &Recorder{repo: repo, logger: logger}
	if r.logger == nil {
		r.logger = noop{}
	}
	r.logSub = bundle.CleanLogs.Subscribe(r.onCleanLogs)
	r.statusSub = bundle.Status.Subscribe(r.onStatus)
	return r
}

// Stop detaches the recorder from the emitters.
func (r *Recorder) Stop() {
	r.logSub.Cancel()
	r.statusSub.Cancel()
}

func (r *Recorder) onCleanLogs(event events.CleanLogEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.UpsertLogs(ctx, event.Logs); err != nil {
		r.logger.Error("persisting clean logs", "count", len(event.Logs), "error", err)
		return err
	}
	return nil
}

func (r *Recorder) onStatus(event events.StatusEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.repo.RecordStatus(ctx, event); err != nil {
		r.logger.Error("persisting status transition", "error", err)
		return err
	}
	return nil
}

type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
