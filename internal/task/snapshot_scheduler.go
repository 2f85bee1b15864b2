package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vedhika/samsara-api/internal/events"
)

// SnapshotScheduler emits an audit snapshot request shortly after each
// UTC midnight, sealing the day that just ended. The event handler turns
// the request into an AuditSnapshotTask on the runner.
type SnapshotScheduler struct {
	emitter events.EventEmitter
	logger  *slog.Logger

	// checkInterval bounds how often the scheduler wakes up. The day
	// boundary check is cheap, so a coarse interval is fine.
	checkInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSnapshotScheduler creates a scheduler that publishes snapshot
// requests through the given emitter. A zero checkInterval defaults to
// one minute.
func NewSnapshotScheduler(
	emitter events.EventEmitter,
	checkInterval time.Duration,
	logger *slog.Logger,
) *SnapshotScheduler {
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &SnapshotScheduler{
		emitter:       emitter,
		logger:        logger.With("component", "snapshot_scheduler"),
		checkInterval: checkInterval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start launches the scheduling goroutine.
func (s *SnapshotScheduler) Start() {
	s.wg.Add(1)
	go s.run()
}

// Stop signals the scheduler to exit and waits for it.
func (s *SnapshotScheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *SnapshotScheduler) run() {
	defer s.wg.Done()

	// Track the day we last requested so a wakeup inside the same day is
	// a no-op.
	lastSealed := time.Now().UTC().Truncate(24 * time.Hour)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.logger.Info("snapshot scheduler started", "check_interval", s.checkInterval.String())

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("snapshot scheduler stopped")
			return

		case <-ticker.C:
			today := time.Now().UTC().Truncate(24 * time.Hour)
			if !today.After(lastSealed) {
				continue
			}

			// The day rolled over; seal the previous one.
			previous := today.AddDate(0, 0, -1)
			if err := s.requestSnapshot(previous); err != nil {
				// Leave lastSealed alone so the next tick retries.
				s.logger.Error("failed to request snapshot",
					"date", previous.Format("2006-01-02"),
					"error", err)
				continue
			}
			lastSealed = today
		}
	}
}

func (s *SnapshotScheduler) requestSnapshot(day time.Time) error {
	payload := struct {
		Date string `json:"date"`
	}{Date: day.Format("2006-01-02")}

	event, err := events.NewTaskRequestEvent(TaskTypeAuditSnapshot, payload)
	if err != nil {
		return err
	}

	if err := s.emitter.EmitEvent(s.ctx, event); err != nil {
		return err
	}

	s.logger.Info("snapshot requested", "date", payload.Date, "event_id", event.ID)
	return nil
}
