package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"masterspa/internal/connectors/woocommerce"
	"masterspa/internal/logger"
	"masterspa/internal/settings"

	"github.com/robfig/cron/v3"
)

type Importer interface {
	Import(ctx context.Context) (*woocommerce.Result, error)
}

type LogPruner interface {
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}

// Scheduler runs the import on the frequency chosen in the settings and
// keeps the import log trimmed.
type Scheduler struct {
	cron     *cron.Cron
	importer Importer
	logger   *logger.Logger

	mu        sync.Mutex
	entry     cron.EntryID
	frequency settings.Frequency
}

func New(importer Importer, logger *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cronLogger{logger}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		importer: importer,
		logger:   logger,
	}
}

// Spec maps a settings frequency to a cron schedule.
func Spec(f settings.Frequency) string {
	switch f {
	case settings.FrequencyHourly:
		return "@hourly"
	case settings.FrequencyTwiceDaily:
		return "@every 12h"
	default:
		return "@daily"
	}
}

// Apply brings the import job in line with the settings: removed when cron
// is disabled, (re)scheduled when enabled or the frequency changed.
func (s *Scheduler) Apply(st settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !st.CronEnabled {
		if s.entry != 0 {
			s.cron.Remove(s.entry)
			s.entry = 0
			s.logger.Info("Scheduled import disabled")
		}
		return nil
	}

	if s.entry != 0 && s.frequency == st.CronFrequency {
		return nil
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
		s.entry = 0
	}

	id, err := s.cron.AddFunc(Spec(st.CronFrequency), s.runImport)
	if err != nil {
		return fmt.Errorf("failed to schedule import: %w", err)
	}
	s.entry = id
	s.frequency = st.CronFrequency
	s.logger.Info("Scheduled import %s", st.CronFrequency)
	return nil
}

// Next reports when the scheduled import fires next.
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == 0 {
		return time.Time{}, false
	}
	e := s.cron.Entry(s.entry)
	if !e.Valid() {
		return time.Time{}, false
	}
	return e.Schedule.Next(time.Now()), true
}

// ScheduleRetention prunes the import log daily. Zero days disables it.
func (s *Scheduler) ScheduleRetention(days int, pruner LogPruner) error {
	if days <= 0 {
		return nil
	}
	_, err := s.cron.AddFunc("@daily", func() {
		removed, err := pruner.PruneOlderThan(context.Background(), days)
		if err != nil {
			s.logger.Error("Failed to prune import log: %v", err)
			return
		}
		s.logger.Info("Pruned %d import log entries", removed)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule log retention: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runImport() {
	s.logger.Info("Scheduled import starting")

	result, err := s.importer.Import(context.Background())
	if err != nil {
		s.logger.Error("Scheduled import failed: %v", err)
		return
	}
	if !result.Success {
		s.logger.Warn("Scheduled import finished without success: %s", result.Message)
		return
	}
	s.logger.Info("Scheduled import finished: %s", result.Message)
}

// cronLogger routes cron's own messages through the service logger. Its
// per-tick chatter goes to debug.
type cronLogger struct {
	logger *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
