// Package scheduler triggers sync runs in daemon mode.
//
// It is trigger-only: the job itself (evaluate + sync) lives in the app.
// Overlapping triggers are skipped, never queued — a run that is still in
// flight makes a second concurrent run pointless (it would see the same
// remote state) and the next trigger repeats the work safely anyway.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "recurrent/pkg/logx"
)

type Config struct {
	// Schedule is a cron expression, duration, or HH:MM interval.
	// Empty means "@daily".
	Schedule string

	// Timezone is the IANA zone cron specs are evaluated in; empty means local.
	Timezone string
}

// Job is one triggered sync run.
type Job func(ctx context.Context) error

type Service struct {
	cfg    Config
	log    logx.Logger
	parser cron.Parser
	job    Job

	mu      sync.Mutex
	c       *cron.Cron
	ticker  *time.Ticker
	done    chan struct{}
	running bool // one run in flight at a time
}

func New(cfg Config, job Job, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg,
		log:    log,
		job:    job,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

// Start registers the schedule and begins triggering. It returns immediately;
// triggers fire on cron/ticker goroutines until Stop.
func (s *Service) Start(ctx context.Context) error {
	spec := strings.TrimSpace(s.cfg.Schedule)
	if spec == "" {
		spec = "@daily"
	}
	parsed, err := ParseSchedule(spec)
	if err != nil {
		return err
	}

	loc := time.Local
	if tz := strings.TrimSpace(s.cfg.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || s.ticker != nil {
		return nil
	}

	trigger := func() { s.trigger(ctx) }

	switch parsed.Kind {
	case SpecCron:
		c := cron.New(cron.WithParser(s.parser), cron.WithLocation(loc))
		if _, err := c.AddFunc(parsed.Cron, trigger); err != nil {
			return err
		}
		c.Start()
		s.c = c
		s.log.Info("scheduler started", logx.String("cron", parsed.Cron), logx.String("tz", loc.String()))
	case SpecInterval:
		s.ticker = time.NewTicker(parsed.Every)
		s.done = make(chan struct{})
		go func() {
			for {
				select {
				case <-s.done:
					return
				case <-ctx.Done():
					return
				case <-s.ticker.C:
					trigger()
				}
			}
		}()
		s.log.Info("scheduler started", logx.Duration("every", parsed.Every))
	}
	return nil
}

func (s *Service) trigger(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("previous run still in flight; skipping trigger")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if err := s.job(ctx); err != nil {
		s.log.Error("scheduled run failed", logx.Err(err))
	}
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		<-s.c.Stop().Done()
		s.c = nil
	}
	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
		s.ticker = nil
	}
}
