package app

import (
	"context"
	"time"

	sd "github.com/coreos/go-systemd/v22/daemon"

	"recurrent/internal/rules"
	"recurrent/internal/scheduler"
	logx "recurrent/pkg/logx"
)

// RunDaemon keeps the process alive, triggering a run on the configured
// schedule and reloading the rules file when it changes on disk.
//
// The -date override is ignored here; each trigger evaluates "today" in the
// configured timezone.
func (a *App) RunDaemon(ctx context.Context) error {
	a.watcher = rules.NewWatcher(a.rulesPath, a.ruleset, a.log.With(logx.String("component", "rules")))
	go func() {
		_ = a.watcher.Watch(ctx)
	}()

	sched := scheduler.New(scheduler.Config{
		Schedule: a.cfg.Scheduler.Schedule,
		Timezone: a.cfg.Scheduler.Timezone,
	}, func(jobCtx context.Context) error {
		// Per-trigger date, not process start date.
		return a.RunOnce(jobCtx)
	}, a.log.With(logx.String("component", "scheduler")))

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	a.notifySystemd(ctx)

	<-ctx.Done()
	a.log.Info("daemon stopping")
	_, _ = sd.SdNotify(false, sd.SdNotifyStopping)
	return nil
}

// notifySystemd signals readiness and services the watchdog when the process
// runs under systemd with Type=notify. A no-op everywhere else.
func (a *App) notifySystemd(ctx context.Context) {
	if ok, err := sd.SdNotify(false, sd.SdNotifyReady); err != nil || !ok {
		return
	}
	a.log.Debug("systemd readiness notified")

	interval, err := sd.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = sd.SdNotify(false, sd.SdNotifyWatchdog)
			}
		}
	}()
}
