// Package app wires configuration, rule evaluation, the tracker client,
// the sync engine and the optional history store into runnable modes.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recurrent/internal/config"
	"recurrent/internal/history"
	"recurrent/internal/rules"
	"recurrent/internal/syncer"
	"recurrent/internal/trello"
	logx "recurrent/pkg/logx"
)

// Options are the CLI-level overrides applied on top of the config file.
type Options struct {
	RulesPath string // overrides sync.rules_path
	DryRun    bool

	// Date overrides the evaluation date (backfill, testing).
	// Zero means "today at trigger time".
	Date time.Time
}

type App struct {
	cfg  *config.Config
	opts Options

	logSvc *logx.Service
	log    logx.Logger

	engine  *syncer.Engine
	store   history.Store
	watcher *rules.Watcher

	rulesPath string
	ruleset   []rules.Rule
	evalOpts  rules.Options
}

func New(cfg *config.Config, opts Options) (*App, error) {
	logCfg := logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console == nil || *cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
	logSvc, log := logx.New(logCfg)

	rulesPath := strings.TrimSpace(opts.RulesPath)
	if rulesPath == "" {
		rulesPath = strings.TrimSpace(cfg.Sync.RulesPath)
	}
	if rulesPath == "" {
		_ = logSvc.Close()
		return nil, fmt.Errorf("no rules file (set sync.rules_path or pass -rules)")
	}

	ruleset, err := rules.Load(rulesPath)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	hour, minute, err := config.ParseDueTime(cfg.Sync.DueTime)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}

	client := trello.NewClient(
		trello.Credentials{APIKey: cfg.Trello.APIKey, Token: cfg.Trello.Token},
		trello.Config{
			BaseURL:    cfg.Trello.BaseURL,
			Timeout:    cfg.RequestTimeout(),
			RatePerSec: cfg.Trello.RatePerSec,
		},
	)

	engine := syncer.New(client, log.With(logx.String("component", "syncer")))
	engine.SetDryRun(opts.DryRun)

	var store history.Store
	if cfg.History != nil {
		busy, err := config.ParseDurationField("history.busy_timeout", cfg.History.BusyTimeout)
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
		store, err = history.Open(history.Config{
			Driver:      cfg.History.Driver,
			Path:        cfg.History.Path,
			BusyTimeout: busy,
		}, log.With(logx.String("component", "history")))
		if err != nil {
			_ = logSvc.Close()
			return nil, err
		}
	}

	return &App{
		cfg:       cfg,
		opts:      opts,
		logSvc:    logSvc,
		log:       log,
		engine:    engine,
		store:     store,
		rulesPath: rulesPath,
		ruleset:   ruleset,
		evalOpts: rules.Options{
			DueHour:   hour,
			DueMinute: minute,
			Location:  cfg.Location(),
		},
	}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

func (a *App) Close() error {
	var first error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			first = err
		}
	}
	if err := a.logSvc.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// RecentRuns returns the last n run entries, newest first.
// Errors with history disabled.
func (a *App) RecentRuns(ctx context.Context, n int) ([]history.RunEntry, error) {
	if a.store == nil {
		return nil, history.ErrDisabled
	}
	return a.store.RecentRuns(ctx, n)
}

func (a *App) currentRules() []rules.Rule {
	if a.watcher != nil {
		return a.watcher.Current()
	}
	return a.ruleset
}

// RunOnce evaluates the rules for one date and syncs the candidates.
// The run is idempotent: repeating it against unchanged remote state only
// issues read calls.
func (a *App) RunOnce(ctx context.Context) error {
	date := a.opts.Date
	if date.IsZero() {
		date = time.Now().In(a.evalOpts.Location)
	}

	start := time.Now()
	ruleset := a.currentRules()
	candidates := rules.Evaluate(ruleset, date, a.evalOpts)

	a.log.Info("run started",
		logx.String("date", date.Format("2006-01-02")),
		logx.Int("rules", len(ruleset)),
		logx.Int("candidates", len(candidates)),
		logx.Bool("dry_run", a.opts.DryRun),
	)

	rep, err := a.engine.Sync(ctx, candidates)
	a.appendHistory(ctx, date, len(ruleset), rep, err, time.Since(start))
	if err != nil {
		return err
	}

	a.log.Info("run finished",
		logx.Int("created", rep.Created),
		logx.Int("skipped", rep.Skipped),
		logx.Duration("took", time.Since(start)),
	)
	return nil
}

func (a *App) appendHistory(ctx context.Context, date time.Time, ruleCount int, rep syncer.Report, runErr error, took time.Duration) {
	if a.store == nil {
		return
	}
	e := history.RunEntry{
		At:         time.Now(),
		Date:       date.Format("2006-01-02"),
		Rules:      ruleCount,
		Candidates: rep.Candidates,
		Created:    rep.Created,
		Skipped:    rep.Skipped,
		DryRun:     a.opts.DryRun,
		TookMS:     took.Milliseconds(),
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	if err := a.store.AppendRun(ctx, e); err != nil {
		// History is an audit trail, not a correctness dependency.
		a.log.Warn("history append failed", logx.Err(err))
	}
}
