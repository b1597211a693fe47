package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recurrent/internal/app"
	"recurrent/internal/config"
	"recurrent/internal/history"
)

func main() {
	var (
		cfgPath   string
		rulesPath string
		dateStr   string
		dryRun    bool
		daemon    bool
		showRuns  int
	)
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config file (json or yaml)")
	flag.StringVar(&rulesPath, "rules", "", "path to rules file (overrides sync.rules_path)")
	flag.StringVar(&dateStr, "date", "", "evaluation date YYYY-MM-DD (default today; for backfill/testing)")
	flag.BoolVar(&dryRun, "dry-run", false, "log what would be created without creating anything")
	flag.BoolVar(&daemon, "daemon", false, "keep running and sync on the configured schedule")
	flag.IntVar(&showRuns, "history", 0, "print the last N run entries and exit (requires history config)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	opts := app.Options{RulesPath: rulesPath, DryRun: dryRun}
	if dateStr != "" {
		d, err := time.ParseInLocation("2006-01-02", dateStr, cfg.Location())
		if err != nil {
			fmt.Fprintln(os.Stderr, "fatal: -date:", err)
			os.Exit(1)
		}
		opts.Date = d
	}

	a, err := app.New(cfg, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	switch {
	case showRuns > 0:
		var runs []history.RunEntry
		runs, err = a.RecentRuns(ctx, showRuns)
		for _, e := range runs {
			line := fmt.Sprintf("%s date=%s candidates=%d created=%d skipped=%d took=%dms",
				e.At.Format(time.RFC3339), e.Date, e.Candidates, e.Created, e.Skipped, e.TookMS)
			if e.DryRun {
				line += " dry_run"
			}
			if e.Error != "" {
				line += " error=" + e.Error
			}
			fmt.Println(line)
		}
	case daemon:
		err = a.RunDaemon(ctx)
	default:
		err = a.RunOnce(ctx)
	}
	if err != nil {
		_ = a.Close()
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
