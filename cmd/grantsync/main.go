package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/directory"
	"github.com/ledgerline/ledgerline/internal/grants"
	"github.com/ledgerline/ledgerline/internal/migrate"
	"github.com/ledgerline/ledgerline/internal/platform/db"
)

func main() {
	workspaceID := flag.String("workspace", "", "restrict the run to one workspace id (default: all workspaces)")
	verbose := flag.Bool("verbose", false, "print per-record details")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	runner := migrate.NewRunner(directory.NewRepository(pool), grants.NewRepository(pool), nil, logger)

	scope := migrate.AllWorkspaces()
	if *workspaceID != "" {
		scope = migrate.SingleWorkspace(*workspaceID)
	}

	report, err := runner.Run(ctx, scope)
	if err != nil {
		logger.Error("migration run failed", slog.Any("error", err))
		os.Exit(1)
	}

	fmt.Printf("run %s: %d migrated, %d failed\n", report.RunID, report.SuccessCount, len(report.Errors))
	for _, msg := range report.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	if *verbose {
		for _, detail := range report.Details {
			fmt.Printf("  %-8s %s %s role=%s %s\n",
				detail.Status, detail.UserID, detail.WorkspaceID, detail.Role, detail.Reason)
		}
	}
	if len(report.Errors) > 0 {
		os.Exit(2)
	}
}
