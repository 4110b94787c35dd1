package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"driveinvoice/internal/config"
	driveconnector "driveinvoice/internal/connectors/drive"
	"driveinvoice/internal/logging"
	"driveinvoice/internal/pipeline"
	"driveinvoice/internal/storage"
	"driveinvoice/internal/store"
	"driveinvoice/internal/watcher"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Require("GDRIVE_FOLDER_ID", cfg.DriveFolderID))

	log := logging.Setup(cfg.LogLevel)

	st, err := store.Open(cfg.DataDir)
	must(err)
	db, err := storage.Open(cfg.LedgerDBPath)
	must(err)
	defer db.Close()

	conn, err := driveconnector.NewConnector(cfg)
	must(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := pipeline.NewCoordinator(st, db, conn, cfg, logging.Component(log, "coordinator"))
	svc := watcher.NewService(coordinator, cfg, logging.Component(log, "watcher"))
	must(svc.Run(ctx, cfg.DriveFolderID))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
