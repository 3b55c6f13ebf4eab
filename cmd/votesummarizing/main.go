package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	bolt "go.etcd.io/bbolt"

	"github.com/vncsmyrnk/groupdecision/internal/adapters/repository/kvdb"
	"github.com/vncsmyrnk/groupdecision/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/groupdecision/internal/config"
	"github.com/vncsmyrnk/groupdecision/internal/core/ports"
	"github.com/vncsmyrnk/groupdecision/internal/core/services"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:])
	if err != nil {
		slog.Error("unable to load config", "error", err)
		os.Exit(2)
	}

	logLevel, err := cfg.Level()
	if err != nil {
		slog.Error("unable to parse log level", "level-input", cfg.LogLevel, "error", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	var (
		eventRepo  ports.EventRepository
		pollRepo   ports.PollRepository
		resultRepo ports.ResultRepository
	)
	switch cfg.Store {
	case config.StoreBolt:
		var db *bolt.DB
		db, err = kvdb.Open(cfg.BoltPath)
		if err != nil {
			logger.Error("could not open bolt store", "path", cfg.BoltPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		eventRepo = kvdb.NewEventStore(db)
		pollRepo = kvdb.NewPollStore(db)
		resultRepo = kvdb.NewResultStore(db)
	default:
		var db *sql.DB
		db, err = sql.Open("postgres", cfg.DSN())
		if err != nil {
			logger.Error("could not open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Error("could not reach database", "host", cfg.DBHost, "error", err)
			os.Exit(1)
		}
		eventRepo = postgres.NewEventRepository(db)
		pollRepo = postgres.NewPollRepository(db)
		resultRepo = postgres.NewResultRepository(db)
	}

	summaryService := services.NewSummaryService(eventRepo, pollRepo, resultRepo, logger)

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logger.Info("starting result summarization job")

	if err := summaryService.SummarizeAll(ctx); err != nil {
		logger.Error("error summarizing results", "error", err)
		os.Exit(1)
	}

	logger.Info("result summarization completed successfully")
}
