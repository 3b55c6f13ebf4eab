package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vncsmyrnk/groupdecision/internal/adapters/handler/http"
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
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(2)
	}

	logLevel, _ := cfg.Level()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPAddr != "" {
		shutdown, err := setupTracing(ctx, cfg.OTLPAddr)
		if err != nil {
			logger.Error("failed to set up tracing", "address", cfg.OTLPAddr, "error", err)
			os.Exit(1)
		}
		defer shutdown()
		logger.Info("otlp/gRPC", "address", cfg.OTLPAddr)
	}

	var (
		eventRepo  ports.EventRepository
		pollRepo   ports.PollRepository
		resultRepo ports.ResultRepository
	)
	switch cfg.Store {
	case config.StoreBolt:
		db, err := kvdb.Open(cfg.BoltPath)
		if err != nil {
			logger.Error("could not open bolt store", "path", cfg.BoltPath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		eventRepo = kvdb.NewEventStore(db)
		pollRepo = kvdb.NewPollStore(db)
		resultRepo = kvdb.NewResultStore(db)
	default:
		db, err := sql.Open("postgres", cfg.DSN())
		if err != nil {
			logger.Error("could not open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("could not reach database", "host", cfg.DBHost, "error", err)
			os.Exit(1)
		}
		eventRepo = postgres.NewEventRepository(db)
		pollRepo = postgres.NewPollRepository(db)
		resultRepo = postgres.NewResultRepository(db)
	}

	eventService := services.NewEventService(eventRepo, logger)
	pollService := services.NewPollService(pollRepo, logger)
	summaryService := services.NewSummaryService(eventRepo, pollRepo, resultRepo, logger)

	handler := http.NewHandler(
		http.NewEventHandler(eventService, summaryService),
		http.NewPollHandler(pollService, summaryService),
		http.NewVoteHandler(pollService),
		[]byte(cfg.JWTSecret),
		cfg.AllowedOrigins,
	)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler}

	go func() {
		logger.Info("start and listen", "address", cfg.Addr, "store", cfg.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("error during listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}

func setupTracing(ctx context.Context, addr string) (func(), error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}

	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
		conn.Close()
	}, nil
}
