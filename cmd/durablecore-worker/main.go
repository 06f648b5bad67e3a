package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngnhng/durablecore/examples/scenarios"
	"github.com/ngnhng/durablecore/internal/logger"
	"github.com/ngnhng/durablecore/sdk/config"
	"github.com/ngnhng/durablecore/sdk/worker"
)

func main() {
	var (
		natsHost  = flag.String("host", "", "NATS server host (overrides env)")
		natsPort  = flag.String("port", "", "NATS server port (overrides env)")
		namespace = flag.String("namespace", "", "stream namespace")
		debug     = flag.Bool("debug", false, "human readable colored logs")
		logLevel  = flag.String("log-level", "", "minimum log level (debug|info|warn|error)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mode := logger.ModeRelease
	if *debug {
		mode = logger.ModeDebug
	}
	var level slog.Leveler
	if *logLevel != "" {
		var l slog.Level
		if err := l.UnmarshalText([]byte(*logLevel)); err != nil {
			slog.Error("invalid log level", "value", *logLevel)
			os.Exit(1)
		}
		level = l
	}
	log, err := logger.NewLogger(ctx, &logger.LoggerOptions{
		Mode:   mode,
		Writer: os.Stdout,
		Level:  level,
	})
	if err != nil {
		slog.Error("cannot build logger", "error", err)
		os.Exit(1)
	}
	if log.LoggerProvider != nil {
		defer log.LoggerProvider.Shutdown(context.Background())
	}

	cfg, err := config.Load()
	if err != nil {
		log.Slogger.Error("cannot load configuration", "error", err)
		os.Exit(1)
	}
	if *natsHost != "" {
		cfg.NATS.Host = *natsHost
		cfg.NATS.URL = ""
	}
	if *natsPort != "" {
		cfg.NATS.Port = *natsPort
		cfg.NATS.URL = ""
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = fmt.Sprintf("nats://%s:%s", cfg.NATS.Host, cfg.NATS.Port)
	}
	if err := cfg.Validate(); err != nil {
		log.Slogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	w, err := worker.NewWorker(cfg, &worker.Options{
		Namespace: *namespace,
		Logger:    log.Slogger,
	})
	if err != nil {
		log.Slogger.Error("cannot create worker", "error", err)
		os.Exit(1)
	}

	w.Inject("console.log", func(args ...any) (any, error) {
		log.Slogger.Info("workflow console", "args", args)
		return nil, nil
	})

	w.RegisterWorkflowWithName("greet", scenarios.Greet)
	w.RegisterWorkflowWithName("delayed-greeting", scenarios.DelayedGreeting)
	w.RegisterWorkflowWithName("first-timer-wins", scenarios.FirstTimerWins)
	w.RegisterWorkflowWithName("gather-all", scenarios.GatherAll)

	log.Slogger.Info("worker starting", "nats", cfg.NATS.URL, "namespace", *namespace)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		log.Slogger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
}
