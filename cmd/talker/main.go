package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/flux-agi/talker_go/talker"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "talker [frequency]",
		Short: "Publish chatter and the world->talk transform at a fixed rate",
		Long: "talker publishes a sequence-numbered message on the chatter topic and the world->talk " +
			"transform on tf at the given frequency in Hz (default 10). The published text can be " +
			"replaced remotely through the modifyTalkerMessage operation.",
		Args: cobra.ArbitraryArgs,
		// The only input is a positional frequency, which may be negative.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flag parsing is off, so cobra never sees --help on its own.
			if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
				return cmd.Help()
			}

			return run(cmd.Context(), args)
		},
	}
}

func run(ctx context.Context, args []string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := talker.ConfigFromEnv()
	logger := talker.NewLogger(os.Stderr, slog.LevelDebug)

	rate := talker.ResolveRate(ctx, logger, args)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := talker.NewMetrics(cfg.ServiceName)
	if err := metrics.Register(registry); err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(ctx, logger, cfg.MetricsAddr, registry)
	}

	service := talker.NewService(
		cfg.ServiceName,
		talker.WithServiceLogger(logger),
		talker.WithServiceMetrics(metrics),
	)
	defer service.Close(context.WithoutCancel(ctx))

	if err := service.Run(ctx, rate, talker.WithNatsURL(cfg.NatsURL)); err != nil {
		logger.ErrorContext(ctx, "talker stopped", slog.String("err", err.Error()))
		return err
	}

	return nil
}

func newMetricsHandler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	return mux
}

func serveMetrics(ctx context.Context, logger *slog.Logger, addr string, registry *prometheus.Registry) {
	server := &http.Server{
		Addr:              addr,
		Handler:           newMetricsHandler(registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down metrics server", slog.String("err", err.Error()))
		}
	})

	logger.InfoContext(ctx, "serving metrics", slog.String("addr", addr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.ErrorContext(ctx, "metrics server failed", slog.String("err", err.Error()))
	}
}
