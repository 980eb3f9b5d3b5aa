package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LdDl/centroid-mot/internal/config"
	"github.com/LdDl/centroid-mot/internal/observability"
	"github.com/LdDl/centroid-mot/internal/replay"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config. Defaults are used when empty.")
	inputPath := flag.String("input", "", "Detections file (JSON lines). Use - for stdin.")
	outputPath := flag.String("output", "", "Tracks CSV output. Stdout when empty.")
	stream := flag.String("stream", "default", "Stream name used in logs and metrics.")
	maxDisappeared := flag.Int("max-disappeared", -1, "Override tracker.max_disappeared.")
	maxDistance := flag.Float64("max-distance", -1, "Override tracker.max_distance.")
	algorithm := flag.String("algorithm", "", "Override tracker.algorithm (greedy or hungarian).")
	metricsAddr := flag.String("metrics-addr", "", "Override metrics.addr, e.g. :9102.")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *maxDisappeared >= 0 {
		cfg.Tracker.MaxDisappeared = maxDisappeared
	}
	if *maxDistance >= 0 {
		cfg.Tracker.MaxDistance = maxDistance
	}
	if *algorithm != "" {
		cfg.Tracker.Algorithm = *algorithm
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	if *inputPath == "" {
		logger.Error("missing -input")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *inputPath, *outputPath, *stream, logger); err != nil {
		logger.Error("replay failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, inputPath, outputPath, stream string, logger *slog.Logger) error {
	var metrics *observability.Metrics
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		metrics = observability.NewMetrics(reg)
		srv := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var input io.Reader = os.Stdin
	if inputPath != "-" {
		f, err := os.Open(inputPath)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		input = f
	}

	var output io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		output = f
	}

	runner, err := replay.NewRunner(cfg.Tracker, stream, metrics, logger)
	if err != nil {
		return err
	}
	tracker := runner.Tracker()
	logger.Info("starting replay",
		"stream", stream,
		"max_disappeared", tracker.MaxDisappeared(),
		"max_distance", tracker.MaxDistance(),
		"algorithm", tracker.Algorithm().String(),
	)

	summary, err := runner.Run(ctx, replay.NewReader(input), replay.NewWriter(output))
	logger.Info("replay finished",
		"frames", summary.Frames,
		"detections", summary.Detections,
		"registered", summary.Registered,
		"evicted", summary.Evicted,
		"live", summary.Live,
	)
	return err
}
