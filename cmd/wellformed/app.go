package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/majiddarvishan/wellformed/batch"
	"github.com/majiddarvishan/wellformed/internal/errors"
	"github.com/majiddarvishan/wellformed/workerpool"
)

const (
	appName          = "wellformed"
	metricsNamespace = "wellformed"
	poolName         = "validator"

	FlagFormat      = "format"
	FlagLogLevel    = "log-level"
	FlagMetricsAddr = "metrics-addr"
	FlagDrain       = "drain"

	shutdownTimeout = 5 * time.Second
)

// Config is populated from flags and environment variables.
type Config struct {
	Format      string
	LogLevel    string
	MetricsAddr string
	Drain       bool
}

// NewApp builds the command line application reading batches from stdin and
// writing verdicts to stdout. Logs go to stderr.
func NewApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	cfg := &Config{}

	app := cli.NewApp()
	app.Name = appName
	app.Usage = "check bracket strings against the ( > { > [ nesting grammar"
	app.UsageText = appName + " [options] < input"
	app.Reader = stdin
	app.Writer = stdout
	app.ErrWriter = stderr
	app.HideVersion = true
	// exit codes are decided in main
	app.ExitErrHandler = func(*cli.Context, error) {}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:        FlagFormat,
			EnvVars:     []string{"WELLFORMED_FORMAT"},
			Usage:       "output format: plain (True/False) or indexed (<n>:true/<n>:false)",
			Value:       batch.FormatPlain.String(),
			Destination: &cfg.Format,
		},
		&cli.StringFlag{
			Name:        FlagLogLevel,
			EnvVars:     []string{"WELLFORMED_LOG_LEVEL"},
			Usage:       "log level: trace, debug, info, warn, error",
			Value:       logrus.WarnLevel.String(),
			Destination: &cfg.LogLevel,
		},
		&cli.StringFlag{
			Name:        FlagMetricsAddr,
			EnvVars:     []string{"WELLFORMED_METRICS_ADDR"},
			Usage:       "serve Prometheus metrics on this address while running",
			Destination: &cfg.MetricsAddr,
		},
		&cli.BoolFlag{
			Name:        FlagDrain,
			EnvVars:     []string{"WELLFORMED_DRAIN"},
			Usage:       "run queued work before the pool shuts down",
			Value:       true,
			Destination: &cfg.Drain,
		},
	}

	app.Action = errors.WithPanicHandling(func(c *cli.Context) error {
		return run(c.Context, cfg, c.App.Reader, c.App.Writer, c.App.ErrWriter)
	})

	return app
}

func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(lvl)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	return logger, nil
}

func run(ctx context.Context, cfg *Config, stdin io.Reader, stdout, stderr io.Writer) error {
	logger, err := newLogger(stderr, cfg.LogLevel)
	if err != nil {
		return err
	}

	format, err := batch.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	pool, err := workerpool.NewThreadPool(workerpool.Options{
		Name:            poolName,
		DrainOnShutdown: cfg.Drain,
		Logger:          logger,
		Metrics:         workerpool.NewThreadPoolMetrics(reg, metricsNamespace),
	})
	if err != nil {
		return err
	}
	defer pool.Shutdown()

	logger.WithField("workers", pool.Workers()).Debug("Worker pool started")

	var g errgroup.Group
	if cfg.MetricsAddr != "" {
		srv, err := serveMetrics(&g, cfg.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("Metrics server did not shut down cleanly")
			}

			if err := g.Wait(); err != nil {
				logger.WithError(err).Warn("Metrics server failed")
			}
		}()
	}

	processor := batch.NewProcessor(pool, logger)

	return processor.Run(batch.NewReader(stdin), batch.NewWriter(stdout, format))
}

func serveMetrics(g *errgroup.Group, addr string, reg *prometheus.Registry, logger logrus.FieldLogger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithField("addr", ln.Addr().String()).Info("Serving metrics")

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.WithStackTrace(err)
		}
		return nil
	})

	return srv, nil
}
