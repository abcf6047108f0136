package main

import (
	"context"
	"io"
	"net/http"

	"github.com/nijaru/webm-fix/config"
	"github.com/nijaru/webm-fix/controller"
	"github.com/nijaru/webm-fix/download"
	"github.com/nijaru/webm-fix/logger"
	"github.com/nijaru/webm-fix/middleware"
	"github.com/nijaru/webm-fix/processing"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// app holds everything a command needs to drive the controller.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	closer io.Closer
	ctrl   *controller.Controller
}

func newApp(ctx context.Context, cfg *config.Config, console bool) (*app, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log, closer, err := logger.NewLogger(logger.Options{
		Dir:     cfg.LogDir,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Console: console,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}

	client, err := newProcessingClient(cfg, log)
	if err != nil {
		closer.Close()
		return nil, err
	}

	sink, err := newSink(ctx, cfg, log)
	if err != nil {
		closer.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"server":  cfg.ServerURL,
		"version": version,
	}).Debug("Application initialized")

	return &app{
		cfg:    cfg,
		log:    log,
		closer: closer,
		ctrl: controller.New(controller.Options{
			Processor: client,
			Sink:      sink,
			Logger:    log,
			CRF:       cfg.DefaultCRF,
			Bitrate:   cfg.DefaultBitrate,
		}),
	}, nil
}

func (a *app) Close() error {
	return a.closer.Close()
}

func newProcessingClient(cfg *config.Config, log *logrus.Logger) (*processing.Client, error) {
	limiter := middleware.NewRateLimiter(cfg.RateLimitInterval, cfg.RateLimit)

	var tracing func(http.RoundTripper) http.RoundTripper
	if cfg.TracingEnabled {
		tracing = middleware.Tracing(nil)
	}

	transport := middleware.Chain(http.DefaultTransport,
		middleware.RequestID(),
		tracing,
		middleware.Logging(log),
		limiter.RoundTripper,
	)

	client, err := processing.NewClient(cfg.ServerURL,
		processing.WithHTTPClient(&http.Client{Transport: transport}),
		processing.WithTimeout(cfg.RequestTimeout),
		processing.WithLogger(log),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create processing client")
	}
	return client, nil
}

// newSink saves to the configured bucket when one is set, otherwise to
// the download directory.
func newSink(ctx context.Context, cfg *config.Config, log *logrus.Logger) (download.Sink, error) {
	if cfg.DownloadBucket == "" {
		return download.NewDirSink(cfg.DownloadDir, log), nil
	}

	sink, err := download.NewS3Sink(ctx, download.S3Config{
		Bucket:    cfg.DownloadBucket,
		Prefix:    cfg.DownloadPrefix,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
	}, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create S3 sink")
	}
	return sink, nil
}
