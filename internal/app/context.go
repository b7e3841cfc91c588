// Package app wires settings, logging, metrics and the store for the CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/tphakala/birdnet-annotations/internal/conf"
	"github.com/tphakala/birdnet-annotations/internal/datastore"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/importer"
	"github.com/tphakala/birdnet-annotations/internal/logger"
	"github.com/tphakala/birdnet-annotations/internal/observability"
	"github.com/tphakala/birdnet-annotations/internal/telemetry"
)

// Version is reported as the Sentry release.
var Version = "dev"

// Context holds the process-wide services shared by CLI commands.
type Context struct {
	Settings *conf.Settings

	// MetricsTextfile, when set, receives the metrics registry on Close.
	MetricsTextfile string

	Logger  *logger.CentralLogger
	Metrics *observability.Metrics
	Store   datastore.Manager

	reporter *telemetry.Reporter
}

// Initialize builds the logger, the metrics registry and the store from
// Settings, and migrates the schema.
func (c *Context) Initialize(ctx context.Context) error {
	if c.Settings == nil {
		return fmt.Errorf("settings not loaded")
	}

	centralLogger, err := logger.NewCentralLogger(c.Settings.LoggingConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.Logger = centralLogger

	m, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	c.Metrics = m
	errors.AddErrorHook(m.Import.ErrorHook())

	if t := c.Settings.Telemetry; t.Enabled {
		reporter, err := telemetry.NewReporter(telemetry.Settings{
			DSN:         t.DSN,
			Environment: t.Environment,
			Release:     "birdnet-annotations@" + Version,
		})
		if err != nil {
			return err
		}
		c.reporter = reporter
		errors.AddErrorHook(reporter.ErrorHook())
	}

	store, err := datastore.Open(c.Settings, datastore.Config{
		Logger:        centralLogger.Module("datastore"),
		QueryObserver: m.Import.ObserveQuery,
	})
	if err != nil {
		return err
	}
	c.Store = store

	if err := store.Initialize(ctx); err != nil {
		return err
	}

	centralLogger.Module("app").Debug("store ready",
		logger.String("location", store.Path()),
		logger.Bool("mysql", store.IsMySQL()))
	return nil
}

// Importer returns an importer writing to the store.
func (c *Context) Importer() *importer.Importer {
	return importer.New(c.Store.DB(),
		importer.WithLogger(c.Logger.Module("importer")),
		importer.WithMetrics(c.Metrics.Import),
		importer.WithTagCache(repository.NewProjectTagCache(c.Settings.Cache.TagTTL)),
	)
}

// Close writes the metrics textfile, closes the store and flushes pending
// telemetry and logs.
func (c *Context) Close() error {
	var errs []error
	if c.Metrics != nil && c.MetricsTextfile != "" {
		if err := c.Metrics.WriteTextfile(c.MetricsTextfile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
		}
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}
	if c.reporter != nil {
		c.reporter.Flush(2 * time.Second)
	}
	if c.Logger != nil {
		errs = append(errs, c.Logger.Close())
	}
	return errors.Join(errs...)
}
