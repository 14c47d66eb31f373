package server

import (
	"io"
	"os"
	"time"

	pelletier "github.com/pelletier/go-toml"

	"github.com/flexps/paramserver/errors"
	"github.com/flexps/paramserver/logger"
	"github.com/flexps/paramserver/monitor"
	"github.com/flexps/paramserver/toml"
)

const (
	// ErrConfigDecode is returned when a TOML config file fails to parse
	// or doesn't fit Config's shape.
	ErrConfigDecode errors.Code = "ConfigDecode"
)

// Config is the process-level configuration for running a registry of
// tables: where state lives on disk, how often it's snapshotted, and where
// metrics are exposed. It carries none of the per-table parameters
// (consistency model, chunk size, range) - those belong to
// registry.TableParams and are supplied programmatically or replayed from
// the catalog, never from this file (SPEC_FULL.md §6.4).
type Config struct {
	// DataDir is where the catalog database and table snapshots live.
	DataDir string `toml:"data-dir"`

	// CatalogFile is the bbolt database file recording table-creation
	// parameters, relative to DataDir unless absolute.
	CatalogFile string `toml:"catalog-file"`

	// DumpInterval is the dump-interval setting read from the config file.
	// Nothing in this module applies it to tables: a table snapshots on
	// registry.TableParams.DumpInterval, which stays 0 unless the caller
	// sets it.
	DumpInterval int `toml:"dump-interval"`

	// MetricBind is the host:port the Prometheus metrics handler listens
	// on. Empty disables serving metrics over HTTP; collectors are still
	// registered and gatherable in-process either way.
	MetricBind string `toml:"metric-bind"`

	// LogVerbosity selects a logger.Level* constant; LogPath configures
	// where logs are written ("" means stderr).
	LogVerbosity int    `toml:"log-verbosity"`
	LogPath      string `toml:"log-path"`

	// ReplyQueueDepth bounds the buffered channel every server thread's
	// models push Reply values into (SPEC_FULL.md §7 "Queue
	// back-pressure").
	ReplyQueueDepth int `toml:"reply-queue-depth"`

	// CatalogOpenTimeout is the catalog-open-timeout setting read from the
	// config file. registry.OpenCatalog does not take it: it opens the bbolt
	// file with default options, which wait for the file lock without a
	// time limit.
	CatalogOpenTimeout toml.Duration `toml:"catalog-open-timeout"`

	// SentryDSN, if set, turns on Sentry error capture for logger calls at
	// Warn level or worse (Warnf, Errorf, Panicf) that the logger's
	// verbosity lets through. Empty disables it; this is opt-in
	// diagnostics, not something the model layer depends on.
	SentryDSN string `toml:"sentry-dsn"`
}

// NewConfig returns a Config with the defaults a freshly installed process
// should run with.
func NewConfig() *Config {
	return &Config{
		DataDir:            "~/.paramserver",
		CatalogFile:        "catalog.db",
		DumpInterval:       0,
		MetricBind:         ":9681",
		LogVerbosity:       logger.LevelInfo,
		ReplyQueueDepth:    1024,
		CatalogOpenTimeout: toml.Duration(5 * time.Second),
	}
}

// Decode parses TOML config data into c, in place, leaving fields the data
// doesn't mention at their current value (so callers should start from
// NewConfig()).
func (c *Config) Decode(data []byte) error {
	if err := pelletier.Unmarshal(data, c); err != nil {
		return errors.New(ErrConfigDecode, err.Error())
	}
	return nil
}

// NewLogger builds the process logger c describes. An empty LogPath writes
// to stderr; otherwise logs are appended to LogPath through a
// logger.FileWriter. That writer is not returned, so its Reopen is not
// reachable through the returned Logger. LogVerbosity bounds which levels
// are emitted.
func (c *Config) NewLogger() (logger.Logger, error) {
	var w io.Writer = os.Stderr
	if c.LogPath != "" {
		fw, err := logger.NewFileWriter(c.LogPath)
		if err != nil {
			return nil, errors.Wrap(err, "opening log file")
		}
		w = fw
	}
	return logger.NewLeveledLogger(w, c.LogVerbosity), nil
}

// InitMonitor turns on Sentry reporting when c.SentryDSN is set, tagging
// captured events with version. It is a no-op otherwise.
func (c *Config) InitMonitor(version string) error {
	return monitor.Init(c.SentryDSN, version)
}
