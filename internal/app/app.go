package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"upkeep/internal/config"
	"upkeep/internal/database"
	"upkeep/internal/encryption"
	"upkeep/internal/model"
	"upkeep/internal/upkeep"
	"upkeep/internal/vault"
)

// UpkeepApp is the application layer between the CLI and upkeep.Service.
// It constructs all dependencies from config and manages the DB lifecycle on Close.
type UpkeepApp struct {
	cfg       *config.Config
	db        *database.SQLiteDatabase
	vault     upkeep.Vault
	encryptor upkeep.Encryptor
	service   *upkeep.Service
	logger    upkeep.Logger
	operation string
	logFile   *os.File
}

// NewUpkeepApp creates a fully wired UpkeepApp from the given config.
// operation names the CLI command being run and is attached to every log line.
// The caller must call Close when done.
func NewUpkeepApp(cfg *config.Config, operation string) (*UpkeepApp, error) {
	return newUpkeepApp(cfg, operation, upkeep.RealClock{}, upkeep.UUIDGenerator{})
}

func newUpkeepApp(cfg *config.Config, operation string, clock upkeep.Clock, idgen upkeep.IDGenerator) (*UpkeepApp, error) {
	v, err := vault.NewVaultFromConfig(cfg.Backup.Vault)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Backup.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database schema out of date (run `upkeep db migrate`): %w", err)
	}

	opID := clock.Now().UTC().Format("20060102T150405Z")
	sl, logFile, err := newLogger(cfg.LogDir, cfg.LogLevel, opID)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl.With("op", operation)}

	return &UpkeepApp{
		cfg:       cfg,
		db:        db,
		vault:     v,
		encryptor: enc,
		service:   upkeep.NewService(db, v, enc, logger, clock, idgen),
		logger:    logger,
		operation: operation,
		logFile:   logFile,
	}, nil
}

// Migrate opens the configured database and applies all pending migrations.
func Migrate(cfg *config.Config) error {
	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if err := db.MigrateUp(); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	return nil
}

// Service exposes the core components.
func (a *UpkeepApp) Service() *upkeep.Service { return a.service }

// Encryptor returns the snapshot encryptor, used by `config init` to create keys.
func (a *UpkeepApp) Encryptor() upkeep.Encryptor { return a.encryptor }

// DateLayout returns the layout dates are shown in.
func (a *UpkeepApp) DateLayout() string {
	return DateLayout(a.cfg.Display.DateFormat)
}

// FormatDate renders a calendar date in the configured display layout.
func (a *UpkeepApp) FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	return d.Format(a.DateLayout())
}

// DateLayout maps display.date_format onto a time layout.
func DateLayout(format string) string {
	if format == config.DateFormatISO {
		return model.ISODate
	}
	return upkeep.DMYDate
}

// StartupCheck runs the once-per-day, non-forced alert check.
func (a *UpkeepApp) StartupCheck() (*upkeep.AlertResult, error) {
	return a.service.Alerts.Check(false)
}

// Watch runs a non-forced alert check now and then on every tick of the
// cron schedule until ctx is done. notify receives each outcome.
// An empty schedule uses alerts.watch_schedule from the config.
func (a *UpkeepApp) Watch(ctx context.Context, schedule string, notify func(*upkeep.AlertResult, error)) error {
	if schedule == "" {
		schedule = a.cfg.Alerts.WatchSchedule
	}
	if schedule == "" {
		schedule = config.DefaultWatchSchedule
	}

	cl := &cronLogger{l: a.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.SkipIfStillRunning(cl)))
	check := func() { notify(a.service.Alerts.Check(false)) }
	if _, err := c.AddFunc(schedule, check); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}

	a.logger.Info("watching alerts", "schedule", schedule)
	check()
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	a.logger.Info("stopped watching alerts")
	return nil
}

// Close closes the database and the log file.
func (a *UpkeepApp) Close() error {
	var firstErr error

	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	a.logger.Debug("operation finished", "operation", a.operation)
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}

	return firstErr
}

// cronLogger routes cron's own logging into the application log.
type cronLogger struct {
	l upkeep.Logger
}

func (c *cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
