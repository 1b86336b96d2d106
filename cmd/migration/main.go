package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/riskibarqy/fpl-optimizer/internal/config"
	"github.com/riskibarqy/fpl-optimizer/internal/platform/logging"
)

var errUsage = errors.New("usage")

func main() {
	logger := logging.NewJSON(logging.LevelInfo)
	defer func() { _ = logger.Sync() }()

	if err := run(os.Args[1:], logger); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(err)
			os.Exit(2)
		}
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, logger *logging.Logger) error {
	cmd, err := parseCommand(args)
	if err != nil {
		return err
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	db, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	dir, err := resolveMigrationsDir(os.Getenv("MIGRATIONS_DIR"), os.Getenv("MIGRATIONS_PATH"), "./db/migrations", "/app/db/migrations")
	if err != nil {
		return err
	}
	source := "file://" + filepath.ToSlash(dir)

	m, err := migrate.New(source, db.DSN())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("close migration source", "error", srcErr)
		}
		if dbErr != nil {
			logger.Warn("close migration db", "error", dbErr)
		}
	}()

	return cmd.apply(m, logger.With("source", source, "db_name", db.Name()))
}

func (c command) apply(m *migrate.Migrate, logger *logging.Logger) error {
	switch c.name {
	case "up":
		return settle(m.Up(), logger, "migrations applied")
	case "down":
		return settle(m.Steps(-c.steps), logger, "migrations rolled back", "steps", c.steps)
	case "goto":
		return settle(m.Migrate(c.target), logger, "migrated", "version", c.target)
	case "force":
		if err := m.Force(c.version); err != nil {
			return fmt.Errorf("force version %d: %w", c.version, err)
		}
		logger.Info("version forced", "version", c.version)
		return nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migrations applied")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read version: %w", err)
		}
		logger.Info("current version", "version", version, "dirty", dirty)
		return nil
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, c.name)
}

func settle(err error, logger *logging.Logger, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(msg, args...)
	return nil
}

func resolveMigrationsDir(candidates ...string) (string, error) {
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, nil
		}
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, MIGRATIONS_PATH, ./db/migrations, /app/db/migrations)")
}

func printUsage(err error) {
	bin := filepath.Base(os.Args[0])
	if msg := strings.TrimPrefix(err.Error(), errUsage.Error()+": "); msg != errUsage.Error() {
		fmt.Fprintln(os.Stderr, msg)
	}
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [steps]|version|force <version>|goto <version>>\n", bin)
}
