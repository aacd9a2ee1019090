// Package migration applies embedded SQL migrations with golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var (
	// ErrDSNRequired is returned when no database url is given.
	ErrDSNRequired = errors.New("migration: database url is required")
	// ErrUnknownDirection is returned for anything other than up or down.
	ErrUnknownDirection = errors.New("migration: direction must be up or down")
)

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// Run applies the migrations found in dir of fsys. Already being at the
// target version is not an error.
func Run(dsn string, fsys fs.FS, dir, direction string) (err error) {
	if strings.TrimSpace(dsn) == "" {
		return ErrDSNRequired
	}
	if direction != DirectionUp && direction != DirectionDown {
		return fmt.Errorf("%w: %q", ErrUnknownDirection, direction)
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("migration: source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("migration: open: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		err = errors.Join(err, srcErr, dbErr)
	}()

	if direction == DirectionUp {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("migration: %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr == nil {
		slog.Info("database migrated", "direction", direction, "version", version, "dirty", dirty)
	}

	return nil
}
