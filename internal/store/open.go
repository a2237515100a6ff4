package store

import (
	"context"
	"fmt"

	"github.com/Iron-Ham/gantry/internal/config"
	"github.com/Iron-Ham/gantry/internal/errors"
	"github.com/Iron-Ham/gantry/internal/logging"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open returns the backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *logging.Logger) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.ResolvePath(), logger)
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.NewValidationError("postgres driver requires a dsn").WithField("store.dsn")
		}
		return OpenPostgres(ctx, cfg.DSN, logger)
	case DriverMemory:
		return NewMemory(), nil
	}
	return nil, errors.NewValidationError(fmt.Sprintf("unknown store driver %q", cfg.Driver)).
		WithField("store.driver")
}

// Pather is implemented by stores that live in a single local file.
type Pather interface {
	Path() string
}
