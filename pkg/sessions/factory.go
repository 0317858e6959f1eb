package sessions

import (
	"fmt"

	"pwshare/pkg/config"
	pwerrors "pwshare/pkg/errors"
)

// New returns a concrete Store based on the session configuration.
// SQLite is the default when no backend is given.
func New(cfg config.SessionsConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite", "":
		return NewSQLiteStore(cfg.DSN)
	case "mysql":
		return NewMySQLStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", pwerrors.ErrUnsupportedBackend, cfg.Backend)
	}
}
