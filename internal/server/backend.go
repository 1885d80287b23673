package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// Backend is the account service together with the storage it runs on.
// Both the server and authctl build one from Config.
type Backend struct {
	Accounts *accounts.Service
	Tokens   *auth.TokenService

	// Postgres is nil when the in-memory directory is configured.
	Postgres *repomanager.PostgresStore
}

// OpenBackend wires storage, hashing and tokens. With migrate set, pending
// PostgreSQL migrations are applied before returning.
func OpenBackend(ctx context.Context, cfg *config.Config, logger logging.Logger, migrate bool) (*Backend, error) {
	tokens, err := auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token service init error: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	b := &Backend{Tokens: tokens}

	var store accounts.Store
	if cfg.UsesMemory() {
		logger.Warn(ctx, "using in-memory account directory; accounts are lost on exit")
		store = accounts.NewMemoryStore(nil)
	} else {
		pg, err := repomanager.Open(ctx, cfg.DatabaseDSN, cfg.DBConnectTimeout, logger)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if migrate {
			if err := pg.RunMigrations(ctx); err != nil {
				_ = pg.Close()
				return nil, fmt.Errorf("migration error: %w", err)
			}
		}
		b.Postgres = pg
		store = pg
	}

	b.Accounts = accounts.NewService(store, hasher, tokens, logger)
	return b, nil
}

func (b *Backend) Close() error {
	if b.Postgres != nil {
		return b.Postgres.Close()
	}
	return nil
}
