package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/currency"
	"github.com/cleared-dev/tally/internal/id"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/store/postgres"
	"github.com/cleared-dev/tally/internal/store/sqlite"
	"github.com/cleared-dev/tally/internal/tracker"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	dir string
}

// app is an opened tracker: config, logger, store and service.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store tracker.Store
	svc   *tracker.Service
}

func (a *app) owner() string {
	return a.cfg.Owner.ID
}

// Close flushes the logger and closes the store.
func (a *app) Close() {
	_ = a.log.Sync()
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing store", zap.Error(err))
	}
}

func openApp(ctx context.Context, dir string) (*app, error) {
	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	if err != nil {
		return nil, err
	}
	return openAppWithConfig(ctx, dir, cfg)
}

func openAppWithConfig(ctx context.Context, dir string, cfg *config.Config) (*app, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, dir, cfg.Store)
	if err != nil {
		return nil, err
	}
	log.Debug("store opened", zap.String("driver", cfg.Store.Driver))

	svc := tracker.NewService(store, tracker.Options{
		Currencies: currency.Registry{},
		Increment:  cfg.Ordering.Increment,
		MaxAmount:  cfg.Ledger.MaxAmount,
		Logger:     log,
	})
	return &app{cfg: cfg, log: log, store: store, svc: svc}, nil
}

func openStore(ctx context.Context, dir string, cfg config.StoreConfig) (tracker.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		return sqlite.Open(ctx, path)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// resolveAccount accepts a full account id or a unique prefix of one.
func (a *app) resolveAccount(ctx context.Context, ref string) (model.Account, error) {
	accts, err := a.svc.Accounts(ctx, a.owner())
	if err != nil {
		return model.Account{}, err
	}
	ids := make([]string, len(accts))
	for i, acct := range accts {
		ids[i] = acct.ID
	}
	match, err := id.Resolve(ref, ids)
	if err != nil {
		return model.Account{}, fmt.Errorf("account: %w", err)
	}
	for _, acct := range accts {
		if acct.ID == match {
			return acct, nil
		}
	}
	return model.Account{}, fmt.Errorf("account %s vanished", match)
}

// resolveCategory accepts a full category id or a unique prefix of one.
func (a *app) resolveCategory(ctx context.Context, ref string) (model.Category, error) {
	cats, err := a.svc.Categories(ctx, a.owner())
	if err != nil {
		return model.Category{}, err
	}
	ids := make([]string, len(cats))
	for i, c := range cats {
		ids[i] = c.ID
	}
	match, err := id.Resolve(ref, ids)
	if err != nil {
		return model.Category{}, fmt.Errorf("category: %w", err)
	}
	for _, c := range cats {
		if c.ID == match {
			return c, nil
		}
	}
	return model.Category{}, fmt.Errorf("category %s vanished", match)
}
