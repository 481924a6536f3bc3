package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gurbos/tcc/compile"
	"github.com/gurbos/tcc/config"
	ds "github.com/gurbos/tcc/datastore"
	"github.com/gurbos/tcc/render"
)

type application struct {
	set       *config.Set
	setPath   string
	flags     *pflag.FlagSet
	noPics    bool
	store     ds.Store
	scheduler *compile.Scheduler
	logger    *zap.Logger
}

func newApplication(ctx context.Context, setPath string, fs *pflag.FlagSet, flags cmd_flags) (*application, error) {
	logger, err := newLogger(flags.verbose)
	if err != nil {
		return nil, fmt.Errorf("Error creating logger: %w", err)
	}
	app := &application{setPath: setPath, flags: fs, noPics: flags.no_pics, logger: logger}
	if err := app.load(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// load reads the set file and opens the stores and renderer it names.
func (app *application) load(ctx context.Context) error {
	set, err := config.Load(app.setPath, app.flags)
	if err != nil {
		return err
	}
	if app.noPics {
		set.DrawPics = false
	}

	if err := os.MkdirAll(filepath.Dir(set.CardDB), 0o755); err != nil {
		return fmt.Errorf("Error creating card database directory: %w", err)
	}
	cdb, err := ds.OpenCardDB(ctx, set.CardDB)
	if err != nil {
		return err
	}
	store := ds.Store(cdb)

	var creds DBCredentials
	creds.LoadCredentials()
	if dsn := catalogDSN(set, &creds); dsn != "" {
		mirror, err := openCatalog(ctx, dsn)
		if err != nil {
			cdb.Close()
			return err
		}
		store = ds.Tee(cdb, mirror)
		app.logger.Info("mirroring cards to catalog database")
	}

	var renderer compile.Renderer
	if set.DrawPics {
		r, err := render.New(set.FontPath, app.logger)
		if err != nil {
			store.Close()
			return err
		}
		renderer = r
	}

	if app.store != nil {
		app.store.Close()
	}
	app.set = set
	app.store = store
	app.scheduler = compile.New(set, compile.Options{Store: store, Renderer: renderer, Logger: app.logger})
	return nil
}

func openCatalog(ctx context.Context, dsn string) (*ds.PostgresDataStore, error) {
	cfg, err := ds.Config(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := ds.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := ds.NewPostgresDataStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func (app *application) compile(ctx context.Context) (*compile.Report, error) {
	return app.scheduler.Run(ctx)
}

func (app *application) Close() error {
	defer app.logger.Sync()
	if app.store == nil {
		return nil
	}
	return app.store.Close()
}
