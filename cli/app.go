// ABOUTME: Wires config, session, transport, cache, journal and coordinator for commands
// ABOUTME: Every subcommand receives the same App and writes its output to App.Out
package cli

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/auth"
	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/config"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/db"
	"github.com/harperreed/crmlink/gqlclient"
	"github.com/harperreed/crmlink/live"
	"github.com/harperreed/crmlink/localstore"
	"github.com/harperreed/crmlink/models"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// App holds the wired components shared by all subcommands.
type App struct {
	Config      *config.Config
	Log         zerolog.Logger
	Auth        *auth.Provider
	Coordinator *coordinator.Coordinator
	DB          *sql.DB
	Live        live.Subscriber
	Out         io.Writer

	// ReadPassword prompts without echo.
	ReadPassword func(prompt string) (string, error)
	Now          func() time.Time

	store *localstore.Store
}

// Open builds the App from config: token store, GraphQL client, adapter,
// journal database and coordinator. Snapshots saved by earlier runs seed the
// cache so reads work offline.
func Open(cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := localstore.Open(cfg.LocalStoreDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	tokens := localstore.NewTokenStore(store)

	client := gqlclient.New(cfg.APIURL, tokens,
		gqlclient.WithTimeout(cfg.RequestTimeout()),
		gqlclient.WithLogger(log),
	)

	registry, err := adapter.LoadRegistry(cfg.DocumentsPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	records, err := adapter.New(client, registry, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if n, err := db.AbandonPendingMutations(database); err != nil {
		log.Warn().Err(err).Msg("failed to abandon stale mutations")
	} else if n > 0 {
		log.Info().Int64("count", n).Msg("marked mutations from an earlier run as failed")
	}

	provider := auth.New(client, tokens, log)
	c := cache.New()
	hydrate(c, database, log)

	app := &App{
		Config: cfg,
		Log:    log,
		Auth:   provider,
		DB:     database,
		Live:   live.NewClient(cfg.WSURL, tokens, log),
		Out:    os.Stdout,
		store:  store,
	}
	app.ReadPassword = terminalPassword
	app.Coordinator = coordinator.New(records, c,
		coordinator.WithJournal(db.NewJournal(database)),
		coordinator.WithErrorHook(func(err error) { provider.OnError(err) }),
		coordinator.WithFailureHook(func(f *crmerr.MutationFailed) {
			log.Warn().Err(f.Err).Str("resource", f.Resource).Str("id", f.ID).Str("op", f.Op).Msg("mutation reverted")
		}),
		coordinator.WithLogger(log),
	)
	return app, nil
}

// Close releases the database and the token store.
func (a *App) Close() error {
	var firstErr error
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

func hydrate(c *cache.Store, database *sql.DB, log zerolog.Logger) {
	for _, resource := range models.Resources() {
		recs, err := db.LoadSnapshots(database, resource)
		if err != nil {
			log.Warn().Err(err).Str("resource", resource).Msg("failed to load snapshots")
			continue
		}
		if n := c.Hydrate(resource, recs); n > 0 {
			log.Debug().Str("resource", resource).Int("count", n).Msg("hydrated cache")
		}
	}
}

func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(data), nil
}
