package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/pmanager/internal/browse"
	"github.com/dmitrijs2005/pmanager/internal/config"
	"github.com/dmitrijs2005/pmanager/internal/logging"
	"github.com/dmitrijs2005/pmanager/internal/objstore"
	"github.com/dmitrijs2005/pmanager/internal/repositories/repomanager"
	"github.com/dmitrijs2005/pmanager/internal/services"
	"github.com/dmitrijs2005/pmanager/internal/session"
)

// browserReadyTimeout bounds the wait for the first entry list after login.
const browserReadyTimeout = 3 * time.Second

type App struct {
	config   *config.Config
	db       *sql.DB
	auth     *services.AuthService
	entries  services.EntryService
	settings services.SettingsService
	backup   services.BackupService
	log      logging.Logger

	reader *bufio.Reader
	out    io.Writer

	browser *browse.Controller
}

// newObjectStore is a seam for tests that cannot reach S3.
var newObjectStore = func(ctx context.Context, cfg objstore.Config) (objstore.Store, error) {
	return objstore.NewS3Store(ctx, cfg)
}

// NewApp opens the database, runs migrations and wires the services.
// Close releases the database.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	db, repos, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	var store objstore.Store
	if cfg.ObjectStore().Enabled() {
		store, err = newObjectStore(ctx, cfg.ObjectStore())
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("object storage: %w", err)
		}
	}

	feed := services.NewChangeFeed()
	sessions := session.NewManager(cfg.SessionTTL)

	a := &App{
		config:   cfg,
		db:       db,
		auth:     services.NewAuthService(db, repos, sessions, feed, log),
		entries:  services.NewEntryService(db, repos, feed, log),
		settings: services.NewSettingsService(db, repos),
		backup:   services.NewBackupService(db, repos, store, feed, log),
		log:      log,
		reader:   bufio.NewReader(in),
		out:      out,
	}
	return a, nil
}

// Run starts the REPL and returns when the user exits, input ends or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to pmanager (type 'help' for commands)")
	runREPL(ctx, a, a.auth.CurrentUsername, a.reader, a.out)
}

// Close logs out and releases the database.
func (a *App) Close() error {
	a.closeBrowser()
	a.auth.Logout()
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.auth.CurrentUsername() != ""
}

// session returns the current session, locking the vault when it expired.
func (a *App) session() (*session.Session, error) {
	sess, err := a.auth.Current()
	if err != nil {
		a.closeBrowser()
		return nil, err
	}
	return sess, nil
}

func (a *App) openBrowser(ctx context.Context) error {
	a.closeBrowser()

	sess, err := a.session()
	if err != nil {
		return err
	}

	b := browse.New(a.entries, sess, a.config.SearchDebounce, a.log.With("user_id", sess.UserID))
	select {
	case <-b.Ready():
	case <-time.After(browserReadyTimeout):
		a.log.Warn(ctx, "entry list not ready", "timeout", browserReadyTimeout)
	case <-ctx.Done():
		b.Close()
		return ctx.Err()
	}
	a.browser = b
	return nil
}

func (a *App) closeBrowser() {
	if a.browser != nil {
		a.browser.Close()
		a.browser = nil
	}
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
