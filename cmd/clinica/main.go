package main

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/saudelab/clinica-api/auth"
	"github.com/saudelab/clinica-api/config"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config *config.Config
	bunDB  *bun.DB
	auth   auth.Authenticator
	repo   auth.RepositoryManager
	srv    router.Server[*fiber.App]
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("clinica"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.UsingInsecureDevKey {
		lgr.Warn("JWT_SIGNING_KEY not set, using the insecure development key")
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		log.Fatal(err)
	}

	if err := WithAuth(ctx, app); err != nil {
		log.Fatal(err)
	}

	app.srv.Serve(cfg.AppAddr)

	WaitExitSignal()
}

// userTrackerAdapter narrows the users repository to the surfaces the
// credential provider and the request guard need.
type userTrackerAdapter struct {
	users auth.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.GetPersistence().GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*auth.User)(nil))

	dialect := sqlitedialect.New()
	client, err := persistence.New(app.config.GetPersistence(), db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	// Seed accounts only exist for local development.
	if app.config.IsDevelopment() {
		client.RegisterFixtures(fixturesFS)
		if err := client.Seed(ctx); err != nil {
			return err
		}
	}

	app.bunDB = client.DB()

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			AppName:       app.config.AppName,
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	app.srv = srv

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	repo := auth.NewRepositoryManager(app.bunDB)
	if err := repo.Validate(); err != nil {
		return err
	}
	app.repo = repo

	store := userTrackerAdapter{users: repo.Users()}

	userProvider := auth.NewUserProvider(store)
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := auth.NewAuthenticator(userProvider, app.config)
	authenticator.WithLogger(app.GetLogger("auth:authn"))
	app.auth = authenticator

	gate := auth.NewDirectoryGate(store).
		WithLogger(app.GetLogger("auth:gate"))

	errHandler := auth.NewAPIErrorHandler(app.GetLogger("auth:http")).Handle

	protected := auth.ProtectedRoute(app.config, authenticator.TokenService(), gate, errHandler)
	adminOnly := auth.RequireRoles(errHandler, auth.RoleAdmin)
	staffOnly := auth.RequireRoles(errHandler, auth.RoleAdmin, auth.RoleMedico)

	api := app.srv.Router().Group("/")

	auth.RegisterAuthRoutes(api, protected, adminOnly,
		auth.WithAuthRepo(repo),
		auth.WithAuthAuther(authenticator),
		auth.WithAuthLogger(app.GetLogger("auth:ctrl")),
		auth.WithAuthErrorHandler(errHandler),
	)

	auth.RegisterUsersRoutes(api, protected, adminOnly, staffOnly,
		auth.WithUsersRepo(repo),
		auth.WithUsersLogger(app.GetLogger("users:ctrl")),
		auth.WithUsersErrorHandler(errHandler),
	)

	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
