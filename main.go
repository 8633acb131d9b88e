package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/urfave/cli/v2"

	"tours-service/config"
	"tours-service/db"
	"tours-service/events"
	apihandlers "tours-service/handlers"
	"tours-service/logger"
	"tours-service/mailer"
	"tours-service/metrics"
	"tours-service/repository"
	"tours-service/repository/memory"
	"tours-service/seed"
	"tours-service/services"
	"tours-service/tracing"
	"tours-service/utils"
)

type tourStore interface {
	services.TourStore
	seed.TourStore
}

type userStore interface {
	services.UserStore
	seed.UserStore
}

type reviewStore interface {
	services.ReviewStore
	seed.ReviewStore
}

type stores struct {
	tours   tourStore
	users   userStore
	reviews reviewStore
	close   func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.Storage.Driver == "memory" {
		log.Warn("using in-memory storage, data is lost on exit")
		return &stores{
			tours:   memory.NewTourStore(),
			users:   memory.NewUserStore(),
			reviews: memory.NewReviewStore(),
			close:   func(context.Context) error { return nil },
		}, nil
	}

	client, err := db.ConnectMongoDB(ctx, cfg.Mongo.URI, log)
	if err != nil {
		return nil, err
	}
	database := client.Database(cfg.Mongo.Database)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &stores{
		tours:   repository.NewTourRepository(database, cfg.Mongo.Timeout),
		users:   repository.NewUserRepository(database, cfg.Mongo.Timeout),
		reviews: repository.NewReviewRepository(database, cfg.Mongo.Timeout),
		close:   client.Disconnect,
	}, nil
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.NewLoader(
		config.WithDotenv(c.String("env-file")),
		config.WithConfigFile(c.String("config")),
	).Load()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(log)
	return cfg, log, nil
}

func serve(c *cli.Context) error {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(cfg.Tracing.Enabled, nil)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(context.Background()); err != nil {
			log.Error("closing storage failed", "error", err)
		}
	}()

	var publisher services.Publisher = events.Noop{}
	if cfg.NATS.URL != "" {
		p, err := events.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	reg := metrics.NewRegistry()
	sender, err := mailer.New(cfg.Mail, log)
	if err != nil {
		return err
	}
	sender = mailer.WithMetrics(sender, reg)

	opts := []services.Option{services.WithLogger(log), services.WithEvents(publisher), services.WithMetrics(reg)}
	tokens := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	auth := services.NewAuthService(st.users, tokens, sender, cfg.Auth.BcryptCost, opts...)

	router := apihandlers.NewRouter(apihandlers.Deps{
		Config:  cfg,
		Log:     log,
		Metrics: reg,
		Auth:    auth,
		Users:   services.NewUserService(st.users, auth, opts...),
		Tours:   services.NewTourService(st.tours, st.reviews, st.users, opts...),
		Reviews: services.NewReviewService(st.reviews, st.tours, st.users, opts...),
	})

	var handler http.Handler = router
	if cfg.Server.TrustProxy {
		handler = handlers.ProxyHeaders(router)
	}
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if path := c.String("config"); path != "" {
		go func() {
			err := config.Watch(ctx, path, log, func(next *config.Config) {
				logger.SetLevel(next.Log.Level)
				log.Info("config reloaded", "log_level", next.Log.Level)
			})
			if err != nil {
				log.Warn("config watch stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func seeder(c *cli.Context) (*seed.Seeder, func(), error) {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Driver != "mongo" {
		return nil, nil, fmt.Errorf("seeding needs the mongo storage driver, got %q", cfg.Storage.Driver)
	}
	st, err := openStores(c.Context, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	s := &seed.Seeder{
		Tours:      st.tours,
		Users:      st.users,
		Reviews:    st.reviews,
		Log:        log,
		BcryptCost: cfg.Auth.BcryptCost,
		Now:        time.Now,
	}
	return s, func() { _ = st.close(context.Background()) }, nil
}

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load or clear development data",
		Subcommands: []*cli.Command{
			{
				Name:  "import",
				Usage: "import tours.json, users.json and reviews.json",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Value: "dev-data", Usage: "directory holding the JSON files"},
				},
				Action: func(c *cli.Context) error {
					s, done, err := seeder(c)
					if err != nil {
						return err
					}
					defer done()
					_, err = s.Import(c.Context, c.String("dir"))
					return err
				},
			},
			{
				Name:  "delete",
				Usage: "delete all tours, users and reviews",
				Action: func(c *cli.Context) error {
					s, done, err := seeder(c)
					if err != nil {
						return err
					}
					defer done()
					return s.Delete(c.Context)
				},
			},
		},
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "tours-service",
		Usage: "tours, users and reviews REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"TOURS_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "dotenv file loaded before reading the environment",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the HTTP API", Action: serve},
			seedCommand(),
		},
	}
}

func main() {
	if err := app().Run(os.Args); err != nil {
		slog.Error("tours-service failed", "error", err)
		os.Exit(1)
	}
}
