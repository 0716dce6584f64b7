package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/prathamanvekar/video-app/internal/config"
	"github.com/prathamanvekar/video-app/internal/db"
	"github.com/prathamanvekar/video-app/internal/handlers"
	"github.com/prathamanvekar/video-app/internal/httpserver"
	"github.com/prathamanvekar/video-app/internal/logging"
	"github.com/prathamanvekar/video-app/internal/middleware"
)

// requestTimeout stays below the server WriteTimeout so the 504 can be written.
const requestTimeout = httpserver.WriteTimeout - 5*time.Second

// Run executes the CLI with args (without the program name).
func Run(ctx context.Context, args []string) error {
	root := newRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "videoapp",
		Short:        "Personal video library backend",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var migrateFirst bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrateFirst)
		},
	}
	cmd.Flags().BoolVar(&migrateFirst, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, migrateFirst bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	if err := cfg.ValidateServe(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return err
	}

	if migrateFirst {
		if err := migrateUp(ctx, cfg.DatabaseURL); err != nil {
			logger.Error("apply migrations", "error", err)
			return err
		}
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect database", "error", err)
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		logger.Error("build dependencies", "error", err)
		return err
	}
	defer cleanup()

	srv := httpserver.New(cfg.AppPort, newRouter(logger, deps, cfg.TrustProxyHeaders))
	logger.Info("starting http server", "port", cfg.AppPort, "env", cfg.Env, "uploadProvider", cfg.Upload.Provider)

	return srv.Run(ctx, logger)
}

// newRouter honours X-Forwarded-For and X-Real-IP only when trustProxy is
// set; otherwise any client could pick its own rate-limit bucket.
func newRouter(logger *slog.Logger, deps handlers.Dependencies, trustProxy bool) http.Handler {
	r := chi.NewRouter()
	if trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.RequestLogger(logger),
		chimw.Timeout(requestTimeout),
	)
	handlers.RegisterRoutes(r, deps)
	return r
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				if err := migrateUp(cmd.Context(), cfg.DatabaseURL); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *db.Migrator) error {
					if err := m.Down(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "reverted one migration")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(func(m *db.Migrator) error {
					statuses, dirty, err := m.Status()
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, s := range statuses {
						mark := " "
						if s.Applied {
							mark = "x"
						}
						fmt.Fprintf(out, "[%s] %s\n", mark, s.Name)
					}
					if dirty {
						fmt.Fprintln(out, "schema is dirty: the last migration failed part way")
					}
					return nil
				})
			},
		},
	)
	return cmd
}

func migrateUp(ctx context.Context, databaseURL string) error {
	m, err := db.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up(ctx)
}

func withMigrator(fn func(*db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	m, err := db.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return fn(m)
}
