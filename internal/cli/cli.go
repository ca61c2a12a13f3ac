// Package cli builds the coursedesk command tree:
//
//	coursedesk serve                 # run the HTTP API
//	coursedesk migrate               # apply database migrations
//	coursedesk recompute-capacity    # repair every course's full flag
//	coursedesk user add ...          # create a back-office account
//
// Every command reads the YAML config named by --config, with environment
// overrides applied on top.
package cli

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/config"
	"github.com/Shivanand-hulikatti/coursedesk/internal/database"
	"github.com/Shivanand-hulikatti/coursedesk/internal/repository"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

type rootOptions struct {
	configFile string
}

func BuildCLI() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:   "coursedesk",
		Short: "coursedesk: back office for a course center",
		Long: `coursedesk runs the back office of a course center:
- courses, rooms, facilitators and participants
- enrollments kept consistent with course capacity
- payments that enroll their participant once paid
- attendance, appointments and finance reports`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "configs/coursedesk.yaml", "config file path")

	rootCmd.AddCommand(buildServeCommand(opts))
	rootCmd.AddCommand(buildMigrateCommand(opts))
	rootCmd.AddCommand(buildRecomputeCommand(opts))
	rootCmd.AddCommand(buildUserCommand(opts))

	return rootCmd
}

// setup loads the config and configures logging for a command run.
func (o *rootOptions) setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return nil, zerolog.Nop(), pkgerrors.Wrap(err, "failed to load config")
	}
	return cfg, newLogger(cfg, cmd.ErrOrStderr()), nil
}

// newLogger builds the process logger from the log section.
func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Log.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "coursedesk").Logger()
}

// openStore connects the configured storage driver. Postgres stores are
// migrated first when migrate is set.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate bool) (repository.Store, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		return repository.NewMemoryStore(), nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "database")
	}
	if migrate {
		if err := database.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, pkgerrors.Wrap(err, "migrate")
		}
	}
	log.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("connected to postgres")
	return repository.NewPostgresStore(pool), nil
}

// openSessions connects the configured session backend. The returned
// close func is never nil.
func openSessions(ctx context.Context, cfg *config.Config, log zerolog.Logger) (auth.SessionStore, func() error, error) {
	if cfg.Session.Backend == config.SessionMemory {
		return auth.NewMemorySessionStore(nil), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, pkgerrors.Wrapf(err, "redis ping %s", cfg.Redis.Addr)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")
	return auth.NewRedisSessionStore(client), client.Close, nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// Execute runs the command tree and exits the process on failure.
func Execute() {
	err := BuildCLI().Execute()
	if err != nil {
		_, _ = io.WriteString(os.Stderr, "error: "+err.Error()+"\n")
	}
	os.Exit(exitCode(err))
}
