package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/MrEthical07/quizClient/api"
	"github.com/MrEthical07/quizClient/internal/logging"
	"github.com/MrEthical07/quizClient/session"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "QUIZCTL"

// app holds what every command needs. It is populated in PersistentPreRunE.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	logger  *slog.Logger
	manager *quizClient.Manager
	client  *api.Client
	closers []func() error
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: viper.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "quizctl",
		Short: "Command-line client for QuizHacker",
		Long: `quizctl logs in to QuizHacker and browses quizzes from the terminal.

The session is kept between runs. Flags can also be set through QUIZCTL_*
environment variables, a .env file in the working directory, or a YAML
config file passed with --config.

Examples:
  quizctl login alice --password secret
  quizctl verify 123456
  quizctl leaderboard
  QUIZCTL_STORE=memory quizctl categories`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml)")
	flags.String("api-url", quizClient.DefaultBaseURL, "backend base URL")
	flags.String("store", "sqlite", "session store: sqlite, redis or memory")
	flags.String("store-path", defaultStorePath(), "session file for the sqlite store")
	flags.String("redis-addr", "localhost:6379", "address for the redis store")
	flags.String("log-level", "warn", "log level: debug, info, warn or error")
	flags.Bool("json", false, "print JSON instead of tables")
	_ = a.v.BindPFlags(flags)

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newVerifyCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newLeaderboardCmd(a),
		newQuizzesCmd(a),
		newCategoriesCmd(a),
	)

	for _, c := range root.Commands() {
		a.wrap(c)
	}
	return root
}

// wrap makes c release the manager whether or not it succeeded.
func (a *app) wrap(c *cobra.Command) {
	run := c.RunE
	if run == nil {
		return
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		return errors.Join(err, a.teardown())
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "quizctl.db"
	}
	return filepath.Join(dir, "quizctl", "session.db")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	if path := a.v.GetString("config"); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	a.logger = logging.SetupWriter(a.errOut, a.v.GetString("log-level"))

	cfg := quizClient.DefaultConfig()
	cfg.API.BaseURL = a.v.GetString("api-url")
	cfg.Avatar.Enabled = cmd.Name() == "status"

	builder := quizClient.New().
		WithConfig(cfg).
		WithLogger(a.logger).
		WithPrompter(quizClient.PrompterFunc(func(_ context.Context, p quizClient.Prompt) {
			fmt.Fprintln(a.errOut, p.Message)
		}))

	switch store := strings.ToLower(a.v.GetString("store")); store {
	case "sqlite":
		path := a.v.GetString("store-path")
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("create session directory: %w", err)
		}
		builder.WithSQLite(path)
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: a.v.GetString("redis-addr")})
		a.closers = append(a.closers, rdb.Close)
		builder.WithRedis(rdb)
	case "memory":
		builder.WithStore(session.NewMemoryStore())
	default:
		return fmt.Errorf("unknown store %q: want sqlite, redis or memory", store)
	}

	m, err := builder.Build()
	if err != nil {
		return errors.Join(err, a.teardown())
	}
	a.manager = m
	a.closers = append([]func() error{m.Close}, a.closers...)

	if err := m.LoadSession(cmd.Context()); err != nil {
		return errors.Join(err, a.teardown())
	}

	a.client, err = api.NewClient(m, api.WithLogger(a.logger))
	if err != nil {
		return errors.Join(err, a.teardown())
	}
	return nil
}

func (a *app) teardown() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) jsonOut() bool {
	return a.v.GetBool("json")
}
