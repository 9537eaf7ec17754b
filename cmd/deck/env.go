package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/api"
	"github.com/tgienger/deck/internal/cli"
	"github.com/tgienger/deck/internal/config"
	"github.com/tgienger/deck/internal/db"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/logging"
	"github.com/tgienger/deck/internal/models"
	"github.com/tgienger/deck/internal/socket"
	"github.com/tgienger/deck/internal/store"
	"github.com/tgienger/deck/internal/ui"
)

// env is everything a command needs, built once per invocation
type env struct {
	cfg     *config.Config
	db      *db.DB
	client  *api.Client
	stores  ui.Stores
	printer *cli.Printer
	log     *logrus.Entry
}

// newEnv loads the config, opens the database and restores every local store
func newEnv(cmd *cobra.Command) (*env, error) {
	opts := cli.GetOptions(cmd)

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	logging.Configure(cfg.Logging)

	database, err := db.Open(cfg.Storage.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "failed to open database").
			WithDetail("path", cfg.Storage.Path)
	}

	client := api.New(cfg.API.BaseURL(), api.WithTimeout(cfg.API.Timeout.Duration))
	auth := store.NewAuthStore(client, database)
	client.SetTokenSource(auth)

	board := store.NewBoard(database)
	comments := store.NewCommentStore(database)
	stores := ui.Stores{
		Settings:      database,
		Auth:          auth,
		Board:         board,
		Tasks:         store.NewTaskStore(database, store.WithBoard(board), store.WithComments(comments)),
		Comments:      comments,
		Workspaces:    store.NewWorkspaceStore(database, ""),
		Commitments:   store.NewCommitmentStore(client),
		Notifications: store.NewNotificationStore(client),
		Dashboard:     store.NewDashboardStore(client),
		Teams:         store.NewTeamStore(client, database),
	}

	for _, load := range []func() error{
		auth.Load, board.Load, stores.Tasks.Load, stores.Workspaces.Load, stores.Teams.Load,
	} {
		if err := load(); err != nil {
			database.Close()
			return nil, err
		}
	}
	if u := auth.User(); u != nil {
		stores.Workspaces.SetCurrentUser(u.Name)
	}

	return &env{
		cfg:     cfg,
		db:      database,
		client:  client,
		stores:  stores,
		printer: cli.NewPrinter(cmd.OutOrStdout(), opts),
		log:     logging.NewLogger("cli"),
	}, nil
}

// listener builds the push channel listener feeding the commitment store.
// then, when set, sees every event after the store has merged it.
func (e *env) listener(then socket.Handler) (*socket.Listener, error) {
	wsURL, err := socket.URL(e.cfg.API.Origin, e.cfg.Socket.Namespace)
	if err != nil {
		return nil, err
	}
	return socket.New(wsURL, func(event models.CommitmentEvent, c models.Commitment) {
		e.stores.Commitments.Apply(event, c)
		if then != nil {
			then(event, c)
		}
	}, socket.WithTokenSource(e.stores.Auth)), nil
}

// requireAuth fails early when there is no usable session
func (e *env) requireAuth() error {
	if e.stores.Auth.Token() == "" {
		return errors.New(errors.ErrCodeUnauthorized, "You are not signed in")
	}
	if e.stores.Auth.Expired() {
		return errors.New(errors.ErrCodeUnauthorized, "Your session has expired")
	}
	return nil
}

func (e *env) Close() error {
	return e.db.Close()
}

// withEnv wraps a command body with env setup and teardown
func withEnv(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd.Context(), cmd, e, args)
	}
}

// withSession is withEnv for commands that talk to the server as the signed-in user
func withSession(fn func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error) func(*cobra.Command, []string) error {
	return withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
		if err := e.requireAuth(); err != nil {
			return err
		}
		return fn(ctx, cmd, e, args)
	})
}
