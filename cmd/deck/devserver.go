package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/cli"
	"github.com/tgienger/deck/internal/config"
	"github.com/tgienger/deck/internal/errors"
	"github.com/tgienger/deck/internal/fakeapi"
	"github.com/tgienger/deck/internal/logging"
)

const shutdownTimeout = 5 * time.Second

func newDevServerCmd() *cobra.Command {
	var addr string
	var empty bool
	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory API server with demo data",
		Long: `dev-server serves the REST API and the commitment push channel from memory.
Point the client at it with DECK_API_URL=http://localhost:3000 (or the --addr
you chose). State is lost when the server stops.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			cfg, err := config.Load(opts.ConfigFile)
			if err != nil {
				return err
			}
			if opts.Verbose {
				cfg.Logging.Level = "debug"
			}
			logging.Configure(cfg.Logging)
			log := logging.NewLogger("dev-server")

			fake := fakeapi.New()
			defer fake.Close()
			if !empty {
				fake.Seed()
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeNetwork, "failed to listen").WithDetail("addr", addr)
			}
			srv := &http.Server{Handler: fake.Handler(), ReadHeaderTimeout: 10 * time.Second}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Serving on http://%s\n", ln.Addr())
			if !empty {
				fmt.Fprintf(out, "Demo login: %s / %s\n", fakeapi.DemoEmail, fakeapi.DemoPassword)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(ln) }()

			ctx := cmd.Context()
			select {
			case err := <-errCh:
				if !stderrors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, errors.ErrCodeNetwork, "server stopped")
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":3000", "Listen address")
	cmd.Flags().BoolVar(&empty, "empty", false, "Start without demo data")
	return cmd
}
