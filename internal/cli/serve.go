package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmynk/multas/internal/auth"
	"github.com/mmynk/multas/internal/config"
	"github.com/mmynk/multas/internal/groups"
	"github.com/mmynk/multas/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect API server",
		Long: `Run the multas Connect API over HTTP/2 cleartext.

Example:
  multas serve --addr :8080 --db ./data/multas.db
  MULTAS_REDIS_URL=redis://localhost:6379/0 multas serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides addr)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Addr != "" {
		a.cfg.Addr = opts.Addr
	}
	if a.cfg.JWTSecret == config.DefaultJWTSecret {
		a.logger.Warn("Using the default JWT secret; set MULTAS_JWT_SECRET in production")
	}

	jwtManager := auth.NewJWTManager(a.cfg.JWTSecret, a.cfg.TokenTTL)
	handler := server.NewRouter(server.Deps{
		Store:         a.store,
		Engine:        a.engine,
		Groups:        groups.NewManager(a.store, groups.WithLogger(a.logger)),
		Authenticator: auth.NewPasswordAuthenticator(a.store),
		JWT:           jwtManager,
		Metrics:       a.recorder,
		Gatherer:      a.registry,
		Logger:        a.logger,
	})

	if err := server.Serve(ctx, a.cfg.Addr, handler); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}
