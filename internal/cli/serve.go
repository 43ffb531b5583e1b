package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/pinned-repos/internal/metadata"
	"github.com/rohmanhakim/pinned-repos/internal/server"
)

const refreshDrainTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start an HTTP server answering GET /?username=<name> with the pinned
repositories of that profile as a JSON array.

By default it listens on port 8000. Use --port, PINNED_PORT or PORT to change it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError()
		if err != nil {
			return err
		}

		logger, err := newLogger(cmd.ErrOrStderr(), cfg)
		if err != nil {
			return err
		}
		sink := metadata.NewRecorder(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals()...)
		defer stop()

		pinnedResolver := newResolver(cfg, sink, nil)
		srv := server.NewServer(pinnedResolver, logger)

		serveErr := srv.ListenAndServe(ctx, cfg.Addr())

		drainCtx, cancel := context.WithTimeout(context.Background(), refreshDrainTimeout)
		defer cancel()
		if err := pinnedResolver.Close(drainCtx); err != nil {
			logger.Warn().Err(err).Msg("background refreshes cancelled")
		}

		return serveErr
	},
}

// shutdownSignals returns the OS signals to listen for graceful shutdown.
func shutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}
