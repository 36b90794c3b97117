package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leappanel/internal/panel"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the panel server",
		Long: `Start the panel server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. The host
editor pushes active-document and manifest-change events and pulls
tree items for the tests, parents and children views.`,
		Example: `  # Start the panel server (usually launched by an editor)
  leappanel serve

  # Serve with a dedicated snapshot cache
  leappanel serve --cache-path /tmp/leappanel.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}

	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg := GetConfig(cmd.Context())
	logger := GetLogger(cmd.Context())

	server := panel.NewServerWithOptions(cmd.InOrStdin(), cmd.OutOrStdout(), panel.Options{
		Logger:    logger,
		CachePath: cfg.CachePath,
	})
	for _, p := range cfg.Projects {
		server.Views().RegisterProject(p.Root, p.Name)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// Cancel the group when the host closes the stream.
		defer stop()
		return server.Run()
	})
	eg.Go(func() error {
		<-egctx.Done()
		// Unblock the read loop on signal-driven shutdown.
		_ = os.Stdin.Close()
		return nil
	})

	return eg.Wait()
}
