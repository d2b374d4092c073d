package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quicksite/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the preview server with live reload",
		Long: `Start the preview server. Pages are served at /page/<name> and
components at /component/<name>; browsers reload when project files change.
With --editor the structure editing API at /api/structure is enabled and pages
carry editor data attributes.

Examples:
  quicksite serve
  quicksite serve --port 3000 --editor`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, a)
		},
	}

	cmd.Flags().IntP("port", "p", 0, "Port to serve on")
	cmd.Flags().String("host", "", "Host to bind to")
	cmd.Flags().Bool("editor", false, "Enable the structure editing API")
	addFlagValidation(cmd, "port", validatePort)
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = a.v.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = a.v.BindPFlag("server.editor", cmd.Flags().Lookup("editor"))
	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	e, err := a.load(cmd)
	if err != nil {
		return err
	}

	srv, err := server.New(e.cfg, e.project, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			e.logger.Error(shutdownCtx, err, "Error during server shutdown")
		}
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s\n", e.project.Root(), e.cfg.Server.Address())
	return srv.Start(ctx)
}
