package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/schoolmesh/internal/config"
	"github.com/hupe1980/schoolmesh/server"
	"github.com/hupe1980/schoolmesh/session"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API, websocket and chat page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*cfg, os.Stderr)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.mesh.Runner(), session.NewInMemoryStore(), a.household, func(o *server.Options) {
				o.Addr = cfg.Addr()
				o.ServiceName = cfg.ServiceName
				o.ShutdownTimeout = cfg.ShutdownTimeout
				o.Logger = a.zl
			})
			return srv.Run(ctx)
		},
	}
	d := config.Default()
	cmd.Flags().Int("port", d.Port, "HTTP port")
	cmd.Flags().String("service-name", d.ServiceName, "service name reported by /health")
	cmd.Flags().Duration("shutdown-timeout", d.ShutdownTimeout, "graceful shutdown timeout")
	cmd.Flags().Int("max-turns", d.MaxTurns, "maximum concurrent turns, 0 for unlimited")
	return cmd
}

// contextOrBackground keeps commands usable when executed without a context.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
