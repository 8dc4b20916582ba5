package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chainbreak/chainview/internal/server"
	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/config"
	"github.com/chainbreak/chainview/pkg/intel"
	"github.com/chainbreak/chainview/pkg/render"
	"github.com/chainbreak/chainview/pkg/session"
)

// newServeCmd creates the serve command: host an interactive session over
// HTTP with a WebSocket frame stream and Prometheus metrics.
func newServeCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an interactive graph session over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8090)")
	return cmd
}

func runServe(ctx context.Context, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	metrics := server.NewMetrics()
	metrics.Register()

	cacheBackend, err := cfg.OpenCache(ctx)
	if err != nil {
		return err
	}

	var srv *server.Server
	sess := session.New(session.Options{
		Layout:       cfg.LayoutConfig(),
		Detector:     community.NewClient(cfg.Services.Detection, cacheBackend, logger),
		Intel:        intel.NewHTTPProvider(cfg.Services.ThreatIntel),
		ExportPrefix: cfg.Export.Prefix,
		Logger:       logger,
		Callbacks: session.Callbacks{
			OnFrame: func(frame render.Frame) {
				if srv != nil {
					srv.BroadcastFrame(frame)
				}
			},
		},
	})
	defer sess.Close()

	srv = server.New(server.Options{
		Addr:    cfg.Server.Addr,
		Session: sess,
		Metrics: metrics,
		Logger:  logger,
	})
	return srv.Run(ctx)
}
