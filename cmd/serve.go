package cmd

import (
	"github.com/spf13/cobra"

	infragin "github.com/hayan-web/health-auto-blog-sub000/infrastructure/gin"
	"github.com/hayan-web/health-auto-blog-sub000/internal/api"
	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
)

func newServeCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only JSON view of the state and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := env.deps(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer func() { _ = d.log.Sync() }()

			h := api.NewHandler(d.cfg.Service.StatePath, budget.NewGuard(d.cfg.Ceilings()), d.metrics, d.log, nil)
			srv := infragin.NewServer(&infragin.Config{
				Port:            d.cfg.Server.Port,
				Debug:           d.cfg.Service.Debug,
				ShutdownTimeout: d.cfg.Server.ShutdownTimeout,
				ServiceName:     "autoblog",
			}, d.log, h.SetupRoutes)

			return srv.RunWithGracefulShutdown(cmd.Context())
		},
	}
}
