package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/GriffinCanCode/hlekernel/internal/api/http"
	"github.com/GriffinCanCode/hlekernel/internal/api/middleware"
	"github.com/GriffinCanCode/hlekernel/internal/app"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/server"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/tracing"
)

func serveCmd() *cobra.Command {
	var (
		flags     commonFlags
		debugAddr string
		noDebug   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the kernel and the debug API",
		Long: `Run the kernel until SIGINT or SIGTERM.

The boot manifest registers HLE stub services. The debug API serves
health, registered services, processes and Prometheus metrics.

Examples:
  hlekernel serve --manifest boot.yaml
  hlekernel serve --debug-addr 0.0.0.0:9000 --dev`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manifest, err := flags.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug-addr") {
				cfg.Debug.Addr = debugAddr
			}
			if noDebug {
				cfg.Debug.Enabled = false
			}

			logger := logging.FromConfig(cfg.Logging.Level, cfg.Logging.Development)
			defer logger.Sync()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := monitoring.NewMetrics(reg)
			tracer := tracing.New("hlekernel", logger.Component("tracing"))

			manager, err := app.NewManager(app.Options{
				Logger:       logger.Logger,
				Metrics:      metrics,
				Tracer:       tracer,
				SessionLimit: cfg.Kernel.SessionLimit,
				WaitTimeout:  cfg.Kernel.WaitTimeout,
			})
			if err != nil {
				return err
			}
			defer manager.Shutdown()

			if err := manager.Boot(manifest); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return manager.Run(ctx) })

			if cfg.Debug.Enabled {
				if !cfg.Logging.Development {
					gin.SetMode(gin.ReleaseMode)
				}

				var rateLimit *middleware.RateLimitConfig
				if cfg.RateLimit.Enabled {
					rateLimit = &middleware.RateLimitConfig{
						RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
						Burst:             cfg.RateLimit.Burst,
						IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
					}
				}

				router := apihttp.NewRouter(apihttp.RouterConfig{
					Manager:   manager.Services(),
					Processes: manager,
					Metrics:   metrics,
					Gatherer:  reg,
					Tracer:    tracer,
					Logger:    logger.Component("debug"),
					Version:   version,
					RateLimit: rateLimit,
				})
				srv := server.New(cfg.Debug.Addr, router, logger.Component("debug"))
				g.Go(func() error { return srv.Run(ctx) })
			}

			logger.Info("Kernel running",
				zap.Strings("named_ports", manager.Kernel().NamedPorts()),
				zap.Int64("session_limit", manager.SessionLimit()),
				zap.Bool("debug_api", cfg.Debug.Enabled),
			)

			err = g.Wait()
			logger.Info("Shutting down gracefully...")
			return err
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&debugAddr, "debug-addr", "", "Debug API listen address")
	cmd.Flags().BoolVar(&noDebug, "no-debug", false, "Disable the debug API")

	return cmd
}
