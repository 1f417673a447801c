package main

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/hlekernel/internal/app"
	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hlekernel/internal/service/sm"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// probeReport is printed by the probe command
type probeReport struct {
	Service   string          `yaml:"service"`
	Process   string          `yaml:"process"`
	SessionID uint64          `yaml:"session_id,omitempty"`
	Result    string          `yaml:"result"`
	Info      *sm.ServiceInfo `yaml:"info,omitempty"`
}

func probeCmd() *cobra.Command {
	var flags commonFlags

	cmd := &cobra.Command{
		Use:   "probe <service>",
		Short: "Open a session to a service the way a process would",
		Long: `Boot the kernel from the manifest, spawn a process, connect it to
"sm:" and request a session to <service>. The outcome is printed as YAML
and a failure result makes the command exit non-zero.

Examples:
  hlekernel probe --manifest boot.yaml test:svc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, manifest, err := flags.load(cmd)
			if err != nil {
				return err
			}

			logger := logging.FromConfig(cfg.Logging.Level, cfg.Logging.Development)
			defer logger.Sync()

			manager, err := app.NewManager(app.Options{
				Logger:       logger.Logger,
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

			report, probeErr := probe(cmd, manager, args[0])
			out, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return probeErr
		},
	}

	flags.register(cmd)

	return cmd
}

func probe(cmd *cobra.Command, manager *app.Manager, name string) (probeReport, error) {
	report := probeReport{Service: name, Process: "probe"}

	proc, err := manager.Spawn(cmd.Context(), report.Process)
	if err != nil {
		report.Result = result.FromError(err).String()
		return report, err
	}
	defer manager.Close(proc.ID())

	session, err := manager.GetService(cmd.Context(), proc.ID(), name)
	report.Result = result.FromError(err).String()
	if err != nil {
		return report, fmt.Errorf("probe %q: %w", name, err)
	}
	report.SessionID = session.Parent().ID()

	if info, err := manager.Services().Service(name); err == nil {
		report.Info = &info
	}
	return report, nil
}
