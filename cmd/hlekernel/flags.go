package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/hlekernel/internal/infrastructure/config"
)

// commonFlags override environment configuration when set
type commonFlags struct {
	manifest     string
	sessionLimit int64
	logLevel     string
	dev          bool
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.manifest, "manifest", "m", "", "Boot manifest (.yaml, .yml or .toml)")
	cmd.Flags().Int64Var(&f.sessionLimit, "session-limit", 0, "Sessions per process, 0 for unlimited")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&f.dev, "dev", false, "Development logging")
}

// load reads the environment and applies the flags the user set
func (f *commonFlags) load(cmd *cobra.Command) (*config.Config, *config.Manifest, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("manifest") {
		cfg.Boot.Manifest = f.manifest
	}
	if flags.Changed("session-limit") {
		cfg.Kernel.SessionLimit = f.sessionLimit
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("dev") {
		cfg.Logging.Development = f.dev
	}

	if cfg.Boot.Manifest == "" {
		return cfg, nil, nil
	}
	manifest, err := config.LoadManifest(cfg.Boot.Manifest)
	if err != nil {
		return nil, nil, err
	}
	return cfg, manifest, nil
}
