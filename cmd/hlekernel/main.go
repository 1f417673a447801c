package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hlekernel",
		Short: "High-level emulated kernel IPC core",
		Long: `hlekernel hosts the IPC core of an emulated console kernel.

Emulated processes reach host-implemented services through ports and
sessions brokered by the service manager on "sm:". Services listed in
a boot manifest are registered as HLE stubs at startup.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		probeCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
