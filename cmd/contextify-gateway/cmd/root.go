// Package cmd provides the CLI commands for the contextify gateway.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atakanatali/contextify-gateway/internal/config"
)

var cfgFile string
var stateFilePath string

var rootCmd = &cobra.Command{
	Use:   "contextify-gateway",
	Short: "contextify-gateway - MCP policy gateway and host",
	Long: `contextify-gateway compiles a policy-governed tool catalog from a local
endpoint descriptor list and aggregates remote MCP servers behind a single
namespaced catalog, serving both over one JSON-RPC 2.0 surface.

Quick start:
  1. Create a config file: contextify-gateway.yaml
  2. Run: contextify-gateway start

Configuration:
  Config is loaded from contextify-gateway.yaml in the current directory,
  $HOME/.contextify-gateway/, or /etc/contextify-gateway/.

  Environment variables can override config values with the
  CONTEXTIFY_GATEWAY_ prefix. Example: CONTEXTIFY_GATEWAY_SERVER_HTTP_ADDR=:9090

Commands:
  start       Start the gateway server
  stop        Stop the running server
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./contextify-gateway.yaml)")
	rootCmd.PersistentFlags().StringVar(&stateFilePath, "state", "", "path to the admin token state file (default: admin.state_path from the config)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
