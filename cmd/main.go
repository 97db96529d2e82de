package main

import (
  "fmt"
  "os"

  "github.com/spf13/cobra"

  "github.com/ninthgrid/ninthgrid-backend/internal/config"
  "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

func main() {
  if err := newRootCmd().Execute(); err != nil {
    fmt.Fprintln(os.Stderr, err)
    os.Exit(1)
  }
}

func newRootCmd() *cobra.Command {
  root := &cobra.Command{
    Use:           "ninthgrid",
    Short:         "Account and file upload API",
    SilenceUsage:  true,
    SilenceErrors: true,
    RunE: func(cmd *cobra.Command, args []string) error {
      return withRuntime(runServe)
    },
  }
  root.AddCommand(&cobra.Command{
    Use:   "serve",
    Short: "Run the HTTP API (default)",
    RunE: func(cmd *cobra.Command, args []string) error {
      return withRuntime(runServe)
    },
  })
  root.AddCommand(&cobra.Command{
    Use:   "migrate",
    Short: "Create tables and foreign keys, or mongo indexes, then exit",
    RunE: func(cmd *cobra.Command, args []string) error {
      return withRuntime(runMigrate)
    },
  })
  return root
}

// withRuntime sets up the logger and configuration shared by every command.
func withRuntime(run func(cfg *config.Config, log *logger.Logger) error) error {
  // Logger Setup
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    return fmt.Errorf("failed to init logger: %w", err)
  }
  defer log.Sync()

  // Configuration
  cfg, err := config.Load(log)
  if err != nil {
    return err
  }
  return run(cfg, log)
}
