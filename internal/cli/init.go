package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tapestry/internal/paths"
	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tapestry configuration and storage",
		Long:  "Create the configuration directory with a default config.yaml, then initialize the storage backend once to verify it.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config dir: %s", err))
	}
	if err := ensureConfigDir(configDir); err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}

	v, err := loadConfig(configDir)
	if err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}
	cfg, err := backendConfig(v)
	if err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}

	// One init/reset cycle verifies the backend is reachable and, for the
	// local backend, creates the database file.
	reg := tapestry.NewRegistry()
	if err := reg.Init(cfg); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	reg.Reset()

	fmt.Fprintln(cmd.OutOrStdout(), "Tapestry initialized successfully")
	return nil
}
