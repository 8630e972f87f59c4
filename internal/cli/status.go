package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tapestry/internal/paths"
	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report the configured backend and per-type instance counts",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("resolve config dir: %s", err))
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}
	cfg, err := backendConfig(v)
	if err != nil {
		return exitError(cmd, exitSysError, err.Error())
	}

	reg := tapestry.NewRegistry()
	if err := loadCatalog(catalogPath(configDir, v), reg); err != nil {
		return exitError(cmd, exitUserError, err.Error())
	}
	if err := reg.Init(cfg); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	defer reg.Reset()

	st := reg.Status(context.Background())
	if flags.jsonMode {
		out, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return exitError(cmd, exitSysError, fmt.Sprintf("encode status: %s", err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "backend: %s\n", st.Backend)
	for _, name := range reg.Types() {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %d\n", name, st.Counts[name])
	}
	for _, alert := range st.Alerts {
		fmt.Fprintf(cmd.OutOrStdout(), "alert: %s\n", alert)
	}
	return nil
}
