package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tapestry/internal/paths"
	"github.com/mesh-intelligence/tapestry/internal/web"
	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the collection API over HTTP",
		Long: "Load the schema catalog, initialize the configured backend, and serve\n" +
			"the collection API that remote tapestry clients consume.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, then :8474)")
	return cmd
}

func runServe(cmd *cobra.Command, listen string) error {
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
	if listen == "" {
		listen = v.GetString(cfgKeyListen)
	}

	reg := tapestry.NewRegistry()
	if err := loadCatalog(catalogPath(configDir, v), reg); err != nil {
		return exitError(cmd, exitUserError, err.Error())
	}
	if err := reg.Init(cfg); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("initialize storage: %s", err))
	}
	defer reg.Reset()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	srv := web.NewServer(reg, web.Options{
		Credential: v.GetString(cfgKeyCredential),
		Logger:     logger,
	})

	logger.Info().
		Str("listen", listen).
		Str("backend", reg.Backend()).
		Strs("types", reg.Types()).
		Msg("serving collection API")
	if err := http.ListenAndServe(listen, srv.Router()); err != nil {
		return exitError(cmd, exitSysError, fmt.Sprintf("serve: %s", err))
	}
	return nil
}
