// Config loading for the tapestry CLI. Precedence for every value is
// flag > config.yaml > environment > default.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/tapestry/internal/paths"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyEndpoint   = "endpoint"
	cfgKeyCredential = "credential"
	cfgKeyCatalog    = "catalog"
	cfgKeyListen     = "listen"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# Tapestry CLI configuration

# Backend selection: memory, local, or remote
backend: local

# Data directory for the local backend (optional; overridable by --data-dir)
# data_dir:

# Remote backend endpoint and bearer credential
# endpoint: https://store.example.com
# credential:

# Schema catalog file declaring the entity types
# catalog: catalog.yaml
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. A missing config.yaml is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendLocal)
	v.SetDefault(cfgKeyListen, ":8474")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// backendConfig assembles the lifecycle configuration from the loaded
// config file and the global flags. Endpoint and credential fall back to
// the TAPESTRY_ENDPOINT and TAPESTRY_CREDENTIAL environment variables
// inside the lifecycle itself.
func backendConfig(v *viper.Viper) (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		Backend:    v.GetString(cfgKeyBackend),
		DataDir:    dataDir,
		Endpoint:   v.GetString(cfgKeyEndpoint),
		Credential: v.GetString(cfgKeyCredential),
	}, nil
}

// catalogPath resolves the schema catalog location: absolute paths pass
// through, relative paths resolve against the config directory.
func catalogPath(configDir string, v *viper.Viper) string {
	p := v.GetString(cfgKeyCatalog)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(configDir, p)
}

// ensureConfigDir creates the config directory and a default config.yaml
// on first run. An existing config.yaml is left untouched.
func ensureConfigDir(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
