package types

import (
	"errors"
	"net/url"
)

// Environment variables supplying backend defaults. Explicit option values
// always win over the environment.
const (
	EnvEndpoint   = "TAPESTRY_ENDPOINT"
	EnvCredential = "TAPESTRY_CREDENTIAL"
)

// Config holds backend selection and parameters for lifecycle Init.
type Config struct {
	// Backend selects the provider kind: memory, local, or remote.
	// Empty defaults to memory.
	Backend string `json:"backend" yaml:"backend"`

	// DataDir is the directory for the local backend's database file.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Endpoint is the remote backend base URL. A non-empty endpoint must
	// parse as an absolute http or https URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Credential is the bearer token sent to the remote backend. An
	// endpoint without a credential falls back to the memory backend with
	// an advisory alert.
	Credential string `json:"credential" yaml:"credential"`

	// ContextURL tags every created instance. Empty defaults to the
	// process-wide default context.
	ContextURL string `json:"context_url" yaml:"context_url"`

	// Lazy enables implicit memory-backend initialization on first access.
	Lazy bool `json:"lazy" yaml:"lazy"`
}

// ErrBackendUnknown rejects backend names outside memory/local/remote.
var ErrBackendUnknown = errors.New("unknown backend")

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	"":            true, // defaults to memory
	BackendMemory: true,
	BackendLocal:  true,
	BackendRemote: true,
}

// Validate checks that the Config is well-formed. Endpoint validation
// happens before any backend is constructed.
func (c Config) Validate() error {
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Endpoint != "" {
		if err := ValidateEndpoint(c.Endpoint); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEndpoint checks that endpoint is an absolute http or https URL.
// Empty endpoints are rejected; callers that allow "no endpoint" must skip
// the call instead.
func ValidateEndpoint(endpoint string) error {
	if endpoint == "" {
		return ErrInvalidEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ErrInvalidEndpoint
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidEndpoint
	}
	return nil
}
