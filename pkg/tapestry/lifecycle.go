package tapestry

import (
	"fmt"
	"os"

	"github.com/mesh-intelligence/tapestry/internal/memory"
	"github.com/mesh-intelligence/tapestry/internal/remote"
	"github.com/mesh-intelligence/tapestry/internal/sqlite"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Advisory alert texts surfaced through Status.
const (
	alertEphemeral         = "using ephemeral backend; data will not survive a restart"
	alertMissingCredential = "endpoint configured without credential; falling back to ephemeral backend"
)

// Init wires a storage backend into the registry. It may be called only
// from the uninitialized state; a second call without an intervening
// Reset fails with ErrAlreadyInitialized.
//
// Backend selection: Backend "local" always selects the durable local
// provider; otherwise an endpoint with a credential selects the remote
// provider, an endpoint without a credential falls back to the ephemeral
// provider with an advisory alert, and everything else selects the
// ephemeral provider. Endpoint and credential default from
// TAPESTRY_ENDPOINT and TAPESTRY_CREDENTIAL when unset, but an explicit
// memory or local backend ignores the env endpoint.
func (r *Registry) Init(cfg types.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return types.ErrAlreadyInitialized
	}
	return r.initLocked(cfg)
}

func (r *Registry) initLocked(cfg types.Config) error {
	applyEnvDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Backend == types.BackendRemote && cfg.Endpoint == "" {
		return fmt.Errorf("remote backend: %w", types.ErrInvalidEndpoint)
	}

	contextURL := cfg.ContextURL
	if contextURL == "" {
		contextURL = DefaultContextURL
	}

	var (
		provider types.Provider
		alerts   []string
		err      error
	)
	switch {
	case cfg.Backend == types.BackendLocal:
		provider, err = sqlite.Open(r.schemas, contextURL, cfg.DataDir)
	case cfg.Endpoint != "" && cfg.Credential != "":
		provider, err = remote.New(cfg.Endpoint, cfg.Credential)
	case cfg.Endpoint != "":
		alerts = append(alerts, alertMissingCredential, alertEphemeral)
		provider = memory.New(r.schemas, contextURL)
	default:
		alerts = append(alerts, alertEphemeral)
		provider = memory.New(r.schemas, contextURL)
	}
	if err != nil {
		return err
	}

	r.provider = provider
	r.initialized = true
	r.contextURL = contextURL
	r.alerts = alerts
	if cfg.Lazy {
		r.lazy = true
	}
	return nil
}

// Reset unconditionally returns the registry to the uninitialized state:
// the backend is released, every event subscription and hook is torn
// down, and all schemas are cleared. Used between test runs and tenant
// switches.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
	r.schemas.Reset()
	r.hooks.reset()
	r.handles = make(map[string]*Entity)
}

func (r *Registry) teardownLocked() {
	if r.provider != nil {
		_ = r.provider.Close()
		r.provider = nil
	}
	r.bus.Reset()
	r.initialized = false
	r.contextURL = DefaultContextURL
	r.alerts = nil
}

// Reconfigure atomically swaps the storage backend: a reset immediately
// followed by an init, holding the registry lock throughout. Unlike
// Reset, registered schemas and hooks survive, and unlike Init it never
// fails with ErrAlreadyInitialized.
func (r *Registry) Reconfigure(cfg types.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teardownLocked()
	return r.initLocked(cfg)
}

// SetLazy enables or disables lazy initialization: when enabled, the
// first operation that needs a backend triggers one implicit Init with
// the ephemeral provider.
func (r *Registry) SetLazy(lazy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazy = lazy
}

// Initialized reports whether a backend is wired in.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// Backend returns the active provider kind, or "" when uninitialized.
func (r *Registry) Backend() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.provider == nil {
		return ""
	}
	return r.provider.Kind()
}

// activeProvider returns the wired provider, performing the one implicit
// lazy initialization when enabled.
func (r *Registry) activeProvider() (types.Provider, error) {
	r.mu.RLock()
	if r.initialized {
		p := r.provider
		r.mu.RUnlock()
		return p, nil
	}
	lazy := r.lazy
	r.mu.RUnlock()

	if !lazy {
		return nil, types.ErrNotInitialized
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.initialized {
		if err := r.initLocked(types.Config{}); err != nil {
			return nil, err
		}
	}
	return r.provider, nil
}

// applyEnvDefaults fills endpoint and credential from the environment
// when the explicit options leave them empty. An explicit memory or
// local backend pins the selection; the env endpoint never redirects it.
func applyEnvDefaults(cfg *types.Config) {
	if cfg.Endpoint == "" && (cfg.Backend == "" || cfg.Backend == types.BackendRemote) {
		cfg.Endpoint = os.Getenv(types.EnvEndpoint)
	}
	if cfg.Credential == "" {
		cfg.Credential = os.Getenv(types.EnvCredential)
	}
}

// defaultRegistry is the process-wide singleton governed by the
// package-level lifecycle functions.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Init initializes the process-wide registry's backend.
func Init(cfg types.Config) error { return defaultRegistry.Init(cfg) }

// Reset returns the process-wide registry to the uninitialized state.
func Reset() { defaultRegistry.Reset() }

// Reconfigure hot-swaps the process-wide registry's backend.
func Reconfigure(cfg types.Config) error { return defaultRegistry.Reconfigure(cfg) }
