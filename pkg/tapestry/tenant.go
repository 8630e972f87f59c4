package tapestry

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// TenantContextURL composes the deterministic context URL tagging every
// instance created under the given tenant.
func TenantContextURL(tenant string) string {
	return "tapestry://tenants/" + tenant
}

// NewTenant produces an isolated registry bound to one tenant and one
// backend mode (memory, local, remote). For remote mode the backend
// endpoint is the configured base URL joined with the tenant identifier.
// The returned registry is independent of the process-wide one: register
// schemas and hooks on it directly.
func NewTenant(tenant string, cfg types.Config) (*Registry, error) {
	if tenant == "" {
		return nil, fmt.Errorf("tenant identifier must not be empty")
	}

	cfg.ContextURL = TenantContextURL(tenant)
	if cfg.Backend == types.BackendRemote {
		if err := types.ValidateEndpoint(cfg.Endpoint); err != nil {
			return nil, err
		}
		cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/") + "/" + tenant
	}

	r := NewRegistry()
	if err := r.Init(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Namespace is a named sub-grouping of entity types. Its handles are
// reference-identical to the flat registry's; nothing is copied.
type Namespace struct {
	name     string
	registry *Registry
	members  map[string]bool
	order    []string
}

// Namespace groups the given entity types under a domain name. Handles
// resolve through the owning registry, so a namespace entry and the flat
// Entity lookup return the same pointer.
func (r *Registry) Namespace(name string, typeNames ...string) *Namespace {
	ns := &Namespace{
		name:     name,
		registry: r,
		members:  make(map[string]bool, len(typeNames)),
	}
	for _, t := range typeNames {
		if !ns.members[t] {
			ns.members[t] = true
			ns.order = append(ns.order, t)
		}
	}
	return ns
}

// Name returns the namespace's domain name.
func (ns *Namespace) Name() string { return ns.name }

// Entity returns the shared handle for a member type, or nil for
// non-members and unregistered names.
func (ns *Namespace) Entity(name string) *Entity {
	if !ns.members[name] {
		return nil
	}
	return ns.registry.Entity(name)
}

// Types returns the member type names in declaration order.
func (ns *Namespace) Types() []string {
	out := make([]string, len(ns.order))
	copy(out, ns.order)
	return out
}
