// Integration tests for the full campaign lifecycle: creation, custom verb
// transitions, hook chains, relationship includes, and event delivery, run
// against every backend kind that needs no external process.
package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// backendConfigs enumerates the in-process backends.
func backendConfigs(t *testing.T) map[string]types.Config {
	return map[string]types.Config{
		"memory": {},
		"local":  {Backend: types.BackendLocal, DataDir: t.TempDir()},
	}
}

// --- S1: create, launch, pause advances status and version ---

func TestCampaignLifecycle(t *testing.T) {
	for name, cfg := range backendConfigs(t) {
		t.Run(name, func(t *testing.T) {
			reg := newRegistry(t, cfg)
			ctx := context.Background()
			campaigns := reg.Entity("Campaign")
			require.NotNil(t, campaigns)

			inst, err := campaigns.Create(ctx, types.Instance{"name": "Q1", "status": "Draft"})
			require.NoError(t, err)
			assert.Equal(t, int64(1), inst.Version())
			assert.Equal(t, "Draft", inst["status"])
			assert.NotEmpty(t, inst.CreatedAt())

			inst, err = campaigns.Perform(ctx, "launch", inst.ID(), types.Instance{"actor": "ops@example.com"})
			require.NoError(t, err)
			assert.Equal(t, "Launched", inst["status"])
			assert.Equal(t, int64(2), inst.Version())
			assert.Equal(t, "ops@example.com", inst["launched_by"])
			assert.NotEmpty(t, inst["launched_at"])

			inst, err = campaigns.Perform(ctx, "pause", inst.ID(), nil)
			require.NoError(t, err)
			assert.Equal(t, "Paused", inst["status"])
			assert.Equal(t, int64(3), inst.Version())
		})
	}
}

// --- S2: identifiers carry the type slug prefix and stay unique ---

func TestCampaignIdentifiers(t *testing.T) {
	reg := newRegistry(t, types.Config{})
	ctx := context.Background()
	campaigns := reg.Entity("Campaign")

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		inst, err := campaigns.Create(ctx, types.Instance{"name": "C"})
		require.NoError(t, err)
		assert.Regexp(t, `^campaign-`, inst.ID())
		assert.False(t, seen[inst.ID()], "duplicate id %s", inst.ID())
		seen[inst.ID()] = true
	}
}

// --- S3: hooks gate the mutation and events report it ---

func TestHooksAndEventsAroundLaunch(t *testing.T) {
	reg := newRegistry(t, types.Config{})
	ctx := context.Background()
	campaigns := reg.Entity("Campaign")

	var hookOrder []string
	reg.Before("Campaign", "launch", func(ctx context.Context, payload types.Instance) (types.Instance, error) {
		hookOrder = append(hookOrder, "before")
		return nil, nil
	})
	reg.After("Campaign", "launch", func(ctx context.Context, inst types.Instance, r *tapestry.Registry) error {
		hookOrder = append(hookOrder, "after")
		return nil
	})

	var events []tapestry.Event
	reg.Events().Subscribe(&tapestry.EventFilter{Type: "Campaign"}, func(e tapestry.Event) {
		events = append(events, e)
	})

	inst, err := campaigns.Create(ctx, types.Instance{"name": "Q1", "status": "Draft"})
	require.NoError(t, err)
	_, err = campaigns.Perform(ctx, "launch", inst.ID(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"before", "after"}, hookOrder)
	require.Len(t, events, 2)
	assert.Equal(t, "create", events[0].Action)
	assert.Equal(t, "launch", events[1].Action)
	assert.Equal(t, "Launched", events[1].Instance["status"])
}

// --- S4: fetch with includes stitches both relationship directions ---

func TestFetchWithIncludes(t *testing.T) {
	reg := newRegistry(t, types.Config{})
	ctx := context.Background()

	owner, err := reg.Entity("User").Create(ctx, types.Instance{"email": "owner@example.com"})
	require.NoError(t, err)
	camp, err := reg.Entity("Campaign").Create(ctx, types.Instance{"name": "Q1", "owner": owner.ID()})
	require.NoError(t, err)
	for _, slot := range []string{"homepage", "sidebar"} {
		_, err := reg.Entity("Placement").Create(ctx, types.Instance{"slot": slot, "campaign_id": camp.ID()})
		require.NoError(t, err)
	}

	inst, err := reg.Fetch(ctx, tapestry.FetchRequest{
		Type:    "Campaign",
		ID:      camp.ID(),
		Include: []string{"owner", "placements"},
	})
	require.NoError(t, err)
	require.NotNil(t, inst)

	ownerInst, ok := inst["owner"].(types.Instance)
	require.True(t, ok, "owner attached as %T", inst["owner"])
	assert.Equal(t, "owner@example.com", ownerInst["email"])

	placements, ok := inst["placements"].([]types.Instance)
	require.True(t, ok, "placements attached as %T", inst["placements"])
	assert.Len(t, placements, 2)
}

// --- S5: tenants isolate data, namespaces share handles ---

func TestTenantsAndNamespaces(t *testing.T) {
	ctx := context.Background()

	acme, err := tapestry.NewTenant("acme", types.Config{})
	require.NoError(t, err)
	t.Cleanup(acme.Reset)
	for _, def := range testCatalog() {
		require.NoError(t, acme.Register(def))
	}

	inst, err := acme.Entity("Campaign").Create(ctx, types.Instance{"name": "Q1"})
	require.NoError(t, err)
	assert.Equal(t, tapestry.TenantContextURL("acme"), inst.Context())

	ads := acme.Namespace("ads", "Campaign", "Placement")
	assert.Same(t, acme.Entity("Campaign"), ads.Entity("Campaign"))
	assert.Nil(t, ads.Entity("User"))
}
