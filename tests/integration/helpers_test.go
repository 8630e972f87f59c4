// Package integration provides shared helpers for cross-package tests
// exercising the registry against real backends.
package integration

import (
	"testing"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/tapestry"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// testCatalog declares the entity types shared by the integration suites:
// a marketing campaign with custom verbs and relationships in both
// directions, plus its owner and placement satellites.
func testCatalog() []schema.Definition {
	return []schema.Definition{
		{
			Name: "Campaign",
			Fields: []schema.Field{
				{Name: "name", Type: "string", Required: true},
				{Name: "status", Kind: schema.KindEnum,
					Enum: []string{"Draft", "Scheduled", "Active", "Paused", "Completed", "Cancelled"}},
				{Name: "budget", Type: "number"},
			},
			Relationships: []schema.Relationship{
				{Name: "owner", Direction: schema.Forward, Target: "User"},
				{Name: "placements", Direction: schema.Backward, Target: "Placement", Backref: "campaign_id", Many: true},
			},
			Verbs: []schema.VerbDef{
				{Action: "launch", Target: "Launched"},
				{Action: "pause", Target: "Paused"},
			},
		},
		{
			Name:   "User",
			Fields: []schema.Field{{Name: "email", Type: "string", Unique: true}},
		},
		{
			Name: "Placement",
			Fields: []schema.Field{
				{Name: "slot", Type: "string"},
				{Name: "campaign_id", Type: "string", Indexed: true},
			},
		},
	}
}

// newRegistry builds an initialized registry over the given backend
// configuration with the test catalog registered.
func newRegistry(t *testing.T, cfg types.Config) *tapestry.Registry {
	t.Helper()
	reg := tapestry.NewRegistry()
	for _, def := range testCatalog() {
		if err := reg.Register(def); err != nil {
			t.Fatalf("register %s: %v", def.Name, err)
		}
	}
	if err := reg.Init(cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(reg.Reset)
	return reg
}
