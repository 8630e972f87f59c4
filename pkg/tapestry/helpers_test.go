package tapestry

import (
	"testing"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// campaignDef is the shared test catalog entry: a three-state marketing
// campaign with custom launch/pause verbs and relationships in both
// directions.
func campaignDef() schema.Definition {
	return schema.Definition{
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
			{Action: "launch", Target: "Launched"}, // deliberately outside the enum
			{Action: "pause", Target: "Paused"},
		},
	}
}

func userDef() schema.Definition {
	return schema.Definition{
		Name:   "User",
		Fields: []schema.Field{{Name: "email", Type: "string", Unique: true}},
	}
}

func placementDef() schema.Definition {
	return schema.Definition{
		Name: "Placement",
		Fields: []schema.Field{
			{Name: "slot", Type: "string"},
			{Name: "campaign_id", Type: "string", Indexed: true},
		},
	}
}

func invoiceDef() schema.Definition {
	return schema.Definition{
		Name:   "Invoice",
		Fields: []schema.Field{{Name: "amount", Type: "number"}},
		Relationships: []schema.Relationship{
			{Name: "campaign", Direction: schema.Forward, Target: "Campaign"},
		},
	}
}

// newTestRegistry returns an isolated registry over the ephemeral backend
// with the full test catalog registered.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, def := range []schema.Definition{campaignDef(), userDef(), placementDef(), invoiceDef()} {
		if err := r.Register(def); err != nil {
			t.Fatalf("register %s: %v", def.Name, err)
		}
	}
	if err := r.Init(types.Config{}); err != nil {
		t.Fatalf("init: %v", err)
	}
	return r
}
