package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	set := schema.NewSet()
	set.Register(schema.MustNew(schema.Definition{
		Name: "Campaign",
		Fields: []schema.Field{
			{Name: "name", Type: "string", Required: true},
			{Name: "status", Kind: schema.KindEnum,
				Enum: []string{"Draft", "Scheduled", "Active", "Paused", "Completed", "Cancelled"}},
			{Name: "budget", Type: "number"},
		},
		Verbs: []schema.VerbDef{
			{Action: "launch", Target: "Launched"},
			{Action: "pause", Target: "Paused"},
		},
	}))
	return New(set, "tapestry://test")
}

func TestCreateGetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, "Campaign", types.Instance{"name": "Q1", "status": "Draft"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Version() != 1 {
		t.Errorf("version = %d, want 1", created.Version())
	}

	got, err := s.Get(ctx, "Campaign", created.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got["name"] != "Q1" || got["status"] != "Draft" {
		t.Errorf("round trip lost attributes: %v", got)
	}
	if got.CreatedAt() == "" || got.UpdatedAt() == "" {
		t.Error("timestamps missing")
	}
}

func TestCreate_UnknownType(t *testing.T) {
	s := newStore(t)
	_, err := s.Create(context.Background(), "Nope", nil)
	if !errors.Is(err, types.ErrUnknownType) {
		t.Errorf("err = %v, want ErrUnknownType", err)
	}
}

func TestUpdate_VersionAndTimestamps(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1"})

	var last types.Instance
	for i := 0; i < 3; i++ {
		var err error
		last, err = s.Update(ctx, "Campaign", created.ID(), types.Instance{"budget": i})
		if err != nil {
			t.Fatalf("Update %d failed: %v", i, err)
		}
	}
	if last.Version() != 4 {
		t.Errorf("version after 3 updates = %d, want 4", last.Version())
	}
	if last.CreatedAt() != created.CreatedAt() {
		t.Error("created_at must not change on update")
	}
	if last.UpdatedAt() < created.UpdatedAt() {
		t.Error("updated_at must be non-decreasing")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := newStore(t)
	_, err := s.Update(context.Background(), "Campaign", "campaign-missing", types.Instance{"x": 1})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete_Semantics(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1"})

	removed, err := s.Delete(ctx, "Campaign", created.ID())
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v; want true, nil", removed, err)
	}
	got, err := s.Get(ctx, "Campaign", created.ID())
	if err != nil || got != nil {
		t.Errorf("Get after delete = %v, %v; want nil, nil", got, err)
	}
	removed, err = s.Delete(ctx, "Campaign", created.ID())
	if err != nil || removed {
		t.Errorf("second Delete = %v, %v; want false, nil", removed, err)
	}
}

func TestFind_FilterAndOrder(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for _, n := range []string{"a", "b", "c"} {
		if _, err := s.Create(ctx, "Campaign", types.Instance{"name": n, "status": "Draft"}); err != nil {
			t.Fatal(err)
		}
	}
	s.Create(ctx, "Campaign", types.Instance{"name": "d", "status": "Active"})

	all, err := s.Find(ctx, "Campaign", nil)
	if err != nil || len(all) != 4 {
		t.Fatalf("Find all = %d, %v; want 4", len(all), err)
	}
	if all[0]["name"] != "a" || all[2]["name"] != "c" {
		t.Error("Find must preserve insertion order")
	}

	drafts, _ := s.Find(ctx, "Campaign", map[string]any{"status": "Draft"})
	if len(drafts) != 3 {
		t.Errorf("filtered Find = %d, want 3", len(drafts))
	}

	none, err := s.Find(ctx, "Unknown", nil)
	if err != nil || len(none) != 0 {
		t.Errorf("Find on unknown type = %v, %v; want empty, nil", none, err)
	}
}

func TestPerform_VerbTransition(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1", "status": "Draft"})

	// Launched is outside the enum: verbatim write, version 2.
	launched, err := s.Perform(ctx, "Campaign", "launch", created.ID(), nil)
	if err != nil {
		t.Fatalf("Perform launch failed: %v", err)
	}
	if launched["status"] != "Launched" || launched.Version() != 2 {
		t.Errorf("launch: status=%v version=%d", launched["status"], launched.Version())
	}

	// Paused is an enum member: enum path, version 3.
	paused, err := s.Perform(ctx, "Campaign", "pause", created.ID(), nil)
	if err != nil {
		t.Fatalf("Perform pause failed: %v", err)
	}
	if paused["status"] != "Paused" || paused.Version() != 3 {
		t.Errorf("pause: status=%v version=%d", paused["status"], paused.Version())
	}
	if paused["launched_at"] == nil || paused["paused_at"] == nil {
		t.Error("timestamp attribution fields missing")
	}
}

func TestPerform_UnknownVerb(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1"})

	if _, err := s.Perform(ctx, "Campaign", "explode", created.ID(), nil); !errors.Is(err, types.ErrUnknownVerb) {
		t.Errorf("err = %v, want ErrUnknownVerb", err)
	}
	// CRUD actions are not custom verbs.
	if _, err := s.Perform(ctx, "Campaign", "update", created.ID(), nil); !errors.Is(err, types.ErrUnknownVerb) {
		t.Errorf("err = %v, want ErrUnknownVerb for CRUD action", err)
	}
}

func TestConcurrentCreates_DistinctIDs(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst, err := s.Create(ctx, "Campaign", types.Instance{"name": "c"})
			if err != nil {
				t.Error(err)
				return
			}
			if inst.Version() != 1 {
				t.Errorf("concurrent create version = %d", inst.Version())
			}
			ids <- inst.ID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestConcurrentUpdates_MonotonicVersions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1"})

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Update(ctx, "Campaign", created.ID(), types.Instance{"budget": i}); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.Get(ctx, "Campaign", created.ID())
	if got.Version() != int64(1+n) {
		t.Errorf("version = %d, want %d (gap-free)", got.Version(), 1+n)
	}
}

func TestReturnedInstancesAreIsolated(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1"})

	created["name"] = "tampered"
	got, _ := s.Get(ctx, "Campaign", created.ID())
	if got["name"] != "Q1" {
		t.Error("mutating a returned instance must not affect stored state")
	}
}
