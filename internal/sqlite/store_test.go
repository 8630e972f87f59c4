package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

func testSchemas() *schema.Set {
	set := schema.NewSet()
	set.Register(schema.MustNew(schema.Definition{
		Name: "Campaign",
		Fields: []schema.Field{
			{Name: "name", Type: "string", Required: true},
			{Name: "status", Kind: schema.KindEnum,
				Enum: []string{"Draft", "Scheduled", "Active", "Paused", "Completed", "Cancelled"}},
			{Name: "budget", Type: "number"},
		},
		Verbs: []schema.VerbDef{{Action: "launch", Target: "Launched"}},
	}))
	return set
}

func openStore(t *testing.T, dir string) *Store {
	t.Helper()
	s, err := Open(testSchemas(), "tapestry://test", dir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestOpen_CreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, DBFileName)); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestCreateGetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	defer s.Close()
	ctx := context.Background()

	created, err := s.Create(ctx, "Campaign", types.Instance{"name": "Q1", "status": "Draft", "budget": 100})
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
	if got.Version() != 1 {
		t.Errorf("decoded version = %d (type %T)", got.Version(), got["version"])
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s := openStore(t, dir)
	created, err := s.Create(ctx, "Campaign", types.Instance{"name": "Durable"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2 := openStore(t, dir)
	defer s2.Close()
	got, err := s2.Get(ctx, "Campaign", created.ID())
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got == nil || got["name"] != "Durable" {
		t.Errorf("instance did not survive reopen: %v", got)
	}
}

func TestUpdateDeletePerform(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	defer s.Close()
	ctx := context.Background()

	created, _ := s.Create(ctx, "Campaign", types.Instance{"name": "Q1", "status": "Draft"})

	updated, err := s.Update(ctx, "Campaign", created.ID(), types.Instance{"budget": 50})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Version() != 2 || updated["budget"] != 50 {
		t.Errorf("update result: %v", updated)
	}
	if updated.CreatedAt() != created.CreatedAt() {
		t.Error("created_at changed on update")
	}

	performed, err := s.Perform(ctx, "Campaign", "launch", created.ID(), nil)
	if err != nil {
		t.Fatalf("Perform failed: %v", err)
	}
	if performed["status"] != "Launched" || performed.Version() != 3 {
		t.Errorf("perform result: status=%v version=%d", performed["status"], performed.Version())
	}

	removed, err := s.Delete(ctx, "Campaign", created.ID())
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	removed, err = s.Delete(ctx, "Campaign", created.ID())
	if err != nil || removed {
		t.Errorf("second Delete = %v, %v; want false, nil", removed, err)
	}
}

func TestErrorSemantics(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	defer s.Close()
	ctx := context.Background()

	if got, err := s.Get(ctx, "Campaign", "campaign-missing"); got != nil || err != nil {
		t.Errorf("Get absent = %v, %v; want nil, nil", got, err)
	}
	if _, err := s.Update(ctx, "Campaign", "campaign-missing", nil); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Update absent err = %v", err)
	}
	if _, err := s.Perform(ctx, "Campaign", "launch", "campaign-missing", nil); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("Perform absent err = %v", err)
	}
	if _, err := s.Perform(ctx, "Campaign", "nope", "x", nil); !errors.Is(err, types.ErrUnknownVerb) {
		t.Errorf("Perform unknown verb err = %v", err)
	}
	if _, err := s.Create(ctx, "Nope", nil); !errors.Is(err, types.ErrUnknownType) {
		t.Errorf("Create unknown type err = %v", err)
	}
}

func TestFind_FilterEvaluatedInProcess(t *testing.T) {
	dir := t.TempDir()
	s := openStore(t, dir)
	defer s.Close()
	ctx := context.Background()

	for i, status := range []string{"Draft", "Active", "Active"} {
		if _, err := s.Create(ctx, "Campaign", types.Instance{"name": "c", "status": status, "budget": i * 10}); err != nil {
			t.Fatal(err)
		}
	}

	active, err := s.Find(ctx, "Campaign", map[string]any{"status": "Active"})
	if err != nil || len(active) != 2 {
		t.Errorf("Find Active = %d, %v; want 2", len(active), err)
	}
	ranged, err := s.Find(ctx, "Campaign", map[string]any{"budget": map[string]any{"$gte": 10}})
	if err != nil || len(ranged) != 2 {
		t.Errorf("Find budget>=10 = %d, %v; want 2", len(ranged), err)
	}
}
