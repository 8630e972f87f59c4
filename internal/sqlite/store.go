// Package sqlite implements the durable local storage provider on top of
// modernc.org/sqlite. It satisfies the same contract as the ephemeral
// store and survives process restarts; the database file lives under the
// configured data directory.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tapestry/internal/record"
	"github.com/mesh-intelligence/tapestry/pkg/query"
	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// DBFileName is the database file created under the data directory.
const DBFileName = "tapestry.db"

// Store is the durable local provider.
type Store struct {
	mu         sync.Mutex
	schemas    *schema.Set
	contextURL string
	db         *sql.DB
}

// Open creates the data directory if needed, opens (or creates) the
// database file, and applies the schema DDL. Existing data is kept.
func Open(schemas *schema.Set, contextURL, dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return &Store{schemas: schemas, contextURL: contextURL, db: db}, nil
}

// Kind returns "local".
func (s *Store) Kind() string { return types.BackendLocal }

// Close closes the database. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Create(ctx context.Context, typeName string, data types.Instance) (types.Instance, error) {
	sch, ok := s.schemas.Get(typeName)
	if !ok {
		return nil, fmt.Errorf("create %s: %w", typeName, types.ErrUnknownType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inst := record.Stamp(sch, data, s.contextURL, time.Now())
	if err := s.insertLocked(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Store) insertLocked(ctx context.Context, inst types.Instance) error {
	body, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encode instance: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (id, entity_type, version, created_at, updated_at, body)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		inst.ID(), inst.TypeName(), inst.Version(), inst.CreatedAt(), inst.UpdatedAt(), string(body))
	if err != nil {
		return fmt.Errorf("insert %s: %w", inst.ID(), err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, typeName string, filter map[string]any) ([]types.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM entities WHERE entity_type = ? ORDER BY rowid`, typeName)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", typeName, err)
	}
	defer rows.Close()

	out := []types.Instance{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan %s: %w", typeName, err)
		}
		inst, err := decodeInstance(body)
		if err != nil {
			return nil, err
		}
		if query.Matches(inst, filter) {
			out = append(out, inst)
		}
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, typeName, id string) (types.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, typeName, id)
}

func (s *Store) getLocked(ctx context.Context, typeName, id string) (types.Instance, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM entities WHERE entity_type = ? AND id = ?`, typeName, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", typeName, id, err)
	}
	return decodeInstance(body)
}

func (s *Store) Update(ctx context.Context, typeName, id string, partial types.Instance) (types.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(ctx, typeName, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("update %s/%s: %w", typeName, id, types.ErrNotFound)
	}

	inst := record.Merge(existing, partial, time.Now())
	if err := s.replaceLocked(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *Store) replaceLocked(ctx context.Context, inst types.Instance) error {
	body, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encode instance: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE entities SET version = ?, updated_at = ?, body = ? WHERE id = ?`,
		inst.Version(), inst.UpdatedAt(), string(body), inst.ID())
	if err != nil {
		return fmt.Errorf("replace %s: %w", inst.ID(), err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, typeName, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entities WHERE entity_type = ? AND id = ?`, typeName, id)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", typeName, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Perform(ctx context.Context, typeName, verb, id string, data types.Instance) (types.Instance, error) {
	sch, ok := s.schemas.Get(typeName)
	if !ok {
		return nil, fmt.Errorf("perform %s.%s: %w", typeName, verb, types.ErrUnknownType)
	}
	v, ok := sch.Verb(verb)
	if !ok || !sch.Custom(verb) {
		return nil, fmt.Errorf("perform %s.%s: %w", typeName, verb, types.ErrUnknownVerb)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(ctx, typeName, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("perform %s.%s on %s: %w", typeName, verb, id, types.ErrNotFound)
	}

	now := time.Now()
	inst := record.Merge(existing, sch.VerbPatch(v, data, now), now)
	if err := s.replaceLocked(ctx, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// decodeInstance unmarshals a body column and normalizes the version
// counter back to int64 (JSON decodes numbers as float64).
func decodeInstance(body string) (types.Instance, error) {
	var inst types.Instance
	if err := json.Unmarshal([]byte(body), &inst); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	inst[types.AttrVersion] = inst.Version()
	return inst, nil
}
