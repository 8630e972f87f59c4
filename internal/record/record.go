// Package record stamps and merges entity instances for the in-process
// storage providers: identifier generation, version counting, and
// timestamp bookkeeping live here so the memory and local backends behave
// identically.
package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// newUUID generates a UUID v7 string, falling back to v4 if v7 generation
// fails.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewID returns a fresh identifier carrying the entity slug as prefix.
func NewID(slug string) string {
	return slug + "-" + newUUID()
}

// Stamp builds the stored instance for a create: caller attributes are
// kept as-is (unknown keys included), then the reserved metadata
// attributes are assigned. Version starts at 1.
func Stamp(sch *schema.Schema, data types.Instance, contextURL string, now time.Time) types.Instance {
	inst := make(types.Instance, len(data)+6)
	for k, v := range data {
		if types.Reserved(k) {
			continue
		}
		inst[k] = v
	}
	ts := now.UTC().Format(time.RFC3339)
	inst[types.AttrID] = NewID(sch.Slug)
	inst[types.AttrType] = sch.Name
	inst[types.AttrContext] = contextURL
	inst[types.AttrVersion] = int64(1)
	inst[types.AttrCreatedAt] = ts
	inst[types.AttrUpdatedAt] = ts
	return inst
}

// Merge applies partial over existing for an update or verb transition:
// identifier, type, context, and creation timestamp are preserved, the
// version advances by exactly 1, and the update timestamp moves to now.
func Merge(existing, partial types.Instance, now time.Time) types.Instance {
	inst := existing.Clone()
	for k, v := range partial {
		if types.Reserved(k) {
			continue
		}
		inst[k] = v
	}
	inst[types.AttrVersion] = existing.Version() + 1
	inst[types.AttrUpdatedAt] = now.UTC().Format(time.RFC3339)
	return inst
}
