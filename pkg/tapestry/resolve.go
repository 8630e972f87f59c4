package tapestry

import (
	"context"

	"github.com/mesh-intelligence/tapestry/internal/inflect"
	"github.com/mesh-intelligence/tapestry/pkg/schema"
	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// resolveIncludes attaches the requested relationship names onto inst.
// Declared relationships resolve by direction; names with no declared
// relationship fall back to a best-effort heuristic and are silently
// omitted when nothing matches.
func (r *Registry) resolveIncludes(ctx context.Context, s *schema.Schema, inst types.Instance, includes []string) error {
	for _, name := range includes {
		rel, declared := s.Relationship(name)
		if declared {
			if err := r.resolveDeclared(ctx, inst, name, rel); err != nil {
				return err
			}
			continue
		}
		if err := r.resolveHeuristic(ctx, s, inst, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) resolveDeclared(ctx context.Context, inst types.Instance, name string, rel schema.Relationship) error {
	switch rel.Direction {
	case schema.Backward:
		// Unknown target types resolve to an empty array, not an error.
		if !r.schemas.Has(rel.Target) {
			inst[name] = []types.Instance{}
			return nil
		}
		p, err := r.activeProvider()
		if err != nil {
			return err
		}
		related, err := p.Find(ctx, rel.Target, map[string]any{rel.Backref: inst.ID()})
		if err != nil {
			return err
		}
		inst[name] = related
		return nil

	case schema.Forward:
		// The foreign id sits inline on the base instance.
		fid, _ := inst[name].(string)
		if fid == "" || !r.schemas.Has(rel.Target) {
			return nil
		}
		p, err := r.activeProvider()
		if err != nil {
			return err
		}
		related, err := p.Get(ctx, rel.Target, fid)
		if err != nil {
			return err
		}
		if related != nil {
			inst[name] = related
		}
		return nil
	}
	return nil
}

// resolveHeuristic handles include names with no declared relationship:
// singularize the name, find a type whose name matches case-insensitively,
// then scan that type's forward relationships for one pointing back at the
// base type. This is a convenience fallback; misses are omitted, not
// errors, and irregular plurals are not recognized.
func (r *Registry) resolveHeuristic(ctx context.Context, base *schema.Schema, inst types.Instance, name string) error {
	target, ok := r.schemas.GetFold(inflect.Singularize(name))
	if !ok {
		return nil
	}
	for _, rel := range target.Relationships() {
		if rel.Direction != schema.Forward || rel.Target != base.Name {
			continue
		}
		p, err := r.activeProvider()
		if err != nil {
			return err
		}
		related, err := p.Find(ctx, target.Name, map[string]any{rel.Name: inst.ID()})
		if err != nil {
			return err
		}
		inst[name] = related
		return nil
	}
	return nil
}
