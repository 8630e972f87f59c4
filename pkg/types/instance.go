package types

// Reserved attribute keys managed by the engine. Callers may read them but
// must never set them in create/update payloads; providers overwrite them.
const (
	AttrID        = "id"
	AttrType      = "type"
	AttrContext   = "context"
	AttrVersion   = "version"
	AttrCreatedAt = "created_at"
	AttrUpdatedAt = "updated_at"
)

// reservedAttrs is the set of engine-managed keys.
var reservedAttrs = map[string]bool{
	AttrID:        true,
	AttrType:      true,
	AttrContext:   true,
	AttrVersion:   true,
	AttrCreatedAt: true,
	AttrUpdatedAt: true,
}

// Reserved reports whether key is an engine-managed attribute.
func Reserved(key string) bool {
	return reservedAttrs[key]
}

// Instance is one stored entity: an attribute map plus the reserved
// metadata attributes. The identifier carries the entity slug as a prefix
// and the version counter starts at 1 on create.
type Instance map[string]any

// ID returns the instance identifier, or "" when unset.
func (in Instance) ID() string {
	s, _ := in[AttrID].(string)
	return s
}

// TypeName returns the entity type tag, or "" when unset.
func (in Instance) TypeName() string {
	s, _ := in[AttrType].(string)
	return s
}

// Context returns the tenant/context URL, or "" when unset.
func (in Instance) Context() string {
	s, _ := in[AttrContext].(string)
	return s
}

// Version returns the version counter. JSON decoding may deliver the
// counter as float64; both forms are accepted. Returns 0 when unset.
func (in Instance) Version() int64 {
	switch v := in[AttrVersion].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// CreatedAt returns the RFC 3339 creation timestamp, or "" when unset.
func (in Instance) CreatedAt() string {
	s, _ := in[AttrCreatedAt].(string)
	return s
}

// UpdatedAt returns the RFC 3339 last-update timestamp, or "" when unset.
func (in Instance) UpdatedAt() string {
	s, _ := in[AttrUpdatedAt].(string)
	return s
}

// Clone returns a shallow copy of the instance. Nested values are shared;
// callers that mutate nested structures own that hazard.
func (in Instance) Clone() Instance {
	if in == nil {
		return nil
	}
	out := make(Instance, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
