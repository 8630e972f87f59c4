package sqlite

// DDL for the generic entity table. One row per instance; the attribute
// map is stored as JSON in body, with the engine-managed metadata lifted
// into columns for indexed access.
const (
	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    version INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    body TEXT NOT NULL
);`

	idxEntitiesType = `CREATE INDEX IF NOT EXISTS idx_entities_type ON entities(entity_type);`
)

// schemaDDL lists all statements executed on Open.
var schemaDDL = []string{
	createEntities,
	idxEntitiesType,
}
