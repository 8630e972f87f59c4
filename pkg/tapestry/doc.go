// Package tapestry exposes registered entity types through a uniform,
// name-indexed registry: per-type CRUD and custom verbs wrapped in ordered
// before/after hook chains, relationship-aware fetches, cross-cutting
// search/fetch/do operations, process-wide event delivery, and the
// lifecycle controller governing which storage provider is active.
// See docs/ARCHITECTURE.md § Registry.
package tapestry
