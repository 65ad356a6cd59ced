// Package types defines the data model shared by every liboverride
// package: the ID entity, its library provenance, typed edges between
// IDs, the override record attached to local overrides, refcount
// primitives and the report list used to surface degraded outcomes.
package types
