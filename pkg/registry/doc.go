// Package registry provides a generic, thread-safe keyed registry. It
// backs the per-type info table and the post-remap hook table, both of
// which are filled from init() functions.
package registry
