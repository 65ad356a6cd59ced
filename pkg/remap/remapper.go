package remap

import (
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Result is the outcome of looking a slot up in a Remapper.
type Result int

const (
	// SourceUnavailable means the slot was nil
	SourceUnavailable Result = iota
	// SourceNotMappable means the slot target has no mapping
	SourceNotMappable
	// SourceUnassigned means the slot is mapped to nil
	SourceUnassigned
	// SourceRemapped means the slot is mapped to another ID
	SourceRemapped
)

// ApplyOption tunes Remapper.Apply
type ApplyOption uint8

const (
	ApplyDefault ApplyOption = 0
	// ApplyUnmapWhenRemappingToSelf maps to nil instead of to the slot owner
	ApplyUnmapWhenRemappingToSelf ApplyOption = 1 << (iota - 1)
	// ApplyUpdateRefcount moves one user from the old to the new target
	ApplyUpdateRefcount
	// ApplyEnsureReal ensures the new target has a real user
	ApplyEnsureReal
)

// Remapper is a batch of old to new mappings. New may be nil.
type Remapper struct {
	mappings map[*types.ID]*types.ID
	order    []*types.ID
	types    map[types.IDType]bool
}

// NewRemapper returns an empty batch.
func NewRemapper() *Remapper {
	return &Remapper{
		mappings: make(map[*types.ID]*types.ID),
		types:    make(map[types.IDType]bool),
	}
}

// Add records old -> new. A second Add for the same old replaces the target.
func (r *Remapper) Add(old, new *types.ID) {
	if old == nil {
		return
	}
	if _, ok := r.mappings[old]; !ok {
		r.order = append(r.order, old)
	}
	r.mappings[old] = new
	r.types[old.Type] = true
}

// Lookup returns the mapping of old.
func (r *Remapper) Lookup(old *types.ID) (*types.ID, bool) {
	n, ok := r.mappings[old]
	return n, ok
}

// Has reports whether old is mapped.
func (r *Remapper) Has(old *types.ID) bool {
	_, ok := r.mappings[old]
	return ok
}

// Len is the number of mappings.
func (r *Remapper) Len() int { return len(r.order) }

// IsEmpty reports whether nothing is mapped.
func (r *Remapper) IsEmpty() bool { return len(r.order) == 0 }

// ContainsType reports whether an old ID of type t is mapped.
func (r *Remapper) ContainsType(t types.IDType) bool { return r.types[t] }

// Types returns the types of mapped old IDs.
func (r *Remapper) Types() []types.IDType {
	out := make([]types.IDType, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	return out
}

// Iter calls fn on every mapping in insertion order.
func (r *Remapper) Iter(fn func(old, new *types.ID)) {
	for _, old := range r.order {
		fn(old, r.mappings[old])
	}
}

// MappingResult predicts what Apply would do to a slot holding id.
func (r *Remapper) MappingResult(id *types.ID, opts ApplyOption, self *types.ID) Result {
	if id == nil {
		return SourceUnavailable
	}
	n, ok := r.mappings[id]
	if !ok {
		return SourceNotMappable
	}
	if n == nil || (opts&ApplyUnmapWhenRemappingToSelf != 0 && n == self) {
		return SourceUnassigned
	}
	return SourceRemapped
}

// Apply rewrites the slot according to the mappings.
func (r *Remapper) Apply(slot **types.ID, opts ApplyOption, self *types.ID) Result {
	if *slot == nil {
		return SourceUnavailable
	}
	n, ok := r.mappings[*slot]
	if !ok {
		return SourceNotMappable
	}
	if opts&ApplyUpdateRefcount != 0 {
		types.UsMin(*slot)
	}
	*slot = n
	if opts&ApplyUnmapWhenRemappingToSelf != 0 && *slot == self {
		*slot = nil
	}
	if *slot == nil {
		return SourceUnassigned
	}
	if opts&ApplyUpdateRefcount != 0 {
		types.UsPlus(*slot)
	}
	if opts&ApplyEnsureReal != 0 {
		types.EnsureReal(*slot)
	}
	return SourceRemapped
}
