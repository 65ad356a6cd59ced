// Package relations builds a throwaway directed graph over a Main. An
// index is valid only until the next structural change; callers build
// it, traverse it and Free it within one phase.
package relations

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// EntryTag holds traversal memoization bits.
type EntryTag uint8

const (
	TagProcessedTo EntryTag = 1 << iota
	TagProcessedFrom
	TagInProgress

	TagProcessed = TagProcessedTo | TagProcessedFrom
)

// Item is one edge seen from one end.
type Item struct {
	// ID is the other end of the edge.
	ID *types.ID
	// Slot is the pointer slot, owned by the using ID.
	Slot  **types.ID
	Name  string
	Usage types.EdgeFlag
}

// Entry lists the edges of one ID. To holds IDs it uses, From holds
// IDs using it.
type Entry struct {
	ID   *types.ID
	To   []Item
	From []Item
	Tags EntryTag
}

// Index maps every ID to its entry.
type Index struct {
	entries map[*types.ID]*Entry
	order   []*types.ID
}

// Build walks every ID of m once. Edges of embedded IDs are attributed
// to their owner and embedded IDs never get an entry.
func Build(m *maindb.Main) *Index {
	x := &Index{entries: make(map[*types.ID]*Entry)}
	for _, id := range m.All() {
		x.ensure(id)
	}
	for _, id := range m.All() {
		from := x.ensure(id)
		idtype.ForeachIDLink(id, 0, func(l idtype.Link) {
			if l.Flags.Any(types.EdgeEmbedded | types.EdgeEmbeddedNotOwning) {
				return
			}
			target := l.Target().RealOwner()
			if target == nil || target == id {
				return
			}
			to := x.ensure(target)
			from.To = append(from.To, Item{ID: target, Slot: l.Slot, Name: l.Name, Usage: l.Flags})
			to.From = append(to.From, Item{ID: id, Slot: l.Slot, Name: l.Name, Usage: l.Flags})
		})
	}
	return x
}

func (x *Index) ensure(id *types.ID) *Entry {
	e, ok := x.entries[id]
	if !ok {
		e = &Entry{ID: id}
		x.entries[id] = e
		x.order = append(x.order, id)
	}
	return e
}

// Entry returns the entry of id, nil if id was not reachable at build time.
func (x *Index) Entry(id *types.ID) *Entry {
	if x == nil || x.entries == nil {
		return nil
	}
	return x.entries[id]
}

// IDs returns every indexed ID in build order.
func (x *Index) IDs() []*types.ID {
	return append([]*types.ID(nil), x.order...)
}

// TagSet sets or clears tag on every entry.
func (x *Index) TagSet(tag EntryTag, set bool) {
	for _, e := range x.entries {
		if set {
			e.Tags |= tag
		} else {
			e.Tags &^= tag
		}
	}
}

// Users returns the IDs using id, without duplicates.
func (x *Index) Users(id *types.ID) []*types.ID {
	e := x.Entry(id)
	if e == nil {
		return nil
	}
	return uniqueIDs(e.From)
}

// Uses returns the IDs used by id, without duplicates.
func (x *Index) Uses(id *types.ID) []*types.ID {
	e := x.Entry(id)
	if e == nil {
		return nil
	}
	return uniqueIDs(e.To)
}

func uniqueIDs(items []Item) []*types.ID {
	seen := make(map[*types.ID]bool, len(items))
	var out []*types.ID
	for _, it := range items {
		if !seen[it.ID] {
			seen[it.ID] = true
			out = append(out, it.ID)
		}
	}
	return out
}

// Free drops the index. Using it afterwards yields empty results.
func (x *Index) Free() {
	x.entries = nil
	x.order = nil
}
