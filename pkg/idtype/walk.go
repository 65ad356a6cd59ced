package idtype

import (
	"fmt"

	"github.com/arthur-debert/liboverride/pkg/types"
)

// Link is one pointer slot reached by ForeachIDLink.
type Link struct {
	// Owner is the real, non-embedded ID the slot belongs to.
	Owner *types.ID
	// Self is the ID holding the slot, an embedded ID of Owner or Owner itself.
	Self  *types.ID
	Slot  **types.ID
	Name  string
	Flags types.EdgeFlag
}

// Target is the ID the slot currently points at.
func (l Link) Target() *types.ID {
	return *l.Slot
}

// WalkFlag tunes ForeachIDLink
type WalkFlag uint8

const (
	// WalkIgnoreEmbedded reports embedded slots without entering them
	WalkIgnoreEmbedded WalkFlag = 1 << iota
	// WalkIgnoreOverrideRefs skips the override record slots
	WalkIgnoreOverrideRefs
	// WalkIgnoreAnimData skips animation data slots
	WalkIgnoreAnimData
)

// ForeachIDLink visits every ID pointer slot of id, recursing into
// embedded IDs. Slots of a linked owner carry EdgeIndirectUsage.
func ForeachIDLink(id *types.ID, flags WalkFlag, visit func(Link)) {
	if id == nil {
		return
	}
	walk(id, id, "", flags, visit)
}

func walk(owner, self *types.ID, prefix string, flags WalkFlag, visit func(Link)) {
	inherit := types.EdgeNop
	if owner.IsLinked() {
		inherit |= types.EdgeIndirectUsage
	}
	emit := func(slot **types.ID, name string, f types.EdgeFlag) {
		visit(Link{Owner: owner, Self: self, Slot: slot, Name: prefix + name, Flags: f | inherit})
	}

	if self.Override != nil && flags&WalkIgnoreOverrideRefs == 0 {
		emit(&self.Override.Reference, "override.reference", types.EdgeUser|types.EdgeOverrideLibraryReference)
		emit(&self.Override.Storage, "override.storage", types.EdgeOverrideLibraryReference)
		emit(&self.Override.HierarchyRoot, "override.hierarchy_root", types.EdgeLoopback)
	}

	if self.AnimData != nil && flags&WalkIgnoreAnimData == 0 {
		emit(&self.AnimData.Action, "animation_data.action", types.EdgeUser)
		for i := range self.AnimData.Drivers {
			emit(&self.AnimData.Drivers[i].Target, fmt.Sprintf("animation_data.drivers[%d].target", i), types.EdgeNop)
		}
	}

	if self.Data == nil {
		return
	}
	self.Data.ForeachEdge(func(slot **types.ID, name string, f types.EdgeFlag) {
		emit(slot, name, f)
		if f.Has(types.EdgeEmbedded) && flags&WalkIgnoreEmbedded == 0 && *slot != nil {
			walk(owner, *slot, prefix+name+".", flags, visit)
		}
	})
}

// LookupEdge finds a slot by its path name.
func LookupEdge(id *types.ID, name string) (Link, bool) {
	var found Link
	ok := false
	ForeachIDLink(id, 0, func(l Link) {
		if !ok && l.Name == name {
			found, ok = l, true
		}
	})
	return found, ok
}

// EmbeddedIDs returns the embedded IDs of id, depth first.
func EmbeddedIDs(id *types.ID) []*types.ID {
	var out []*types.ID
	ForeachIDLink(id, WalkIgnoreOverrideRefs|WalkIgnoreAnimData, func(l Link) {
		if l.Flags.Has(types.EdgeEmbedded) && l.Target() != nil {
			out = append(out, l.Target())
		}
	})
	return out
}

// CanUse reports whether owner may hold a pointer to an ID of type used.
// It prunes remap sweeps; a true result is not a guarantee of use.
func CanUse(owner *types.ID, used types.IDType) bool {
	if owner == nil {
		return false
	}
	// override records point at same-typed references and at a root
	// that can be of any key type
	if owner.Override != nil {
		return true
	}
	// drivers can target anything
	if owner.AnimData != nil {
		return true
	}
	if owner.Type == types.IDTypeNodeTree {
		return true
	}
	info, err := Get(owner.Type)
	if err != nil {
		return true
	}
	for _, dep := range info.Dependencies {
		if dep == used {
			return true
		}
	}
	for _, emb := range EmbeddedIDs(owner) {
		if emb.AnimData != nil || emb.Type == types.IDTypeNodeTree {
			return true
		}
		if embInfo, err := Get(emb.Type); err == nil {
			for _, dep := range embInfo.Dependencies {
				if dep == used {
					return true
				}
			}
		}
	}
	return false
}
