package types

// EdgeFlag annotates an ID pointer slot with its usage semantics.
type EdgeFlag uint32

const (
	EdgeNop EdgeFlag = 0
	// EdgeNeverNull slots must always point at something
	EdgeNeverNull EdgeFlag = 1 << (iota - 1)
	// EdgeNeverSelf slots must not point at their owner
	EdgeNeverSelf
	// EdgeUser slots hold one user on their target
	EdgeUser
	// EdgeUserOne slots need the target to have at least one real user
	EdgeUserOne
	// EdgeIndirectUsage is set when the owner itself is linked
	EdgeIndirectUsage
	// EdgeLoopback slots point back at an owner, never a dependency
	EdgeLoopback
	// EdgeEmbedded slots own an embedded ID
	EdgeEmbedded
	// EdgeEmbeddedNotOwning slots point at an embedded ID owned elsewhere
	EdgeEmbeddedNotOwning
	// EdgeOverrideLibraryReference is the override record's reference slot
	EdgeOverrideLibraryReference
	// EdgeNotOverridable slots are ignored by hierarchy tagging
	EdgeNotOverridable
	// EdgeObData is an object's data slot
	EdgeObData
	// EdgeInternal marks runtime caches such as collection parents
	EdgeInternal
	// EdgeCollectionItem slots are items of a collection property, diffed
	// by insertion rather than by pointer
	EdgeCollectionItem
)

// Has reports whether all bits of f are set.
func (e EdgeFlag) Has(f EdgeFlag) bool { return e&f == f }

// Any reports whether any bit of f is set.
func (e EdgeFlag) Any(f EdgeFlag) bool { return e&f != 0 }

// IsOverridable is false for edges hierarchy tagging must not follow.
func (e EdgeFlag) IsOverridable() bool {
	return e&(EdgeLoopback|EdgeEmbeddedNotOwning|EdgeOverrideLibraryReference|EdgeNotOverridable|EdgeInternal) == 0
}

// EdgeVisitor receives one pointer slot. Writing through slot rewrites the edge.
type EdgeVisitor func(slot **ID, name string, flags EdgeFlag)
