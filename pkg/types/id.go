package types

import (
	"fmt"
)

// IDType identifies the kind of an ID. Values are short codes, used as
// name prefixes in display output.
type IDType string

const (
	IDTypeAction        IDType = "AC"
	IDTypeImage         IDType = "IM"
	IDTypeNodeTree      IDType = "NT"
	IDTypeMaterial      IDType = "MA"
	IDTypeShapeKey      IDType = "KE"
	IDTypeMesh          IDType = "ME"
	IDTypeCurve         IDType = "CU"
	IDTypeArmature      IDType = "AR"
	IDTypeObject        IDType = "OB"
	IDTypeCollection    IDType = "GR"
	IDTypeScene         IDType = "SC"
	IDTypeWindowManager IDType = "WM"
)

// IDFlag holds persistent flags, the ones that would be saved with the ID
type IDFlag uint32

const (
	FlagFakeUser IDFlag = 1 << iota
	// FlagEmbeddedData marks an ID living inside its owner's memory
	FlagEmbeddedData
	// FlagEmbeddedDataLibOverride marks an embedded ID whose owner is an override
	FlagEmbeddedDataLibOverride
	FlagIndirectWeakLink
	// FlagResyncLeftover marks an override kept around after its reference vanished
	FlagResyncLeftover
)

// IDTag holds runtime tags, never saved
type IDTag uint32

const (
	// TagDoit is the general purpose tag algorithms set and clear
	TagDoit IDTag = 1 << iota
	// TagMissing marks a placeholder for a linked ID that could not be found
	TagMissing
	TagIndirect
	TagExtern
	TagExtraUser
	TagExtraUserSet
	TagNeedResync
	// TagLocalized is set on IDs copied for temporary evaluation
	TagLocalized
)

// Ownership says who accounts for the users an ID holds on others.
type Ownership int

const (
	// OwnedByRegistry is a regular ID listed in a Main
	OwnedByRegistry Ownership = iota
	// DetachedScratch is an ID built outside any Main. Its users are only
	// counted when a remap forces it.
	DetachedScratch
	// DetachedUncounted never adds or removes users on anything
	DetachedUncounted
)

func (o Ownership) String() string {
	switch o {
	case OwnedByRegistry:
		return "registry"
	case DetachedScratch:
		return "scratch"
	case DetachedUncounted:
		return "uncounted"
	}
	return fmt.Sprintf("Ownership(%d)", int(o))
}

// RecalcFlag tells the update notifier what changed on an ID
type RecalcFlag uint32

const (
	RecalcTransform RecalcFlag = 1 << iota
	RecalcGeometry
	RecalcShading
	RecalcCopyOnWrite
	RecalcRelations

	RecalcAll = RecalcTransform | RecalcGeometry | RecalcShading | RecalcCopyOnWrite | RecalcRelations
)

// RemapStatus bits recorded on a target during a remap batch
type RemapStatus uint8

const (
	RemapLinkedDirect RemapStatus = 1 << iota
	RemapUserOneSkipped
)

// RemapStats are the per-ID tallies a remap batch leaves on old targets.
type RemapStats struct {
	SkippedDirect     int
	SkippedIndirect   int
	SkippedRefcounted int
	Status            RemapStatus
}

// Payload is the type specific data of an ID.
type Payload interface {
	// ForeachEdge reports every ID pointer slot held by the payload.
	ForeachEdge(visit EdgeVisitor)
	// Clone returns a copy whose slices are not shared with the receiver.
	// ID pointers are copied as is.
	Clone() Payload
}

// ID is any independently addressable, reference counted entity.
type ID struct {
	SessionUID uint64
	Name       string
	Type       IDType
	Users      int
	Flag       IDFlag
	Tag        IDTag
	Ownership  Ownership

	// Lib is the library the ID was linked from, nil for local IDs.
	Lib *Library

	// Override is set on local overrides and on templates.
	Override *Override

	// Owner is set on embedded IDs only.
	Owner *ID

	Recalc     RecalcFlag
	RemapStats RemapStats

	Props    map[string]any
	AnimData *AnimData
	Data     Payload
}

// AnimData drives properties of its owner.
type AnimData struct {
	Action  *ID
	Drivers []Driver
}

// Driver reads a value from another ID.
type Driver struct {
	Path   string
	Target *ID
}

// FullName is the type code followed by the name.
func (id *ID) FullName() string {
	if id == nil {
		return "<nil>"
	}
	return string(id.Type) + id.Name
}

// String includes the library name for linked IDs.
func (id *ID) String() string {
	if id == nil {
		return "<nil>"
	}
	if id.Lib != nil {
		return fmt.Sprintf("%s [%s]", id.FullName(), id.Lib.Name)
	}
	return id.FullName()
}

// IsLinked is true for IDs coming from a library.
func (id *ID) IsLinked() bool {
	return id != nil && id.Lib != nil
}

// IsEditable is true for local IDs.
func (id *ID) IsEditable() bool {
	return id != nil && id.Lib == nil
}

// IsMissing is true for placeholders of unresolved linked IDs.
func (id *ID) IsMissing() bool {
	return id != nil && id.Tag&TagMissing != 0
}

// IsEmbedded is true for IDs that only exist inside their owner.
func (id *ID) IsEmbedded() bool {
	return id != nil && id.Flag&FlagEmbeddedData != 0
}

// IsOverrideLibrary covers real overrides, templates and embedded
// IDs of an override owner.
func (id *ID) IsOverrideLibrary() bool {
	return id != nil && (id.Override != nil || id.Flag&FlagEmbeddedDataLibOverride != 0)
}

// IsOverrideLibraryReal is true when the ID holds its own record with a reference.
func (id *ID) IsOverrideLibraryReal() bool {
	return id != nil && id.Override != nil && id.Override.Reference != nil
}

// IsOverrideLibraryVirtual is true for embedded IDs of an override owner.
func (id *ID) IsOverrideLibraryVirtual() bool {
	return id != nil && id.Flag&FlagEmbeddedDataLibOverride != 0
}

// IsOverrideTemplate is true for a record without reference.
func (id *ID) IsOverrideTemplate() bool {
	return id != nil && id.Override != nil && id.Override.Reference == nil
}

// HasTag reports whether all bits of t are set.
func (id *ID) HasTag(t IDTag) bool { return id.Tag&t == t }

// FakeUsers is the number of synthetic users held by the fake user flag.
func (id *ID) FakeUsers() int {
	if id.Flag&FlagFakeUser != 0 {
		return 1
	}
	return 0
}

// RealOwner returns the nearest non-embedded ancestor, the ID itself if it
// is not embedded.
func (id *ID) RealOwner() *ID {
	for id != nil && id.IsEmbedded() && id.Owner != nil {
		id = id.Owner
	}
	return id
}

// Prop returns a custom property value.
func (id *ID) Prop(path string) (any, bool) {
	if id.Props == nil {
		return nil, false
	}
	v, ok := id.Props[path]
	return v, ok
}

// SetProp sets a custom property value.
func (id *ID) SetProp(path string, v any) {
	if id.Props == nil {
		id.Props = make(map[string]any)
	}
	id.Props[path] = v
}
