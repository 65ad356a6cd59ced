package types

// OverrideFlag holds record level flags
type OverrideFlag uint8

const (
	// OverrideSystemDefined records were generated implicitly and may be
	// regenerated silently.
	OverrideSystemDefined OverrideFlag = 1 << iota
	// OverrideNoHierarchy marks where an override hierarchy stops.
	OverrideNoHierarchy
)

// PropKind caches the kind of the overridden property.
type PropKind uint8

const (
	PropScalar PropKind = iota
	PropPointer
	PropCollection
	PropArray
)

func (k PropKind) String() string {
	switch k {
	case PropPointer:
		return "pointer"
	case PropCollection:
		return "collection"
	case PropArray:
		return "array"
	}
	return "scalar"
}

// OpKind is the kind of edit an operation applies.
type OpKind uint8

const (
	OpNoop OpKind = iota
	OpReplace
	OpAdd
	OpSubtract
	OpMultiply
	OpInsertBefore
	OpInsertAfter
)

var opKindNames = [...]string{"noop", "replace", "add", "subtract", "multiply", "insert_before", "insert_after"}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "unknown"
}

// ParseOpKind is the inverse of OpKind.String.
func ParseOpKind(s string) (OpKind, bool) {
	for i, n := range opKindNames {
		if n == s {
			return OpKind(i), true
		}
	}
	return OpNoop, false
}

// IsDifferential is true for kinds that need stored values to be replayed.
func (k OpKind) IsDifferential() bool {
	return k == OpAdd || k == OpSubtract || k == OpMultiply
}

// OpFlag holds per-operation flags
type OpFlag uint8

const (
	// OpMatchReference marks a pointer operation that only mirrors the
	// reference hierarchy. It is dropped before replaying after a resync.
	OpMatchReference OpFlag = 1 << iota
	// OpMandatory operations are re-created even when values match
	OpMandatory
	// OpLocked operations cannot be edited
	OpLocked
)

// OverrideTag is the transient garbage collection tag on properties and operations
type OverrideTag uint8

const (
	OverrideTagUnused OverrideTag = 1 << iota
	// OverrideTagNeedsReload asks for the override to be rebuilt from its
	// reference on the next operations refresh.
	OverrideTagNeedsReload
)

// NoIndex marks an unset sub-item index.
const NoIndex = -1

// OverrideOperation is one edit at sub-item granularity.
type OverrideOperation struct {
	Kind OpKind
	Flag OpFlag
	Tag  OverrideTag

	SubitemRefName    *string
	SubitemLocalName  *string
	SubitemRefIndex   int
	SubitemLocalIndex int
}

// OverrideProperty is one overridden path and its operations.
type OverrideProperty struct {
	Path       string
	Kind       PropKind
	Tag        OverrideTag
	Operations []*OverrideOperation
}

// OverrideRuntime is rebuilt on demand, never persisted.
type OverrideRuntime struct {
	// PathIndex maps Path to its property, nil until first lookup.
	PathIndex map[string]*OverrideProperty
	Tag       OverrideTag
}

// Override is the record attached to a local override or template.
type Override struct {
	// Reference is the linked ID this override shadows, nil for templates.
	Reference *ID
	// HierarchyRoot is always a real override.
	HierarchyRoot *ID
	// Storage holds differential values while writing.
	Storage *ID

	Flag       OverrideFlag
	Properties []*OverrideProperty
	Runtime    *OverrideRuntime
}

// IsSystemDefined reports whether the record was generated implicitly.
func (o *Override) IsSystemDefined() bool {
	return o != nil && o.Flag&OverrideSystemDefined != 0
}

// StrPtr returns a pointer to a copy of s, for sub-item names.
func StrPtr(s string) *string { return &s }
