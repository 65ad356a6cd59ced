package override

import (
	"github.com/arthur-debert/liboverride/pkg/types"
)

func pathIndex(o *types.Override) map[string]*types.OverrideProperty {
	if o.Runtime == nil {
		o.Runtime = &types.OverrideRuntime{}
	}
	if o.Runtime.PathIndex == nil {
		o.Runtime.PathIndex = make(map[string]*types.OverrideProperty, len(o.Properties))
		for _, prop := range o.Properties {
			o.Runtime.PathIndex[prop.Path] = prop
		}
	}
	return o.Runtime.PathIndex
}

// PropertyFind returns the property overriding path, nil if none.
func PropertyFind(o *types.Override, path string) *types.OverrideProperty {
	if o == nil {
		return nil
	}
	return pathIndex(o)[path]
}

// PropertyGet finds or creates the property overriding path.
func PropertyGet(o *types.Override, path string, kind types.PropKind) (*types.OverrideProperty, bool) {
	if prop := PropertyFind(o, path); prop != nil {
		return prop, false
	}
	prop := &types.OverrideProperty{Path: path, Kind: kind}
	o.Properties = append(o.Properties, prop)
	pathIndex(o)[path] = prop
	return prop, true
}

// PropertyDelete removes prop and its operations from o.
func PropertyDelete(o *types.Override, prop *types.OverrideProperty) {
	for i, p := range o.Properties {
		if p == prop {
			copy(o.Properties[i:], o.Properties[i+1:])
			o.Properties[len(o.Properties)-1] = nil
			o.Properties = o.Properties[:len(o.Properties)-1]
			break
		}
	}
	if o.Runtime != nil && o.Runtime.PathIndex != nil && o.Runtime.PathIndex[prop.Path] == prop {
		delete(o.Runtime.PathIndex, prop.Path)
	}
}

// Subitem designates which element of a pointer or collection property
// an operation targets. Names win over indices.
type Subitem struct {
	RefName    *string
	LocalName  *string
	RefIndex   int
	LocalIndex int
}

// AnySubitem matches operations that apply to the whole property.
var AnySubitem = Subitem{RefIndex: types.NoIndex, LocalIndex: types.NoIndex}

// NamedSubitem targets an element known by the same name on both sides.
func NamedSubitem(name string) Subitem {
	return Subitem{
		RefName:    types.StrPtr(name),
		LocalName:  types.StrPtr(name),
		RefIndex:   types.NoIndex,
		LocalIndex: types.NoIndex,
	}
}

// IndexSubitem targets an element by position on both sides.
func IndexSubitem(i int) Subitem {
	return Subitem{RefIndex: i, LocalIndex: i}
}

func strEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// OperationFind looks sub up in prop. Unless strict, an operation on the
// whole property is an acceptable fallback for an indexed lookup; the
// second result is false when that fallback was used.
func OperationFind(prop *types.OverrideProperty, sub Subitem, strict bool) (*types.OverrideOperation, bool) {
	if prop == nil {
		return nil, true
	}
	if sub.LocalName != nil {
		for _, op := range prop.Operations {
			if op.SubitemLocalName != nil && *op.SubitemLocalName == *sub.LocalName {
				if strEq(sub.RefName, op.SubitemRefName) {
					return op, true
				}
				return nil, true
			}
		}
		return nil, true
	}
	if sub.RefName != nil {
		for _, op := range prop.Operations {
			if op.SubitemRefName != nil && *op.SubitemRefName == *sub.RefName {
				if strEq(sub.LocalName, op.SubitemLocalName) {
					return op, true
				}
				return nil, true
			}
		}
		return nil, true
	}
	for _, op := range prop.Operations {
		if op.SubitemLocalIndex == sub.LocalIndex {
			if sub.RefIndex == types.NoIndex || sub.RefIndex == op.SubitemRefIndex {
				return op, true
			}
			return nil, true
		}
	}
	for _, op := range prop.Operations {
		if op.SubitemRefIndex == sub.RefIndex {
			if sub.LocalIndex == types.NoIndex || sub.LocalIndex == op.SubitemLocalIndex {
				return op, true
			}
			return nil, true
		}
	}
	if !strict && sub.LocalIndex != types.NoIndex {
		for _, op := range prop.Operations {
			if op.SubitemLocalIndex == types.NoIndex {
				return op, false
			}
		}
	}
	return nil, true
}

// OperationGet finds or creates the operation for sub. A created
// operation has the given kind; an existing one is returned unchanged.
func OperationGet(prop *types.OverrideProperty, kind types.OpKind, sub Subitem, strict bool) (*types.OverrideOperation, bool) {
	if op, _ := OperationFind(prop, sub, strict); op != nil {
		return op, false
	}
	op := &types.OverrideOperation{
		Kind:              kind,
		SubitemRefIndex:   sub.RefIndex,
		SubitemLocalIndex: sub.LocalIndex,
	}
	if sub.RefName != nil {
		op.SubitemRefName = types.StrPtr(*sub.RefName)
	}
	if sub.LocalName != nil {
		op.SubitemLocalName = types.StrPtr(*sub.LocalName)
	}
	prop.Operations = append(prop.Operations, op)
	return op, true
}

// OperationDelete removes op from prop.
func OperationDelete(prop *types.OverrideProperty, op *types.OverrideOperation) {
	for i, o := range prop.Operations {
		if o == op {
			copy(prop.Operations[i:], prop.Operations[i+1:])
			prop.Operations[len(prop.Operations)-1] = nil
			prop.Operations = prop.Operations[:len(prop.Operations)-1]
			return
		}
	}
}

// TagAll sets or clears tag on every property and operation of o.
func TagAll(o *types.Override, tag types.OverrideTag, set bool) {
	if o == nil {
		return
	}
	for _, prop := range o.Properties {
		prop.Tag = applyTag(prop.Tag, tag, set)
		for _, op := range prop.Operations {
			op.Tag = applyTag(op.Tag, tag, set)
		}
	}
}

func applyTag(cur, tag types.OverrideTag, set bool) types.OverrideTag {
	if set {
		return cur | tag
	}
	return cur &^ tag
}

// DeleteUnused removes properties and operations still tagged unused.
// It returns the number of removed entries.
func DeleteUnused(o *types.Override) int {
	if o == nil {
		return 0
	}
	removed := 0
	for _, prop := range append([]*types.OverrideProperty(nil), o.Properties...) {
		if prop.Tag&types.OverrideTagUnused != 0 {
			PropertyDelete(o, prop)
			removed++
			continue
		}
		for _, op := range append([]*types.OverrideOperation(nil), prop.Operations...) {
			if op.Tag&types.OverrideTagUnused != 0 {
				OperationDelete(prop, op)
				removed++
			}
		}
	}
	return removed
}

// StripMatchReference removes the operations that only mirror the
// reference hierarchy, and properties left without operations. Replaying
// those after the reference changed would force stale pointers back.
func StripMatchReference(o *types.Override) int {
	if o == nil {
		return 0
	}
	removed := 0
	for _, prop := range append([]*types.OverrideProperty(nil), o.Properties...) {
		for _, op := range append([]*types.OverrideOperation(nil), prop.Operations...) {
			if op.Flag&types.OpMatchReference != 0 {
				OperationDelete(prop, op)
				removed++
			}
		}
		if len(prop.Operations) == 0 {
			PropertyDelete(o, prop)
		}
	}
	return removed
}
