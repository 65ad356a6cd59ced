package override

import (
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/vmihailenco/msgpack/v5"
)

// IDRef names an ID across sessions.
type IDRef struct {
	Type types.IDType `msgpack:"type" yaml:"type"`
	Name string       `msgpack:"name" yaml:"name"`
	Lib  string       `msgpack:"lib,omitempty" yaml:"lib,omitempty"`
}

// RefOf returns the persistent name of id, nil for nil.
func RefOf(id *types.ID) *IDRef {
	if id == nil {
		return nil
	}
	ref := &IDRef{Type: id.Type, Name: id.Name}
	if id.Lib != nil {
		ref.Lib = id.Lib.Name
	}
	return ref
}

// Resolver finds the ID a reference names, nil when it is gone.
type Resolver func(ref IDRef) *types.ID

type recordWire struct {
	Reference     *IDRef         `msgpack:"reference,omitempty"`
	HierarchyRoot *IDRef         `msgpack:"hierarchy_root,omitempty"`
	Flag          uint8          `msgpack:"flag"`
	Properties    []propertyWire `msgpack:"properties"`
}

type propertyWire struct {
	Path       string          `msgpack:"path"`
	Kind       uint8           `msgpack:"kind"`
	Operations []operationWire `msgpack:"operations"`
}

type operationWire struct {
	Kind       string  `msgpack:"kind"`
	Flag       uint8   `msgpack:"flag"`
	RefName    *string `msgpack:"ref_name,omitempty"`
	LocalName  *string `msgpack:"local_name,omitempty"`
	RefIndex   int     `msgpack:"ref_index"`
	LocalIndex int     `msgpack:"local_index"`
}

// Encode serializes o. Storage and runtime data are not persisted.
func Encode(o *types.Override) ([]byte, error) {
	if o == nil {
		return nil, errors.New(errors.ErrInvalidInput, "no override record to encode")
	}
	w := recordWire{
		Reference:     RefOf(o.Reference),
		HierarchyRoot: RefOf(o.HierarchyRoot),
		Flag:          uint8(o.Flag),
		Properties:    make([]propertyWire, 0, len(o.Properties)),
	}
	for _, prop := range o.Properties {
		pw := propertyWire{Path: prop.Path, Kind: uint8(prop.Kind)}
		for _, op := range prop.Operations {
			pw.Operations = append(pw.Operations, operationWire{
				Kind:       op.Kind.String(),
				Flag:       uint8(op.Flag),
				RefName:    op.SubitemRefName,
				LocalName:  op.SubitemLocalName,
				RefIndex:   op.SubitemRefIndex,
				LocalIndex: op.SubitemLocalIndex,
			})
		}
		w.Properties = append(w.Properties, pw)
	}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEncode, "cannot encode override record")
	}
	return data, nil
}

// Decode rebuilds a record. The reference and hierarchy root go through
// resolve; an unresolved reference is an error, an unresolved root is
// left nil for the hierarchy root pass to fix. No user is added to the
// reference.
func Decode(data []byte, resolve Resolver) (*types.Override, error) {
	var w recordWire
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, errors.ErrDecode, "cannot decode override record")
	}
	o := &types.Override{Flag: types.OverrideFlag(w.Flag)}
	if w.Reference != nil {
		o.Reference = resolve(*w.Reference)
		if o.Reference == nil {
			return nil, errors.Newf(errors.ErrMissingReference, "override reference %s%s not found",
				w.Reference.Type, w.Reference.Name).
				WithDetail("lib", w.Reference.Lib)
		}
	}
	if w.HierarchyRoot != nil {
		o.HierarchyRoot = resolve(*w.HierarchyRoot)
	}
	for _, pw := range w.Properties {
		prop := &types.OverrideProperty{Path: pw.Path, Kind: types.PropKind(pw.Kind)}
		for _, ow := range pw.Operations {
			kind, ok := types.ParseOpKind(ow.Kind)
			if !ok {
				return nil, errors.Newf(errors.ErrDecode, "unknown operation kind %q", ow.Kind).
					WithDetail("path", pw.Path)
			}
			prop.Operations = append(prop.Operations, &types.OverrideOperation{
				Kind:              kind,
				Flag:              types.OpFlag(ow.Flag),
				SubitemRefName:    ow.RefName,
				SubitemLocalName:  ow.LocalName,
				SubitemRefIndex:   ow.RefIndex,
				SubitemLocalIndex: ow.LocalIndex,
			})
		}
		o.Properties = append(o.Properties, prop)
	}
	return o, nil
}
