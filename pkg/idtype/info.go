// Package idtype describes every ID type: its capabilities, the payload
// it carries and the pointer slots that payload exposes. The generic
// walker in walk.go is the only way other packages enumerate edges.
package idtype

import (
	"sort"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/registry"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// InfoFlag holds type capabilities
type InfoFlag uint8

const (
	// NoCopy types cannot be duplicated
	NoCopy InfoFlag = 1 << iota
	// NoLibLinking types never come from a library
	NoLibLinking
	// NoLibOverride types cannot be overridden
	NoLibOverride
	// EmbeddedOnly types only exist inside an owner
	EmbeddedOnly
	// HasAnimData types may carry animation data
	HasAnimData
)

// Info describes one ID type.
type Info struct {
	Code   types.IDType
	Name   string
	Plural string
	Flags  InfoFlag
	// Order is the position of the type list in a Main. Used types come
	// before their users.
	Order int
	// Dependencies lists the types this type may point at directly.
	Dependencies []types.IDType
	// New returns an empty payload.
	New func() types.Payload
}

// Has reports whether all bits of f are set.
func (i *Info) Has(f InfoFlag) bool { return i.Flags&f == f }

var infos = registry.New[types.IDType, *Info]()

// Register adds a type. Called from init functions.
func Register(info *Info) {
	registry.MustRegister(infos, info.Code, info)
}

// Get returns the info of a type.
func Get(t types.IDType) (*Info, error) {
	info, ok := infos.Lookup(t)
	if !ok {
		return nil, errors.Newf(errors.ErrUnknownType, "unknown ID type %q", t).
			WithDetail("type", string(t))
	}
	return info, nil
}

// MustGet is Get for types known to be registered.
func MustGet(t types.IDType) *Info {
	info, err := Get(t)
	if err != nil {
		panic(err)
	}
	return info
}

// ByName finds a type by its singular or plural name.
func ByName(name string) (*Info, bool) {
	for _, code := range infos.Keys() {
		info, _ := infos.Lookup(code)
		if info.Name == name || info.Plural == name {
			return info, true
		}
	}
	return nil, false
}

// Ordered returns every listable type in Main order.
func Ordered() []types.IDType {
	var out []*Info
	for _, code := range infos.Keys() {
		info, _ := infos.Lookup(code)
		if !info.Has(EmbeddedOnly) {
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	codes := make([]types.IDType, len(out))
	for i, info := range out {
		codes[i] = info.Code
	}
	return codes
}

// IsCopyable reports whether IDs of the type can be duplicated.
func IsCopyable(t types.IDType) bool {
	info, err := Get(t)
	return err == nil && !info.Has(NoCopy)
}

// IsOverridable reports whether a given ID may become an override
// reference: it must be linked, of an overridable type and not missing.
func IsOverridable(id *types.ID) bool {
	if !id.IsLinked() || id.IsMissing() || id.IsEmbedded() {
		return false
	}
	info, err := Get(id.Type)
	return err == nil && !info.Has(NoLibOverride)
}

// NewPayload returns an empty payload for t, nil for unknown types.
func NewPayload(t types.IDType) types.Payload {
	info, err := Get(t)
	if err != nil || info.New == nil {
		return nil
	}
	return info.New()
}

func init() {
	Register(&Info{Code: types.IDTypeAction, Name: "action", Plural: "actions", Order: 0,
		New: func() types.Payload { return &Action{} }})
	Register(&Info{Code: types.IDTypeShapeKey, Name: "shape_key", Plural: "shape_keys", Order: 1,
		Flags: EmbeddedOnly | NoLibLinking | HasAnimData,
		New:   func() types.Payload { return &ShapeKey{} }})
	Register(&Info{Code: types.IDTypeNodeTree, Name: "node_tree", Plural: "node_trees", Order: 2,
		Flags: HasAnimData,
		New:   func() types.Payload { return &NodeTree{} }})
	Register(&Info{Code: types.IDTypeImage, Name: "image", Plural: "images", Order: 3,
		Flags: NoLibOverride,
		New:   func() types.Payload { return &Image{} }})
	Register(&Info{Code: types.IDTypeMaterial, Name: "material", Plural: "materials", Order: 4,
		Flags:        HasAnimData,
		Dependencies: []types.IDType{types.IDTypeNodeTree, types.IDTypeImage},
		New:          func() types.Payload { return &Material{} }})
	Register(&Info{Code: types.IDTypeCurve, Name: "curve", Plural: "curves", Order: 5,
		Flags:        HasAnimData,
		Dependencies: []types.IDType{types.IDTypeMaterial, types.IDTypeShapeKey, types.IDTypeObject},
		New:          func() types.Payload { return &Curve{} }})
	Register(&Info{Code: types.IDTypeMesh, Name: "mesh", Plural: "meshes", Order: 6,
		Flags:        HasAnimData,
		Dependencies: []types.IDType{types.IDTypeMaterial, types.IDTypeShapeKey},
		New:          func() types.Payload { return &Mesh{} }})
	Register(&Info{Code: types.IDTypeArmature, Name: "armature", Plural: "armatures", Order: 7,
		Flags: HasAnimData,
		New:   func() types.Payload { return &Armature{} }})
	Register(&Info{Code: types.IDTypeObject, Name: "object", Plural: "objects", Order: 8,
		Flags: HasAnimData,
		Dependencies: []types.IDType{
			types.IDTypeMesh, types.IDTypeCurve, types.IDTypeArmature,
			types.IDTypeObject, types.IDTypeMaterial, types.IDTypeCollection,
		},
		New: func() types.Payload { return &Object{} }})
	Register(&Info{Code: types.IDTypeCollection, Name: "collection", Plural: "collections", Order: 9,
		Dependencies: []types.IDType{types.IDTypeObject, types.IDTypeCollection, types.IDTypeScene},
		New:          func() types.Payload { return &Collection{} }})
	Register(&Info{Code: types.IDTypeScene, Name: "scene", Plural: "scenes", Order: 10,
		Flags:        NoLibOverride | HasAnimData,
		Dependencies: []types.IDType{types.IDTypeObject, types.IDTypeCollection},
		New:          func() types.Payload { return &Scene{} }})
	Register(&Info{Code: types.IDTypeWindowManager, Name: "window_manager", Plural: "window_managers", Order: 11,
		Flags:        NoCopy | NoLibLinking | NoLibOverride,
		Dependencies: []types.IDType{types.IDTypeScene},
		New:          func() types.Payload { return &WindowManager{} }})
}
