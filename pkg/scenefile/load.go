package scenefile

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
	"gopkg.in/yaml.v3"
)

// MasterCollectionName is the name of every scene's embedded collection.
const MasterCollectionName = "Master Collection"

// Load reads a scene description from path into a new Main.
func Load(path string) (*maindb.Main, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFixtureLoad, "cannot read scene file %s", path)
	}
	m, err := Parse(data)
	if err != nil {
		if oe, ok := err.(*errors.OverrideError); ok {
			return nil, oe.WithDetail("path", path)
		}
		return nil, err
	}
	return m, nil
}

// Decode parses YAML into a File. Unknown fields are rejected.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return &f, nil
		}
		return nil, errors.Wrap(err, errors.ErrFixtureInvalid, "invalid scene description")
	}
	return &f, nil
}

// Parse builds a Main from YAML.
func Parse(data []byte) (*maindb.Main, error) {
	f, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return Build(f)
}

// Build registers everything f describes in a new Main, then settles
// user counts and caches.
func Build(f *File) (*maindb.Main, error) {
	logger := logging.GetLogger("scenefile")
	b := &builder{main: maindb.New(), ids: make(map[*types.ID]*ID)}

	if err := b.libraries(f.Libraries); err != nil {
		return nil, err
	}
	for i := range f.IDs {
		if err := b.register(&f.IDs[i]); err != nil {
			return nil, err
		}
	}
	for _, id := range b.order {
		if err := b.link(id, b.ids[id]); err != nil {
			return nil, err
		}
	}
	Settle(b.main)

	logger.Debug().
		Int("libraries", len(f.Libraries)).
		Int("ids", b.main.Count()).
		Msg("scene loaded")
	return b.main, nil
}

// Settle recomputes users, marks linked IDs used by local data as
// directly linked and syncs collection caches.
func Settle(m *maindb.Main) {
	lifecycle.RecomputeUsers(m)
	for _, id := range m.All() {
		if id.IsLinked() {
			continue
		}
		idtype.ForeachIDLink(id, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
			if t := l.Target(); t != nil && t.IsLinked() && l.Flags.Has(types.EdgeUser) {
				types.LibExtern(t)
			}
		})
	}
	remap.SyncCollectionCaches(m)
}

type builder struct {
	main  *maindb.Main
	ids   map[*types.ID]*ID
	order []*types.ID
}

func invalid(format string, args ...interface{}) *errors.OverrideError {
	return errors.Newf(errors.ErrFixtureInvalid, format, args...)
}

func (b *builder) libraries(libs []Library) error {
	for _, l := range libs {
		if l.Name == "" {
			return invalid("library without a name")
		}
		if b.main.FindLibrary(l.Name) != nil {
			return invalid("library %q declared twice", l.Name)
		}
		path := l.Filepath
		if path == "" {
			path = "//" + l.Name + ".blend"
		}
		b.main.AddLibrary(l.Name, path)
	}
	for _, l := range libs {
		if l.Parent == "" {
			continue
		}
		parent := b.main.FindLibrary(l.Parent)
		if parent == nil {
			return invalid("library %q has unknown parent %q", l.Name, l.Parent)
		}
		b.main.FindLibrary(l.Name).Parent = parent
	}
	return nil
}

// ParseType accepts a type code ("OB") or a type name ("object", "objects").
func ParseType(s string) (types.IDType, error) {
	if info, err := idtype.Get(types.IDType(strings.ToUpper(s))); err == nil {
		return info.Code, nil
	}
	if info, ok := idtype.ByName(strings.ToLower(s)); ok {
		return info.Code, nil
	}
	return "", invalid("unknown ID type %q", s)
}

func (b *builder) library(name string) (*types.Library, error) {
	if name == "" {
		return nil, nil
	}
	lib := b.main.FindLibrary(name)
	if lib == nil {
		return nil, invalid("unknown library %q", name)
	}
	return lib, nil
}

func (b *builder) register(desc *ID) error {
	t, err := ParseType(desc.Type)
	if err != nil {
		return err
	}
	info := idtype.MustGet(t)
	if info.Has(idtype.EmbeddedOnly) {
		return invalid("%s %q: embedded types cannot be declared", t, desc.Name)
	}
	if desc.Name == "" {
		return invalid("%s without a name", t)
	}
	lib, err := b.library(desc.Lib)
	if err != nil {
		return err
	}
	if lib != nil && info.Has(idtype.NoLibLinking) {
		return invalid("%s %q cannot be linked", t, desc.Name)
	}
	if b.main.FindLinkedName(t, desc.Name, lib) != nil {
		return invalid("%s %q declared twice in %s", t, desc.Name, lib)
	}

	id := &types.ID{Type: t, Lib: lib, Data: idtype.NewPayload(t)}
	if lib != nil {
		id.Tag |= types.TagIndirect
	}
	if desc.Missing {
		id.Tag |= types.TagMissing
	}
	if desc.FakeUser {
		id.Flag |= types.FlagFakeUser
	}
	for k, v := range desc.Props {
		id.SetProp(k, v)
	}
	if sc, ok := id.Data.(*idtype.Scene); ok {
		sc.MasterCollection = &types.ID{
			Type:  types.IDTypeCollection,
			Name:  MasterCollectionName,
			Lib:   lib,
			Flag:  types.FlagEmbeddedData,
			Owner: id,
			Data:  &idtype.Collection{},
		}
	}
	b.main.Register(id, desc.Name)
	b.ids[id] = desc
	b.order = append(b.order, id)
	return nil
}

func (b *builder) resolve(ref *Ref) (*types.ID, error) {
	if ref == nil {
		return nil, nil
	}
	t, err := ParseType(string(ref.Type))
	if err != nil {
		return nil, err
	}
	lib, err := b.library(ref.Lib)
	if err != nil {
		return nil, err
	}
	id := b.main.FindLinkedName(t, ref.Name, lib)
	if id == nil {
		return nil, invalid("reference to unknown %s %q in %s", t, ref.Name, lib)
	}
	return id, nil
}

func (b *builder) resolveAll(refs []Ref) ([]*types.ID, error) {
	out := make([]*types.ID, 0, len(refs))
	for i := range refs {
		id, err := b.resolve(&refs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (b *builder) link(id *types.ID, desc *ID) error {
	var err error
	switch data := id.Data.(type) {
	case *idtype.Object:
		err = b.linkObject(data, desc)
	case *idtype.Collection:
		err = b.linkCollection(id, desc)
	case *idtype.Scene:
		err = b.linkCollection(data.MasterCollection, desc)
	default:
		if desc.Data != nil || desc.Parent != nil || len(desc.Objects) > 0 || len(desc.Children) > 0 ||
			len(desc.Modifiers) > 0 || len(desc.Pose) > 0 {
			err = invalid("%s %q has edges its type does not support", id.Type, id.Name)
		}
		if err == nil && len(desc.Materials) > 0 {
			err = b.linkMaterials(id, desc.Materials)
		}
	}
	if err != nil {
		return err
	}
	if desc.Override != nil {
		return b.linkOverride(id, desc.Override)
	}
	return nil
}

func (b *builder) linkObject(ob *idtype.Object, desc *ID) error {
	var err error
	if ob.Data, err = b.resolve(desc.Data); err != nil {
		return err
	}
	if ob.Parent, err = b.resolve(desc.Parent); err != nil {
		return err
	}
	if ob.InstanceCollection, err = b.resolve(desc.InstanceCollection); err != nil {
		return err
	}
	if len(desc.Materials) > 0 {
		if ob.Materials, err = b.resolveAll(desc.Materials); err != nil {
			return err
		}
	}
	for i := range desc.Modifiers {
		md := desc.Modifiers[i]
		target, err := b.resolve(md.Target)
		if err != nil {
			return err
		}
		show := md.Show == nil || *md.Show
		ob.Modifiers = append(ob.Modifiers, &idtype.Modifier{Name: md.Name, Kind: md.Kind, Target: target, Show: show})
	}
	if len(desc.Pose) > 0 {
		ob.Pose = &idtype.Pose{}
		for _, ch := range desc.Pose {
			shape, err := b.resolve(ch.CustomShape)
			if err != nil {
				return err
			}
			ob.Pose.Channels = append(ob.Pose.Channels, &idtype.PoseChannel{Name: ch.Name, CustomShape: shape})
		}
	}
	return nil
}

// linkMaterials fills the material slots of geometry data.
func (b *builder) linkMaterials(id *types.ID, refs []Ref) error {
	mats, err := b.resolveAll(refs)
	if err != nil {
		return err
	}
	switch data := id.Data.(type) {
	case *idtype.Mesh:
		data.Materials = mats
	case *idtype.Curve:
		data.Materials = mats
	default:
		return invalid("%s %q has no material slots", id.Type, id.Name)
	}
	return nil
}

func (b *builder) linkCollection(c *types.ID, desc *ID) error {
	coll := c.Data.(*idtype.Collection)
	objects, err := b.resolveAll(desc.Objects)
	if err != nil {
		return err
	}
	for _, ob := range objects {
		if ob.Type != types.IDTypeObject {
			return invalid("collection %q lists %s as an object", c.Name, ob)
		}
	}
	children, err := b.resolveAll(desc.Children)
	if err != nil {
		return err
	}
	coll.Objects = append(coll.Objects, objects...)
	for _, child := range children {
		if child.Type != types.IDTypeCollection {
			return invalid("collection %q lists %s as a child", c.Name, child)
		}
		coll.Children = append(coll.Children, child)
		cc := child.Data.(*idtype.Collection)
		cc.Parents = append(cc.Parents, c)
	}
	return nil
}

func (b *builder) linkOverride(id *types.ID, desc *Override) error {
	if id.IsLinked() {
		return invalid("%s: only local IDs can hold an override record", id)
	}
	ref, err := b.resolve(&desc.Reference)
	if err != nil {
		return err
	}
	if ref.Type != id.Type {
		return invalid("%s: override reference %s has another type", id, ref)
	}
	if !idtype.IsOverridable(ref) {
		return errors.Newf(errors.ErrNotOverridable, "%s cannot be overridden", ref).
			WithDetail("override", id.String())
	}
	o := &types.Override{Reference: ref}
	if o.HierarchyRoot, err = b.resolve(desc.HierarchyRoot); err != nil {
		return err
	}
	if desc.SystemDefined {
		o.Flag |= types.OverrideSystemDefined
	}
	if desc.NoHierarchy {
		o.Flag |= types.OverrideNoHierarchy
	}
	for _, pd := range desc.Properties {
		prop, err := property(pd)
		if err != nil {
			return err
		}
		o.Properties = append(o.Properties, prop)
	}
	id.Override = o
	return nil
}

var propKinds = map[string]types.PropKind{
	"":           types.PropScalar,
	"scalar":     types.PropScalar,
	"pointer":    types.PropPointer,
	"collection": types.PropCollection,
	"array":      types.PropArray,
}

func property(pd Property) (*types.OverrideProperty, error) {
	kind, ok := propKinds[pd.Kind]
	if !ok {
		return nil, invalid("property %q has unknown kind %q", pd.Path, pd.Kind)
	}
	prop := &types.OverrideProperty{Path: pd.Path, Kind: kind}
	for _, od := range pd.Operations {
		opKind, ok := types.ParseOpKind(od.Kind)
		if !ok {
			return nil, invalid("property %q has unknown operation %q", pd.Path, od.Kind)
		}
		op := &types.OverrideOperation{
			Kind:              opKind,
			SubitemRefName:    od.RefName,
			SubitemLocalName:  od.LocalName,
			SubitemRefIndex:   types.NoIndex,
			SubitemLocalIndex: types.NoIndex,
		}
		if od.RefIndex != nil {
			op.SubitemRefIndex = *od.RefIndex
		}
		if od.LocalIndex != nil {
			op.SubitemLocalIndex = *od.LocalIndex
		}
		if od.MatchReference {
			op.Flag |= types.OpMatchReference
		}
		prop.Operations = append(prop.Operations, op)
	}
	return prop, nil
}
