package testutil

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/scenefile"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Builder assembles a Main. IDs are linked from the current library, or
// local when none is set.
type Builder struct {
	Main *maindb.Main
	lib  *types.Library
}

// NewBuilder returns a builder over an empty Main.
func NewBuilder() *Builder {
	return &Builder{Main: maindb.New()}
}

// Library makes the following IDs linked from name. An empty name goes
// back to local IDs.
func (b *Builder) Library(name string) *types.Library {
	if name == "" {
		b.lib = nil
		return nil
	}
	b.lib = b.Main.AddLibrary(name, "//"+name+".blend")
	return b.lib
}

// Local makes the following IDs local.
func (b *Builder) Local() *Builder {
	b.lib = nil
	return b
}

// ID registers an empty ID of type t.
func (b *Builder) ID(t types.IDType, name string) *types.ID {
	id := &types.ID{Type: t, Lib: b.lib, Data: idtype.NewPayload(t)}
	if b.lib != nil {
		id.Tag |= types.TagIndirect
	}
	b.Main.Register(id, name)
	return id
}

// Object registers an object and, unless dataType is empty, its data
// under the same name.
func (b *Builder) Object(name string, dataType types.IDType) *types.ID {
	ob := b.ID(types.IDTypeObject, name)
	if dataType != "" {
		ObjectData(ob).Data = b.ID(dataType, name)
	}
	return ob
}

// Collection registers a collection holding members, objects or child
// collections.
func (b *Builder) Collection(name string, members ...*types.ID) *types.ID {
	c := b.ID(types.IDTypeCollection, name)
	Add(c, members...)
	return c
}

// Scene registers a scene with its master collection holding members.
func (b *Builder) Scene(name string, members ...*types.ID) *types.ID {
	sc := b.ID(types.IDTypeScene, name)
	master := &types.ID{
		Type:  types.IDTypeCollection,
		Name:  scenefile.MasterCollectionName,
		Lib:   sc.Lib,
		Flag:  types.FlagEmbeddedData,
		Owner: sc,
		Data:  &idtype.Collection{},
	}
	sc.Data.(*idtype.Scene).MasterCollection = master
	Add(master, members...)
	return sc
}

// Build recomputes users, marks linked IDs used by local data as
// directly linked and syncs collection caches.
func (b *Builder) Build() *maindb.Main {
	scenefile.Settle(b.Main)
	return b.Main
}

// ObjectData returns the object payload of id.
func ObjectData(id *types.ID) *idtype.Object { return id.Data.(*idtype.Object) }

// CollectionData returns the collection payload of id.
func CollectionData(id *types.ID) *idtype.Collection { return id.Data.(*idtype.Collection) }

// Master returns the master collection of a scene.
func Master(scene *types.ID) *types.ID {
	return scene.Data.(*idtype.Scene).MasterCollection
}

// Add puts objects and child collections into collection c. Users are
// left to Builder.Build.
func Add(c *types.ID, members ...*types.ID) {
	coll := CollectionData(c)
	for _, m := range members {
		switch m.Type {
		case types.IDTypeObject:
			coll.Objects = append(coll.Objects, m)
		case types.IDTypeCollection:
			coll.Children = append(coll.Children, m)
			child := CollectionData(m)
			child.Parents = append(child.Parents, c)
		}
	}
}

// Deform parents ob to armature and adds an armature modifier targeting it.
func Deform(ob, armature *types.ID) {
	data := ObjectData(ob)
	data.Parent = armature
	data.Modifiers = append(data.Modifiers, &idtype.Modifier{
		Name:   "Armature",
		Kind:   "ARMATURE",
		Target: armature,
		Show:   true,
	})
}
