package testutil

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Rig is a character linked from the "rig" library: an armature object
// deforming a body mesh object, with a bone drawn through a shape
// object. Scene is local.
type Rig struct {
	Main      *maindb.Main
	Lib       *types.Library
	Armature  *types.ID
	Body      *types.ID
	BoneShape *types.ID
	Material  *types.ID
	// Collection is the linked Rig_Lib collection, nil for NewRig.
	Collection *types.ID
	Scene      *types.ID
}

func newRig(withCollection bool) *Rig {
	b := NewBuilder()
	r := &Rig{Lib: b.Library("rig")}

	r.Material = b.ID(types.IDTypeMaterial, "Skin_Lib")
	r.Armature = b.Object("Armature_Lib", types.IDTypeArmature)
	r.Body = b.Object("Body_Lib", types.IDTypeMesh)
	r.BoneShape = b.Object("Shape_Lib", types.IDTypeMesh)
	Deform(r.Body, r.Armature)

	body := ObjectData(r.Body).Data.Data.(*idtype.Mesh)
	body.Materials = []*types.ID{r.Material}
	ObjectData(r.Armature).Pose = &idtype.Pose{Channels: []*idtype.PoseChannel{
		{Name: "root", CustomShape: r.BoneShape},
	}}
	if withCollection {
		r.Collection = b.Collection("Rig_Lib", r.Armature, r.Body, r.BoneShape)
	}

	b.Local()
	if withCollection {
		r.Scene = b.Scene("Scene", r.Collection)
	} else {
		r.Scene = b.Scene("Scene", r.Armature)
	}
	r.Main = b.Build()
	return r
}

// NewRig builds the rig with the scene instancing the armature object
// only. The body is deform-parented to the armature and in no collection.
func NewRig() *Rig { return newRig(false) }

// NewCollectionRig builds the rig with its three objects in the linked
// Rig_Lib collection, which the scene instances.
func NewCollectionRig() *Rig { return newRig(true) }

// AddDeformed simulates a library reload adding an object deformed by
// the armature. It joins Rig_Lib when the rig has one.
func (r *Rig) AddDeformed(name string) *types.ID {
	ob := &types.ID{Type: types.IDTypeObject, Lib: r.Lib, Tag: types.TagIndirect, Data: &idtype.Object{}}
	r.Main.Register(ob, name)
	Deform(ob, r.Armature)
	if r.Collection != nil {
		Add(r.Collection, ob)
	}
	r.refresh()
	return ob
}

// Remove simulates a library reload dropping id: linked users forget it
// and it leaves the Main. Local data still pointing at it is left alone.
func (r *Rig) Remove(id *types.ID) {
	for _, owner := range r.Main.All() {
		if !owner.IsLinked() {
			continue
		}
		idtype.ForeachIDLink(owner, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
			if l.Target() == id {
				*l.Slot = nil
			}
		})
		if coll, ok := owner.Data.(*idtype.Collection); ok {
			coll.Objects = compact(coll.Objects)
		}
		if ob, ok := owner.Data.(*idtype.Object); ok {
			mods := ob.Modifiers[:0]
			for _, md := range ob.Modifiers {
				if md.Target != nil || md.Kind != "ARMATURE" {
					mods = append(mods, md)
				}
			}
			ob.Modifiers = mods
		}
	}
	r.Main.Unregister(id)
	r.refresh()
}

func (r *Rig) refresh() {
	lifecycle.RecomputeUsers(r.Main)
	for _, c := range remap.AllCollections(r.Main) {
		CollectionData(c).Runtime.CacheValid = false
	}
	remap.SyncCollectionCaches(r.Main)
}

func compact(ids []*types.ID) []*types.ID {
	out := ids[:0]
	for _, id := range ids {
		if id != nil {
			out = append(out, id)
		}
	}
	return out
}
