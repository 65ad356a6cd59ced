package idtype

import (
	"fmt"

	"github.com/arthur-debert/liboverride/pkg/types"
)

// ObjectMode is the interaction mode of an object.
type ObjectMode uint8

const (
	ModeObject ObjectMode = iota
	ModeEdit
	ModeSculpt
	ModePose
)

// Modifier is one entry of an object's modifier stack.
type Modifier struct {
	Name   string
	Kind   string
	Target *types.ID
	Show   bool
}

// PoseChannel is the pose state of one bone.
type PoseChannel struct {
	Name        string
	CustomShape *types.ID
}

// Pose holds the channels of an armature object.
type Pose struct {
	Channels []*PoseChannel
}

// ObjectRuntime holds derived state invalidated by remapping.
type ObjectRuntime struct {
	ModifiersValid  bool
	MultiresValid   bool
	CurveCacheValid bool
}

// Object places data in a scene.
type Object struct {
	Data               *types.ID
	Parent             *types.ID
	Materials          []*types.ID
	Modifiers          []*Modifier
	Pose               *Pose
	InstanceCollection *types.ID
	Mode               ObjectMode
	Runtime            ObjectRuntime
}

func (o *Object) ForeachEdge(visit types.EdgeVisitor) {
	// data of a non-empty object is never null
	visit(&o.Data, "data", types.EdgeUser|types.EdgeNeverSelf|types.EdgeNeverNull|types.EdgeObData)
	visit(&o.Parent, "parent", types.EdgeNeverSelf)
	for i := range o.Materials {
		visit(&o.Materials[i], fmt.Sprintf("materials[%d]", i), types.EdgeUser)
	}
	for _, md := range o.Modifiers {
		visit(&md.Target, fmt.Sprintf("modifiers[%q].object", md.Name), types.EdgeNeverSelf)
	}
	if o.Pose != nil {
		for _, pchan := range o.Pose.Channels {
			visit(&pchan.CustomShape, fmt.Sprintf("pose.bones[%q].custom_shape", pchan.Name), types.EdgeUser)
		}
	}
	visit(&o.InstanceCollection, "instance_collection", types.EdgeUser)
}

func (o *Object) Clone() types.Payload {
	c := *o
	c.Materials = append([]*types.ID(nil), o.Materials...)
	c.Modifiers = make([]*Modifier, len(o.Modifiers))
	for i, md := range o.Modifiers {
		mdc := *md
		c.Modifiers[i] = &mdc
	}
	if o.Pose != nil {
		c.Pose = &Pose{Channels: make([]*PoseChannel, len(o.Pose.Channels))}
		for i, pchan := range o.Pose.Channels {
			pc := *pchan
			c.Pose.Channels[i] = &pc
		}
	}
	return &c
}

// FindModifier returns the modifier with the given name.
func (o *Object) FindModifier(name string) (int, *Modifier) {
	for i, md := range o.Modifiers {
		if md.Name == name {
			return i, md
		}
	}
	return -1, nil
}

// CollectionHide holds visibility flags.
type CollectionHide struct {
	Viewport bool
	Render   bool
}

// CollectionRuntime holds the flattened object cache and parent links.
type CollectionRuntime struct {
	FlatObjects []*types.ID
	CacheValid  bool
}

// Collection groups objects and child collections.
type Collection struct {
	Objects  []*types.ID
	Children []*types.ID
	// Parents is rebuilt from Children, never edited directly.
	Parents []*types.ID
	Hide    CollectionHide
	Runtime CollectionRuntime
}

func (c *Collection) ForeachEdge(visit types.EdgeVisitor) {
	for i := range c.Objects {
		visit(&c.Objects[i], fmt.Sprintf("objects[%d]", i), types.EdgeUser|types.EdgeCollectionItem)
	}
	for i := range c.Children {
		visit(&c.Children[i], fmt.Sprintf("children[%d]", i), types.EdgeUser|types.EdgeCollectionItem)
	}
	for i := range c.Parents {
		visit(&c.Parents[i], fmt.Sprintf("parents[%d]", i), types.EdgeLoopback|types.EdgeInternal|types.EdgeNotOverridable)
	}
}

func (c *Collection) Clone() types.Payload {
	n := *c
	n.Objects = append([]*types.ID(nil), c.Objects...)
	n.Children = append([]*types.ID(nil), c.Children...)
	n.Parents = append([]*types.ID(nil), c.Parents...)
	n.Runtime = CollectionRuntime{}
	return &n
}

// HasObject reports whether ob is a direct member.
func (c *Collection) HasObject(ob *types.ID) bool {
	for _, o := range c.Objects {
		if o == ob {
			return true
		}
	}
	return false
}

// Scene owns a master collection.
type Scene struct {
	MasterCollection *types.ID
	Camera           *types.ID
}

func (s *Scene) ForeachEdge(visit types.EdgeVisitor) {
	visit(&s.MasterCollection, "master_collection", types.EdgeEmbedded)
	visit(&s.Camera, "camera", types.EdgeNop)
}

func (s *Scene) Clone() types.Payload {
	c := *s
	return &c
}

// Mesh geometry. Only its ID links matter here.
type Mesh struct {
	Materials []*types.ID
	Key       *types.ID
	Verts     int
}

func (m *Mesh) ForeachEdge(visit types.EdgeVisitor) {
	for i := range m.Materials {
		visit(&m.Materials[i], fmt.Sprintf("materials[%d]", i), types.EdgeUser)
	}
	visit(&m.Key, "shape_key", types.EdgeEmbedded)
}

func (m *Mesh) Clone() types.Payload {
	c := *m
	c.Materials = append([]*types.ID(nil), m.Materials...)
	return &c
}

// CurveKind is the curve's object type.
type CurveKind uint8

const (
	CurveKindCurve CurveKind = iota
	CurveKindSurface
	CurveKindFont
)

// Curve geometry.
type Curve struct {
	Materials   []*types.ID
	Key         *types.ID
	TaperObject *types.ID
	BevelObject *types.ID
	Kind        CurveKind
}

func (c *Curve) ForeachEdge(visit types.EdgeVisitor) {
	for i := range c.Materials {
		visit(&c.Materials[i], fmt.Sprintf("materials[%d]", i), types.EdgeUser)
	}
	visit(&c.Key, "shape_key", types.EdgeEmbedded)
	visit(&c.TaperObject, "taper_object", types.EdgeNop)
	visit(&c.BevelObject, "bevel_object", types.EdgeNop)
}

func (c *Curve) Clone() types.Payload {
	n := *c
	n.Materials = append([]*types.ID(nil), c.Materials...)
	return &n
}

// Armature holds bones. It has no ID links of its own.
type Armature struct {
	Bones []string
}

func (a *Armature) ForeachEdge(types.EdgeVisitor) {}

func (a *Armature) Clone() types.Payload {
	return &Armature{Bones: append([]string(nil), a.Bones...)}
}

// KeyBlock is one shape of a shape key.
type KeyBlock struct {
	Name  string
	Value float64
}

// ShapeKey is always embedded in its geometry owner.
type ShapeKey struct {
	Blocks []KeyBlock
}

func (k *ShapeKey) ForeachEdge(types.EdgeVisitor) {}

func (k *ShapeKey) Clone() types.Payload {
	return &ShapeKey{Blocks: append([]KeyBlock(nil), k.Blocks...)}
}

// Material owns an optional embedded node tree.
type Material struct {
	NodeTree *types.ID
	Color    [3]float64
}

func (m *Material) ForeachEdge(visit types.EdgeVisitor) {
	visit(&m.NodeTree, "node_tree", types.EdgeEmbedded)
}

func (m *Material) Clone() types.Payload {
	c := *m
	return &c
}

// Node is one node of a tree. ID is a texture image or a group tree.
type Node struct {
	Name string
	Kind string
	ID   *types.ID
}

// NodeTree is standalone (a group) or embedded in a material.
type NodeTree struct {
	Nodes []*Node
	// UpdateTag is set when a group used by this tree changed.
	UpdateTag bool
}

func (t *NodeTree) ForeachEdge(visit types.EdgeVisitor) {
	for _, n := range t.Nodes {
		visit(&n.ID, fmt.Sprintf("nodes[%q].id", n.Name), types.EdgeUser)
	}
}

func (t *NodeTree) Clone() types.Payload {
	c := &NodeTree{UpdateTag: t.UpdateTag, Nodes: make([]*Node, len(t.Nodes))}
	for i, n := range t.Nodes {
		nc := *n
		c.Nodes[i] = &nc
	}
	return c
}

// Image refers to pixels on disk.
type Image struct {
	Filepath string
}

func (i *Image) ForeachEdge(types.EdgeVisitor) {}

func (i *Image) Clone() types.Payload {
	c := *i
	return &c
}

// Action stores animation curves by target path.
type Action struct {
	Curves []string
}

func (a *Action) ForeachEdge(types.EdgeVisitor) {}

func (a *Action) Clone() types.Payload {
	return &Action{Curves: append([]string(nil), a.Curves...)}
}

// Window shows one scene.
type Window struct {
	Scene *types.ID
}

// WindowManager is a per-session singleton.
type WindowManager struct {
	Windows []*Window
}

func (w *WindowManager) ForeachEdge(visit types.EdgeVisitor) {
	for i, win := range w.Windows {
		visit(&win.Scene, fmt.Sprintf("windows[%d].scene", i), types.EdgeUserOne)
	}
}

func (w *WindowManager) Clone() types.Payload {
	c := &WindowManager{Windows: make([]*Window, len(w.Windows))}
	for i, win := range w.Windows {
		wc := *win
		c.Windows[i] = &wc
	}
	return c
}
