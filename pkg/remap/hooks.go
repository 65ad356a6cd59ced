package remap

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/registry"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// HookContext is handed to post-remap hooks.
type HookContext struct {
	Main     *maindb.Main
	Remapper *Remapper
	// Owners had at least one slot rewritten.
	Owners []*types.ID
}

// PostHook repairs derived state after a batch touching one ID type.
// Hooks must be idempotent.
type PostHook func(ctx *HookContext)

var postHooks = registry.New[types.IDType, PostHook]()

// RegisterPostHook installs the hook run after batches remapping IDs of type t.
func RegisterPostHook(t types.IDType, hook PostHook) {
	postHooks.Set(t, hook)
}

func (e *engine) runPostHooks() {
	ctx := &HookContext{Main: e.main, Remapper: e.r, Owners: e.owners}
	for _, t := range idtype.Ordered() {
		if !e.r.ContainsType(t) {
			continue
		}
		if hook, ok := postHooks.Lookup(t); ok {
			hook(ctx)
		}
	}
}

func init() {
	RegisterPostHook(types.IDTypeObject, objectPostRemap)
	RegisterPostHook(types.IDTypeCollection, collectionPostRemap)
	RegisterPostHook(types.IDTypeMesh, obdataPostRemap)
	RegisterPostHook(types.IDTypeCurve, obdataPostRemap)
	RegisterPostHook(types.IDTypeArmature, obdataPostRemap)
	RegisterPostHook(types.IDTypeNodeTree, nodeTreePostRemap)
}

// AllCollections returns listed collections followed by scene master
// collections.
func AllCollections(m *maindb.Main) []*types.ID {
	out := m.IDs(types.IDTypeCollection)
	for _, sc := range m.IDs(types.IDTypeScene) {
		if s, ok := sc.Data.(*idtype.Scene); ok && s.MasterCollection != nil {
			out = append(out, s.MasterCollection)
		}
	}
	return out
}

// objectPostRemap drops nil and duplicate object slots from collections.
func objectPostRemap(ctx *HookContext) {
	for _, c := range AllCollections(ctx.Main) {
		coll, ok := c.Data.(*idtype.Collection)
		if !ok {
			continue
		}
		if compactObjects(c, coll) {
			coll.Runtime.CacheValid = false
			ctx.Main.TagUpdate(c.RealOwner(), types.RecalcCopyOnWrite)
		}
	}
	SyncCollectionCaches(ctx.Main)
}

// compactObjects removes nil and duplicate entries, dropping the user
// each duplicate held.
func compactObjects(owner *types.ID, coll *idtype.Collection) bool {
	seen := make(map[*types.ID]bool, len(coll.Objects))
	kept := coll.Objects[:0]
	changed := false
	for _, ob := range coll.Objects {
		switch {
		case ob == nil:
			changed = true
		case seen[ob]:
			if owner.RealOwner().Ownership == types.OwnedByRegistry {
				types.UsMin(ob)
			}
			changed = true
		default:
			seen[ob] = true
			kept = append(kept, ob)
		}
	}
	for i := len(kept); i < len(coll.Objects); i++ {
		coll.Objects[i] = nil
	}
	coll.Objects = kept
	return changed
}

// collectionPostRemap drops nil and duplicate children and rebuilds parents.
func collectionPostRemap(ctx *HookContext) {
	all := AllCollections(ctx.Main)
	for _, c := range all {
		coll, ok := c.Data.(*idtype.Collection)
		if !ok {
			continue
		}
		seen := make(map[*types.ID]bool, len(coll.Children))
		kept := make([]*types.ID, 0, len(coll.Children))
		for _, child := range coll.Children {
			if child == nil || child == c {
				continue
			}
			if seen[child] {
				if c.RealOwner().Ownership == types.OwnedByRegistry {
					types.UsMin(child)
				}
				continue
			}
			seen[child] = true
			kept = append(kept, child)
		}
		coll.Children = kept
	}
	RebuildCollectionParents(ctx.Main)
	objectPostRemap(ctx)
}

// RebuildCollectionParents recomputes every collection's parent list.
func RebuildCollectionParents(m *maindb.Main) {
	all := AllCollections(m)
	for _, c := range all {
		if coll, ok := c.Data.(*idtype.Collection); ok {
			coll.Parents = nil
		}
	}
	for _, c := range all {
		coll, ok := c.Data.(*idtype.Collection)
		if !ok {
			continue
		}
		for _, child := range coll.Children {
			if cc, ok := child.Data.(*idtype.Collection); ok {
				cc.Parents = append(cc.Parents, c)
			}
		}
	}
}

// SyncCollectionCaches rebuilds invalid flattened object caches.
func SyncCollectionCaches(m *maindb.Main) {
	for _, c := range AllCollections(m) {
		coll, ok := c.Data.(*idtype.Collection)
		if !ok || coll.Runtime.CacheValid {
			continue
		}
		seen := make(map[*types.ID]bool)
		coll.Runtime.FlatObjects = flatten(c, seen, make(map[*types.ID]bool), nil)
		coll.Runtime.CacheValid = true
	}
}

func flatten(c *types.ID, seen, visiting map[*types.ID]bool, out []*types.ID) []*types.ID {
	coll, ok := c.Data.(*idtype.Collection)
	if !ok || visiting[c] {
		return out
	}
	visiting[c] = true
	for _, ob := range coll.Objects {
		if ob != nil && !seen[ob] {
			seen[ob] = true
			out = append(out, ob)
		}
	}
	for _, child := range coll.Children {
		if child != nil {
			out = flatten(child, seen, visiting, out)
		}
	}
	return out
}

// obdataPostRemap resyncs objects whose data slot was rewritten.
func obdataPostRemap(ctx *HookContext) {
	for _, owner := range ctx.Owners {
		ob, ok := owner.Data.(*idtype.Object)
		if !ok || ob.Data == nil {
			continue
		}
		if _, remapped := remappedTo(ctx.Remapper, ob.Data); !remapped {
			continue
		}
		SyncObjectMaterials(owner)
		ob.Runtime.ModifiersValid = false
		switch ob.Data.Type {
		case types.IDTypeMesh:
			ob.Runtime.MultiresValid = false
		case types.IDTypeCurve:
			ob.Runtime.CurveCacheValid = false
		}
		ctx.Main.TagUpdate(owner, types.RecalcGeometry)
	}
}

// remappedTo reports whether id is the target of some mapping.
func remappedTo(r *Remapper, id *types.ID) (*types.ID, bool) {
	var old *types.ID
	r.Iter(func(o, n *types.ID) {
		if old == nil && n == id {
			old = o
		}
	})
	return old, old != nil
}

// SyncObjectMaterials resizes the object material slots to its data's.
func SyncObjectMaterials(owner *types.ID) {
	ob, ok := owner.Data.(*idtype.Object)
	if !ok || ob.Data == nil {
		return
	}
	var want int
	switch d := ob.Data.Data.(type) {
	case *idtype.Mesh:
		want = len(d.Materials)
	case *idtype.Curve:
		want = len(d.Materials)
	default:
		return
	}
	for len(ob.Materials) > want {
		last := ob.Materials[len(ob.Materials)-1]
		if last != nil && owner.Ownership == types.OwnedByRegistry {
			types.UsMin(last)
		}
		ob.Materials = ob.Materials[:len(ob.Materials)-1]
	}
	for len(ob.Materials) < want {
		ob.Materials = append(ob.Materials, nil)
	}
}

// nodeTreePostRemap flags trees that use a remapped group.
func nodeTreePostRemap(ctx *HookContext) {
	var trees []*types.ID
	trees = append(trees, ctx.Main.IDs(types.IDTypeNodeTree)...)
	for _, ma := range ctx.Main.IDs(types.IDTypeMaterial) {
		if mat, ok := ma.Data.(*idtype.Material); ok && mat.NodeTree != nil {
			trees = append(trees, mat.NodeTree)
		}
	}
	logger := logging.GetLogger("remap")
	for _, tree := range trees {
		nt, ok := tree.Data.(*idtype.NodeTree)
		if !ok {
			continue
		}
		for _, n := range nt.Nodes {
			if n.ID == nil || n.ID.Type != types.IDTypeNodeTree {
				continue
			}
			if _, ok := remappedTo(ctx.Remapper, n.ID); ok {
				nt.UpdateTag = true
				ctx.Main.TagUpdate(tree.RealOwner(), types.RecalcShading)
				logger.Trace().Str("tree", tree.String()).Msg("group user tagged for update")
				break
			}
		}
	}
}
