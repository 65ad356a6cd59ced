package liboverride

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// editableCollection reports whether c may receive new members: a local
// collection or a local override.
func editableCollection(c *types.ID) bool {
	return c != nil && c.Type == types.IDTypeCollection && !c.RealOwner().IsLinked()
}

func collectionData(c *types.ID) *idtype.Collection {
	coll, _ := c.Data.(*idtype.Collection)
	return coll
}

// sceneFor picks the scene new overrides go to: hint when it is a scene,
// else the first one.
func (e *Engine) sceneFor(hint *types.ID) *types.ID {
	if hint != nil && hint.Type == types.IDTypeScene {
		return hint
	}
	scenes := e.main.IDs(types.IDTypeScene)
	for _, sc := range scenes {
		if !sc.IsLinked() {
			return sc
		}
	}
	return nil
}

func masterCollection(scene *types.ID) *types.ID {
	if scene == nil {
		return nil
	}
	if s, ok := scene.Data.(*idtype.Scene); ok {
		return s.MasterCollection
	}
	return nil
}

// targetCollection is where an override root is instantiated: hint when
// it is an editable collection, else the scene master collection.
func (e *Engine) targetCollection(hint *types.ID) *types.ID {
	if hint != nil && hint.Type == types.IDTypeCollection && editableCollection(hint) {
		return hint
	}
	return masterCollection(e.sceneFor(hint))
}

func (e *Engine) objectInstantiated(ob *types.ID) bool {
	for _, c := range remap.AllCollections(e.main) {
		if coll := collectionData(c); coll != nil && editableCollection(c) && coll.HasObject(ob) {
			return true
		}
	}
	return false
}

func (e *Engine) collectionInstantiated(child *types.ID) bool {
	for _, c := range remap.AllCollections(e.main) {
		coll := collectionData(c)
		if coll == nil || !editableCollection(c) {
			continue
		}
		for _, ch := range coll.Children {
			if ch == child {
				return true
			}
		}
	}
	return false
}

func linkObject(c, ob *types.ID) {
	coll := collectionData(c)
	if coll == nil || coll.HasObject(ob) {
		return
	}
	coll.Objects = append(coll.Objects, ob)
	types.UsPlus(ob)
	coll.Runtime.CacheValid = false
}

func (e *Engine) linkChild(parent, child *types.ID) {
	coll := collectionData(parent)
	if coll == nil {
		return
	}
	for _, ch := range coll.Children {
		if ch == child {
			return
		}
	}
	coll.Children = append(coll.Children, child)
	types.UsPlus(child)
	coll.Runtime.CacheValid = false
	remap.RebuildCollectionParents(e.main)
}

// namedChildCollection finds or creates a local collection called name
// under parent. Hidden ones are excluded from viewport and render.
func (e *Engine) namedChildCollection(parent *types.ID, name string, hidden bool) (*types.ID, error) {
	if coll := collectionData(parent); coll != nil {
		for _, ch := range coll.Children {
			if ch != nil && !ch.IsLinked() && ch.Override == nil && ch.Name == name {
				return ch, nil
			}
		}
	}
	c, err := lifecycle.NewID(e.main, types.IDTypeCollection, name, nil)
	if err != nil {
		return nil, err
	}
	if hidden {
		collectionData(c).Hide = idtype.CollectionHide{Viewport: true, Render: true}
	}
	e.linkChild(parent, c)
	// the parent now holds the user the creation gave
	types.UsMin(c)
	return c, nil
}

// instantiate makes sure root and every new object override can be
// reached from a scene. Objects that have no natural home go next to an
// object root, or into the hidden collection.
func (e *Engine) instantiate(root *types.ID, created []*types.ID, hint *types.ID) error {
	target := e.targetCollection(hint)
	logger := logging.GetLogger("liboverride")
	if target == nil {
		logger.Warn().Str("root", root.String()).Msg("no scene to instantiate overrides in")
		return nil
	}

	switch root.Type {
	case types.IDTypeCollection:
		if !e.collectionInstantiated(root) {
			e.linkChild(target, root)
		}
	case types.IDTypeObject:
		if !e.objectInstantiated(root) {
			linkObject(target, root)
		}
	}

	// collections overridden to house objects of an object root
	if root.Type == types.IDTypeObject {
		for _, c := range created {
			if c.Type == types.IDTypeCollection && !e.collectionInstantiated(c) {
				e.linkChild(target, c)
			}
		}
	}

	var hidden *types.ID
	for _, ob := range created {
		if ob.Type != types.IDTypeObject || ob == root || e.objectInstantiated(ob) {
			continue
		}
		home := target
		if root.Type != types.IDTypeObject {
			if hidden == nil {
				parent := masterCollection(e.sceneFor(hint))
				if parent == nil {
					parent = target
				}
				var err error
				hidden, err = e.namedChildCollection(parent, e.cfg.HiddenCollectionName, true)
				if err != nil {
					return err
				}
			}
			home = hidden
		}
		linkObject(home, ob)
		logger.Debug().Str("object", ob.String()).Str("collection", home.String()).Msg("override instantiated")
	}
	remap.SyncCollectionCaches(e.main)
	return nil
}
