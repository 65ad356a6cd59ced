package liboverride

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/relations"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// tagData is the state of one hierarchy tagging pass. Tagged IDs carry
// TagDoit; missing linked IDs that would have been tagged are kept in
// missing instead and never become overrides.
type tagData struct {
	main *maindb.Main
	rel  *relations.Index
	// root is the linked reference root, or the override hierarchy root
	// when tagging existing overrides.
	root *types.ID
	lib  *types.Library
	// overrides is set when tagging local overrides rather than references.
	overrides bool

	missing map[*types.ID]bool
	// pruned holds bone shapes, which stay linked whatever uses them.
	pruned map[*types.ID]bool
	// obCollections maps objects to the collections instantiating them,
	// built on first use.
	obCollections map[*types.ID][]*types.ID
}

func newTagData(m *maindb.Main, rel *relations.Index, root *types.ID) *tagData {
	return &tagData{
		main:    m,
		rel:     rel,
		root:    root,
		lib:     root.Lib,
		missing: make(map[*types.ID]bool),
		pruned:  make(map[*types.ID]bool),
	}
}

// isKeyType reports whether t defines overridable sub-hierarchies.
func isKeyType(t types.IDType) bool {
	return t == types.IDTypeObject || t == types.IDTypeCollection
}

func tagged(id *types.ID) bool { return id != nil && id.HasTag(types.TagDoit) }

func untag(id *types.ID) { id.Tag &^= types.TagDoit }

func (d *tagData) tag(id *types.ID) {
	if d.overrides {
		id.Tag |= types.TagDoit
		return
	}
	if d.pruned[id] {
		return
	}
	if id.IsMissing() {
		d.missing[id] = true
		return
	}
	if !idtype.IsOverridable(id) {
		return
	}
	id.Tag |= types.TagDoit
}

// inLinkedHierarchy reports whether the edge to it may be followed when
// tagging references.
func (d *tagData) inLinkedHierarchy(from *types.ID, it relations.Item) bool {
	to := it.ID
	return to != nil && to != from && it.Usage.IsOverridable() && to.IsLinked() && to.Lib == d.lib
}

// linkedGroupTag tags the linked hierarchy of d.root.
func (d *tagData) linkedGroupTag() {
	d.tag(d.root)
	if !isKeyType(d.root.Type) {
		return
	}

	d.rel.TagSet(relations.TagProcessed, false)
	d.linkedGroupTagRecursive(d.root)

	d.pruneBoneShapes()
	d.pruneCollections()
	d.backfillCollections()
	d.reverseDependenciesTag()

	d.rel.TagSet(relations.TagProcessed, false)
	d.dependenciesRecursiveTag(d.root, d.inLinkedHierarchy)
}

func (d *tagData) linkedGroupTagRecursive(id *types.ID) {
	entry := d.rel.Entry(id)
	if entry == nil || entry.Tags&relations.TagProcessedTo != 0 {
		return
	}
	entry.Tags |= relations.TagProcessedTo

	for _, it := range entry.To {
		if !d.inLinkedHierarchy(id, it) {
			continue
		}
		if isKeyType(it.ID.Type) {
			d.tag(it.ID)
		}
		d.linkedGroupTagRecursive(it.ID)
	}
}

// pruneBoneShapes untags objects only used to draw bones.
func (d *tagData) pruneBoneShapes() {
	for _, ob := range d.main.IDs(types.IDTypeObject) {
		obj, ok := ob.Data.(*idtype.Object)
		if !ok || obj.Pose == nil || !tagged(ob) {
			continue
		}
		for _, pchan := range obj.Pose.Channels {
			shape := pchan.CustomShape
			if shape == nil || shape == ob || shape == d.root {
				continue
			}
			untag(shape)
			delete(d.missing, shape)
			d.pruned[shape] = true
		}
	}
}

// pruneCollections untags collections with no tagged object left in
// their tree.
func (d *tagData) pruneCollections() {
	for _, c := range d.main.IDs(types.IDTypeCollection) {
		if c == d.root || !tagged(c) {
			continue
		}
		if !hasTaggedObject(c, make(map[*types.ID]bool)) {
			untag(c)
		}
	}
}

func hasTaggedObject(c *types.ID, seen map[*types.ID]bool) bool {
	if seen[c] {
		return false
	}
	seen[c] = true
	coll, ok := c.Data.(*idtype.Collection)
	if !ok {
		return false
	}
	for _, ob := range coll.Objects {
		if tagged(ob) {
			return true
		}
	}
	for _, child := range coll.Children {
		if child != nil && hasTaggedObject(child, seen) {
			return true
		}
	}
	return false
}

func (d *tagData) objectCollections() map[*types.ID][]*types.ID {
	if d.obCollections != nil {
		return d.obCollections
	}
	d.obCollections = make(map[*types.ID][]*types.ID)
	for _, c := range remap.AllCollections(d.main) {
		coll, ok := c.Data.(*idtype.Collection)
		if !ok {
			continue
		}
		for _, ob := range coll.Objects {
			if ob != nil {
				d.obCollections[ob] = append(d.obCollections[ob], c)
			}
		}
	}
	return d.obCollections
}

// backfillCollections gives every tagged object a home: a local
// collection already instantiating it, a tagged one, or else a linked
// collection of the hierarchy that gets tagged too.
func (d *tagData) backfillCollections() {
	for _, ob := range d.main.IDs(types.IDTypeObject) {
		if !tagged(ob) || !ob.IsLinked() || ob.Lib != d.lib {
			continue
		}
		var candidate *types.ID
		housed := false
		for _, c := range d.objectCollections()[ob] {
			if !c.IsLinked() || tagged(c) {
				housed = true
				break
			}
			if candidate == nil && c.Lib == d.lib {
				candidate = c
			}
		}
		if !housed && candidate != nil {
			d.tag(candidate)
		}
	}
}

// reverseDependenciesTag tags, transitively, the linked IDs of the
// hierarchy that use a tagged one. Collections and scenes only hold
// their users, they do not depend on them.
func (d *tagData) reverseDependenciesTag() {
	var queue []*types.ID
	for _, id := range d.rel.IDs() {
		if tagged(id) && id.Lib == d.lib {
			queue = append(queue, id)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		entry := d.rel.Entry(id)
		if entry == nil {
			continue
		}
		for _, it := range entry.From {
			user := it.ID
			if user == nil || user == id || tagged(user) || d.missing[user] || !it.Usage.IsOverridable() {
				continue
			}
			if !user.IsLinked() || user.Lib != d.lib ||
				user.Type == types.IDTypeCollection || user.Type == types.IDTypeScene {
				continue
			}
			d.tag(user)
			if tagged(user) {
				queue = append(queue, user)
			}
		}
	}
}

// dependenciesRecursiveTag tags id when anything it leads to is tagged,
// so intermediate IDs between tagged ones are overridden as well.
func (d *tagData) dependenciesRecursiveTag(id *types.ID, follow func(*types.ID, relations.Item) bool) bool {
	entry := d.rel.Entry(id)
	if entry == nil || entry.Tags&relations.TagProcessedTo != 0 {
		return tagged(id)
	}
	entry.Tags |= relations.TagProcessedTo
	for _, it := range entry.To {
		if !follow(id, it) {
			continue
		}
		if d.dependenciesRecursiveTag(it.ID, follow) && !tagged(id) {
			d.tag(id)
		}
	}
	return tagged(id)
}

// inOverrideHierarchy reports whether the edge to it stays within the
// override hierarchy of d.root.
func (d *tagData) inOverrideHierarchy(from *types.ID, it relations.Item) bool {
	to := it.ID
	if to == nil || to == from || !it.Usage.IsOverridable() || !to.IsOverrideLibraryReal() {
		return false
	}
	if to.Lib != from.Lib || to.Override.Flag&types.OverrideNoHierarchy != 0 {
		return false
	}
	if to.Override.HierarchyRoot != d.root {
		return false
	}
	// an override only depends on overrides of its own reference library
	if from.IsOverrideLibraryReal() && to.Override.Reference.Lib != from.Override.Reference.Lib {
		logger := logging.GetLogger("liboverride")
		logger.Trace().Str("from", from.String()).Str("to", to.String()).Msg("cross library override dependency ignored")
		return false
	}
	return true
}

// overridesGroupTag tags the existing overrides of the hierarchy rooted
// at d.root.
func (d *tagData) overridesGroupTag() {
	d.overrides = true
	d.root.Tag |= types.TagDoit
	d.rel.TagSet(relations.TagProcessed, false)
	d.overridesGroupTagRecursive(d.root)

	// members only pointing at the root are found through their record
	for _, id := range d.main.All() {
		if tagged(id) || !id.IsOverrideLibraryReal() || id.Lib != d.root.Lib {
			continue
		}
		if id.Override.HierarchyRoot == d.root && id.Override.Flag&types.OverrideNoHierarchy == 0 {
			id.Tag |= types.TagDoit
		}
	}

	d.rel.TagSet(relations.TagProcessed, false)
	d.dependenciesRecursiveTag(d.root, d.inOverrideHierarchy)
}

func (d *tagData) overridesGroupTagRecursive(id *types.ID) {
	entry := d.rel.Entry(id)
	if entry == nil || entry.Tags&relations.TagProcessedTo != 0 {
		return
	}
	entry.Tags |= relations.TagProcessedTo
	for _, it := range entry.To {
		if !d.inOverrideHierarchy(id, it) {
			continue
		}
		it.ID.Tag |= types.TagDoit
		d.overridesGroupTagRecursive(it.ID)
	}
}

// TagHierarchy tags with TagDoit the linked IDs an override of root
// would need, and returns them in Main order together with the missing
// ones. Tags are left in place for the caller to consume.
func (e *Engine) TagHierarchy(root *types.ID) (ids, missing []*types.ID) {
	rel := relations.Build(e.main)
	defer rel.Free()

	d := newTagData(e.main, rel, root)
	d.linkedGroupTag()
	ids = e.taggedIDs(func(id *types.ID) bool { return id.IsLinked() })
	for _, id := range e.main.All() {
		if d.missing[id] {
			missing = append(missing, id)
		}
	}
	return ids, missing
}

// tagOverrides tags the existing overrides of the hierarchy rooted at
// hroot and returns them in Main order.
func (e *Engine) tagOverrides(hroot *types.ID) []*types.ID {
	rel := relations.Build(e.main)
	defer rel.Free()

	d := newTagData(e.main, rel, hroot)
	d.overridesGroupTag()
	return e.taggedIDs(func(id *types.ID) bool { return id.IsOverrideLibraryReal() })
}
