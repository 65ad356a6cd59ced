package liboverride

import (
	"sort"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/gammazero/toposort"
)

// hierarchyRoot returns the root of the hierarchy id belongs to.
func hierarchyRoot(id *types.ID) *types.ID {
	if id.Override != nil && id.Override.HierarchyRoot != nil {
		return id.Override.HierarchyRoot
	}
	return id
}

// Resync rebuilds the override hierarchy root belongs to from the current
// shape of its references, keeping user edits. residual receives the
// orphaned overrides that are kept; when nil a collection is created on
// demand. A missing reference root stops the resync before anything is
// touched.
func (e *Engine) Resync(root, residual *types.ID) (bool, error) {
	logger := logging.GetLogger("liboverride")
	defer logging.LogOperationStart(logger, "override_resync")()

	if root == nil || !root.IsOverrideLibraryReal() || root.IsLinked() {
		return false, errors.Newf(errors.ErrNotOverridable, "%s is not a local library override", root)
	}
	hroot := hierarchyRoot(root)
	if !hroot.IsOverrideLibraryReal() {
		return false, errors.Newf(errors.ErrHierarchyInvalid, "hierarchy root %s of %s is not an override", hroot, root)
	}
	refRoot := hroot.Override.Reference
	if refRoot.IsMissing() {
		return false, errors.Newf(errors.ErrMissingReference, "reference %s of hierarchy %s is missing", refRoot, hroot).
			WithDetail("library", refRoot.Lib.String())
	}

	e.clearTags()
	defer e.clearTags()
	olds := e.tagOverrides(hroot)
	e.clearTags()
	refs, _ := e.TagHierarchy(refRoot)
	e.clearTags()

	refToOld := make(map[*types.ID]*types.ID, len(olds))
	for _, old := range olds {
		refToOld[old.Override.Reference.RealOwner()] = old
	}

	// new overrides are built outside the Main so names do not collide
	r := remap.NewRemapper()
	news := make([]*types.ID, 0, len(refs))
	for _, ref := range refs {
		local, err := newScratchOverride(ref)
		if err != nil {
			for _, n := range news {
				lifecycle.Free(nil, n, 0)
			}
			return false, err
		}
		r.Add(ref, local)
		news = append(news, local)
	}
	remap.RelinkMultiple(e.main, news, r,
		e.remapOptions(remap.ForceUserRefcount|remap.SkipOverrideLibrary|remap.SkipUpdateTagging))

	oldToNew := remap.NewRemapper()
	var displaced []*types.ID
	for i, ref := range refs {
		local := news[i]
		old, ok := refToOld[ref]
		if !ok {
			e.main.Register(local, ref.Name)
			continue
		}
		// the new data takes over the identity of the old override
		local.SessionUID = old.SessionUID
		e.main.ReplaceInList(old, local)
		transplant(old, local)
		oldToNew.Add(old, local)
		displaced = append(displaced, old)
		delete(refToOld, ref)
	}

	if !oldToNew.IsEmpty() {
		remap.RemapMultipleWith(e.main, oldToNew,
			e.remapOptions(remap.ForceUserRefcount|remap.ForceNeverNullUsage))
		// displaced overrides release their users against the new ones
		remap.RelinkMultiple(e.main, displaced, oldToNew,
			e.remapOptions(remap.ForceUserRefcount|remap.SkipOverrideLibrary|remap.SkipUpdateTagging))
	}

	oldToNew.Iter(func(old, local *types.ID) {
		o := local.Override
		override.StripMatchReference(o)
		if len(o.Properties) == 0 {
			return
		}
		if err := e.bridge.Apply(local, old, old.Override.Storage, o, 0); err != nil {
			logger.Warn().Err(err).Str("id", local.String()).Msg("some overridden properties could not be restored")
			e.reports.Addf(types.SeverityWarning, "resync of %s: %v", local, err)
		}
	})

	newRoot, _ := r.Lookup(refRoot)
	for _, local := range news {
		local.Override.HierarchyRoot = newRoot
	}

	for _, old := range displaced {
		lifecycle.Free(e.main, old, 0)
	}
	if err := e.handleOrphans(refToOld, residual); err != nil {
		return false, err
	}

	e.operationsCreateSerial(news)
	if err := e.instantiate(newRoot, news, nil); err != nil {
		return false, err
	}

	logger.Info().
		Str("root", newRoot.String()).
		Int("overrides", len(news)).
		Int("replaced", len(displaced)).
		Int("orphans", len(refToOld)).
		Msg("override hierarchy resynced")
	return true, nil
}

// transplant moves the record contents of old onto its replacement.
func transplant(old, local *types.ID) {
	o, oo := local.Override, old.Override
	o.Properties, oo.Properties = oo.Properties, nil
	o.Flag = oo.Flag
	o.Runtime, oo.Runtime = nil, nil
}

// handleOrphans deletes overrides whose reference left the hierarchy.
// User edited ones are kept as resync leftovers when configured so,
// otherwise they are deleted with a warning.
func (e *Engine) handleOrphans(orphans map[*types.ID]*types.ID, residual *types.ID) error {
	logger := logging.GetLogger("liboverride")
	e.clearTags()

	var kept []*types.ID
	for _, old := range orphans {
		edited := override.IsUserEdited(old)
		switch {
		case edited && e.cfg.KeepUserEditedOrphans:
			old.Flag |= types.FlagResyncLeftover
			types.FakeUserSet(old)
			old.Override.HierarchyRoot = old
			kept = append(kept, old)
			logger.Warn().Str("id", old.String()).Msg("orphaned user edited override kept")
			e.reports.Addf(types.SeverityWarning, "%s lost its reference and was kept as a resync leftover", old)
		case edited:
			old.Tag |= types.TagDoit
			logger.Warn().Str("id", old.String()).Msg("deleting orphaned user edited override")
			e.reports.Addf(types.SeverityWarning, "%s was user edited but lost its reference, it was deleted", old)
		default:
			old.Tag |= types.TagDoit
			logger.Debug().Str("id", old.String()).Msg("deleting orphaned override")
		}
	}
	lifecycle.MultiTaggedDelete(e.main)

	// stable placement order
	sort.Slice(kept, func(i, j int) bool { return kept[i].Name < kept[j].Name })
	for _, old := range kept {
		if old.Type != types.IDTypeObject {
			continue
		}
		if residual == nil {
			master := masterCollection(e.sceneFor(nil))
			if master == nil {
				return nil
			}
			var err error
			residual, err = e.namedChildCollection(master, e.cfg.ResidualCollectionName, false)
			if err != nil {
				return err
			}
		}
		linkObject(residual, old)
	}
	return nil
}

// libraryLevels returns how indirectly each library is linked: 1 for
// libraries linked directly, their children one more, and so on.
func (e *Engine) libraryLevels() map[*types.Library]int {
	libs := e.main.Libraries()
	levels := make(map[*types.Library]int, len(libs))
	var edges []toposort.Edge
	for _, lib := range libs {
		levels[lib] = 1
		if lib.Parent != nil {
			edges = append(edges, toposort.Edge{lib.Parent, lib})
		}
	}

	order, err := toposort.Toposort(edges)
	if err != nil {
		logger := logging.GetLogger("liboverride")
		logger.Error().Err(err).Msg("libraries link each other in a cycle")
		e.reports.Addf(types.SeverityError, "library dependency cycle, levels ignored: %v", err)
		return levels
	}
	for _, v := range order {
		lib, ok := v.(*types.Library)
		if !ok || lib.Parent == nil {
			continue
		}
		level := levels[lib.Parent] + 1
		if level > e.cfg.MaxLibraryLevels {
			e.reports.Addf(types.SeverityError, "library %s is nested deeper than %d levels", lib, e.cfg.MaxLibraryLevels)
			level = e.cfg.MaxLibraryLevels
		}
		levels[lib] = level
	}
	for lib, level := range levels {
		lib.TempIndex = level
	}
	return levels
}

// needsResync reports whether the reference hierarchy of hroot no longer
// matches its overrides: a reference needs an override it does not have,
// or an override lost its reference.
func (e *Engine) needsResync(hroot *types.ID) bool {
	refRoot := hroot.Override.Reference
	if refRoot.IsMissing() {
		return true
	}
	e.clearTags()
	olds := e.tagOverrides(hroot)
	e.clearTags()
	refs, _ := e.TagHierarchy(refRoot)
	e.clearTags()

	have := make(map[*types.ID]bool, len(olds))
	for _, old := range olds {
		if old.HasTag(types.TagNeedResync) {
			return true
		}
		have[old.Override.Reference] = true
	}
	wanted := make(map[*types.ID]bool, len(refs))
	for _, ref := range refs {
		if !have[ref] {
			return true
		}
		wanted[ref] = true
	}
	for _, old := range olds {
		if !wanted[old.Override.Reference] {
			return true
		}
	}
	return false
}

// MainResync resyncs every local override hierarchy that needs it,
// hierarchies of the most indirectly linked libraries first. A hierarchy
// that fails is reported and skipped. It returns the number resynced.
func (e *Engine) MainResync() int {
	logger := logging.GetLogger("liboverride")
	defer logging.LogOperationStart(logger, "override_main_resync")()

	e.MainHierarchyRootEnsure()
	levels := e.libraryLevels()

	var roots []*types.ID
	for _, id := range e.main.All() {
		if id.IsOverrideLibraryReal() && !id.IsLinked() && hierarchyRoot(id) == id {
			roots = append(roots, id)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return levels[roots[i].Override.Reference.Lib] > levels[roots[j].Override.Reference.Lib]
	})

	count := 0
	for _, root := range roots {
		if !e.needsResync(root) {
			continue
		}
		uid, name := root.SessionUID, root.String()
		if _, err := e.Resync(root, nil); err != nil {
			logger.Error().Err(err).Str("root", name).Msg("resync failed")
			e.reports.Addf(types.SeverityError, "resync of %s failed: %v", name, err)
			continue
		}
		logger.Debug().Uint64("session_uid", uid).Str("root", name).Msg("hierarchy resynced")
		count++
	}
	for _, id := range e.main.All() {
		id.Tag &^= types.TagNeedResync
	}
	return count
}
