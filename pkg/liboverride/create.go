package liboverride

import (
	"slices"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Create overrides the linked hierarchy of root and returns the override
// of root. hierarchyRoot, when not nil, is the linked ID the hierarchy is
// discovered from and root must belong to it. hint is a scene or an
// editable collection receiving the new overrides.
func (e *Engine) Create(root, hierarchyRoot, hint *types.ID) (*types.ID, error) {
	logger := logging.GetLogger("liboverride")
	defer logging.LogOperationStart(logger, "override_create")()

	if hierarchyRoot == nil {
		hierarchyRoot = root
	}
	for _, id := range []*types.ID{root, hierarchyRoot} {
		if err := checkOverridable(id); err != nil {
			return nil, err
		}
	}

	e.clearTags()
	defer e.clearTags()

	refs, missing := e.TagHierarchy(hierarchyRoot)
	if !tagged(root) {
		return nil, errors.Newf(errors.ErrHierarchyInvalid, "%s is not part of the hierarchy of %s", root, hierarchyRoot).
			WithDetail("hierarchy_root", hierarchyRoot.String())
	}
	for _, id := range missing {
		logger.Info().Str("id", id.String()).Msg("missing linked ID left out of the override hierarchy")
	}

	mapping, created, err := e.createFromTag(refs, root, hierarchyRoot)
	if err != nil {
		return nil, err
	}
	rootOverride, _ := mapping.Lookup(root)
	hroot, _ := mapping.Lookup(hierarchyRoot)
	for _, local := range created {
		local.Override.HierarchyRoot = hroot
	}

	if err := e.instantiate(hroot, created, hint); err != nil {
		return rootOverride, err
	}
	logger.Info().
		Str("root", rootOverride.String()).
		Int("overrides", len(created)).
		Msg("override hierarchy created")
	return rootOverride, nil
}

func checkOverridable(id *types.ID) error {
	switch {
	case id == nil:
		return errors.New(errors.ErrInvalidInput, "no ID to override")
	case id.IsMissing():
		return errors.Newf(errors.ErrMissingReference, "%s is missing from its library", id).
			WithDetail("library", id.Lib.String())
	case !idtype.IsOverridable(id):
		return errors.Newf(errors.ErrNotOverridable, "%s cannot be overridden", id).
			WithDetail("type", string(id.Type))
	}
	return nil
}

// createFromTag makes one override per reference, then moves every local
// use of the references, the new overrides' own slots included, onto the
// overrides. The returned remapper maps each reference to its override.
// References that cannot be copied are left linked, unless they are
// required.
func (e *Engine) createFromTag(refs []*types.ID, required ...*types.ID) (*remap.Remapper, []*types.ID, error) {
	logger := logging.GetLogger("liboverride")
	r := remap.NewRemapper()
	created := make([]*types.ID, 0, len(refs))
	for _, ref := range refs {
		local, err := e.newOverride(ref)
		if err != nil {
			if slices.Contains(required, ref) {
				for _, c := range created {
					lifecycle.Free(e.main, c, 0)
				}
				return nil, nil, err
			}
			logger.Warn().Err(err).Str("id", ref.String()).Msg("cannot copy reference, left linked")
			e.reports.Addf(types.SeverityWarning, "%s could not be overridden and stays linked", ref)
			untag(ref)
			continue
		}
		// relinking hands the users back
		types.UsMin(local)
		r.Add(ref, local)
		created = append(created, local)
	}

	flags := remap.SkipIndirectUsage | remap.SkipOverrideLibrary | remap.SkipUserClear
	remap.RemapMultipleWith(e.main, r, e.remapOptions(flags))
	return r, created, nil
}

// newOverride copies ref into the Main and attaches a fresh record.
func (e *Engine) newOverride(ref *types.ID) (*types.ID, error) {
	local, err := lifecycle.Copy(e.main, ref, lifecycle.CopyNoLibOverride)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotCopyable, "cannot override %s", ref)
	}
	override.Init(local, ref)
	markEmbedded(local)
	return local, nil
}

// newScratchOverride is newOverride outside the Main. Users of the copy
// targets are counted so the copy can later replace a registered ID.
func newScratchOverride(ref *types.ID) (*types.ID, error) {
	local, err := lifecycle.Copy(nil, ref, lifecycle.CopyNoMain|lifecycle.CopyNoLibOverride)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrNotCopyable, "cannot override %s", ref)
	}
	override.Init(local, ref)
	markEmbedded(local)
	return local, nil
}

func markEmbedded(local *types.ID) {
	for _, emb := range idtype.EmbeddedIDs(local) {
		emb.Flag |= types.FlagEmbeddedDataLibOverride
	}
}
