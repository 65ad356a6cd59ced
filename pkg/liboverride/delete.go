package liboverride

import (
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Delete turns the hierarchy root belongs to back into plain linked
// data: every use of its overrides goes back to their reference, then
// the overrides are deleted. It returns the number of IDs deleted.
func (e *Engine) Delete(root *types.ID) (int, error) {
	logger := logging.GetLogger("liboverride")
	defer logging.LogOperationStart(logger, "override_delete")()

	if root == nil || !root.IsOverrideLibraryReal() || root.IsLinked() {
		return 0, errors.Newf(errors.ErrNotOverridable, "%s is not a local library override", root)
	}
	hroot := hierarchyRoot(root)

	e.clearTags()
	olds := e.tagOverrides(hroot)
	e.clearTags()

	r := remap.NewRemapper()
	for _, old := range olds {
		r.Add(old, old.Override.Reference)
	}
	remap.RemapMultipleWith(e.main, r, e.remapOptions(0))

	for _, old := range olds {
		old.Tag |= types.TagDoit
	}
	n := lifecycle.MultiTaggedDelete(e.main)
	logger.Info().Str("root", hroot.String()).Int("deleted", n).Msg("override hierarchy deleted")
	return n, nil
}
