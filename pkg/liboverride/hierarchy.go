package liboverride

import (
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/relations"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// validRoot reports whether root can anchor the hierarchy of id.
func validRoot(root *types.ID) bool {
	return root != nil && root.IsOverrideLibraryReal() && !root.IsLinked() && root.Data != nil
}

// MainHierarchyRootEnsure gives every local override a hierarchy root,
// found by climbing its override users. When users lead to roots that
// disagree the first one is kept and the conflict reported. It returns
// how many roots were assigned.
func (e *Engine) MainHierarchyRootEnsure() int {
	rel := relations.Build(e.main)
	defer rel.Free()

	c := &rootClimb{engine: e, rel: rel, roots: make(map[*types.ID]*types.ID)}
	for _, id := range e.main.All() {
		if id.IsOverrideLibraryReal() && !id.IsLinked() && !validRoot(id.Override.HierarchyRoot) {
			c.pending = append(c.pending, id)
		}
	}
	rel.TagSet(relations.TagProcessedFrom, false)
	// roots are assigned once every climb is done, so none sees a half
	// updated hierarchy
	for _, id := range c.pending {
		c.find(id)
	}
	for _, id := range c.pending {
		id.Override.HierarchyRoot = c.roots[id]
	}
	return len(c.pending)
}

// rootClimb memoizes the roots found while climbing override users.
type rootClimb struct {
	engine  *Engine
	rel     *relations.Index
	roots   map[*types.ID]*types.ID
	pending []*types.ID
}

// find climbs the override users of id. An override no other override
// uses is its own root. It returns nil for an ID already being climbed.
func (c *rootClimb) find(id *types.ID) *types.ID {
	if root, ok := c.roots[id]; ok {
		return root
	}
	entry := c.rel.Entry(id)
	if entry == nil || entry.Tags&relations.TagProcessedFrom != 0 {
		return nil
	}
	entry.Tags |= relations.TagProcessedFrom

	var found *types.ID
	for _, it := range entry.From {
		user := it.ID
		if user == id || !it.Usage.IsOverridable() || !user.IsOverrideLibraryReal() || user.IsLinked() {
			continue
		}
		if user.Override.Flag&types.OverrideNoHierarchy != 0 {
			continue
		}
		var candidate *types.ID
		if validRoot(user.Override.HierarchyRoot) {
			candidate = user.Override.HierarchyRoot
		} else {
			candidate = c.find(user)
		}
		switch {
		case candidate == nil:
		case found == nil:
			found = candidate
		case found != candidate:
			logger := logging.GetLogger("liboverride")
			logger.Warn().
				Str("id", id.String()).
				Str("kept", found.String()).
				Str("other", candidate.String()).
				Msg("override has several possible hierarchy roots")
			c.engine.reports.Addf(types.SeverityWarning, "%s belongs to hierarchies %s and %s, keeping %s",
				id, found, candidate, found)
		}
	}
	if found == nil {
		found = id
	}
	c.roots[id] = found
	return found
}
