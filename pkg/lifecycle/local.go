package lifecycle

import (
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Usage tells who points at an ID.
type Usage struct {
	Local  bool
	Linked bool
}

// UsageOf scans m for users of id. Back pointers and override
// bookkeeping do not count.
func UsageOf(m *maindb.Main, id *types.ID) Usage {
	var u Usage
	for _, owner := range m.All() {
		if owner == id {
			continue
		}
		idtype.ForeachIDLink(owner, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
			if l.Target() != id || l.Flags.Any(types.EdgeLoopback|types.EdgeEmbeddedNotOwning) {
				return
			}
			if owner.IsLinked() {
				u.Linked = true
			} else {
				u.Local = true
			}
		})
		if u.Local && u.Linked {
			break
		}
	}
	return u
}

// MakeLocal turns id into local data and returns the local ID. An
// override is severed from its reference. A linked ID used only locally
// becomes local in place; one also used by linked data is copied and
// its local users are moved to the copy.
func MakeLocal(m *maindb.Main, id *types.ID) (*types.ID, error) {
	if id.IsOverrideLibrary() && !id.IsLinked() {
		override.MakeLocal(id)
		return id, nil
	}
	if !id.IsLinked() {
		return id, nil
	}
	if id.IsMissing() {
		return nil, errors.Newf(errors.ErrMissingReference, "%s is a placeholder for missing data", id)
	}

	logger := logging.GetLogger("lifecycle")
	u := UsageOf(m, id)
	if !u.Linked {
		makeLocalInPlace(m, id)
		logger.Debug().Str("id", id.String()).Msg("made local in place")
		return id, nil
	}
	if !u.Local {
		logger.Debug().Str("id", id.String()).Msg("only used by linked data, left linked")
		return id, nil
	}

	dup, err := Copy(m, id, 0)
	if err != nil {
		return nil, err
	}
	dup.Users = 0
	remap.Remap(m, id, dup, remap.SkipIndirectUsage)
	logger.Debug().Str("id", id.String()).Str("copy", dup.String()).Msg("made local as a copy")
	return dup, nil
}

func makeLocalInPlace(m *maindb.Main, id *types.ID) {
	id.Lib = nil
	id.Tag &^= types.TagIndirect | types.TagExtern
	id.Flag &^= types.FlagIndirectWeakLink
	for _, emb := range idtype.EmbeddedIDs(id) {
		emb.Lib = nil
	}
	m.Rename(id, id.Name)

	// what the ID uses is now directly used
	idtype.ForeachIDLink(id, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
		if target := l.Target(); target != nil && !l.Flags.Has(types.EdgeEmbedded) {
			types.LibExtern(target)
		}
	})
}

// PurgeOrphans deletes IDs nothing uses. Scenes and window managers are
// never orphans. With recursive, IDs orphaned by a pass are deleted by
// the next one.
func PurgeOrphans(m *maindb.Main, recursive bool) int {
	total := 0
	for {
		tagged := 0
		for _, id := range m.All() {
			if id.Type == types.IDTypeScene || id.Type == types.IDTypeWindowManager {
				continue
			}
			if types.IsOrphan(id) {
				id.Tag |= types.TagDoit
				tagged++
			}
		}
		if tagged == 0 {
			break
		}
		total += MultiTaggedDelete(m)
		if !recursive {
			break
		}
	}
	logger := logging.GetLogger("lifecycle")
	logger.Info().Int("deleted", total).Msg("orphans purged")
	return total
}
