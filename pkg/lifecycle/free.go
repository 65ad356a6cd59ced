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

// FreeFlag tunes Free
type FreeFlag uint8

const (
	// FreeNoUserRefcount leaves the users of every target alone
	FreeNoUserRefcount FreeFlag = 1 << iota
)

// Free releases id: users it holds are dropped, it leaves m and its
// payload and override record are released. Pointers to id elsewhere are
// not touched, use Delete for that.
func Free(m *maindb.Main, id *types.ID, flags FreeFlag) {
	if id == nil {
		return
	}
	decUsers := flags&FreeNoUserRefcount == 0
	if decUsers && id.Ownership != types.DetachedUncounted {
		releaseUsers(id)
	}
	override.Free(id, decUsers)

	if m != nil && m.Contains(id) {
		m.Unregister(id)
	}
	for _, emb := range idtype.EmbeddedIDs(id) {
		emb.Data = nil
		emb.AnimData = nil
		emb.Owner = nil
	}
	id.Data = nil
	id.AnimData = nil
	id.Props = nil
	id.Ownership = types.DetachedUncounted
}

func releaseUsers(id *types.ID) {
	idtype.ForeachIDLink(id, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
		target := l.Target()
		if target == nil || l.Flags.Any(types.EdgeEmbedded|types.EdgeEmbeddedNotOwning) {
			return
		}
		if l.Flags.Has(types.EdgeUser) {
			types.UsMin(target)
		}
	})
}

// Delete unlinks id from every user in m, then frees it.
func Delete(m *maindb.Main, id *types.ID) int {
	if id == nil {
		return 0
	}
	return deleteIDs(m, []*types.ID{id})
}

// MultiTaggedDelete deletes every ID of m tagged TagDoit in one remap
// pass. It returns the number of deleted IDs.
func MultiTaggedDelete(m *maindb.Main) int {
	var ids []*types.ID
	for _, id := range m.All() {
		if id.HasTag(types.TagDoit) {
			ids = append(ids, id)
		}
	}
	return deleteIDs(m, ids)
}

func deleteIDs(m *maindb.Main, ids []*types.ID) int {
	if len(ids) == 0 {
		return 0
	}
	r := remap.NewRemapper()
	for _, id := range ids {
		r.Add(id, nil)
	}
	opts := remap.DefaultOptions(remap.ForceNeverNullUsage)
	opts.CheckRefcount = false
	remap.RemapMultipleWith(m, r, opts)

	logger := logging.GetLogger("lifecycle")
	for _, id := range ids {
		id.Tag &^= types.TagDoit
		logger.Debug().Str("id", id.String()).Msg("deleting ID")
		Free(m, id, 0)
	}
	return len(ids)
}

// Swap exchanges the contents of a and b, keeping their identity: name,
// library, users, flags and override record stay in place. Pointers
// between the two follow their content.
func Swap(m *maindb.Main, a, b *types.ID) error {
	if a.Type != b.Type {
		return errors.Newf(errors.ErrInvalidInput, "cannot swap %s with %s", a, b)
	}
	a.Data, b.Data = b.Data, a.Data
	a.Props, b.Props = b.Props, a.Props
	a.AnimData, b.AnimData = b.AnimData, a.AnimData
	a.Recalc, b.Recalc = b.Recalc, a.Recalc

	swapSelf(a, b, a)
	swapSelf(b, a, b)
	adoptEmbedded(a)
	adoptEmbedded(b)

	if m != nil {
		m.TagUpdate(a, types.RecalcAll)
		m.TagUpdate(b, types.RecalcAll)
	}
	return nil
}

// swapSelf redirects slots of id pointing at from to to, without
// touching users.
func swapSelf(id, from, to *types.ID) {
	idtype.ForeachIDLink(id, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
		if l.Target() == from && !l.Flags.Has(types.EdgeEmbedded) {
			*l.Slot = to
		}
	})
}

// adoptEmbedded points embedded IDs back at the ID now holding them and
// mirrors its override status on them.
func adoptEmbedded(id *types.ID) {
	isOverride := id.IsOverrideLibraryReal()
	idtype.ForeachIDLink(id, idtype.WalkIgnoreOverrideRefs|idtype.WalkIgnoreAnimData, func(l idtype.Link) {
		emb := l.Target()
		if emb == nil || !l.Flags.Has(types.EdgeEmbedded) {
			return
		}
		emb.Owner = l.Self
		emb.Lib = id.Lib
		if isOverride {
			emb.Flag |= types.FlagEmbeddedDataLibOverride
		} else {
			emb.Flag &^= types.FlagEmbeddedDataLibOverride
		}
	})
}

// RecomputeUsers rebuilds every user count of m from its edges. Pending
// extra users are dropped and re-established for user-one edges.
func RecomputeUsers(m *maindb.Main) {
	all := m.All()
	for _, id := range all {
		id.Users = id.FakeUsers()
		id.Tag &^= types.TagExtraUser | types.TagExtraUserSet
	}
	var userOne []*types.ID
	for _, id := range all {
		idtype.ForeachIDLink(id, 0, func(l idtype.Link) {
			target := l.Target()
			if target == nil || l.Flags.Any(types.EdgeEmbedded|types.EdgeEmbeddedNotOwning) {
				return
			}
			switch {
			case l.Flags.Has(types.EdgeUser):
				target.Users++
			case l.Flags.Has(types.EdgeUserOne):
				userOne = append(userOne, target)
			}
		})
	}
	for _, id := range userOne {
		types.EnsureReal(id)
	}
}
