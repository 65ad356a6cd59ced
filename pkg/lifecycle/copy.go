// Package lifecycle allocates, copies and frees IDs while keeping user
// counts consistent with the edges they hold.
package lifecycle

import (
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/mitchellh/copystructure"
)

// CopyFlag tunes Copy
type CopyFlag uint16

const (
	// CopyNoMain leaves the copy out of the Main, as a scratch ID
	CopyNoMain CopyFlag = 1 << iota
	// CopyNoUserRefcount adds no user to anything the copy uses
	CopyNoUserRefcount
	// CopyNoLibOverride does not copy the override record
	CopyNoLibOverride
	// CopyActions gives the copy its own copy of the animation action
	CopyActions
	// CopyNoAnimData drops animation data
	CopyNoAnimData
	// CopyKeepLib keeps the library of a linked source
	CopyKeepLib
)

// NewID allocates an empty ID and registers it under name. A nil m
// yields a scratch ID.
func NewID(m *maindb.Main, t types.IDType, name string, lib *types.Library) (*types.ID, error) {
	info, err := idtype.Get(t)
	if err != nil {
		return nil, err
	}
	id := &types.ID{Type: t, Name: name, Lib: lib, Data: info.New(), Ownership: types.DetachedScratch}
	if m != nil {
		id.Users = 1
		m.Register(id, name)
	}
	return id, nil
}

// Copy duplicates id. Embedded IDs are duplicated with it, pointers to
// id or its embedded IDs are redirected to the copies, and every other
// target gains a user unless CopyNoUserRefcount is set. A copy
// registered in m starts with one user, a scratch copy with none.
func Copy(m *maindb.Main, id *types.ID, flags CopyFlag) (*types.ID, error) {
	if id == nil {
		return nil, errors.New(errors.ErrInvalidInput, "nothing to copy")
	}
	if !idtype.IsCopyable(id.Type) {
		return nil, errors.Newf(errors.ErrNotCopyable, "%s cannot be copied", id).
			WithDetail("type", string(id.Type))
	}
	if id.IsEmbedded() {
		return nil, errors.Newf(errors.ErrInvalidInput, "embedded %s is copied with its owner", id)
	}
	inMain := m != nil && flags&CopyNoMain == 0

	selfMap := make(map[*types.ID]*types.ID)
	dup, err := copyBlock(id, nil, flags, selfMap)
	if err != nil {
		return nil, err
	}
	if flags&CopyKeepLib != 0 {
		dup.Lib = id.Lib
	}

	// redirect self references, count the shared targets
	countUsers := flags&CopyNoUserRefcount == 0
	idtype.ForeachIDLink(dup, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
		target := l.Target()
		if target == nil || l.Flags.Any(types.EdgeEmbedded|types.EdgeEmbeddedNotOwning) {
			return
		}
		if replacement, ok := selfMap[target]; ok {
			*l.Slot = replacement
			return
		}
		if !countUsers {
			return
		}
		switch {
		case l.Flags.Has(types.EdgeUser):
			types.UsPlus(target)
		case l.Flags.Has(types.EdgeUserOne):
			types.EnsureReal(target)
		}
	})

	if flags&CopyActions != 0 && dup.AnimData != nil && dup.AnimData.Action != nil {
		if action, err := Copy(m, dup.AnimData.Action, flags&^CopyActions); err == nil {
			if countUsers {
				types.UsMin(dup.AnimData.Action)
			}
			dup.AnimData.Action = action
		}
	}

	if flags&CopyNoLibOverride == 0 && id.Override != nil {
		override.Copy(dup, id, true)
	}

	switch {
	case inMain:
		dup.Users = 1
		m.Register(dup, id.Name)
	case flags&CopyNoUserRefcount != 0:
		dup.Ownership = types.DetachedUncounted
	default:
		dup.Ownership = types.DetachedScratch
	}

	logger := logging.GetLogger("lifecycle")
	logger.Trace().Str("source", id.String()).Str("copy", dup.String()).Msg("ID copied")
	return dup, nil
}

// copyBlock duplicates one ID and, recursively, its embedded IDs. owner
// is nil for the top level ID.
func copyBlock(src, owner *types.ID, flags CopyFlag, selfMap map[*types.ID]*types.ID) (*types.ID, error) {
	dup := &types.ID{
		Name: src.Name,
		Type: src.Type,
		Flag: src.Flag &^ (types.FlagFakeUser | types.FlagIndirectWeakLink),
	}
	if owner != nil {
		dup.Owner = owner
		dup.Lib = owner.Lib
		dup.Flag |= types.FlagEmbeddedData
	}
	selfMap[src] = dup

	if src.Props != nil {
		props, err := copystructure.Copy(src.Props)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrInternal, "cannot copy properties of %s", src)
		}
		dup.Props = props.(map[string]any)
	}
	if src.AnimData != nil && flags&CopyNoAnimData == 0 {
		ad := *src.AnimData
		ad.Drivers = append([]types.Driver(nil), src.AnimData.Drivers...)
		dup.AnimData = &ad
	}
	if src.Data != nil {
		dup.Data = src.Data.Clone()
	}

	if dup.Data == nil {
		return dup, nil
	}
	var err error
	dup.Data.ForeachEdge(func(slot **types.ID, _ string, f types.EdgeFlag) {
		if err != nil || *slot == nil || !f.Has(types.EdgeEmbedded) {
			return
		}
		var emb *types.ID
		emb, err = copyBlock(*slot, dup, flags, selfMap)
		if err == nil {
			*slot = emb
		}
	})
	return dup, err
}
