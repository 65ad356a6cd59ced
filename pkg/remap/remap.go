// Package remap rewrites ID pointers across a Main. Every other
// algorithm that replaces one ID by another goes through it, so user
// counts, linked status and dependency tagging stay consistent.
package remap

import (
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Options is the full remap policy.
type Options struct {
	Flags Flag
	// CheckRefcount logs old IDs whose users cannot account for skipped slots.
	CheckRefcount bool
	// Reports receives refcount inconsistencies. May be nil.
	Reports *types.ReportList
}

// DefaultOptions wraps flags with the refcount check enabled.
func DefaultOptions(flags Flag) Options {
	return Options{Flags: flags, CheckRefcount: true}
}

// Summary tallies one remap batch.
type Summary struct {
	Rewritten       int
	SkippedDirect   int
	SkippedIndirect int
	// Owners are the IDs that had at least one slot rewritten.
	Owners []*types.ID
}

// Remap replaces old by new everywhere in m. new may be nil.
func Remap(m *maindb.Main, old, new *types.ID, flags Flag) Summary {
	r := NewRemapper()
	r.Add(old, new)
	return RemapMultiple(m, r, flags)
}

// RemapMultiple applies every mapping of r across m.
func RemapMultiple(m *maindb.Main, r *Remapper, flags Flag) Summary {
	return RemapMultipleWith(m, r, DefaultOptions(flags))
}

// RemapMultipleWith is RemapMultiple with explicit options.
func RemapMultipleWith(m *maindb.Main, r *Remapper, opts Options) Summary {
	if r.IsEmpty() {
		return Summary{}
	}
	e := newEngine(m, r, opts)
	e.resetStatus()

	for _, id := range m.All() {
		if !e.mayUse(id) {
			continue
		}
		e.remapOwner(id)
	}

	r.Iter(func(old, new *types.ID) {
		if old == new {
			return
		}
		e.updateTags(old, new)
		e.checkUsers(old, new)
		if old.RemapStats.SkippedDirect == 0 && old.IsLinked() && old.HasTag(types.TagExtern) {
			// no direct use left
			old.Tag &^= types.TagExtern
			old.Tag |= types.TagIndirect
		}
	})

	e.runPostHooks()
	if opts.Flags&SkipUpdateTagging == 0 {
		m.Notifier().RelationsChanged()
	}
	return e.summary()
}

// RelinkMultiple applies r to the slots of ids only. ids need not be in m.
// Linked status, fake users and the refcount check are left alone.
func RelinkMultiple(m *maindb.Main, ids []*types.ID, r *Remapper, opts Options) Summary {
	if r.IsEmpty() || len(ids) == 0 {
		return Summary{}
	}
	e := newEngine(m, r, opts)
	e.resetStatus()
	for _, id := range ids {
		e.remapOwner(id)
	}
	e.runPostHooks()
	if opts.Flags&SkipUpdateTagging == 0 {
		m.Notifier().RelationsChanged()
	}
	return e.summary()
}

type engine struct {
	main    *maindb.Main
	r       *Remapper
	opts    Options
	seen    map[*types.ID]bool
	owners  []*types.ID
	rewrote int
}

func newEngine(m *maindb.Main, r *Remapper, opts Options) *engine {
	return &engine{main: m, r: r, opts: opts, seen: make(map[*types.ID]bool)}
}

func (e *engine) resetStatus() {
	e.r.Iter(func(old, new *types.ID) {
		old.RemapStats = types.RemapStats{}
		if new != nil {
			new.RemapStats = types.RemapStats{}
		}
	})
}

// mayUse prunes owners that cannot point at any mapped type.
func (e *engine) mayUse(id *types.ID) bool {
	for _, t := range e.r.Types() {
		if idtype.CanUse(id, t) {
			return true
		}
	}
	return false
}

func (e *engine) remapOwner(id *types.ID) {
	idtype.ForeachIDLink(id, 0, e.visit)
}

func (e *engine) visit(l idtype.Link) {
	// embedded IDs belong to their owner's memory
	if l.Flags.Any(types.EdgeEmbedded | types.EdgeEmbeddedNotOwning) {
		return
	}
	old := *l.Slot

	applyOpts := ApplyDefault
	if l.Flags.Has(types.EdgeNeverSelf) {
		applyOpts |= ApplyUnmapWhenRemappingToSelf
	}
	expected := e.r.MappingResult(old, applyOpts, l.Self)
	if expected == SourceUnavailable || expected == SourceNotMappable {
		return
	}
	var newID *types.ID
	if expected == SourceRemapped {
		newID, _ = e.r.Lookup(old)
	}

	flags := e.opts.Flags
	isReference := l.Flags.Has(types.EdgeOverrideLibraryReference)
	isIndirect := l.Flags.Has(types.EdgeIndirectUsage)
	isObjEditMode := false
	if l.Flags.Has(types.EdgeObData) && newID != nil && flags&ForceObDataInEditMode == 0 {
		if ob, ok := l.Owner.Data.(*idtype.Object); ok && ob.Mode == idtype.ModeEdit {
			isObjEditMode = true
		}
	}
	violatesNeverNull := l.Flags.Has(types.EdgeNeverNull) && expected == SourceUnassigned &&
		flags&ForceNeverNullUsage == 0
	skipNeverNull := flags&SkipNeverNullUsage != 0

	if (violatesNeverNull && skipNeverNull) || isObjEditMode ||
		(isIndirect && flags&SkipIndirectUsage != 0) ||
		(isReference && flags&SkipOverrideLibrary != 0) {
		e.skip(l, old, isIndirect)
		return
	}
	e.apply(l, old, newID, applyOpts, isIndirect, violatesNeverNull)
}

func (e *engine) skip(l idtype.Link, old *types.ID, isIndirect bool) {
	if isIndirect {
		old.RemapStats.SkippedIndirect++
	} else {
		old.RemapStats.SkippedDirect++
	}
	if l.Flags.Has(types.EdgeUser) {
		old.RemapStats.SkippedRefcounted++
	} else if l.Flags.Has(types.EdgeUserOne) {
		old.RemapStats.Status |= types.RemapUserOneSkipped
	}
	logger := logging.GetLogger("remap")
	logger.Trace().
		Str("owner", l.Owner.String()).
		Str("slot", l.Name).
		Str("target", old.String()).
		Msg("slot skipped by policy")
}

func (e *engine) apply(l idtype.Link, old, newID *types.ID, applyOpts ApplyOption, isIndirect, violatesNeverNull bool) {
	flags := e.opts.Flags

	if violatesNeverNull {
		// the slot keeps its old target, accounted for as a direct skip
		old.RemapStats.SkippedDirect++
		if l.Flags.Has(types.EdgeUser) {
			old.RemapStats.SkippedRefcounted++
		}
	} else {
		e.r.Apply(l.Slot, applyOpts, l.Self)
		e.rewrote++
		if !e.seen[l.Owner] {
			e.seen[l.Owner] = true
			e.owners = append(e.owners, l.Owner)
		}
	}

	if flags&SkipUpdateTagging == 0 {
		recalc := types.RecalcCopyOnWrite | types.RecalcTransform | types.RecalcGeometry
		e.main.TagUpdate(l.Self, recalc)
		if l.Self != l.Owner {
			e.main.TagUpdate(l.Owner, recalc)
		}
	}

	if violatesNeverNull {
		return
	}
	if !isIndirect && newID != nil {
		newID.RemapStats.Status |= types.RemapLinkedDirect
	}
	if flags&SkipUserRefcount != 0 || l.Owner.Ownership == types.DetachedUncounted {
		return
	}

	force := flags&ForceUserRefcount != 0
	switch {
	case l.Flags.Has(types.EdgeUser):
		if countsUsers(old, force) {
			types.UsMin(old)
		}
		if newID != nil && countsUsers(newID, force) {
			types.UsPlusNoLib(newID)
		}
	case l.Flags.Has(types.EdgeUserOne):
		types.EnsureReal(newID)
	}
}

// countsUsers decides whether users on target are tracked.
func countsUsers(target *types.ID, force bool) bool {
	switch target.Ownership {
	case types.OwnedByRegistry:
		return true
	case types.DetachedScratch:
		return force
	case types.DetachedUncounted:
		return false
	}
	return false
}

func (e *engine) updateTags(old, new *types.ID) {
	if e.opts.Flags&SkipUserClear == 0 {
		if old.Flag&types.FlagFakeUser != 0 && new != nil {
			types.FakeUserClear(old)
			types.FakeUserSet(new)
		}
		types.ClearReal(old)
	}
	if new != nil && new.HasTag(types.TagIndirect) && new.RemapStats.Status&types.RemapLinkedDirect != 0 {
		new.Tag &^= types.TagIndirect
		new.Flag &^= types.FlagIndirectWeakLink
		new.Tag |= types.TagExtern
	}
}

func (e *engine) checkUsers(old, new *types.ID) {
	if !e.opts.CheckRefcount {
		return
	}
	remaining := old.Users - old.RemapStats.SkippedRefcounted
	if remaining >= 0 {
		return
	}
	logger := logging.GetLogger("remap")
	logger.Error().
		Str("old", old.String()).
		Str("new", new.String()).
		Int("remaining", remaining).
		Msg("wrong user count in old ID after remapping")
	e.opts.Reports.Addf(types.SeverityError,
		"remapping %s to %s left a wrong user count (%d)", old, new, remaining)
}

func (e *engine) summary() Summary {
	s := Summary{Rewritten: e.rewrote, Owners: e.owners}
	e.r.Iter(func(old, _ *types.ID) {
		s.SkippedDirect += old.RemapStats.SkippedDirect
		s.SkippedIndirect += old.RemapStats.SkippedIndirect
	})
	return s
}
