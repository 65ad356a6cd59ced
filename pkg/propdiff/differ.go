// Package propdiff is the default structural diff engine behind library
// overrides. It compares custom properties, pointer slots, the modifier
// stack of objects and the object list of collections.
package propdiff

import (
	"reflect"
	"sort"

	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// Differ implements override.Bridge. It holds no state. Concurrent
// Matches calls on distinct local IDs are safe with DiffDeferPointers.
type Differ struct{}

var _ override.Bridge = Differ{}

// New returns the default differ.
func New() Differ { return Differ{} }

// matchState accumulates one Matches call.
type matchState struct {
	local, reference *types.ID
	o                *types.Override
	flags            override.DiffFlag
	matched          bool
	result           override.DiffResult
}

// Matches compares local to reference. Pointer slots whose local target
// overrides the reference target are a match; with DiffCreate they are
// recorded as operations flagged OpMatchReference. Other divergences
// become operations unless o is system defined, in which case they are
// restored with DiffRestore or reported through DiffResultNeedsRestore.
func (Differ) Matches(local, reference *types.ID, o *types.Override, flags override.DiffFlag) (bool, override.DiffResult) {
	s := &matchState{local: local, reference: reference, o: o, flags: flags, matched: true}
	if o == nil {
		s.flags &^= override.DiffCreate | override.DiffRestore
	}
	s.diffCustom()
	if flags&override.DiffIgnorePointers == 0 {
		s.diffPointers()
	}
	s.diffModifiers()
	s.diffObjects()
	return s.matched, s.result
}

func (s *matchState) creating() bool { return s.flags&override.DiffCreate != 0 }

// diverged handles a value that differs. restore resets it from the
// reference and record adds the operation.
func (s *matchState) diverged(restore func(), record func() bool) {
	s.matched = false
	if !s.creating() {
		return
	}
	if s.o.IsSystemDefined() {
		if s.flags&override.DiffRestore != 0 {
			restore()
			s.result |= override.DiffResultRestored
		} else {
			s.result |= override.DiffResultNeedsRestore
		}
		return
	}
	if record() {
		s.result |= override.DiffResultCreated
	}
}

func (s *matchState) replaceOp(path string, kind types.PropKind) bool {
	prop, _ := override.PropertyGet(s.o, path, kind)
	op, created := override.OperationGet(prop, types.OpReplace, override.AnySubitem, true)
	if !created && op.Flag&types.OpMatchReference != 0 {
		// the pointer no longer mirrors the reference, it is a user edit now
		op.Flag &^= types.OpMatchReference
		return true
	}
	return created
}

func (s *matchState) diffCustom() {
	keys := make(map[string]struct{}, len(s.local.Props)+len(s.reference.Props))
	for k := range s.local.Props {
		keys[k] = struct{}{}
	}
	for k := range s.reference.Props {
		keys[k] = struct{}{}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, key := range sorted {
		lv, lok := s.local.Prop(key)
		rv, rok := s.reference.Prop(key)
		if lok == rok && reflect.DeepEqual(lv, rv) {
			continue
		}
		path := CustomPath(key)
		if s.o != nil && override.PropertyIsOverridden(s.local, path) {
			// already covered by an operation
			s.matched = false
			continue
		}
		key := key
		s.diverged(func() {
			if rok {
				s.local.SetProp(key, rv)
			} else {
				delete(s.local.Props, key)
			}
		}, func() bool {
			return s.replaceOp(path, types.PropScalar)
		})
	}
}

// pointerLinks returns the overridable pointer slots of id by name.
// Collection items are diffed as lists.
func pointerLinks(id *types.ID) (map[string]idtype.Link, []string) {
	links := make(map[string]idtype.Link)
	var order []string
	idtype.ForeachIDLink(id, idtype.WalkIgnoreOverrideRefs, func(l idtype.Link) {
		if !l.Flags.IsOverridable() || l.Flags.Any(types.EdgeEmbedded|types.EdgeCollectionItem) {
			return
		}
		if _, dup := links[l.Name]; !dup {
			order = append(order, l.Name)
		}
		links[l.Name] = l
	})
	return links, order
}

// MatchesReference reports whether local stands for ref in an override
// hierarchy: the same ID, or an override of it.
func MatchesReference(local, ref *types.ID) bool {
	if local == ref {
		return true
	}
	if local == nil || ref == nil {
		return false
	}
	o, _ := override.Get(local)
	return o != nil && o.Reference == ref
}

func (s *matchState) diffPointers() {
	local, order := pointerLinks(s.local)
	ref, _ := pointerLinks(s.reference)
	for _, name := range order {
		ll := local[name]
		lt := ll.Target()
		var rt *types.ID
		if rl, ok := ref[name]; ok {
			rt = rl.Target()
		}
		if lt == rt {
			continue
		}
		if MatchesReference(lt, rt) {
			if s.creating() {
				prop, _ := override.PropertyGet(s.o, name, types.PropPointer)
				op, created := override.OperationGet(prop, types.OpReplace, override.AnySubitem, true)
				if created {
					op.Flag |= types.OpMatchReference
					s.result |= override.DiffResultCreated
				}
			}
			continue
		}
		s.diverged(func() {
			if s.flags&override.DiffDeferPointers != 0 {
				s.result |= override.DiffResultDeferred
				return
			}
			setSlot(ll, rt)
		}, func() bool {
			return s.replaceOp(name, types.PropPointer)
		})
	}
}

func (s *matchState) diffModifiers() {
	lob, ok := s.local.Data.(*idtype.Object)
	if !ok {
		return
	}
	rob, ok := s.reference.Data.(*idtype.Object)
	if !ok {
		return
	}
	for i, md := range lob.Modifiers {
		_, rmd := rob.FindModifier(md.Name)
		if rmd == nil {
			anchor := (*string)(nil)
			if i > 0 {
				anchor = types.StrPtr(lob.Modifiers[i-1].Name)
			}
			name := md.Name
			s.diverged(func() {
				lob.Modifiers = append(lob.Modifiers[:i:i], lob.Modifiers[i+1:]...)
			}, func() bool {
				return s.insertOp(ModifiersPath, name, anchor)
			})
			if !s.creating() || !s.o.IsSystemDefined() || s.flags&override.DiffRestore == 0 {
				continue
			}
			// restored: the stack shrank, stop walking stale indices
			return
		}
		if md.Show != rmd.Show {
			path := ModifierShowPath(md.Name)
			if s.o != nil && override.PropertyIsOverridden(s.local, path) {
				s.matched = false
				continue
			}
			md, show := md, rmd.Show
			s.diverged(func() {
				md.Show = show
			}, func() bool {
				return s.replaceOp(path, types.PropScalar)
			})
		}
	}
}

func (s *matchState) insertOp(path, name string, anchor *string) bool {
	prop, _ := override.PropertyGet(s.o, path, types.PropCollection)
	sub := override.Subitem{
		RefName:    anchor,
		LocalName:  types.StrPtr(name),
		RefIndex:   types.NoIndex,
		LocalIndex: types.NoIndex,
	}
	if op, _ := override.OperationFind(prop, override.Subitem{LocalName: sub.LocalName}, true); op != nil {
		return false
	}
	_, created := override.OperationGet(prop, types.OpInsertAfter, sub, true)
	return created
}

func (s *matchState) diffObjects() {
	lc, ok := s.local.Data.(*idtype.Collection)
	if !ok {
		return
	}
	rc, ok := s.reference.Data.(*idtype.Collection)
	if !ok {
		return
	}
	for i, ob := range lc.Objects {
		if ob == nil || containsMatch(rc.Objects, ob) {
			continue
		}
		var anchor *string
		if i > 0 && lc.Objects[i-1] != nil {
			anchor = types.StrPtr(lc.Objects[i-1].Name)
		}
		name := ob.Name
		s.diverged(func() {}, func() bool {
			return s.insertOp(ObjectsPath, name, anchor)
		})
	}
}

func containsMatch(refs []*types.ID, local *types.ID) bool {
	for _, r := range refs {
		if MatchesReference(local, r) {
			return true
		}
	}
	return false
}
