package propdiff

import (
	"strings"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/mitchellh/copystructure"
)

// setSlot rewrites a pointer slot, moving one user when the slot counts
// users and its owner is refcounted.
func setSlot(l idtype.Link, target *types.ID) {
	old := *l.Slot
	if old == target {
		return
	}
	counted := l.Flags.Has(types.EdgeUser) && l.Owner.RealOwner().Ownership != types.DetachedUncounted
	if counted && old != nil {
		types.UsMin(old)
	}
	*l.Slot = target
	if counted && target != nil {
		types.UsPlus(target)
	}
}

// Apply replays the operations of o, taking values from src and writing
// them into dst. Failed operations are skipped and reported together.
func (Differ) Apply(dst, src, storage *types.ID, o *types.Override, flags override.ApplyFlag) error {
	if dst == nil || src == nil || o == nil {
		return errors.New(errors.ErrInvalidInput, "apply needs a destination, a source and a record")
	}
	logger := logging.GetLogger("propdiff")

	var failed []string
	for _, prop := range o.Properties {
		if err := applyProperty(dst, src, storage, prop, flags); err != nil {
			logger.Debug().Err(err).Str("id", dst.String()).Str("path", prop.Path).Msg("operation not applied")
			failed = append(failed, prop.Path)
		}
	}
	if len(failed) > 0 {
		return errors.Newf(errors.ErrApplyFailed, "%d override properties of %s could not be applied", len(failed), dst).
			WithDetail("paths", failed)
	}
	return nil
}

func applyProperty(dst, src, storage *types.ID, prop *types.OverrideProperty, flags override.ApplyFlag) error {
	if key, ok := ParseCustomPath(prop.Path); ok {
		for _, op := range prop.Operations {
			if err := applyCustom(dst, src, storage, key, op); err != nil {
				return err
			}
		}
		return nil
	}
	if name, ok := parseModifierShowPath(prop.Path); ok {
		return applyModifierShow(dst, src, name)
	}

	switch prop.Kind {
	case types.PropPointer:
		if flags&override.ApplyIgnorePointers != 0 {
			return nil
		}
		return applyPointer(dst, src, prop.Path)
	case types.PropCollection:
		for _, op := range prop.Operations {
			if op.Kind != types.OpInsertAfter && op.Kind != types.OpInsertBefore {
				continue
			}
			var err error
			switch prop.Path {
			case ModifiersPath:
				err = insertModifier(dst, src, op)
			case ObjectsPath:
				err = insertObject(dst, src, op)
			default:
				err = errors.Newf(errors.ErrPropertyNotFound, "unknown collection property %q", prop.Path)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Newf(errors.ErrPropertyNotFound, "no property %q on %s", prop.Path, dst)
}

func applyCustom(dst, src, storage *types.ID, key string, op *types.OverrideOperation) error {
	sv, sok := src.Prop(key)
	if !op.Kind.IsDifferential() || storage == nil {
		if !sok {
			delete(dst.Props, key)
			return nil
		}
		v, err := copystructure.Copy(sv)
		if err != nil {
			return errors.Wrapf(err, errors.ErrApplyFailed, "cannot copy %q", key)
		}
		dst.SetProp(key, v)
		return nil
	}

	operand, ok := storage.Prop(key)
	if !ok {
		return applyCustom(dst, src, nil, key, op)
	}
	base, ok := dst.Prop(key)
	if !ok {
		return errors.Newf(errors.ErrApplyFailed, "no reference value for differential %q", key)
	}
	v, err := combine(op.Kind, base, operand)
	if err != nil {
		return err
	}
	dst.SetProp(key, v)
	return nil
}

func applyModifierShow(dst, src *types.ID, name string) error {
	dob, dok := dst.Data.(*idtype.Object)
	sob, sok := src.Data.(*idtype.Object)
	if !dok || !sok {
		return errors.New(errors.ErrPropertyNotFound, "modifier visibility needs objects")
	}
	_, dmd := dob.FindModifier(name)
	_, smd := sob.FindModifier(name)
	if dmd == nil || smd == nil {
		return errors.Newf(errors.ErrPropertyNotFound, "no modifier %q", name)
	}
	dmd.Show = smd.Show
	return nil
}

func applyPointer(dst, src *types.ID, path string) error {
	dl, ok := idtype.LookupEdge(dst, path)
	if !ok {
		return errors.Newf(errors.ErrPropertyNotFound, "no pointer %q on %s", path, dst)
	}
	sl, ok := idtype.LookupEdge(src, path)
	if !ok {
		return errors.Newf(errors.ErrPropertyNotFound, "no pointer %q on %s", path, src)
	}
	setSlot(dl, sl.Target())
	return nil
}

// insertIndex returns where an item anchored after anchor goes in a list
// of n named items. A nil anchor inserts first, an unknown one appends.
func insertIndex(anchor *string, n int, name func(int) string) int {
	if anchor == nil {
		return 0
	}
	for i := 0; i < n; i++ {
		if name(i) == *anchor {
			return i + 1
		}
	}
	return n
}

func insertModifier(dst, src *types.ID, op *types.OverrideOperation) error {
	dob, dok := dst.Data.(*idtype.Object)
	sob, sok := src.Data.(*idtype.Object)
	if !dok || !sok || op.SubitemLocalName == nil {
		return errors.New(errors.ErrApplyFailed, "modifier insertion needs objects and a name")
	}
	if _, md := dob.FindModifier(*op.SubitemLocalName); md != nil {
		return nil
	}
	_, smd := sob.FindModifier(*op.SubitemLocalName)
	if smd == nil {
		return errors.Newf(errors.ErrPropertyNotFound, "no modifier %q on %s", *op.SubitemLocalName, src)
	}
	md := *smd
	at := insertIndex(op.SubitemRefName, len(dob.Modifiers), func(i int) string { return dob.Modifiers[i].Name })
	dob.Modifiers = append(dob.Modifiers, nil)
	copy(dob.Modifiers[at+1:], dob.Modifiers[at:])
	dob.Modifiers[at] = &md
	dob.Runtime.ModifiersValid = false
	return nil
}

func insertObject(dst, src *types.ID, op *types.OverrideOperation) error {
	dc, dok := dst.Data.(*idtype.Collection)
	sc, sok := src.Data.(*idtype.Collection)
	if !dok || !sok || op.SubitemLocalName == nil {
		return errors.New(errors.ErrApplyFailed, "object insertion needs collections and a name")
	}
	var ob *types.ID
	for _, o := range sc.Objects {
		if o != nil && o.Name == *op.SubitemLocalName {
			ob = o
			break
		}
	}
	if ob == nil {
		return errors.Newf(errors.ErrPropertyNotFound, "no object %q in %s", *op.SubitemLocalName, src)
	}
	if dc.HasObject(ob) {
		return nil
	}
	at := insertIndex(op.SubitemRefName, len(dc.Objects), func(i int) string {
		if dc.Objects[i] == nil {
			return ""
		}
		return dc.Objects[i].Name
	})
	dc.Objects = append(dc.Objects, nil)
	copy(dc.Objects[at+1:], dc.Objects[at:])
	dc.Objects[at] = ob
	if dst.Ownership != types.DetachedUncounted {
		types.UsPlus(ob)
	}
	dc.Runtime.CacheValid = false
	return nil
}

// Store writes into storage the operand each differential operation needs
// to turn the reference value into the final one. Operations whose
// operand cannot be expressed become plain replacements.
func (Differ) Store(final, reference, storage *types.ID, o *types.Override) (bool, error) {
	if storage == nil || o == nil {
		return false, nil
	}
	stored := false
	for _, prop := range o.Properties {
		key, ok := ParseCustomPath(prop.Path)
		if !ok {
			continue
		}
		for _, op := range prop.Operations {
			if !op.Kind.IsDifferential() {
				continue
			}
			fv, fok := final.Prop(key)
			rv, rok := reference.Prop(key)
			if !fok || !rok {
				op.Kind = types.OpReplace
				continue
			}
			v, err := operand(op.Kind, fv, rv)
			if err != nil {
				logger := logging.GetLogger("propdiff")
				logger.Debug().Str("path", prop.Path).Str("kind", op.Kind.String()).
					Msg("differential operand not storable, falling back to replace")
				op.Kind = types.OpReplace
				continue
			}
			storage.SetProp(key, v)
			stored = true
		}
	}
	return stored, nil
}

// IsCustomPath reports whether path addresses a custom property.
func IsCustomPath(path string) bool {
	return strings.HasPrefix(path, `["`)
}
