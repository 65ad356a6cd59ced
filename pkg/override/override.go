// Package override manages library override records: the link from a
// local override to its linked reference, and the list of overridden
// properties and operations that make the local copy diverge.
package override

import (
	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/logging"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/mitchellh/copystructure"
)

// Init attaches a record to local overriding reference. A nil reference
// makes local a template. When reference, or the end of its chain of
// overrides, carries a template record, that record is cloned and
// rebased on reference. Otherwise the new record is empty and flagged
// system defined.
func Init(local, reference *types.ID) *types.Override {
	if reference != nil && !reference.IsLinked() {
		logger := logging.GetLogger("override")
		logger.Warn().
			Str("local", local.String()).
			Str("reference", reference.String()).
			Msg("override reference is not linked data")
	}
	if reference == local {
		logger := logging.GetLogger("override")
		logger.Error().Str("id", local.String()).Msg("ID cannot override itself")
		return nil
	}

	ancestor := reference
	for ancestor != nil && ancestor.Override != nil && ancestor.Override.Reference != nil {
		ancestor = ancestor.Override.Reference
	}
	if ancestor != nil && ancestor.Override != nil {
		// the chain ends on a template, reuse its rules
		Copy(local, ancestor, true)
		if local.Override.Reference != reference {
			types.UsMin(local.Override.Reference)
			local.Override.Reference = reference
			types.UsPlus(reference)
		}
		return local.Override
	}

	if local.Override != nil {
		Free(local, true)
	}
	local.Override = &types.Override{Reference: reference}
	if reference != nil {
		local.Override.Flag |= types.OverrideSystemDefined
	}
	types.UsPlus(reference)
	return local.Override
}

// Copy makes dst's record mirror src's. A template src becomes the
// reference of dst. With deep, properties and operations are duplicated,
// sub-item names included.
func Copy(dst, src *types.ID, deep bool) {
	switch {
	case dst.Override != nil && src.Override == nil:
		Free(dst, true)
		return
	case dst.Override != nil:
		Clear(dst.Override, true)
	case src.Override == nil:
		return
	default:
		dst.Override = &types.Override{}
	}

	o := dst.Override
	o.Reference = src.Override.Reference
	if o.Reference == nil {
		o.Reference = src
	}
	types.UsPlus(o.Reference)
	o.HierarchyRoot = src.Override.HierarchyRoot
	o.Flag = src.Override.Flag

	if deep {
		o.Properties = copyProperties(src.Override.Properties)
	}
}

func copyProperties(props []*types.OverrideProperty) []*types.OverrideProperty {
	if len(props) == 0 {
		return nil
	}
	dup, err := copystructure.Copy(props)
	if err != nil {
		logger := logging.GetLogger("override")
		logger.Error().Err(err).Msg("cannot duplicate override properties")
		return nil
	}
	return dup.([]*types.OverrideProperty)
}

// Clear drops every property and operation of o. With decUser the
// reference loses the user the record held.
func Clear(o *types.Override, decUser bool) {
	if o == nil {
		return
	}
	o.Properties = nil
	o.Runtime = nil
	if decUser && o.Reference != nil {
		types.UsMin(o.Reference)
	}
}

// Free clears and detaches the record of id.
func Free(id *types.ID, decUser bool) {
	if id.Override == nil {
		return
	}
	Clear(id.Override, decUser)
	id.Override = nil
}

// Get returns the record governing id and the ID holding it. Embedded
// IDs of an override are governed by their owner's record.
func Get(id *types.ID) (*types.Override, *types.ID) {
	if id == nil {
		return nil, nil
	}
	if id.IsOverrideLibraryVirtual() {
		owner := id.RealOwner()
		if owner == nil || owner == id {
			return nil, id
		}
		return owner.Override, owner
	}
	return id.Override, id
}

// IsSystemDefined reports whether id's governing record was generated
// implicitly.
func IsSystemDefined(id *types.ID) bool {
	o, _ := Get(id)
	return o.IsSystemDefined()
}

// SetSystemDefined flips the system defined flag of a real override.
func SetSystemDefined(id *types.ID, system bool) error {
	if !id.IsOverrideLibraryReal() {
		return errors.Newf(errors.ErrNotOverridable, "%s is not a library override", id)
	}
	if system {
		id.Override.Flag |= types.OverrideSystemDefined
	} else {
		id.Override.Flag &^= types.OverrideSystemDefined
	}
	return nil
}

// IsUserEdited reports whether id carries an operation that neither does
// nothing nor merely mirrors the reference hierarchy.
func IsUserEdited(id *types.ID) bool {
	if !id.IsOverrideLibrary() || id.IsOverrideLibraryVirtual() || id.Override == nil {
		return false
	}
	for _, prop := range id.Override.Properties {
		for _, op := range prop.Operations {
			if op.Flag&types.OpMatchReference != 0 || op.Kind == types.OpNoop {
				continue
			}
			return true
		}
	}
	return false
}

// PropertyIsOverridden reports whether path carries an effective operation.
func PropertyIsOverridden(id *types.ID, path string) bool {
	o, _ := Get(id)
	prop := PropertyFind(o, path)
	if prop == nil {
		return false
	}
	for _, op := range prop.Operations {
		if op.Kind != types.OpNoop {
			return true
		}
	}
	return false
}

// TemplateCreate turns a local ID into an override template.
func TemplateCreate(id *types.ID) error {
	if id.IsLinked() {
		return errors.Newf(errors.ErrNotOverridable, "linked %s cannot be a template", id)
	}
	if id.Override != nil {
		return errors.Newf(errors.ErrAlreadyExists, "%s already has an override record", id)
	}
	info, err := idtype.Get(id.Type)
	if err != nil {
		return err
	}
	if info.Has(idtype.NoLibOverride) {
		return errors.Newf(errors.ErrNotOverridable, "%s type does not support overrides", id)
	}
	Init(id, nil)
	return nil
}

// MakeLocal severs id from its reference. Its embedded IDs stop being
// virtual overrides.
func MakeLocal(id *types.ID) {
	if !id.IsOverrideLibrary() {
		return
	}
	if id.IsOverrideLibraryVirtual() && id.Override == nil {
		logger := logging.GetLogger("override")
		logger.Warn().Str("id", id.String()).Msg("embedded override made local on its own")
		id.Flag &^= types.FlagEmbeddedDataLibOverride
		return
	}
	Free(id, true)
	for _, emb := range idtype.EmbeddedIDs(id) {
		emb.Flag &^= types.FlagEmbeddedDataLibOverride
	}
}

// Reset drops every property of id except pointer ones that only mirror
// the reference hierarchy. With resetSystem the record becomes system
// defined again.
func Reset(id *types.ID, resetSystem bool) bool {
	if !id.IsOverrideLibraryReal() {
		return false
	}
	o := id.Override
	deleted := false
	kept := o.Properties[:0]
	for _, prop := range o.Properties {
		if keepOnReset(prop) {
			kept = append(kept, prop)
			continue
		}
		deleted = true
	}
	for i := len(kept); i < len(o.Properties); i++ {
		o.Properties[i] = nil
	}
	o.Properties = kept
	if deleted {
		o.Runtime = &types.OverrideRuntime{Tag: types.OverrideTagNeedsReload}
	}
	if resetSystem {
		o.Flag |= types.OverrideSystemDefined
	}
	return deleted
}

func keepOnReset(prop *types.OverrideProperty) bool {
	if prop.Kind != types.PropPointer && prop.Kind != types.PropCollection {
		return false
	}
	if len(prop.Operations) == 0 {
		return false
	}
	for _, op := range prop.Operations {
		if op.Flag&types.OpMatchReference == 0 {
			return false
		}
	}
	return true
}
