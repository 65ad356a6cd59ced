package propdiff

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lib = &types.Library{Name: "Lib", Filepath: "//lib.blend"}

func newID(t types.IDType, name string, linked bool) *types.ID {
	id := &types.ID{Type: t, Name: name, Data: idtype.NewPayload(t)}
	if linked {
		id.Lib = lib
	}
	return id
}

func object(id *types.ID) *idtype.Object { return id.Data.(*idtype.Object) }

// overridePair returns a linked object and a local override of it.
func overridePair(name string) (ref, local *types.ID) {
	ref = newID(types.IDTypeObject, name, true)
	local = newID(types.IDTypeObject, name, false)
	override.Init(local, ref)
	return ref, local
}

func opKinds(prop *types.OverrideProperty) []types.OpKind {
	var out []types.OpKind
	for _, op := range prop.Operations {
		out = append(out, op.Kind)
	}
	return out
}

func TestMatchesCustomProperties(t *testing.T) {
	ref, local := overridePair("Body")
	require.NoError(t, override.SetSystemDefined(local, false))
	ref.SetProp("scale", 1.0)
	local.SetProp("scale", 1.0)

	ok, res := New().Matches(local, ref, local.Override, override.DiffCreate)
	assert.True(t, ok)
	assert.Zero(t, res)
	assert.Empty(t, local.Override.Properties)

	local.SetProp("scale", 2.5)
	ok, res = New().Matches(local, ref, local.Override, override.DiffCreate)
	assert.False(t, ok)
	assert.Equal(t, override.DiffResultCreated, res)
	prop := override.PropertyFind(local.Override, CustomPath("scale"))
	require.NotNil(t, prop)
	assert.Equal(t, []types.OpKind{types.OpReplace}, opKinds(prop))

	t.Run("existing operations are not duplicated", func(t *testing.T) {
		_, res := New().Matches(local, ref, local.Override, override.DiffCreate)
		assert.Zero(t, res&override.DiffResultCreated)
		assert.Len(t, prop.Operations, 1)
	})

	t.Run("compare only", func(t *testing.T) {
		ref2, local2 := overridePair("Arm")
		local2.SetProp("extra", "x")
		ok, _ := New().Matches(local2, ref2, local2.Override, 0)
		assert.False(t, ok)
		assert.Empty(t, local2.Override.Properties)
	})
}

func TestMatchesSystemDefined(t *testing.T) {
	t.Run("flagged for restore", func(t *testing.T) {
		ref, local := overridePair("Body")
		require.True(t, local.Override.IsSystemDefined())
		ref.SetProp("hue", 0.2)
		local.SetProp("hue", 0.9)
		ok, res := New().Matches(local, ref, local.Override, override.DiffCreate)
		assert.False(t, ok)
		assert.Equal(t, override.DiffResultNeedsRestore, res)
		assert.Empty(t, local.Override.Properties)
		assert.Equal(t, 0.9, local.Props["hue"])
	})

	t.Run("restored", func(t *testing.T) {
		ref, local := overridePair("Body")
		ref.SetProp("hue", 0.2)
		local.SetProp("hue", 0.9)
		local.SetProp("stray", true)
		_, res := New().Matches(local, ref, local.Override, override.DiffCreate|override.DiffRestore)
		assert.Equal(t, override.DiffResultRestored, res)
		assert.Equal(t, 0.2, local.Props["hue"])
		_, has := local.Prop("stray")
		assert.False(t, has)
	})
}

func TestMatchesPointers(t *testing.T) {
	refParent, localParent := overridePair("Root")
	ref, local := overridePair("Hand")
	object(ref).Parent = refParent
	object(local).Parent = localParent

	ok, res := New().Matches(local, ref, local.Override, override.DiffCreate)
	assert.True(t, ok, "pointing at the override of the reference target matches")
	assert.Equal(t, override.DiffResultCreated, res)
	prop := override.PropertyFind(local.Override, "parent")
	require.NotNil(t, prop)
	assert.Equal(t, types.PropPointer, prop.Kind)
	assert.NotZero(t, prop.Operations[0].Flag&types.OpMatchReference)

	t.Run("retargeted pointer becomes a user edit", func(t *testing.T) {
		require.NoError(t, override.SetSystemDefined(local, false))
		other := newID(types.IDTypeObject, "Other", false)
		object(local).Parent = other
		ok, res := New().Matches(local, ref, local.Override, override.DiffCreate)
		assert.False(t, ok)
		assert.Equal(t, override.DiffResultCreated, res)
		assert.Zero(t, prop.Operations[0].Flag&types.OpMatchReference)
	})

	t.Run("ignored on request", func(t *testing.T) {
		ok, _ := New().Matches(local, ref, local.Override, override.DiffIgnorePointers)
		assert.True(t, ok)
	})
}

func TestMatchesDeferPointers(t *testing.T) {
	ref, local := overridePair("Body")
	refMesh := newID(types.IDTypeMesh, "Body", true)
	localMesh := newID(types.IDTypeMesh, "Stray", false)
	object(ref).Data = refMesh
	object(local).Data = localMesh
	localMesh.Users = 1

	flags := override.DiffCreate | override.DiffRestore
	_, res := New().Matches(local, ref, local.Override, flags|override.DiffDeferPointers)
	assert.NotZero(t, res&override.DiffResultDeferred)
	assert.Same(t, localMesh, object(local).Data)
	assert.Equal(t, 1, localMesh.Users)
	assert.Equal(t, 0, refMesh.Users)

	_, res = New().Matches(local, ref, local.Override, flags)
	assert.Zero(t, res&override.DiffResultDeferred)
	assert.NotZero(t, res&override.DiffResultRestored)
	assert.Same(t, refMesh, object(local).Data)
	assert.Equal(t, 0, localMesh.Users)
	assert.Equal(t, 1, refMesh.Users)
}

func TestMatchesModifiers(t *testing.T) {
	ref, local := overridePair("Body")
	require.NoError(t, override.SetSystemDefined(local, false))
	object(ref).Modifiers = []*idtype.Modifier{{Name: "Armature", Kind: "ARMATURE", Show: true}}
	object(local).Modifiers = []*idtype.Modifier{
		{Name: "Armature", Kind: "ARMATURE", Show: false},
		{Name: "Smooth", Kind: "SMOOTH", Show: true},
	}

	ok, res := New().Matches(local, ref, local.Override, override.DiffCreate)
	assert.False(t, ok)
	assert.Equal(t, override.DiffResultCreated, res)

	stack := override.PropertyFind(local.Override, ModifiersPath)
	require.NotNil(t, stack)
	require.Len(t, stack.Operations, 1)
	op := stack.Operations[0]
	assert.Equal(t, types.OpInsertAfter, op.Kind)
	assert.Equal(t, "Smooth", *op.SubitemLocalName)
	assert.Equal(t, "Armature", *op.SubitemRefName)
	assert.NotNil(t, override.PropertyFind(local.Override, ModifierShowPath("Armature")))
}

func TestMatchesCollectionObjects(t *testing.T) {
	refOb, localOb := overridePair("Body")
	extra := newID(types.IDTypeObject, "Prop", false)
	ref := newID(types.IDTypeCollection, "Rig", true)
	local := newID(types.IDTypeCollection, "Rig", false)
	override.Init(local, ref)
	require.NoError(t, override.SetSystemDefined(local, false))
	ref.Data.(*idtype.Collection).Objects = []*types.ID{refOb}
	local.Data.(*idtype.Collection).Objects = []*types.ID{localOb, extra}

	_, res := New().Matches(local, ref, local.Override, override.DiffCreate)
	assert.Equal(t, override.DiffResultCreated, res)
	prop := override.PropertyFind(local.Override, ObjectsPath)
	require.NotNil(t, prop)
	require.Len(t, prop.Operations, 1)
	assert.Equal(t, "Prop", *prop.Operations[0].SubitemLocalName)
	assert.Equal(t, "Body", *prop.Operations[0].SubitemRefName)
}

func TestApply(t *testing.T) {
	ref, local := overridePair("Body")
	require.NoError(t, override.SetSystemDefined(local, false))
	target := newID(types.IDTypeMaterial, "Red", false)
	object(ref).Modifiers = []*idtype.Modifier{{Name: "Armature", Show: true}}
	object(local).Modifiers = []*idtype.Modifier{
		{Name: "Armature", Show: false},
		{Name: "Smooth", Show: true},
	}
	object(ref).Materials = []*types.ID{nil}
	object(local).Materials = []*types.ID{target}
	target.Users = 1
	ref.SetProp("size", 1)
	local.SetProp("size", 4)
	local.SetProp("tags", []any{"hero"})

	_, _ = New().Matches(local, ref, local.Override, override.DiffCreate)

	dst := newID(types.IDTypeObject, "Body", false)
	dst.Data = ref.Data.Clone()
	dst.SetProp("size", 1)
	require.NoError(t, New().Apply(dst, local, nil, local.Override, 0))

	assert.Equal(t, 4, dst.Props["size"])
	assert.Equal(t, []any{"hero"}, dst.Props["tags"])
	assert.Same(t, target, object(dst).Materials[0])
	assert.Equal(t, 2, target.Users)
	require.Len(t, object(dst).Modifiers, 2)
	assert.Equal(t, "Smooth", object(dst).Modifiers[1].Name)
	assert.False(t, object(dst).Modifiers[0].Show)

	t.Run("matches after apply", func(t *testing.T) {
		ok, res := New().Matches(dst, local, nil, 0)
		assert.True(t, ok)
		assert.Zero(t, res)
	})

	t.Run("pointers ignored", func(t *testing.T) {
		dst := newID(types.IDTypeObject, "Body", false)
		dst.Data = ref.Data.Clone()
		require.NoError(t, New().Apply(dst, local, nil, local.Override, override.ApplyIgnorePointers))
		assert.Nil(t, object(dst).Materials[0])
	})

	t.Run("failures are reported with their paths", func(t *testing.T) {
		o := &types.Override{}
		override.PropertyGet(o, "no_such_slot", types.PropPointer)
		err := New().Apply(newID(types.IDTypeObject, "X", false), local, nil, o, 0)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrApplyFailed))
		assert.Equal(t, []string{"no_such_slot"}, errors.GetErrorDetails(err)["paths"])
	})
}

func TestDifferentialStoreApply(t *testing.T) {
	ref, local := overridePair("Body")
	ref.SetProp("count", 10)
	ref.SetProp("weight", 2.0)
	ref.SetProp("zero", 0.0)
	local.SetProp("count", 13)
	local.SetProp("weight", 5.0)
	local.SetProp("zero", 1.0)

	o := local.Override
	for key, kind := range map[string]types.OpKind{"count": types.OpAdd, "weight": types.OpMultiply, "zero": types.OpMultiply} {
		prop, _ := override.PropertyGet(o, CustomPath(key), types.PropScalar)
		override.OperationGet(prop, kind, override.AnySubitem, true)
	}

	storage := newID(types.IDTypeObject, "Body", false)
	stored, err := New().Store(local, ref, storage, o)
	require.NoError(t, err)
	assert.True(t, stored)
	assert.Equal(t, 3, storage.Props["count"])
	assert.Equal(t, 2.5, storage.Props["weight"])
	assert.Equal(t, types.OpReplace, override.PropertyFind(o, CustomPath("zero")).Operations[0].Kind,
		"zero reference cannot be scaled")

	// the reference moved on; the delta is replayed on top of it
	ref.SetProp("count", 20)
	dst := newID(types.IDTypeObject, "Body", false)
	dst.Props = map[string]any{"count": 20, "weight": 2.0, "zero": 0.0}
	require.NoError(t, New().Apply(dst, local, storage, o, 0))
	assert.Equal(t, 23, dst.Props["count"])
	assert.Equal(t, 5.0, dst.Props["weight"])
	assert.Equal(t, 1.0, dst.Props["zero"])

	t.Run("without storage the value is copied", func(t *testing.T) {
		dst := newID(types.IDTypeObject, "Body", false)
		dst.Props = map[string]any{"count": 20}
		require.NoError(t, New().Apply(dst, local, nil, o, 0))
		assert.Equal(t, 13, dst.Props["count"])
	})
}

func TestPaths(t *testing.T) {
	key, ok := ParseCustomPath(CustomPath(`we"ird`))
	assert.True(t, ok)
	assert.Equal(t, `we"ird`, key)
	_, ok = ParseCustomPath("parent")
	assert.False(t, ok)
	assert.True(t, IsCustomPath(CustomPath("a")))

	name, ok := parseModifierShowPath(ModifierShowPath("Armature"))
	assert.True(t, ok)
	assert.Equal(t, "Armature", name)
	_, ok = parseModifierShowPath(`modifiers["Armature"].object`)
	assert.False(t, ok)
}
