package remap

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func add(m *maindb.Main, t types.IDType, name string) *types.ID {
	id := &types.ID{Type: t, Data: idtype.NewPayload(t)}
	m.Register(id, name)
	return id
}

func addLinked(m *maindb.Main, lib *types.Library, t types.IDType, name string) *types.ID {
	id := &types.ID{Type: t, Lib: lib, Tag: types.TagIndirect, Data: idtype.NewPayload(t)}
	m.Register(id, name)
	return id
}

func object(id *types.ID) *idtype.Object { return id.Data.(*idtype.Object) }

func useMaterial(ob, ma *types.ID) {
	object(ob).Materials = append(object(ob).Materials, ma)
	ma.Users++
}

func TestRemapMovesUsers(t *testing.T) {
	m := maindb.New()
	matA := add(m, types.IDTypeMaterial, "Material_A")
	matB := add(m, types.IDTypeMaterial, "Material_B")
	var obs []*types.ID
	for _, name := range []string{"Cube", "Sphere", "Cone"} {
		ob := add(m, types.IDTypeObject, name)
		useMaterial(ob, matA)
		obs = append(obs, ob)
	}
	require.Equal(t, 3, matA.Users)

	s := Remap(m, matA, matB, 0)

	assert.Equal(t, 0, matA.Users)
	assert.Equal(t, 3, matB.Users)
	assert.Equal(t, 3, s.Rewritten)
	assert.ElementsMatch(t, obs, s.Owners)
	for _, ob := range obs {
		assert.Same(t, matB, object(ob).Materials[0])
		assert.NotZero(t, ob.Recalc&types.RecalcCopyOnWrite, "owner tagged for update")
	}
	assert.Equal(t, 1, m.Notifier().(*maindb.RecalcNotifier).RelationsChangedCount())
}

func TestRemapNeverNull(t *testing.T) {
	newScene := func() (*maindb.Main, *types.ID, *types.ID) {
		m := maindb.New()
		me := add(m, types.IDTypeMesh, "Mesh")
		ob := add(m, types.IDTypeObject, "Ob")
		object(ob).Data = me
		me.Users = 1
		return m, ob, me
	}

	t.Run("old target kept", func(t *testing.T) {
		m, ob, me := newScene()
		s := Remap(m, me, nil, 0)
		assert.Same(t, me, object(ob).Data)
		assert.Equal(t, 1, me.Users)
		assert.Equal(t, 1, me.RemapStats.SkippedDirect)
		assert.Equal(t, 1, me.RemapStats.SkippedRefcounted)
		assert.Equal(t, 0, s.Rewritten)
	})

	t.Run("skip flag", func(t *testing.T) {
		m, ob, me := newScene()
		Remap(m, me, nil, SkipNeverNullUsage)
		assert.Same(t, me, object(ob).Data)
		assert.Equal(t, 1, me.RemapStats.SkippedDirect)
	})

	t.Run("forced", func(t *testing.T) {
		m, ob, me := newScene()
		Remap(m, me, nil, ForceNeverNullUsage)
		assert.Nil(t, object(ob).Data)
		assert.Equal(t, 0, me.Users)
	})
}

func TestRemapNeverSelf(t *testing.T) {
	m := maindb.New()
	parent := add(m, types.IDTypeObject, "Parent")
	child := add(m, types.IDTypeObject, "Child")
	object(child).Parent = parent

	Remap(m, parent, child, 0)
	assert.Nil(t, object(child).Parent, "an object never parents itself")
}

func TestRemapIndirectUsage(t *testing.T) {
	m := maindb.New()
	lib := m.AddLibrary("props", "//props.blend")
	matA := addLinked(m, lib, types.IDTypeMaterial, "Material_A")
	matA.Tag = types.TagExtern
	matB := add(m, types.IDTypeMaterial, "Material_B")
	libOb := addLinked(m, lib, types.IDTypeObject, "LibOb")
	localOb := add(m, types.IDTypeObject, "LocalOb")
	useMaterial(libOb, matA)
	useMaterial(localOb, matA)

	s := Remap(m, matA, matB, SkipIndirectUsage)

	assert.Same(t, matA, object(libOb).Materials[0])
	assert.Same(t, matB, object(localOb).Materials[0])
	assert.Equal(t, 1, s.SkippedIndirect)
	assert.Equal(t, 0, s.SkippedDirect)
	assert.Equal(t, 1, matA.Users)
	assert.Equal(t, 1, matB.Users)
	assert.True(t, matA.HasTag(types.TagIndirect), "no direct user left")
	assert.False(t, matA.HasTag(types.TagExtern))
}

func TestRemapLinkedTargetBecomesExtern(t *testing.T) {
	m := maindb.New()
	lib := m.AddLibrary("props", "//props.blend")
	matA := add(m, types.IDTypeMaterial, "Material_A")
	matB := addLinked(m, lib, types.IDTypeMaterial, "Material_B")
	ob := add(m, types.IDTypeObject, "Ob")
	useMaterial(ob, matA)

	Remap(m, matA, matB, 0)

	assert.True(t, matB.HasTag(types.TagExtern))
	assert.False(t, matB.HasTag(types.TagIndirect))
	assert.NotZero(t, matB.RemapStats.Status&types.RemapLinkedDirect)
}

func TestRemapEditModeObData(t *testing.T) {
	newScene := func() (*maindb.Main, *types.ID, *types.ID, *types.ID) {
		m := maindb.New()
		meA := add(m, types.IDTypeMesh, "MeshA")
		meB := add(m, types.IDTypeMesh, "MeshB")
		meB.Data.(*idtype.Mesh).Materials = make([]*types.ID, 2)
		ob := add(m, types.IDTypeObject, "Ob")
		object(ob).Data = meA
		object(ob).Mode = idtype.ModeEdit
		object(ob).Runtime = idtype.ObjectRuntime{ModifiersValid: true, MultiresValid: true}
		meA.Users = 1
		return m, ob, meA, meB
	}

	t.Run("skipped", func(t *testing.T) {
		m, ob, meA, meB := newScene()
		Remap(m, meA, meB, 0)
		assert.Same(t, meA, object(ob).Data)
		assert.Equal(t, 1, meA.RemapStats.SkippedDirect)
		assert.Equal(t, 0, meB.Users)
	})

	t.Run("forced", func(t *testing.T) {
		m, ob, meA, meB := newScene()
		Remap(m, meA, meB, ForceObDataInEditMode)
		assert.Same(t, meB, object(ob).Data)
		assert.Equal(t, 1, meB.Users)
		assert.Len(t, object(ob).Materials, 2, "material slots follow the new data")
		assert.False(t, object(ob).Runtime.ModifiersValid)
		assert.False(t, object(ob).Runtime.MultiresValid)
	})
}

func TestRemapFakeUserTransfer(t *testing.T) {
	m := maindb.New()
	matA := add(m, types.IDTypeMaterial, "Material_A")
	matB := add(m, types.IDTypeMaterial, "Material_B")
	types.FakeUserSet(matA)
	ob := add(m, types.IDTypeObject, "Ob")
	useMaterial(ob, matA)
	require.Equal(t, 2, matA.Users)

	Remap(m, matA, matB, 0)

	assert.Zero(t, matA.Flag&types.FlagFakeUser)
	assert.Equal(t, 0, matA.Users)
	assert.NotZero(t, matB.Flag&types.FlagFakeUser)
	assert.Equal(t, 2, matB.Users)
}

func TestRemapCollections(t *testing.T) {
	m := maindb.New()
	obA := add(m, types.IDTypeObject, "A")
	obB := add(m, types.IDTypeObject, "B")
	parent := add(m, types.IDTypeCollection, "Parent")
	childA := add(m, types.IDTypeCollection, "ChildA")
	childB := add(m, types.IDTypeCollection, "ChildB")

	pc := parent.Data.(*idtype.Collection)
	pc.Objects = []*types.ID{obA, obB}
	pc.Children = []*types.ID{childA}
	obA.Users, obB.Users, childA.Users = 1, 1, 1
	RebuildCollectionParents(m)
	require.Equal(t, []*types.ID{parent}, childA.Data.(*idtype.Collection).Parents)

	t.Run("duplicate objects collapse", func(t *testing.T) {
		Remap(m, obB, obA, 0)
		assert.Equal(t, []*types.ID{obA}, pc.Objects)
		assert.Equal(t, 1, obA.Users)
		assert.Equal(t, 0, obB.Users)
		assert.True(t, pc.Runtime.CacheValid)
		assert.Equal(t, []*types.ID{obA}, pc.Runtime.FlatObjects)
	})

	t.Run("parents rebuilt", func(t *testing.T) {
		Remap(m, childA, childB, 0)
		assert.Equal(t, []*types.ID{childB}, pc.Children)
		assert.Empty(t, childA.Data.(*idtype.Collection).Parents)
		assert.Equal(t, []*types.ID{parent}, childB.Data.(*idtype.Collection).Parents)
	})
}

func TestRemapNodeGroup(t *testing.T) {
	m := maindb.New()
	groupA := add(m, types.IDTypeNodeTree, "GroupA")
	groupB := add(m, types.IDTypeNodeTree, "GroupB")
	user := add(m, types.IDTypeNodeTree, "Shader")
	user.Data.(*idtype.NodeTree).Nodes = []*idtype.Node{{Name: "Group", Kind: "group", ID: groupA}}
	groupA.Users = 1

	Remap(m, groupA, groupB, 0)

	nt := user.Data.(*idtype.NodeTree)
	assert.Same(t, groupB, nt.Nodes[0].ID)
	assert.True(t, nt.UpdateTag)
	assert.NotZero(t, user.Recalc&types.RecalcShading)
}

func TestRelinkMultipleScope(t *testing.T) {
	m := maindb.New()
	matA := add(m, types.IDTypeMaterial, "Material_A")
	matB := add(m, types.IDTypeMaterial, "Material_B")
	ob1 := add(m, types.IDTypeObject, "Ob1")
	ob2 := add(m, types.IDTypeObject, "Ob2")
	useMaterial(ob1, matA)
	useMaterial(ob2, matA)

	r := NewRemapper()
	r.Add(matA, matB)
	s := RelinkMultiple(m, []*types.ID{ob1}, r, DefaultOptions(0))

	assert.Same(t, matB, object(ob1).Materials[0])
	assert.Same(t, matA, object(ob2).Materials[0])
	assert.Equal(t, 1, matA.Users)
	assert.Equal(t, 1, matB.Users)
	assert.Equal(t, []*types.ID{ob1}, s.Owners)
}

func TestRemapRefcountCheck(t *testing.T) {
	m := maindb.New()
	lib := m.AddLibrary("props", "//props.blend")
	matA := addLinked(m, lib, types.IDTypeMaterial, "Material_A")
	matB := add(m, types.IDTypeMaterial, "Material_B")
	libOb := addLinked(m, lib, types.IDTypeObject, "LibOb")
	object(libOb).Materials = []*types.ID{matA}

	reports := types.NewReportList()
	opts := DefaultOptions(SkipIndirectUsage)
	opts.Reports = reports
	r := NewRemapper()
	r.Add(matA, matB)
	RemapMultipleWith(m, r, opts)

	assert.True(t, reports.HasErrors(), "the skipped slot was never counted")

	opts.CheckRefcount = false
	opts.Reports = types.NewReportList()
	RemapMultipleWith(m, r, opts)
	assert.False(t, opts.Reports.HasErrors())
}

func TestSkipUpdateTagging(t *testing.T) {
	m := maindb.New()
	matA := add(m, types.IDTypeMaterial, "Material_A")
	matB := add(m, types.IDTypeMaterial, "Material_B")
	ob := add(m, types.IDTypeObject, "Ob")
	useMaterial(ob, matA)

	Remap(m, matA, matB, SkipUpdateTagging)

	assert.Zero(t, ob.Recalc)
	assert.Equal(t, 0, m.Notifier().(*maindb.RecalcNotifier).RelationsChangedCount())
}

func TestRemapper(t *testing.T) {
	a := &types.ID{Type: types.IDTypeMaterial, Name: "A"}
	b := &types.ID{Type: types.IDTypeMaterial, Name: "B"}
	self := &types.ID{Type: types.IDTypeObject, Name: "Self"}
	r := NewRemapper()
	assert.True(t, r.IsEmpty())

	r.Add(a, b)
	r.Add(self, self)
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.ContainsType(types.IDTypeMaterial))
	assert.False(t, r.ContainsType(types.IDTypeMesh))

	assert.Equal(t, SourceUnavailable, r.MappingResult(nil, 0, nil))
	assert.Equal(t, SourceNotMappable, r.MappingResult(b, 0, nil))
	assert.Equal(t, SourceRemapped, r.MappingResult(a, 0, nil))
	assert.Equal(t, SourceUnassigned, r.MappingResult(self, ApplyUnmapWhenRemappingToSelf, self))

	slot := a
	a.Users = 1
	res := r.Apply(&slot, ApplyUpdateRefcount, nil)
	assert.Equal(t, SourceRemapped, res)
	assert.Same(t, b, slot)
	assert.Equal(t, 0, a.Users)
	assert.Equal(t, 1, b.Users)
}

func TestParseFlags(t *testing.T) {
	f, err := ParseFlags([]string{"skip_indirect_usage", " Force_User_Refcount ", ""})
	require.NoError(t, err)
	assert.Equal(t, SkipIndirectUsage|ForceUserRefcount, f)
	assert.Equal(t, "force_user_refcount|skip_indirect_usage", f.String())

	_, err = ParseFlags([]string{"bogus"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Len(t, FlagNames(), 9)
}
