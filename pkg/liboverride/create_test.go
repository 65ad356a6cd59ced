package liboverride

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	c := newCreated(t, nil)

	assert.True(t, c.armature.IsOverrideLibraryReal())
	assert.False(t, c.armature.IsLinked())
	assert.Same(t, c.Armature, c.armature.Override.Reference)
	assert.Same(t, c.Body, c.body.Override.Reference)
	assert.Equal(t, "Armature_Lib", c.armature.Name)

	// the deformed mesh follows the new armature
	body := testutil.ObjectData(c.body)
	assert.Same(t, c.armature, body.Parent)
	require.Len(t, body.Modifiers, 1)
	assert.Same(t, c.armature, body.Modifiers[0].Target)

	// linked data keeps pointing at linked data
	assert.Same(t, c.Armature, testutil.ObjectData(c.Body).Parent)
	assert.Same(t, c.BoneShape, testutil.ObjectData(c.armature).Pose.Channels[0].CustomShape)

	for _, id := range []*types.ID{c.armature, c.body} {
		assert.Same(t, c.armature, id.Override.HierarchyRoot)
		assert.True(t, id.Override.IsSystemDefined())
	}

	master := testutil.CollectionData(testutil.Master(c.Scene))
	assert.Equal(t, []*types.ID{c.armature, c.body}, master.Objects)

	assert.Equal(t, 1, c.Armature.Users)
	assert.Equal(t, 1, c.Body.Users)
	assert.Equal(t, 1, c.armature.Users)
	assert.Equal(t, 1, c.body.Users)
	testutil.AssertUsersConsistent(t, c.Main)
	assertNoTags(t, c.engine)
}

func TestCreateCollectionRoot(t *testing.T) {
	rig := testutil.NewCollectionRig()
	e := New(rig.Main, nil)

	coll, err := e.Create(rig.Collection, nil, nil)
	require.NoError(t, err)
	arm := testutil.FindOverride(rig.Main, rig.Armature)
	body := testutil.FindOverride(rig.Main, rig.Body)
	require.NotNil(t, arm)
	require.NotNil(t, body)
	assert.Nil(t, testutil.FindOverride(rig.Main, rig.BoneShape))

	assert.Equal(t, []*types.ID{coll}, testutil.CollectionData(testutil.Master(rig.Scene)).Children)
	assert.Equal(t, []*types.ID{arm, body, rig.BoneShape}, testutil.CollectionData(coll).Objects)
	assert.Same(t, arm, testutil.ObjectData(body).Parent)

	// every object found a home in the overridden collection
	assert.Nil(t, rig.Main.FindName(types.IDTypeCollection, e.cfg.HiddenCollectionName))
	testutil.AssertUsersConsistent(t, rig.Main)
}

func TestCreateInstantiatesBackfilledCollection(t *testing.T) {
	rig := testutil.NewCollectionRig()
	e := New(rig.Main, nil)

	arm, err := e.Create(rig.Armature, rig.Collection, nil)
	require.NoError(t, err)
	coll := testutil.FindOverride(rig.Main, rig.Collection)
	require.NotNil(t, coll)
	assert.Same(t, coll, arm.Override.HierarchyRoot)
	assert.Contains(t, testutil.CollectionData(testutil.Master(rig.Scene)).Children, coll)
	testutil.AssertUsersConsistent(t, rig.Main)
}

func TestCreateHiddenCollection(t *testing.T) {
	b := testutil.NewBuilder()
	b.Library("props")
	lamp := b.Object("Lamp_Lib", "")
	shade := b.Object("Shade_Lib", "")
	testutil.ObjectData(shade).Parent = lamp
	// the collection holds the lamp only, the shade hangs off it
	coll := b.Collection("Props_Lib", lamp)
	b.Local()
	sc := b.Scene("Scene", coll)
	m := b.Build()

	e := New(m, nil)
	_, err := e.Create(coll, nil, nil)
	require.NoError(t, err)

	shadeOv := testutil.FindOverride(m, shade)
	require.NotNil(t, shadeOv)
	hidden := m.FindName(types.IDTypeCollection, e.cfg.HiddenCollectionName)
	require.NotNil(t, hidden)
	assert.True(t, testutil.CollectionData(hidden).Hide.Viewport)
	assert.Equal(t, []*types.ID{shadeOv}, testutil.CollectionData(hidden).Objects)
	assert.Contains(t, testutil.CollectionData(testutil.Master(sc)).Children, hidden)
	testutil.AssertUsersConsistent(t, m)
}

func TestCreateErrors(t *testing.T) {
	t.Run("local ID", func(t *testing.T) {
		rig := testutil.NewRig()
		_, err := New(rig.Main, nil).Create(rig.Scene, nil, nil)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotOverridable))
	})

	t.Run("missing ID", func(t *testing.T) {
		rig := testutil.NewRig()
		rig.Armature.Tag |= types.TagMissing
		_, err := New(rig.Main, nil).Create(rig.Armature, nil, nil)
		assert.True(t, errors.IsErrorCode(err, errors.ErrMissingReference))
	})

	t.Run("root outside hierarchy", func(t *testing.T) {
		rig := testutil.NewRig()
		e := New(rig.Main, nil)
		_, err := e.Create(rig.Material, rig.Armature, nil)
		assert.True(t, errors.IsErrorCode(err, errors.ErrHierarchyInvalid))
		assert.Nil(t, testutil.FindOverride(rig.Main, rig.Armature))
		assertNoTags(t, e)
	})

	t.Run("nil", func(t *testing.T) {
		rig := testutil.NewRig()
		_, err := New(rig.Main, nil).Create(nil, nil, nil)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestCreateFromTagSkipsUncopyable(t *testing.T) {
	t.Run("optional references stay linked", func(t *testing.T) {
		rig := testutil.NewRig()
		e := New(rig.Main, nil)
		odd := &types.ID{Type: types.IDType("ZZ"), Name: "Odd_Lib", Lib: rig.Lib, Tag: types.TagDoit}

		mapping, created, err := e.createFromTag([]*types.ID{rig.Armature, odd, rig.Body}, rig.Armature)
		require.NoError(t, err)
		assert.Len(t, created, 2)
		_, ok := mapping.Lookup(odd)
		assert.False(t, ok)
		assert.False(t, odd.HasTag(types.TagDoit))
		assert.NotNil(t, testutil.FindOverride(rig.Main, rig.Armature))
		assert.NotNil(t, testutil.FindOverride(rig.Main, rig.Body))
		require.NotEmpty(t, e.Reports().Items())
		assert.Contains(t, e.Reports().Items()[0].Message, "ZZOdd_Lib [rig] could not be overridden")
	})

	t.Run("a required reference fails the batch", func(t *testing.T) {
		rig := testutil.NewRig()
		e := New(rig.Main, nil)
		before := rig.Main.Count()
		odd := &types.ID{Type: types.IDType("ZZ"), Name: "Odd_Lib", Lib: rig.Lib}

		_, _, err := e.createFromTag([]*types.ID{rig.Armature, odd}, odd)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrNotCopyable), err.Error())
		assert.Equal(t, before, rig.Main.Count())
		assert.Nil(t, testutil.FindOverride(rig.Main, rig.Armature))
	})
}
