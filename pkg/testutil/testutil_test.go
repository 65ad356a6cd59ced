package testutil_test

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRig(t *testing.T) {
	rig := testutil.NewRig()

	require.NotNil(t, rig.Main.FindLinkedName(types.IDTypeObject, "Armature_Lib", rig.Lib))
	assert.True(t, rig.Armature.IsLinked())
	assert.False(t, rig.Scene.IsLinked())
	assert.Nil(t, rig.Collection)

	// the scene uses the armature directly, the body only through the library
	assert.True(t, rig.Armature.HasTag(types.TagExtern))
	assert.True(t, rig.Body.HasTag(types.TagIndirect))

	assert.Equal(t, 1, rig.Armature.Users)
	assert.Equal(t, 0, rig.Body.Users)
	// the pose bone custom shape
	assert.Equal(t, 1, rig.BoneShape.Users)
	assert.Equal(t, 1, rig.Material.Users)

	md := testutil.ObjectData(rig.Body).Modifiers
	require.Len(t, md, 1)
	assert.Same(t, rig.Armature, md[0].Target)
	assert.Same(t, rig.Armature, testutil.ObjectData(rig.Body).Parent)

	testutil.AssertUsersConsistent(t, rig.Main)
}

func TestNewCollectionRig(t *testing.T) {
	rig := testutil.NewCollectionRig()

	require.NotNil(t, rig.Collection)
	assert.True(t, rig.Collection.HasTag(types.TagExtern))
	assert.True(t, rig.Armature.HasTag(types.TagIndirect))
	assert.Equal(t, 1, rig.Armature.Users)
	assert.Equal(t, 2, rig.BoneShape.Users)
	assert.Len(t, testutil.CollectionData(testutil.Master(rig.Scene)).Runtime.FlatObjects, 3)
	testutil.AssertUsersConsistent(t, rig.Main)
}

func TestRigReload(t *testing.T) {
	rig := testutil.NewCollectionRig()

	eyes := rig.AddDeformed("Eyes_Lib")
	assert.Same(t, rig.Armature, testutil.ObjectData(eyes).Parent)
	assert.True(t, testutil.CollectionData(rig.Collection).HasObject(eyes))
	assert.Equal(t, 1, eyes.Users)

	rig.Remove(rig.Body)
	assert.False(t, rig.Main.Contains(rig.Body))
	assert.False(t, testutil.CollectionData(rig.Collection).HasObject(rig.Body))
	testutil.AssertNoPointerTo(t, rig.Main, rig.Body)
	testutil.AssertUsersConsistent(t, rig.Main)
}

func TestBuilderLocalNames(t *testing.T) {
	b := testutil.NewBuilder()
	a := b.Object("Cube", types.IDTypeMesh)
	c := b.Object("Cube", types.IDTypeMesh)
	b.Build()

	assert.Equal(t, "Cube", a.Name)
	assert.NotEqual(t, a.Name, c.Name)
	assert.Equal(t, 1, testutil.ObjectData(a).Data.Users)
}

func TestBuilderCollections(t *testing.T) {
	b := testutil.NewBuilder()
	ob := b.Object("Lamp", "")
	inner := b.Collection("Inner", ob)
	outer := b.Collection("Outer", inner)
	sc := b.Scene("Scene", outer)
	m := b.Build()

	assert.Equal(t, []*types.ID{outer}, testutil.CollectionData(inner).Parents)
	assert.Equal(t, []*types.ID{testutil.Master(sc)}, testutil.CollectionData(outer).Parents)
	assert.Equal(t, []*types.ID{ob}, testutil.CollectionData(outer).Runtime.FlatObjects)
	assert.Nil(t, testutil.FindOverride(m, ob))
	testutil.AssertUsersConsistent(t, m)
}
