package liboverride

import (
	"maps"
	"testing"

	"github.com/arthur-debert/liboverride/pkg/relations"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagHierarchy(t *testing.T) {
	t.Run("object root pulls in deformed objects", func(t *testing.T) {
		rig := testutil.NewRig()
		e := New(rig.Main, nil)

		ids, missing := e.TagHierarchy(rig.Armature)
		assert.Equal(t, []*types.ID{rig.Armature, rig.Body}, ids)
		assert.Empty(t, missing)

		// bone shapes and plain data stay linked
		assert.False(t, rig.BoneShape.HasTag(types.TagDoit))
		assert.False(t, rig.Material.HasTag(types.TagDoit))
		assert.False(t, testutil.ObjectData(rig.Body).Data.HasTag(types.TagDoit))
	})

	t.Run("collection root", func(t *testing.T) {
		rig := testutil.NewCollectionRig()
		e := New(rig.Main, nil)

		ids, _ := e.TagHierarchy(rig.Collection)
		assert.ElementsMatch(t, []*types.ID{rig.Collection, rig.Armature, rig.Body}, ids)
	})

	t.Run("objects are backfilled with their collection", func(t *testing.T) {
		rig := testutil.NewCollectionRig()
		e := New(rig.Main, nil)

		ids, _ := e.TagHierarchy(rig.Armature)
		assert.ElementsMatch(t, []*types.ID{rig.Collection, rig.Armature, rig.Body}, ids)
	})

	t.Run("missing IDs are reported, not tagged", func(t *testing.T) {
		rig := testutil.NewRig()
		rig.Body.Tag |= types.TagMissing
		e := New(rig.Main, nil)

		ids, missing := e.TagHierarchy(rig.Armature)
		assert.Equal(t, []*types.ID{rig.Armature}, ids)
		assert.Equal(t, []*types.ID{rig.Body}, missing)
	})

	t.Run("bone shapes parented to the armature stay linked", func(t *testing.T) {
		rig := testutil.NewRig()
		testutil.ObjectData(rig.BoneShape).Parent = rig.Armature
		e := New(rig.Main, nil)

		ids, _ := e.TagHierarchy(rig.Armature)
		assert.Equal(t, []*types.ID{rig.Armature, rig.Body}, ids)
		assert.False(t, rig.BoneShape.HasTag(types.TagDoit))
	})

	t.Run("non key root tags itself only", func(t *testing.T) {
		rig := testutil.NewRig()
		e := New(rig.Main, nil)

		ids, _ := e.TagHierarchy(rig.Material)
		assert.Equal(t, []*types.ID{rig.Material}, ids)
	})
}

func TestTagOverrides(t *testing.T) {
	c := newCreated(t, nil)

	olds := c.engine.tagOverrides(c.armature)
	assert.Equal(t, []*types.ID{c.armature, c.body}, olds)
	c.engine.clearTags()

	// a hierarchy stops at overrides flagged so
	c.body.Override.Flag |= types.OverrideNoHierarchy
	olds = c.engine.tagOverrides(c.armature)
	assert.Equal(t, []*types.ID{c.armature}, olds)
	c.engine.clearTags()
	assertNoTags(t, c.engine)
}

func TestLinkedGroupTagIdempotent(t *testing.T) {
	rig := testutil.NewCollectionRig()
	testutil.ObjectData(rig.BoneShape).Parent = rig.Armature
	e := New(rig.Main, nil)
	all := func(*types.ID) bool { return true }

	rel := relations.Build(rig.Main)
	defer rel.Free()
	d := newTagData(rig.Main, rel, rig.Armature)

	d.linkedGroupTag()
	first := e.taggedIDs(all)
	firstMissing := maps.Clone(d.missing)
	require.NotEmpty(t, first)

	d.linkedGroupTag()
	assert.Equal(t, first, e.taggedIDs(all))
	assert.Equal(t, firstMissing, d.missing)

	// a fresh pass over the already tagged Main agrees too
	ids, _ := e.TagHierarchy(rig.Armature)
	assert.Equal(t, first, ids)
}

func TestCreateLeavesParentedBoneShapeLinked(t *testing.T) {
	rig := testutil.NewRig()
	testutil.ObjectData(rig.BoneShape).Parent = rig.Armature
	e := New(rig.Main, nil)

	arm, err := e.Create(rig.Armature, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, testutil.FindOverride(rig.Main, rig.BoneShape))
	assert.NotNil(t, testutil.FindOverride(rig.Main, rig.Body))
	assert.Same(t, rig.BoneShape, testutil.ObjectData(arm).Pose.Channels[0].CustomShape)
	assertNoTags(t, e)
}
