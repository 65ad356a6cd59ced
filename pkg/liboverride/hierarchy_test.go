package liboverride

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/idtype"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMainHierarchyRootEnsure(t *testing.T) {
	rig := testutil.NewCollectionRig()
	e := New(rig.Main, nil)
	coll, err := e.Create(rig.Collection, nil, nil)
	require.NoError(t, err)
	arm := testutil.FindOverride(rig.Main, rig.Armature)
	body := testutil.FindOverride(rig.Main, rig.Body)

	assert.Equal(t, 0, e.MainHierarchyRootEnsure())

	for _, id := range []*types.ID{coll, arm, body} {
		id.Override.HierarchyRoot = nil
	}
	assert.Equal(t, 3, e.MainHierarchyRootEnsure())
	for _, id := range []*types.ID{coll, arm, body} {
		assert.Same(t, coll, id.Override.HierarchyRoot, "root of %s", id)
	}
	assert.Zero(t, e.Reports().Len())
}

func TestMainHierarchyRootEnsureConflict(t *testing.T) {
	rig := testutil.NewCollectionRig()
	e := New(rig.Main, nil)
	coll, err := e.Create(rig.Collection, nil, nil)
	require.NoError(t, err)
	arm := testutil.FindOverride(rig.Main, rig.Armature)

	// a second hierarchy using the same armature override
	otherLib := rig.Main.AddLibrary("other", "//other.blend")
	other := &types.ID{Type: types.IDTypeCollection, Lib: otherLib, Tag: types.TagIndirect, Data: &idtype.Collection{}}
	rig.Main.Register(other, "Other_Lib")
	otherOv, err := e.Create(other, nil, nil)
	require.NoError(t, err)
	testutil.Add(otherOv, arm)
	types.UsPlus(arm)

	arm.Override.HierarchyRoot = nil
	assert.Equal(t, 1, e.MainHierarchyRootEnsure())
	assert.Contains(t, []*types.ID{coll, otherOv}, arm.Override.HierarchyRoot)
	assert.Equal(t, 1, e.Reports().Count(types.SeverityWarning))
}
