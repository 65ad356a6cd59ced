package liboverride

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/errors"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelete(t *testing.T) {
	c := newCreated(t, nil)
	arm, body := c.armature, c.body

	// any member leads to the whole hierarchy
	n, err := c.engine.Delete(body)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, c.Main.Contains(arm))
	assert.False(t, c.Main.Contains(body))
	testutil.AssertNoPointerTo(t, c.Main, arm, body)

	master := testutil.CollectionData(testutil.Master(c.Scene))
	assert.Equal(t, []*types.ID{c.Armature, c.Body}, master.Objects)
	assert.Equal(t, 1, c.Armature.Users)
	assert.Equal(t, 1, c.Body.Users)
	testutil.AssertUsersConsistent(t, c.Main)
	assertNoTags(t, c.engine)
}

func TestDeleteCollectionHierarchy(t *testing.T) {
	rig := testutil.NewCollectionRig()
	e := New(rig.Main, nil)
	coll, err := e.Create(rig.Collection, nil, nil)
	require.NoError(t, err)

	n, err := e.Delete(coll)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []*types.ID{rig.Collection}, testutil.CollectionData(testutil.Master(rig.Scene)).Children)
	assert.Nil(t, testutil.FindOverride(rig.Main, rig.Armature))
	testutil.AssertUsersConsistent(t, rig.Main)
}

func TestDeleteErrors(t *testing.T) {
	rig := testutil.NewRig()
	_, err := New(rig.Main, nil).Delete(rig.Armature)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotOverridable))
}
