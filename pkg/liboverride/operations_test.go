package liboverride

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/config"
	"github.com/arthur-debert/liboverride/pkg/lifecycle"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/propdiff"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationsCreate(t *testing.T) {
	t.Run("pointers to overrides mirror the reference", func(t *testing.T) {
		c := newCreated(t, nil)

		assert.True(t, c.engine.OperationsCreate(c.body))
		prop := override.PropertyFind(c.body.Override, "parent")
		require.NotNil(t, prop)
		require.Len(t, prop.Operations, 1)
		assert.NotZero(t, prop.Operations[0].Flag&types.OpMatchReference)
		assert.False(t, override.IsUserEdited(c.body))

		assert.False(t, c.engine.OperationsCreate(c.body))
		assert.False(t, c.engine.OperationsCreate(c.armature))
	})

	t.Run("user edits are recorded", func(t *testing.T) {
		c := newCreated(t, nil)
		edit(t, c.engine, c.armature, "hp", 10)
		assert.True(t, override.PropertyIsOverridden(c.armature, propdiff.CustomPath("hp")))
	})

	t.Run("system overrides are reported", func(t *testing.T) {
		c := newCreated(t, nil)
		c.armature.SetProp("hp", 10)

		assert.False(t, c.engine.OperationsCreate(c.armature))
		assert.Empty(t, c.armature.Override.Properties)
		assert.Equal(t, 1, c.engine.Reports().Count(types.SeverityWarning))
	})

	t.Run("system overrides are restored when configured", func(t *testing.T) {
		cfg := config.Default()
		cfg.Override.RestoreSystemOverrides = true
		c := newCreated(t, cfg)
		c.armature.SetProp("hp", 10)
		c.armature.Recalc = 0

		assert.True(t, c.engine.OperationsCreate(c.armature))
		_, ok := c.armature.Prop("hp")
		assert.False(t, ok)
		assert.NotZero(t, c.armature.Recalc&types.RecalcCopyOnWrite)
		assert.Zero(t, c.engine.Reports().Len())
	})

	t.Run("linked and plain IDs are skipped", func(t *testing.T) {
		c := newCreated(t, nil)
		assert.False(t, c.engine.OperationsCreate(c.Armature))
		assert.False(t, c.engine.OperationsCreate(c.Scene))
	})
}

func TestMainOperationsCreate(t *testing.T) {
	cfg := config.Default()
	cfg.Override.Workers = 2
	c := newCreated(t, cfg)

	for _, id := range []*types.ID{c.armature, c.body} {
		require.NoError(t, override.SetSystemDefined(id, false))
		id.SetProp("hp", 10)
	}
	n, err := c.engine.MainOperationsCreate()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.engine.MainOperationsCreate()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMainOperationsCreateSharedPointers(t *testing.T) {
	cfg := config.Default()
	cfg.Override.RestoreSystemOverrides = true
	cfg.Override.Workers = 8
	c := newCreated(t, cfg)

	linkedMesh := testutil.ObjectData(c.Body).Data
	shared, err := lifecycle.Copy(c.Main, linkedMesh, lifecycle.CopyNoLibOverride)
	require.NoError(t, err)

	bodies := []*types.ID{c.body}
	for i := 0; i < 63; i++ {
		dup, err := lifecycle.Copy(c.Main, c.body, 0)
		require.NoError(t, err)
		bodies = append(bodies, dup)
	}
	// every body now draws the same local mesh
	for _, ob := range bodies {
		require.NoError(t, override.SetSystemDefined(ob, true))
		data := testutil.ObjectData(ob)
		types.UsMin(data.Data)
		data.Data = shared
		types.UsPlus(shared)
	}
	sharedUsers, linkedUsers := shared.Users, linkedMesh.Users

	n, err := c.engine.MainOperationsCreate()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, len(bodies))

	for _, ob := range bodies {
		assert.Same(t, linkedMesh, testutil.ObjectData(ob).Data, "%s", ob)
	}
	assert.Equal(t, sharedUsers-len(bodies), shared.Users)
	assert.Equal(t, linkedUsers+len(bodies), linkedMesh.Users)

	// restored pointers match again
	n, err = c.engine.MainOperationsCreate()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMainOperationsCreateWorkerCounts(t *testing.T) {
	for _, workers := range []int{-3, 0, 1} {
		cfg := config.Default()
		cfg.Override.Workers = workers
		c := newCreated(t, cfg)
		require.NoError(t, override.SetSystemDefined(c.armature, false))
		c.armature.SetProp("hp", 10)

		n, err := c.engine.MainOperationsCreate()
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, 1, n, "workers=%d", workers)
	}
}

func TestUpdate(t *testing.T) {
	c := newCreated(t, nil)
	edit(t, c.engine, c.body, "hp", 10)

	// the library changed under the override
	c.Body.SetProp("lod", 2)
	c.body.Override.Runtime = &types.OverrideRuntime{Tag: types.OverrideTagNeedsReload}

	_, err := c.engine.MainOperationsCreate()
	require.NoError(t, err)

	lod, _ := c.body.Prop("lod")
	hp, _ := c.body.Prop("hp")
	assert.Equal(t, 2, lod)
	assert.Equal(t, 10, hp)
	assert.Same(t, c.armature, testutil.ObjectData(c.body).Parent)
	assert.Same(t, c.armature, testutil.ObjectData(c.body).Modifiers[0].Target)
	assert.False(t, needsReload(c.body))
	testutil.AssertUsersConsistent(t, c.Main)
}

func TestStore(t *testing.T) {
	c := newCreated(t, nil)
	c.Body.SetProp("count", 10)
	edit(t, c.engine, c.body, "count", 13)

	prop := override.PropertyFind(c.body.Override, propdiff.CustomPath("count"))
	require.NotNil(t, prop)
	prop.Operations[0].Kind = types.OpAdd

	storage, err := c.engine.MainStoreStart()
	require.NoError(t, err)
	st := c.body.Override.Storage
	require.NotNil(t, st)
	v, _ := st.Prop("count")
	assert.Equal(t, 3, v)
	// nothing differential on the armature
	assert.Nil(t, c.armature.Override.Storage)
	assert.Equal(t, 1, storage.Count())

	c.engine.MainStoreEnd(storage)
	assert.Nil(t, c.body.Override.Storage)
	assert.Equal(t, 0, storage.Count())
}
