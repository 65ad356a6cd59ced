package liboverride

import (
	"testing"

	"github.com/arthur-debert/liboverride/pkg/config"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// created is a rig with its armature hierarchy overridden.
type created struct {
	*testutil.Rig
	engine   *Engine
	armature *types.ID
	body     *types.ID
}

func newCreated(t *testing.T, cfg *config.Config) *created {
	t.Helper()
	rig := testutil.NewRig()
	e := New(rig.Main, cfg)
	arm, err := e.Create(rig.Armature, nil, nil)
	require.NoError(t, err)
	body := testutil.FindOverride(rig.Main, rig.Body)
	require.NotNil(t, body)
	return &created{Rig: rig, engine: e, armature: arm, body: body}
}

func assertNoTags(t *testing.T, e *Engine) {
	t.Helper()
	for _, id := range e.Main().All() {
		assert.False(t, id.HasTag(types.TagDoit), "%s still tagged", id)
	}
}

func TestNew(t *testing.T) {
	rig := testutil.NewRig()

	e := New(rig.Main, nil)
	assert.Same(t, rig.Main, e.Main())
	assert.Equal(t, config.Default().Override, e.cfg)
	assert.NotNil(t, e.Reports())

	reports := types.NewReportList()
	e = New(rig.Main, nil, WithReports(reports))
	assert.Same(t, reports, e.Reports())
}
