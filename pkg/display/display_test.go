package display

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/arthur-debert/liboverride/pkg/liboverride"
	"github.com/arthur-debert/liboverride/pkg/override"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/testutil"
	"github.com/arthur-debert/liboverride/pkg/types"
	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	pterm.DisableStyling()
}

func createdCollectionRig(t *testing.T) (*testutil.Rig, *types.ID) {
	t.Helper()
	rig := testutil.NewCollectionRig()
	root, err := liboverride.New(rig.Main, nil).Create(rig.Collection, nil, nil)
	require.NoError(t, err)
	return rig, root
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"", FormatAuto},
		{"auto", FormatAuto},
		{"TERM", FormatTerminal},
		{"terminal", FormatTerminal},
		{"plain", FormatText},
		{"json", FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("yaml")
	assert.Error(t, err)
}

func TestDetectFormat(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, FormatText, DetectFormat(os.Stdout))

	t.Setenv("NO_COLOR", "")
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, FormatText, DetectFormat(f))
	assert.Equal(t, FormatJSON, Resolve(FormatJSON, f))
	assert.Equal(t, FormatText, Resolve(FormatAuto, f))
}

func TestStateOf(t *testing.T) {
	rig, root := createdCollectionRig(t)

	assert.Equal(t, StateLinked, StateOf(rig.Armature))
	assert.Equal(t, StateSystem, StateOf(root))
	assert.Equal(t, StateLocal, StateOf(rig.Scene))
	assert.Equal(t, StateEmbedded, StateOf(testutil.Master(rig.Scene)))

	require.NoError(t, override.SetSystemDefined(root, false))
	assert.Equal(t, StateOverride, StateOf(root))

	root.Flag |= types.FlagResyncLeftover
	assert.Equal(t, StateLeftover, StateOf(root))

	rig.Material.Tag |= types.TagMissing
	assert.Equal(t, StateMissing, StateOf(rig.Material))
}

func TestFromID(t *testing.T) {
	rig, root := createdCollectionRig(t)
	root.SetProp("hp", 10)

	v := FromID(root, true)
	assert.Equal(t, "Rig_Lib", v.Name)
	assert.Equal(t, "GR", v.Type)
	assert.Empty(t, v.Library)
	assert.Equal(t, "GRRig_Lib [rig]", v.Reference)
	assert.Equal(t, "GRRig_Lib", v.Root)
	assert.Equal(t, 10, v.Props["hp"])

	linked := FromID(rig.Armature, true)
	assert.Equal(t, "rig", linked.Library)
	assert.Equal(t, "OBArmature_Lib [rig]", linked.Label())
	assert.Empty(t, linked.Properties)
}

func TestFromMainSkipsEmbedded(t *testing.T) {
	rig, _ := createdCollectionRig(t)
	for _, v := range FromMain(rig.Main, false) {
		assert.NotEqual(t, "Master Collection", v.Name)
	}
}

func TestHierarchies(t *testing.T) {
	rig, _ := createdCollectionRig(t)

	trees := Hierarchies(rig.Main)
	require.Len(t, trees, 1)
	tree := trees[0]
	assert.Equal(t, "GRRig_Lib", tree.ID.Label())
	require.Len(t, tree.Children, 2)
	assert.Equal(t, "OBArmature_Lib", tree.Children[0].ID.Label())
	assert.Equal(t, "OBBody_Lib", tree.Children[1].ID.Label())
	assert.Equal(t, 3, tree.Size())
}

func TestHierarchyObjectRoot(t *testing.T) {
	rig := testutil.NewRig()
	_, err := liboverride.New(rig.Main, nil).Create(rig.Armature, nil, nil)
	require.NoError(t, err)

	trees := Hierarchies(rig.Main)
	require.Len(t, trees, 1)
	assert.Equal(t, "OBArmature_Lib", trees[0].ID.Label())
	require.Len(t, trees[0].Children, 1)
	assert.Equal(t, "OBBody_Lib", trees[0].Children[0].ID.Label())
}

func TestFromReportsAndSummary(t *testing.T) {
	reports := types.NewReportList()
	reports.Addf(types.SeverityWarning, "orphan %s", "OBEyes")
	assert.Equal(t, []ReportView{{Severity: "warning", Message: "orphan OBEyes"}}, FromReports(reports))
	assert.Empty(t, FromReports(nil))

	owner := &types.ID{Type: types.IDTypeObject, Name: "Body"}
	v := FromSummary(remap.Summary{Rewritten: 3, SkippedIndirect: 1, Owners: []*types.ID{owner}})
	assert.Equal(t, 3, v.Rewritten)
	assert.Equal(t, 1, v.SkippedIndirect)
	assert.Equal(t, []string{"OBBody"}, v.Owners)
}

func sampleResult(t *testing.T) *Result {
	rig, root := createdCollectionRig(t)
	reports := types.NewReportList()
	reports.Addf(types.SeverityError, "something failed")
	return &Result{
		Command:     "inspect",
		IDs:         []IDView{FromID(root, true)},
		Hierarchies: Hierarchies(rig.Main),
		Remap:       &RemapView{Rewritten: 2, Owners: []string{"OBBody"}},
		Reports:     FromReports(reports),
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatText, &buf).Render(sampleResult(t)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "inspect\n"))
	assert.Contains(t, out, "    GRRig_Lib system users=")
	assert.Contains(t, out, "        OBArmature_Lib (system)\n")
	assert.Contains(t, out, "remap: rewritten=2 skipped_direct=0 skipped_indirect=0\n")
	assert.Contains(t, out, "error: something failed\n")

	buf.Reset()
	require.NoError(t, NewTextRenderer(&buf).Render(nil))
	assert.Empty(t, buf.String())
}

func TestRichRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatTerminal, &buf).Render(sampleResult(t)))

	out := buf.String()
	assert.Contains(t, out, "Inspect")
	assert.Contains(t, out, "GRRig_Lib")
	assert.Contains(t, out, "OBBody_Lib")
	assert.Contains(t, out, "Rewritten: 2")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, "something failed")
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(FormatJSON, &buf).Render(sampleResult(t)))

	var decoded Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "inspect", decoded.Command)
	require.Len(t, decoded.Hierarchies, 1)
	assert.Len(t, decoded.Hierarchies[0].Children, 2)
	assert.Equal(t, 2, decoded.Remap.Rewritten)
}

func TestOperationLabel(t *testing.T) {
	assert.Equal(t, "replace", operationLabel(OperationView{Kind: "replace", RefIndex: -1, LocalIndex: -1}))
	assert.Equal(t, `replace ["Skin" -> "Skin.001"] (match reference)`,
		operationLabel(OperationView{Kind: "replace", RefName: "Skin", LocalName: "Skin.001", MatchReference: true}))
	assert.Equal(t, "insert_after [0 -> 1]", operationLabel(OperationView{Kind: "insert_after", RefIndex: 0, LocalIndex: 1}))
}

func TestIndent(t *testing.T) {
	assert.Equal(t, "  a\n\n  b", Indent("a\n\nb", 1))
	assert.Equal(t, "a", Indent("a", 0))
}
