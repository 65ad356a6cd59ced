package display

import (
	"github.com/arthur-debert/liboverride/pkg/maindb"
	"github.com/arthur-debert/liboverride/pkg/relations"
	"github.com/arthur-debert/liboverride/pkg/remap"
	"github.com/arthur-debert/liboverride/pkg/types"
)

// StateOf classifies id.
func StateOf(id *types.ID) State {
	switch {
	case id.IsMissing():
		return StateMissing
	case id.Flag&types.FlagResyncLeftover != 0:
		return StateLeftover
	case id.IsOverrideTemplate():
		return StateTemplate
	case id.IsOverrideLibraryReal():
		if id.Override.IsSystemDefined() {
			return StateSystem
		}
		return StateOverride
	case id.IsOverrideLibraryVirtual(), id.IsEmbedded():
		return StateEmbedded
	case id.IsLinked():
		return StateLinked
	}
	return StateLocal
}

// FromID builds the view of id. Override properties are included when
// withProperties is set.
func FromID(id *types.ID, withProperties bool) IDView {
	v := IDView{
		Name:     id.Name,
		Type:     string(id.Type),
		Users:    id.Users,
		FakeUser: id.Flag&types.FlagFakeUser != 0,
		State:    StateOf(id),
	}
	if id.Lib != nil {
		v.Library = id.Lib.Name
	}
	if len(id.Props) > 0 {
		v.Props = make(map[string]any, len(id.Props))
		for k, val := range id.Props {
			v.Props[k] = val
		}
	}
	if o := id.Override; o != nil {
		if o.Reference != nil {
			v.Reference = o.Reference.String()
		}
		if o.HierarchyRoot != nil {
			v.Root = o.HierarchyRoot.String()
		}
		if withProperties {
			v.Properties = fromProperties(o.Properties)
		}
	}
	return v
}

func fromProperties(props []*types.OverrideProperty) []PropertyView {
	out := make([]PropertyView, 0, len(props))
	for _, p := range props {
		pv := PropertyView{Path: p.Path, Kind: p.Kind.String()}
		for _, op := range p.Operations {
			ov := OperationView{
				Kind:           op.Kind.String(),
				RefIndex:       op.SubitemRefIndex,
				LocalIndex:     op.SubitemLocalIndex,
				MatchReference: op.Flag&types.OpMatchReference != 0,
			}
			if op.SubitemRefName != nil {
				ov.RefName = *op.SubitemRefName
			}
			if op.SubitemLocalName != nil {
				ov.LocalName = *op.SubitemLocalName
			}
			pv.Operations = append(pv.Operations, ov)
		}
		out = append(out, pv)
	}
	return out
}

// FromMain lists every ID of m, embedded ones excluded.
func FromMain(m *maindb.Main, withProperties bool) []IDView {
	var out []IDView
	for _, id := range m.All() {
		if id.IsEmbedded() {
			continue
		}
		out = append(out, FromID(id, withProperties))
	}
	return out
}

// Hierarchy builds the tree of the override hierarchy rooted at root.
// Members hang under the first member using them; members no other
// member uses hang under root.
func Hierarchy(rel *relations.Index, members []*types.ID, root *types.ID) *Node {
	inHierarchy := make(map[*types.ID]bool, len(members))
	for _, id := range members {
		inHierarchy[id] = true
	}
	seen := map[*types.ID]bool{root: true}

	var build func(id *types.ID) *Node
	build = func(id *types.ID) *Node {
		n := &Node{ID: FromID(id, false)}
		for _, used := range rel.Uses(id) {
			if !inHierarchy[used] || seen[used] {
				continue
			}
			seen[used] = true
			n.Children = append(n.Children, build(used))
		}
		return n
	}

	tree := build(root)
	for _, id := range members {
		if !seen[id] {
			seen[id] = true
			tree.Children = append(tree.Children, build(id))
		}
	}
	return tree
}

// Hierarchies builds one tree per hierarchy root of m.
func Hierarchies(m *maindb.Main) []*Node {
	rel := relations.Build(m)
	defer rel.Free()

	members := make(map[*types.ID][]*types.ID)
	var roots []*types.ID
	for _, id := range m.All() {
		if !id.IsOverrideLibraryReal() || id.Override.HierarchyRoot == nil {
			continue
		}
		hroot := id.Override.HierarchyRoot
		if hroot == id {
			roots = append(roots, id)
			continue
		}
		members[hroot] = append(members[hroot], id)
	}

	out := make([]*Node, 0, len(roots))
	for _, root := range roots {
		out = append(out, Hierarchy(rel, members[root], root))
	}
	return out
}

// FromReports converts a report list.
func FromReports(reports *types.ReportList) []ReportView {
	items := reports.Items()
	out := make([]ReportView, 0, len(items))
	for _, r := range items {
		out = append(out, ReportView{Severity: r.Severity.String(), Message: r.Message})
	}
	return out
}

// FromSummary converts a remap summary.
func FromSummary(s remap.Summary) *RemapView {
	v := &RemapView{
		Rewritten:       s.Rewritten,
		SkippedDirect:   s.SkippedDirect,
		SkippedIndirect: s.SkippedIndirect,
	}
	for _, owner := range s.Owners {
		v.Owners = append(v.Owners, owner.String())
	}
	return v
}
