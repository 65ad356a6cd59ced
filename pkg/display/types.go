// Package display renders ID databases, override hierarchies, reports and
// remap summaries for people (terminal and text) and for machines (JSON).
package display

// State is the role an ID plays with respect to library overrides.
type State string

const (
	StateLocal    State = "local"
	StateLinked   State = "linked"
	StateOverride State = "override"
	StateSystem   State = "system"
	StateTemplate State = "template"
	StateMissing  State = "missing"
	StateLeftover State = "leftover"
	StateEmbedded State = "embedded"
)

// IDView is the display form of one ID.
type IDView struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Library   string         `json:"library,omitempty"`
	Users     int            `json:"users"`
	FakeUser  bool           `json:"fake_user,omitempty"`
	State     State          `json:"state"`
	Reference string         `json:"reference,omitempty"`
	Root      string         `json:"hierarchy_root,omitempty"`
	Props     map[string]any `json:"props,omitempty"`

	Properties []PropertyView `json:"properties,omitempty"`
}

// Label is the name shown in lists and trees.
func (v IDView) Label() string {
	if v.Library != "" {
		return v.Type + v.Name + " [" + v.Library + "]"
	}
	return v.Type + v.Name
}

// PropertyView is one overridden property and its operations.
type PropertyView struct {
	Path       string          `json:"path"`
	Kind       string          `json:"kind"`
	Operations []OperationView `json:"operations"`
}

// OperationView is one override operation.
type OperationView struct {
	Kind           string `json:"kind"`
	RefName        string `json:"ref_name,omitempty"`
	LocalName      string `json:"local_name,omitempty"`
	RefIndex       int    `json:"ref_index"`
	LocalIndex     int    `json:"local_index"`
	MatchReference bool   `json:"match_reference,omitempty"`
}

// Node is one override in a hierarchy tree.
type Node struct {
	ID       IDView  `json:"id"`
	Children []*Node `json:"children,omitempty"`
}

// Size is the number of nodes in the tree rooted at n.
func (n *Node) Size() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}
	return total
}

// ReportView is one report entry.
type ReportView struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// RemapView summarizes a remap batch.
type RemapView struct {
	Rewritten       int      `json:"rewritten"`
	SkippedDirect   int      `json:"skipped_direct"`
	SkippedIndirect int      `json:"skipped_indirect"`
	Owners          []string `json:"owners,omitempty"`
}

// Result is everything one command has to show. Empty sections are not
// rendered.
type Result struct {
	Command     string       `json:"command"`
	Message     string       `json:"message,omitempty"`
	IDs         []IDView     `json:"ids,omitempty"`
	Hierarchies []*Node      `json:"hierarchies,omitempty"`
	Remap       *RemapView   `json:"remap,omitempty"`
	Reports     []ReportView `json:"reports,omitempty"`
}
