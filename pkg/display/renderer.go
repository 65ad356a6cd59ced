package display

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Renderer writes a command result.
type Renderer interface {
	Render(result *Result) error
}

// New returns the renderer for format, writing to w. FormatAuto must be
// resolved by the caller.
func New(format Format, w io.Writer) Renderer {
	switch format {
	case FormatJSON:
		return NewJSONRenderer(w)
	case FormatTerminal:
		return NewRichRenderer(w)
	default:
		return NewTextRenderer(w)
	}
}

// RichRenderer draws hierarchies as trees and colors IDs by state.
type RichRenderer struct {
	writer    io.Writer
	nameWidth int
}

// NewRichRenderer creates a new rich terminal renderer
func NewRichRenderer(w io.Writer) *RichRenderer {
	return &RichRenderer{writer: w, nameWidth: 24}
}

func (r *RichRenderer) Render(result *Result) error {
	if result == nil {
		return nil
	}
	out, err := r.Sprint(result)
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.writer, out)
	return err
}

// Sprint renders result to a string.
func (r *RichRenderer) Sprint(result *Result) (string, error) {
	var sections []string

	header := result.Command
	if len(header) > 0 {
		header = strings.ToUpper(header[:1]) + header[1:]
	}
	if header != "" {
		sections = append(sections, TitleStyle.Render(header))
	}
	if result.Message != "" {
		sections = append(sections, result.Message)
	}
	if len(result.IDs) > 0 {
		sections = append(sections, r.renderIDs(result.IDs))
	}
	for _, tree := range result.Hierarchies {
		s, err := r.RenderHierarchy(tree)
		if err != nil {
			return "", err
		}
		sections = append(sections, s)
	}
	if result.Remap != nil {
		sections = append(sections, r.RenderRemap(*result.Remap))
	}
	if len(result.Reports) > 0 {
		sections = append(sections, r.RenderReports(result.Reports))
	}
	return strings.Join(sections, "\n\n") + "\n", nil
}

func (r *RichRenderer) renderIDs(ids []IDView) string {
	var lines []string
	for _, v := range ids {
		lines = append(lines, r.RenderID(v))
	}
	return strings.Join(lines, "\n")
}

// RenderID renders one ID on a line, followed by its overridden
// properties when present.
func (r *RichRenderer) RenderID(v IDView) string {
	name := StateStyle(v.State).Render(padRight(v.Label(), r.nameWidth))
	line := fmt.Sprintf("%s : %-8s : %d users", name, v.State, v.Users)
	if v.FakeUser {
		line += " (fake)"
	}
	if v.Reference != "" {
		line += MutedStyle.Render(" -> " + v.Reference)
	}
	var out strings.Builder
	out.WriteString(line)
	for _, p := range v.Properties {
		out.WriteString("\n")
		out.WriteString(Indent(PathStyle.Render(p.Path)+MutedStyle.Render(" ("+p.Kind+")"), 1))
		for _, op := range p.Operations {
			out.WriteString("\n")
			out.WriteString(Indent(operationLabel(op), 2))
		}
	}
	return out.String()
}

// RenderHierarchy draws one override hierarchy as a tree.
func (r *RichRenderer) RenderHierarchy(tree *Node) (string, error) {
	if tree == nil {
		return "", nil
	}
	return pterm.DefaultTree.WithRoot(treeNode(tree)).Srender()
}

func treeNode(n *Node) pterm.TreeNode {
	tn := pterm.TreeNode{Text: StateStyle(n.ID.State).Render(n.ID.Label())}
	for _, c := range n.Children {
		tn.Children = append(tn.Children, treeNode(c))
	}
	return tn
}

// RenderRemap renders a remap summary.
func (r *RichRenderer) RenderRemap(v RemapView) string {
	stats := []string{
		fmt.Sprintf("Rewritten: %d", v.Rewritten),
		fmt.Sprintf("Skipped: %d direct, %d indirect", v.SkippedDirect, v.SkippedIndirect),
	}
	if len(v.Owners) > 0 {
		owners := append([]string(nil), v.Owners...)
		sort.Strings(owners)
		stats = append(stats, "Owners: "+strings.Join(owners, ", "))
	}
	return BoxStyle.Render(TitleStyle.Render("Remap") + "\n" + strings.Join(stats, "\n"))
}

// RenderReports renders reports, one per line, prefixed by severity.
func (r *RichRenderer) RenderReports(reports []ReportView) string {
	var lines []string
	for _, rep := range reports {
		prefix := SeverityStyle(rep.Severity).Sprint(" " + strings.ToUpper(rep.Severity) + " ")
		lines = append(lines, prefix+" "+rep.Message)
	}
	return strings.Join(lines, "\n")
}

func operationLabel(op OperationView) string {
	label := op.Kind
	switch {
	case op.RefName != "" || op.LocalName != "":
		label += fmt.Sprintf(" [%q -> %q]", op.RefName, op.LocalName)
	case op.RefIndex >= 0 || op.LocalIndex >= 0:
		label += fmt.Sprintf(" [%d -> %d]", op.RefIndex, op.LocalIndex)
	}
	if op.MatchReference {
		label += " (match reference)"
	}
	return label
}

// padRight pads a string to the specified width, measuring display cells
func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
