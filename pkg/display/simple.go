package display

import (
	"fmt"
	"io"
	"strings"
)

// TextRenderer provides minimal text output, stable enough for scripts
// and golden tests.
type TextRenderer struct {
	writer io.Writer
}

// NewTextRenderer creates a new text renderer
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{writer: w}
}

func (r *TextRenderer) Render(result *Result) error {
	if result == nil {
		return nil
	}
	var out strings.Builder
	if result.Command != "" {
		out.WriteString(result.Command + "\n")
	}
	if result.Message != "" {
		out.WriteString(result.Message + "\n")
	}

	for _, v := range result.IDs {
		fmt.Fprintf(&out, "    %s %s users=%d", v.Label(), v.State, v.Users)
		if v.Reference != "" {
			fmt.Fprintf(&out, " ref=%s", v.Reference)
		}
		out.WriteString("\n")
		for _, p := range v.Properties {
			fmt.Fprintf(&out, "        %s (%s)\n", p.Path, p.Kind)
			for _, op := range p.Operations {
				fmt.Fprintf(&out, "            %s\n", operationLabel(op))
			}
		}
	}

	for _, tree := range result.Hierarchies {
		writeTree(&out, tree, 1)
	}

	if v := result.Remap; v != nil {
		fmt.Fprintf(&out, "remap: rewritten=%d skipped_direct=%d skipped_indirect=%d\n",
			v.Rewritten, v.SkippedDirect, v.SkippedIndirect)
	}

	for _, rep := range result.Reports {
		fmt.Fprintf(&out, "%s: %s\n", rep.Severity, rep.Message)
	}

	_, err := io.WriteString(r.writer, out.String())
	return err
}

func writeTree(out *strings.Builder, n *Node, level int) {
	fmt.Fprintf(out, "%s%s (%s)\n", strings.Repeat("    ", level), n.ID.Label(), n.ID.State)
	for _, c := range n.Children {
		writeTree(out, c, level+1)
	}
}
