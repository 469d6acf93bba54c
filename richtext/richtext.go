// Package richtext flattens markdown annotation content into plain
// drawable lines. Inline styling is dropped; block structure survives
// as line breaks and list bullets. Lossless rendering is not a goal:
// the compositor draws one text run per line.
package richtext

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// Lines converts markdown source into plain text lines. Plain text
// passes through unchanged, one line per input line.
func Lines(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	if src == "" {
		return nil
	}
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var lines []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if !entering {
				flush()
			}
		case *ast.ListItem:
			if entering {
				cur.WriteString("• ")
			}
		case *ast.Text:
			if entering {
				cur.Write(node.Segment.Value(source))
				if node.HardLineBreak() || node.SoftLineBreak() {
					flush()
				}
			}
		case *ast.CodeSpan:
			// Children are Text nodes; nothing extra to do.
		case *ast.FencedCodeBlock:
			if entering {
				for i := 0; i < node.Lines().Len(); i++ {
					seg := node.Lines().At(i)
					lines = append(lines, strings.TrimRight(string(seg.Value(source)), "\n"))
				}
			}
		case *ast.CodeBlock:
			if entering {
				for i := 0; i < node.Lines().Len(); i++ {
					seg := node.Lines().At(i)
					lines = append(lines, strings.TrimRight(string(seg.Value(source)), "\n"))
				}
			}
		case *ast.AutoLink:
			if entering {
				cur.Write(node.URL(source))
			}
		}
		return ast.WalkContinue, nil
	})
	flush()
	return lines
}
