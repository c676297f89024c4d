package summarize

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// RequiredSections are the second-level headings every markdown summary carries.
var RequiredSections = []string{"TL;DR", "Key Points", "Chapters", "Notable Quotes", "Action Items"}

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(htmlrenderer.WithXHTML()),
)

// MissingSections returns the RequiredSections absent from markdown, in order.
// Heading comparison ignores case and surrounding whitespace.
func MissingSections(markdown string) []string {
	source := []byte(markdown)
	doc := markdownEngine.Parser().Parse(text.NewReader(source))
	present := make(map[string]bool)
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level == 2 {
			present[normalizeHeading(inlineText(heading, source))] = true
		}
		return ast.WalkSkipChildren, nil
	})
	var missing []string
	for _, section := range RequiredSections {
		if !present[normalizeHeading(section)] {
			missing = append(missing, section)
		}
	}
	return missing
}

func inlineText(node ast.Node, source []byte) string {
	var b strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(source))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(n.Value)
		default:
			b.WriteString(inlineText(child, source))
		}
	}
	return b.String()
}

func normalizeHeading(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

const htmlDocumentTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8" />
<title>%s</title>
</head>
<body>
<article>
%s</article>
</body>
</html>
`

// RenderHTML converts a markdown summary into a standalone HTML page.
func RenderHTML(title, markdown string) (string, error) {
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(strings.TrimSpace(markdown)), &out); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	if strings.TrimSpace(title) == "" {
		title = "Summary"
	}
	return fmt.Sprintf(htmlDocumentTemplate, template.HTMLEscapeString(title), out.String()), nil
}
