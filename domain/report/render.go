package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToMarkdown renders the report as a markdown document for export.
func ToMarkdown(d Data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Title)
	fmt.Fprintf(&b, "*%s*\n\n", strings.Join(d.Authors, ", "))
	fmt.Fprintf(&b, "Generated: %s\n\n", d.CreatedAt.String())

	sections := []struct {
		heading string
		body    string
	}{
		{"Abstract", d.Sections.Abstract},
		{"Methods", d.Sections.Methods},
		{"Cohort", d.Sections.Cohort},
		{"Results", d.Sections.Results},
		{"Discussion", d.Sections.Discussion},
	}
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.heading, s.body)
	}

	b.WriteString("## References\n\n")
	for i, ref := range d.References {
		fmt.Fprintf(&b, "%d. %s\n", i+1, ref)
	}
	return b.String()
}

// ToHTML renders the report to an HTML fragment via the markdown form.
func ToHTML(d Data) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(ToMarkdown(d)), p, renderer)
}
