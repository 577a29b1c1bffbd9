package renderer

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

//go:embed style.css
var stylesheet string

// HTMLRenderer 先生成 Markdown，再用 goldmark 转成 HTML 页面
type HTMLRenderer struct {
	markdown *MarkdownRenderer
	md       goldmark.Markdown
}

// NewHTMLRenderer 创建渲染器
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		markdown: NewMarkdownRenderer(),
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// RenderSchema 渲染 schema 报告
func (h *HTMLRenderer) RenderSchema(w io.Writer, report *Report) error {
	return h.page(w, report.Options.title("Database Schema"), h.markdown.Render(report))
}

// RenderLints 渲染 lint 报告
func (h *HTMLRenderer) RenderLints(w io.Writer, report *LintReport) error {
	return h.page(w, report.Options.title("Lints"), h.markdown.RenderLintMarkdown(report))
}

func (h *HTMLRenderer) page(w io.Writer, title, markdown string) error {
	var body bytes.Buffer
	if err := h.md.Convert([]byte(markdown), &body); err != nil {
		return fmt.Errorf("converting markdown to html: %w", err)
	}
	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
%s</style>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(title), stylesheet, body.String())
	return err
}
