package renderer

import (
	"fmt"
	"io"
	"strings"

	"schemacrawler/internal/graph"
)

// DotRenderer Graphviz DOT 渲染器，图片格式由 graphviz 包再转换
type DotRenderer struct{}

// NewDotRenderer 创建渲染器
func NewDotRenderer() *DotRenderer {
	return &DotRenderer{}
}

// RenderSchema 渲染 schema 报告
func (d *DotRenderer) RenderSchema(w io.Writer, report *Report) error {
	_, err := io.WriteString(w, d.Render(report))
	return err
}

// Render 渲染为 DOT 源文本
func (d *DotRenderer) Render(report *Report) string {
	var sb strings.Builder
	sb.WriteString("digraph \"schema\" {\n")
	sb.WriteString("  graph [rankdir=\"RL\" fontname=\"Helvetica\" labeljust=\"l\"")
	if !report.Options.NoInfo {
		fmt.Fprintf(&sb, " label=%s", dotQuote(report.Options.title("Database Schema")))
	}
	sb.WriteString("];\n")
	sb.WriteString("  node [shape=none margin=0 fontname=\"Helvetica\" fontsize=10];\n")
	sb.WriteString("  edge [fontname=\"Helvetica\" fontsize=8 arrowhead=\"crow\" arrowtail=\"none\"];\n\n")

	for _, t := range report.Result.Catalog.Tables {
		fmt.Fprintf(&sb, "  %s [label=<\n", dotQuote(t.FullName()))
		sb.WriteString("    <table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n")
		header := "#dddddd"
		if t.IsView() {
			header = "#cccccc"
		}
		fmt.Fprintf(&sb, "      <tr><td bgcolor=\"%s\" colspan=\"2\"><b>%s</b></td></tr>\n", header, dotHTML(t.FullName()))
		if report.Detail > DetailList {
			for _, c := range t.Columns {
				name := dotHTML(c.Name)
				if c.IsPartOfPrimaryKey() {
					name = "<u>" + name + "</u>"
				}
				fmt.Fprintf(&sb, "      <tr><td align=\"left\" port=%s>%s</td><td align=\"left\">%s</td></tr>\n",
					dotQuote(c.Name), name, dotHTML(typeName(c)))
			}
		}
		sb.WriteString("    </table>\n  >];\n")
	}

	sb.WriteString("\n")
	for _, edge := range reportGraph(report).SortedEdges() {
		style := "solid"
		if edge.Type == graph.EdgeTypeWeakAssociation {
			style = "dashed"
		}
		from, to := dotQuote(edge.From), dotQuote(edge.To)
		if len(edge.Columns) == 1 {
			from += ":" + dotQuote(columnPart(edge.Columns[0].From))
			to += ":" + dotQuote(columnPart(edge.Columns[0].To))
		}
		fmt.Fprintf(&sb, "  %s -> %s [style=\"%s\"", from, to, style)
		if edge.Name != "" {
			fmt.Fprintf(&sb, " tooltip=%s", dotQuote(edge.Name))
		}
		sb.WriteString("];\n")
	}

	sb.WriteString("}\n")
	return sb.String()
}

// columnPart 列全名的最后一段
func columnPart(fullName string) string {
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

func dotQuote(s string) string {
	return "\"" + dotEscape(s) + "\""
}

func dotEscape(s string) string {
	return strings.ReplaceAll(s, "\"", "\\\"")
}

var dotHTMLEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\"", "&quot;")

func dotHTML(s string) string {
	return dotHTMLEscaper.Replace(s)
}
