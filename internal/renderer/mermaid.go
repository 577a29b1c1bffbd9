package renderer

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"schemacrawler/internal/graph"
)

// MermaidRenderer Mermaid ER 图渲染器
type MermaidRenderer struct{}

// NewMermaidRenderer 创建渲染器
func NewMermaidRenderer() *MermaidRenderer {
	return &MermaidRenderer{}
}

// RenderSchema 渲染 schema 报告
func (m *MermaidRenderer) RenderSchema(w io.Writer, report *Report) error {
	_, err := io.WriteString(w, m.Render(report))
	return err
}

// Render 渲染为 Mermaid 格式
func (m *MermaidRenderer) Render(report *Report) string {
	var sb strings.Builder
	sb.WriteString("erDiagram\n")

	// 表节点
	for _, t := range report.Result.Catalog.Tables {
		sb.WriteString(fmt.Sprintf("    %s {\n", mermaidID(t.FullName())))
		if report.Detail > DetailList {
			for _, c := range t.Columns {
				key := ""
				switch {
				case c.IsPartOfPrimaryKey():
					key = " PK"
				case c.IsPartOfForeignKey():
					key = " FK"
				}
				sb.WriteString(fmt.Sprintf("        %s %s%s\n", mermaidID(c.Type.Name), mermaidID(c.Name), key))
			}
		}
		sb.WriteString("    }\n")
	}

	sb.WriteString("\n")

	// 关系，虚线表示推断出的弱关联
	for _, edge := range reportGraph(report).SortedEdges() {
		relType := "||--o{"
		label := edge.Name
		if edge.Type == graph.EdgeTypeWeakAssociation {
			relType = "||..o{"
			label = "weak association"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s : %q\n",
			mermaidID(edge.To), relType, mermaidID(edge.From), label))
	}

	return sb.String()
}

var mermaidUnsafe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// mermaidID Mermaid 标识符只允许字母数字和下划线
func mermaidID(name string) string {
	id := mermaidUnsafe.ReplaceAllString(name, "_")
	if id == "" {
		return "_"
	}
	return id
}
