package renderer

import (
	"fmt"
	"io"
	"strings"

	"schemacrawler/internal/schema"
)

// MarkdownRenderer Markdown 数据字典渲染器，每个对象一张表格
type MarkdownRenderer struct{}

// NewMarkdownRenderer 创建渲染器
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// RenderSchema 渲染为 Markdown 格式
func (m *MarkdownRenderer) RenderSchema(w io.Writer, report *Report) error {
	_, err := io.WriteString(w, m.Render(report))
	return err
}

// Render 渲染为 Markdown 字符串，HTML 渲染器也用它
func (m *MarkdownRenderer) Render(report *Report) string {
	var sb strings.Builder
	catalog := report.Result.Catalog
	opts := report.Options

	sb.WriteString(fmt.Sprintf("# %s\n\n", mdEscape(opts.title("Database Schema"))))
	if !opts.NoInfo {
		m.renderInfo(&sb, catalog)
	}

	sb.WriteString("## Tables\n\n")
	if report.Detail == DetailList {
		sb.WriteString("| Table | Type | Rows |\n")
		sb.WriteString("|-------|------|------|\n")
		for _, t := range catalog.Tables {
			rows := ""
			if n, ok := report.Result.RowCount(t); ok {
				rows = fmt.Sprint(n)
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", mdEscape(t.FullName()), tableKind(t), rows))
		}
		sb.WriteString("\n")
		return sb.String()
	}

	for _, t := range catalog.Tables {
		sb.WriteString(fmt.Sprintf("### %s\n\n", mdEscape(t.FullName())))
		if t.IsView() {
			sb.WriteString("*view*\n\n")
		}
		if report.Detail >= DetailDetails && !opts.HideRemarks && t.Remarks != "" {
			sb.WriteString(mdEscape(t.Remarks) + "\n\n")
		}

		m.renderColumns(&sb, t, report)

		if report.Detail < DetailSchema {
			continue
		}
		if t.PrimaryKey != nil {
			sb.WriteString(fmt.Sprintf("**Primary key** `%s`: %s\n\n",
				t.PrimaryKey.Name, strings.Join(t.PrimaryKey.ColumnNames(), ", ")))
		}
		m.renderTableRelations(&sb, tableRelations(report, t))
		if len(t.Indexes) > 0 {
			sb.WriteString("#### Indexes\n\n")
			sb.WriteString("| Index | Unique | Columns |\n")
			sb.WriteString("|-------|--------|---------|\n")
			for _, idx := range t.Indexes {
				unique := ""
				if idx.Unique {
					unique = "✓"
				}
				sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", mdEscape(idx.Name), unique, mdEscape(strings.Join(idx.ColumnNames(), ", "))))
			}
			sb.WriteString("\n")
		}

		if report.Detail < DetailDetails {
			continue
		}
		m.renderDetails(&sb, t, report)
	}

	if report.Detail >= DetailDetails && len(catalog.Routines) > 0 {
		sb.WriteString("## Routines\n\n")
		for _, rt := range catalog.Routines {
			m.renderRoutine(&sb, rt)
		}
	}
	return sb.String()
}

func (m *MarkdownRenderer) renderInfo(sb *strings.Builder, catalog *schema.Catalog) {
	info := catalog.CrawlInfo
	sb.WriteString("## System Information\n\n")
	sb.WriteString(fmt.Sprintf("- generated by: SchemaCrawler %s\n", info.ToolVersion))
	if info.RunID != "" {
		sb.WriteString(fmt.Sprintf("- run id: `%s`\n", info.RunID))
	}
	sb.WriteString(fmt.Sprintf("- database product: %s %s\n",
		mdEscape(catalog.DatabaseInfo.ProductName), mdEscape(catalog.DatabaseInfo.ProductVersion)))
	sb.WriteString(fmt.Sprintf("- driver: %s\n\n", catalog.DriverInfo.DriverName))
}

func (m *MarkdownRenderer) renderColumns(sb *strings.Builder, t *schema.Table, report *Report) {
	if len(t.Columns) == 0 {
		return
	}
	withOrdinal := report.Options.ShowOrdinalNumbers
	withRemarks := report.Detail >= DetailDetails && !report.Options.HideRemarks

	header := []string{"Column", "Type", "Nullable"}
	if withOrdinal {
		header = append([]string{"#"}, header...)
	}
	if report.Detail >= DetailSchema {
		header = append(header, "Notes")
	}
	if withRemarks {
		header = append(header, "Remarks")
	}
	writeMarkdownRow(sb, header)
	sep := make([]string, len(header))
	for i, h := range header {
		sep[i] = strings.Repeat("-", len(h)+2)
	}
	sb.WriteString("|" + strings.Join(sep, "|") + "|\n")

	for _, c := range t.Columns {
		row := []string{c.Name, typeName(c), nullability(c)}
		if withOrdinal {
			row = append([]string{fmt.Sprint(c.Ordinal)}, row...)
		}
		if report.Detail >= DetailSchema {
			row = append(row, strings.Join(columnFlags(c), ", "))
		}
		if withRemarks {
			row = append(row, c.Remarks)
		}
		writeMarkdownRow(sb, row)
	}
	sb.WriteString("\n")
}

// renderTableRelations 渲染表关系
func (m *MarkdownRenderer) renderTableRelations(sb *strings.Builder, relations []relation) {
	if len(relations) == 0 {
		return
	}

	sb.WriteString("#### Relationships\n\n")
	for _, rel := range relations {
		label := "Foreign key"
		if rel.Kind == relationWeak {
			label = "Weak association"
		}
		name := ""
		if rel.Name != "" {
			name = " `" + rel.Name + "`"
		}
		for _, p := range rel.Columns {
			sb.WriteString(fmt.Sprintf("- **%s**%s `%s` → `%s`\n", label, name, p.From, p.To))
		}
	}
	sb.WriteString("\n")
}

func (m *MarkdownRenderer) renderDetails(sb *strings.Builder, t *schema.Table, report *Report) {
	if len(t.Triggers) > 0 {
		sb.WriteString("#### Triggers\n\n")
		for _, tr := range t.Triggers {
			sb.WriteString(fmt.Sprintf("- `%s` %s %s\n", tr.Name, strings.ToLower(tr.Timing), strings.ToLower(tr.Event)))
		}
		sb.WriteString("\n")
	}
	if len(t.CheckConstraints) > 0 {
		sb.WriteString("#### Check Constraints\n\n")
		for _, cc := range t.CheckConstraints {
			sb.WriteString(fmt.Sprintf("- `%s`: `%s`\n", cc.Name, cc.Expression))
		}
		sb.WriteString("\n")
	}
	if t.Definition != "" {
		sb.WriteString("#### Definition\n\n```sql\n" + t.Definition + "\n```\n\n")
	}
	if n, ok := report.Result.RowCount(t); ok {
		sb.WriteString(fmt.Sprintf("%d rows\n\n", n))
	}
}

func (m *MarkdownRenderer) renderRoutine(sb *strings.Builder, rt *schema.Routine) {
	sb.WriteString(fmt.Sprintf("### %s\n\n*%s*", mdEscape(rt.FullName()), rt.Type))
	if rt.ReturnType != "" {
		sb.WriteString(fmt.Sprintf(" returns `%s`", rt.ReturnType))
	}
	sb.WriteString("\n\n")
	if len(rt.Parameters) > 0 {
		sb.WriteString("| Parameter | Type | Mode |\n")
		sb.WriteString("|-----------|------|------|\n")
		for _, p := range rt.Parameters {
			writeMarkdownRow(sb, []string{p.Name, p.Type.Name, strings.ToLower(p.Mode)})
		}
		sb.WriteString("\n")
	}
}

// RenderLints 渲染 lint 报告
func (m *MarkdownRenderer) RenderLints(w io.Writer, report *LintReport) error {
	_, err := io.WriteString(w, m.RenderLintMarkdown(report))
	return err
}

// RenderLintMarkdown 渲染 lint 报告为 Markdown 字符串
func (m *MarkdownRenderer) RenderLintMarkdown(report *LintReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", mdEscape(report.Options.title("Lints"))))
	if !report.Options.NoInfo && report.Catalog != nil {
		m.renderInfo(&sb, report.Catalog)
	}
	for _, group := range groupLints(report.Collector) {
		sb.WriteString(fmt.Sprintf("## %s\n\n", mdEscape(group.object)))
		sb.WriteString("| Severity | Lint | Value |\n")
		sb.WriteString("|----------|------|-------|\n")
		for _, l := range group.lints {
			writeMarkdownRow(&sb, []string{l.Severity.String(), l.Message, l.ValueString()})
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("%d lints\n", report.Collector.Len()))
	return sb.String()
}

func writeMarkdownRow(sb *strings.Builder, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = mdEscape(c)
	}
	sb.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
