package renderer

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"schemacrawler/internal/lint"
	"schemacrawler/internal/schema"
)

const ruleWidth = 72

// TextRenderer 纯文本报告
type TextRenderer struct{}

// NewTextRenderer 创建渲染器
func NewTextRenderer() *TextRenderer {
	return &TextRenderer{}
}

// RenderSchema 渲染 schema 报告
func (r *TextRenderer) RenderSchema(w io.Writer, report *Report) error {
	bw := bufio.NewWriter(w)
	catalog := report.Result.Catalog
	opts := report.Options

	heading(bw, opts.title("Database Schema"), "=")
	if !opts.NoInfo {
		writeSystemInfo(bw, catalog)
	}

	if report.Detail == DetailList {
		r.writeList(bw, report)
		return bw.Flush()
	}

	heading(bw, "Tables", "=")
	for _, t := range catalog.Tables {
		fmt.Fprintf(bw, "\n\n%-*s[%s]\n", ruleWidth-len(tableKind(t))-2, t.FullName(), tableKind(t))
		fmt.Fprintln(bw, strings.Repeat("-", ruleWidth))
		if report.Detail >= DetailDetails && !opts.HideRemarks && t.Remarks != "" {
			fmt.Fprintln(bw, t.Remarks)
		}

		tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
		for _, c := range t.Columns {
			name := c.Name
			if opts.ShowOrdinalNumbers {
				name = fmt.Sprintf("%d. %s", c.Ordinal, name)
			}
			line := "  " + name + "\t" + typeName(c) + "\t" + nullability(c)
			if report.Detail >= DetailSchema {
				line += "\t" + strings.Join(columnFlags(c), ", ")
			}
			if report.Detail >= DetailDetails && !opts.HideRemarks && c.Remarks != "" {
				line += "\t" + c.Remarks
			}
			fmt.Fprintln(tw, line)
		}
		tw.Flush()

		if report.Detail < DetailSchema {
			continue
		}
		if t.PrimaryKey != nil {
			fmt.Fprintf(bw, "\nPrimary Key\n\n%s\n  %s\n", t.PrimaryKey.Name, strings.Join(t.PrimaryKey.ColumnNames(), ", "))
		}
		relations := tableRelations(report, t)
		writeTextRelations(bw, "Foreign Keys", relationForeignKey, relations)
		writeTextRelations(bw, "Weak Associations", relationWeak, relations)
		if len(t.Indexes) > 0 {
			fmt.Fprint(bw, "\nIndexes\n\n")
			for _, idx := range t.Indexes {
				kind := "non-unique index"
				if idx.Unique {
					kind = "unique index"
				}
				fmt.Fprintf(bw, "%s  [%s]\n  %s\n", idx.Name, kind, strings.Join(idx.ColumnNames(), ", "))
			}
		}

		if report.Detail < DetailDetails {
			continue
		}
		if len(t.Triggers) > 0 {
			fmt.Fprint(bw, "\nTriggers\n\n")
			for _, tr := range t.Triggers {
				fmt.Fprintf(bw, "%s  [trigger, %s %s]\n  %s\n", tr.Name, strings.ToLower(tr.Timing), strings.ToLower(tr.Event), tr.Action)
			}
		}
		if len(t.CheckConstraints) > 0 {
			fmt.Fprint(bw, "\nTable Constraints\n\n")
			for _, cc := range t.CheckConstraints {
				fmt.Fprintf(bw, "%s  [check constraint]\n  %s\n", cc.Name, cc.Expression)
			}
		}
		if t.Definition != "" {
			fmt.Fprintf(bw, "\nDefinition\n\n%s\n", t.Definition)
		}
		if n, ok := report.Result.RowCount(t); ok {
			fmt.Fprintf(bw, "\n%d rows\n", n)
		}
	}

	if report.Detail >= DetailDetails && len(catalog.Routines) > 0 {
		heading(bw, "Routines", "=")
		for _, rt := range catalog.Routines {
			fmt.Fprintf(bw, "\n\n%-*s[%s]\n", ruleWidth-len(rt.Type)-2, rt.FullName(), rt.Type)
			fmt.Fprintln(bw, strings.Repeat("-", ruleWidth))
			if rt.ReturnType != "" {
				fmt.Fprintf(bw, "  returns %s\n", rt.ReturnType)
			}
			tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
			for _, p := range rt.Parameters {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Name, p.Type.Name, strings.ToLower(p.Mode))
			}
			tw.Flush()
			if rt.Definition != "" {
				fmt.Fprintf(bw, "\nDefinition\n\n%s\n", rt.Definition)
			}
		}
	}
	return bw.Flush()
}

func (r *TextRenderer) writeList(w io.Writer, report *Report) {
	heading(w, "Tables", "=")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range report.Result.Catalog.Tables {
		line := t.FullName() + "\t[" + tableKind(t) + "]"
		if n, ok := report.Result.RowCount(t); ok {
			line += fmt.Sprintf("\t%d rows", n)
		}
		fmt.Fprintln(tw, line)
	}
	tw.Flush()
	if routines := report.Result.Catalog.Routines; len(routines) > 0 {
		heading(w, "Routines", "=")
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, rt := range routines {
			fmt.Fprintf(tw, "%s\t[%s]\n", rt.FullName(), rt.Type)
		}
		tw.Flush()
	}
}

func writeTextRelations(w io.Writer, title, kind string, relations []relation) {
	first := true
	for _, rel := range relations {
		if rel.Kind != kind {
			continue
		}
		if first {
			fmt.Fprintf(w, "\n%s\n\n", title)
			first = false
		}
		name := rel.Name
		if name == "" {
			name = rel.From + " --> " + rel.To
		}
		fmt.Fprintf(w, "%s  [%s]\n", name, rel.Kind)
		for _, p := range rel.Columns {
			fmt.Fprintf(w, "  %s --> %s\n", p.From, p.To)
		}
	}
}

func heading(w io.Writer, title, underline string) {
	fmt.Fprintf(w, "\n\n%s\n%s\n", title, strings.Repeat(underline, len(title)))
}

func writeSystemInfo(w io.Writer, catalog *schema.Catalog) {
	heading(w, "System Information", "=")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	info := catalog.CrawlInfo
	fmt.Fprintf(tw, "generated by\tSchemaCrawler %s\n", info.ToolVersion)
	if !info.CrawlTimestamp.IsZero() {
		fmt.Fprintf(tw, "generated on\t%s\n", info.CrawlTimestamp.Format(time.RFC3339))
	}
	if info.RunID != "" {
		fmt.Fprintf(tw, "run id\t%s\n", info.RunID)
	}
	fmt.Fprintf(tw, "database product\t%s %s\n", catalog.DatabaseInfo.ProductName, catalog.DatabaseInfo.ProductVersion)
	fmt.Fprintf(tw, "driver\t%s (%s)\n", catalog.DriverInfo.DriverName, catalog.DriverInfo.DriverPath)
	tw.Flush()
}

// RenderLints 渲染 lint 报告，按对象分组
func (r *TextRenderer) RenderLints(w io.Writer, report *LintReport) error {
	bw := bufio.NewWriter(w)
	heading(bw, report.Options.title("Lints"), "=")
	if !report.Options.NoInfo && report.Catalog != nil {
		writeSystemInfo(bw, report.Catalog)
	}

	for _, group := range groupLints(report.Collector) {
		fmt.Fprintf(bw, "\n\n%s\n", group.object)
		tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
		for _, l := range group.lints {
			fmt.Fprintf(tw, "  [%s]\t%s\t%s\n", l.Severity, l.Message, l.ValueString())
		}
		tw.Flush()
	}

	counts := report.Collector.CountBySeverity()
	fmt.Fprintf(bw, "\n\n%d lints: %d critical, %d high, %d medium, %d low\n",
		report.Collector.Len(),
		counts[lint.SeverityCritical], counts[lint.SeverityHigh],
		counts[lint.SeverityMedium], counts[lint.SeverityLow])
	return bw.Flush()
}

type lintGroup struct {
	object string
	lints  []lint.Lint
}

// groupLints 数据库级的 lint 在前，其余按对象名分组
func groupLints(c *lint.Collector) []lintGroup {
	var groups []lintGroup
	if db := c.Database(); len(db) > 0 {
		groups = append(groups, lintGroup{object: lint.DatabaseObjectName, lints: db})
	}
	for _, l := range c.All() {
		if l.ObjectType == lint.ObjectTypeDatabase {
			continue
		}
		if n := len(groups); n > 0 && groups[n-1].object == l.ObjectName {
			groups[n-1].lints = append(groups[n-1].lints, l)
			continue
		}
		groups = append(groups, lintGroup{object: l.ObjectName, lints: []lint.Lint{l}})
	}
	return groups
}
