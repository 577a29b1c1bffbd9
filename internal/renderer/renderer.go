package renderer

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"schemacrawler/internal/analyzer"
	"schemacrawler/internal/crawl"
	"schemacrawler/internal/graph"
	"schemacrawler/internal/lint"
	"schemacrawler/internal/schema"
)

// ErrUnsupportedFormat 无法识别的输出格式
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Detail 报告详细程度，对应 list/brief/schema/details 命令
type Detail int

const (
	DetailList Detail = iota
	DetailBrief
	DetailSchema
	DetailDetails
)

// Options 格式开关，来自配置文件的 schemacrawler.format.* 属性
type Options struct {
	Title                string
	NoInfo               bool
	HideWeakAssociations bool
	ShowOrdinalNumbers   bool
	HideRemarks          bool
}

func (o Options) title(fallback string) string {
	if o.Title != "" {
		return o.Title
	}
	return fallback
}

// Report 一次 schema 报告的输入
type Report struct {
	Result  *crawl.Result
	Detail  Detail
	Options Options
}

// LintReport 一次 lint 报告的输入
type LintReport struct {
	Catalog   *schema.Catalog
	Collector *lint.Collector
	Options   Options
}

// SchemaRenderer schema 报告渲染器
type SchemaRenderer interface {
	RenderSchema(w io.Writer, report *Report) error
}

// LintRenderer lint 报告渲染器
type LintRenderer interface {
	RenderLints(w io.Writer, report *LintReport) error
}

var schemaRenderers = map[string]func() SchemaRenderer{
	"text":     func() SchemaRenderer { return NewTextRenderer() },
	"csv":      func() SchemaRenderer { return NewCSVRenderer() },
	"markdown": func() SchemaRenderer { return NewMarkdownRenderer() },
	"html":     func() SchemaRenderer { return NewHTMLRenderer() },
	"json":     func() SchemaRenderer { return NewJSONRenderer() },
	"yaml":     func() SchemaRenderer { return NewYAMLRenderer() },
	"mermaid":  func() SchemaRenderer { return NewMermaidRenderer() },
	"dot":      func() SchemaRenderer { return NewDotRenderer() },
}

var lintRenderers = map[string]func() LintRenderer{
	"text":     func() LintRenderer { return NewTextRenderer() },
	"csv":      func() LintRenderer { return NewCSVRenderer() },
	"markdown": func() LintRenderer { return NewMarkdownRenderer() },
	"html":     func() LintRenderer { return NewHTMLRenderer() },
	"json":     func() LintRenderer { return NewJSONRenderer() },
	"yaml":     func() LintRenderer { return NewYAMLRenderer() },
}

var formatAliases = map[string]string{
	"txt": "text",
	"md":  "markdown",
	"yml": "yaml",
	"gv":  "dot",
}

// NormalizeFormat 统一格式名和别名
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		return "text"
	}
	if alias, ok := formatAliases[f]; ok {
		return alias
	}
	return f
}

// NewSchemaRenderer 按格式名创建 schema 渲染器
func NewSchemaRenderer(format string) (SchemaRenderer, error) {
	if factory, ok := schemaRenderers[NormalizeFormat(format)]; ok {
		return factory(), nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, format, strings.Join(SchemaFormats(), ", "))
}

// NewLintRenderer 按格式名创建 lint 渲染器
func NewLintRenderer(format string) (LintRenderer, error) {
	if factory, ok := lintRenderers[NormalizeFormat(format)]; ok {
		return factory(), nil
	}
	return nil, fmt.Errorf("%w for lint reports: %q", ErrUnsupportedFormat, format)
}

// SchemaFormats 支持的 schema 报告格式
func SchemaFormats() []string {
	formats := make([]string, 0, len(schemaRenderers))
	for f := range schemaRenderers {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}

// typeName 列类型，带宽度
func typeName(c *schema.Column) string {
	return c.Type.Name + c.Width()
}

// columnFlags 列的附加说明
func columnFlags(c *schema.Column) []string {
	var flags []string
	if c.IsPartOfPrimaryKey() {
		flags = append(flags, "primary key")
	}
	if c.AutoIncrement {
		flags = append(flags, "auto-incremented")
	}
	if c.Generated {
		flags = append(flags, "generated")
	}
	if c.DefaultValue != "" {
		flags = append(flags, "default "+c.DefaultValue)
	}
	return flags
}

func nullability(c *schema.Column) string {
	if c.Nullable {
		return "null"
	}
	return "not null"
}

// relation 表的一条关系，外键或弱关联
type relation struct {
	Kind    string
	Name    string
	From    string
	To      string
	Columns []graph.ColumnPair
}

const (
	relationForeignKey = "foreign key"
	relationWeak       = "weak association"
)

// tableRelations 与表有关的外键和弱关联，外键在前，各自按引用方排序
//
// 弱关联取自按表建立的索引，不扫描全集。
func tableRelations(report *Report, t *schema.Table) []relation {
	fks := append([]*schema.ForeignKey(nil), t.ForeignKeys...)
	sort.SliceStable(fks, func(i, j int) bool {
		return foreignKeyID(fks[i]) < foreignKeyID(fks[j])
	})

	var relations []relation
	for _, fk := range fks {
		r := relation{
			Kind: relationForeignKey,
			Name: fk.Name,
			From: fk.ReferencingTable().FullName(),
			To:   fk.ReferencedTable().FullName(),
		}
		for _, ref := range fk.Columns {
			r.Columns = append(r.Columns, graph.ColumnPair{
				From: ref.ForeignKeyColumn.FullName(),
				To:   ref.PrimaryKeyColumn.FullName(),
			})
		}
		relations = append(relations, r)
	}
	if report.Options.HideWeakAssociations {
		return relations
	}
	for _, wa := range report.Result.WeakAssociations.ForTable(t) {
		relations = append(relations, relation{
			Kind: relationWeak,
			From: wa.ForeignKeyColumn.Table.FullName(),
			To:   wa.PrimaryKeyColumn.Table.FullName(),
			Columns: []graph.ColumnPair{{
				From: wa.ForeignKeyColumn.FullName(),
				To:   wa.PrimaryKeyColumn.FullName(),
			}},
		})
	}
	return relations
}

func foreignKeyID(fk *schema.ForeignKey) string {
	return fk.ReferencingTable().FullName() + "." + fk.Name
}

// reportGraph 报告用的关系图；弱关联被隐藏时不放进图里
func reportGraph(report *Report) *graph.SchemaGraph {
	var weak *analyzer.WeakAssociations
	if !report.Options.HideWeakAssociations {
		weak = report.Result.WeakAssociations
	}
	return graph.Build(report.Result.Catalog, weak)
}

func pairsString(pairs []graph.ColumnPair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.From+" --> "+p.To)
	}
	return strings.Join(parts, ", ")
}

func tableKind(t *schema.Table) string {
	if t.IsView() {
		return "view"
	}
	return "table"
}
