package renderer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"schemacrawler/internal/schema"
)

// DataSection 一次查询的结果，对表执行时 Name 是表全名
type DataSection struct {
	Name    string     `json:"name" yaml:"name"`
	Message string     `json:"message,omitempty" yaml:"message,omitempty"`
	Columns []string   `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// DataReport count/dump/查询命令的输出
type DataReport struct {
	Title    string
	Catalog  *schema.Catalog
	Sections []DataSection
	Options  Options
}

// DataRenderer 查询结果渲染器
type DataRenderer interface {
	RenderData(w io.Writer, report *DataReport) error
}

var dataRenderers = map[string]func() DataRenderer{
	"text":     func() DataRenderer { return NewTextRenderer() },
	"csv":      func() DataRenderer { return NewCSVRenderer() },
	"markdown": func() DataRenderer { return NewMarkdownRenderer() },
	"html":     func() DataRenderer { return NewHTMLRenderer() },
	"json":     func() DataRenderer { return NewJSONRenderer() },
	"yaml":     func() DataRenderer { return NewYAMLRenderer() },
}

// NewDataRenderer 按格式名创建查询结果渲染器
func NewDataRenderer(format string) (DataRenderer, error) {
	if factory, ok := dataRenderers[NormalizeFormat(format)]; ok {
		return factory(), nil
	}
	return nil, fmt.Errorf("%w for query results: %q", ErrUnsupportedFormat, format)
}

// RenderData 文本格式：只有汇总信息的结果每个一行
func (r *TextRenderer) RenderData(w io.Writer, report *DataReport) error {
	bw := bufio.NewWriter(w)
	heading(bw, report.Options.title(report.Title), "=")
	if !report.Options.NoInfo && report.Catalog != nil {
		writeSystemInfo(bw, report.Catalog)
	}

	fmt.Fprintln(bw)
	summary := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
	for _, s := range report.Sections {
		if s.Columns == nil {
			fmt.Fprintf(summary, "%s\t%s\n", s.Name, s.Message)
		}
	}
	summary.Flush()

	for _, s := range report.Sections {
		if s.Columns == nil {
			continue
		}
		fmt.Fprintf(bw, "\n\n%s\n%s\n", s.Name, strings.Repeat("-", ruleWidth))
		tw := tabwriter.NewWriter(bw, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(s.Columns, "\t"))
		for _, row := range s.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
	}
	return bw.Flush()
}

// RenderData CSV 格式，每个结果前有一行名称
func (r *CSVRenderer) RenderData(w io.Writer, report *DataReport) error {
	cw := csv.NewWriter(w)
	for _, s := range report.Sections {
		if s.Columns == nil {
			cw.Write([]string{s.Name, s.Message})
			continue
		}
		cw.Write([]string{s.Name})
		cw.Write(s.Columns)
		cw.WriteAll(s.Rows)
	}
	cw.Flush()
	return cw.Error()
}

// RenderData Markdown 格式
func (m *MarkdownRenderer) RenderData(w io.Writer, report *DataReport) error {
	_, err := io.WriteString(w, m.RenderDataMarkdown(report))
	return err
}

// RenderDataMarkdown 渲染查询结果为 Markdown 字符串
func (m *MarkdownRenderer) RenderDataMarkdown(report *DataReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", mdEscape(report.Options.title(report.Title))))
	if !report.Options.NoInfo && report.Catalog != nil {
		m.renderInfo(&sb, report.Catalog)
	}
	for _, s := range report.Sections {
		sb.WriteString(fmt.Sprintf("## %s\n\n", mdEscape(s.Name)))
		if s.Columns == nil {
			sb.WriteString(mdEscape(s.Message) + "\n\n")
			continue
		}
		writeMarkdownRow(&sb, s.Columns)
		sb.WriteString("|" + strings.Repeat("---|", len(s.Columns)) + "\n")
		for _, row := range s.Rows {
			writeMarkdownRow(&sb, row)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderData HTML 格式
func (h *HTMLRenderer) RenderData(w io.Writer, report *DataReport) error {
	return h.page(w, report.Options.title(report.Title), h.markdown.RenderDataMarkdown(report))
}

type dataDocument struct {
	Title     string        `json:"title,omitempty" yaml:"title,omitempty"`
	CrawlInfo *crawlInfoDoc `json:"crawlInfo,omitempty" yaml:"crawlInfo,omitempty"`
	Results   []DataSection `json:"results" yaml:"results"`
}

func newDataDocument(report *DataReport) *dataDocument {
	doc := &dataDocument{Title: report.Options.title(report.Title), Results: report.Sections}
	if doc.Results == nil {
		doc.Results = []DataSection{}
	}
	if !report.Options.NoInfo && report.Catalog != nil {
		doc.CrawlInfo = newCrawlInfoDoc(report.Catalog.CrawlInfo)
	}
	return doc
}

// RenderData JSON 格式
func (r *JSONRenderer) RenderData(w io.Writer, report *DataReport) error {
	return writeJSON(w, newDataDocument(report))
}

// RenderData YAML 格式
func (r *YAMLRenderer) RenderData(w io.Writer, report *DataReport) error {
	return writeYAML(w, newDataDocument(report))
}
