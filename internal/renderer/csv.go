package renderer

import (
	"encoding/csv"
	"io"
	"strconv"
)

// CSVRenderer 每列一行；list 报告每表一行
type CSVRenderer struct{}

// NewCSVRenderer 创建渲染器
func NewCSVRenderer() *CSVRenderer {
	return &CSVRenderer{}
}

// RenderSchema 渲染 schema 报告
func (r *CSVRenderer) RenderSchema(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	catalog := report.Result.Catalog

	if report.Detail == DetailList {
		cw.Write([]string{"table", "type", "rows"})
		for _, t := range catalog.Tables {
			rows := ""
			if n, ok := report.Result.RowCount(t); ok {
				rows = strconv.FormatInt(n, 10)
			}
			cw.Write([]string{t.FullName(), tableKind(t), rows})
		}
		cw.Flush()
		return cw.Error()
	}

	cw.Write([]string{"table", "type", "column", "ordinal", "data type", "size", "decimals",
		"nullable", "primary key", "auto incremented", "default", "remarks"})
	for _, t := range catalog.Tables {
		for _, c := range t.Columns {
			remarks := c.Remarks
			if report.Options.HideRemarks {
				remarks = ""
			}
			cw.Write([]string{
				t.FullName(),
				tableKind(t),
				c.Name,
				strconv.Itoa(c.Ordinal),
				c.Type.Name,
				strconv.Itoa(c.Size),
				strconv.Itoa(c.Decimals),
				strconv.FormatBool(c.Nullable),
				strconv.FormatBool(c.IsPartOfPrimaryKey()),
				strconv.FormatBool(c.AutoIncrement),
				c.DefaultValue,
				remarks,
			})
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderLints 渲染 lint 报告
func (r *CSVRenderer) RenderLints(w io.Writer, report *LintReport) error {
	cw := csv.NewWriter(w)
	cw.Write([]string{"object", "linter", "severity", "message", "value"})
	for _, l := range report.Collector.All() {
		cw.Write([]string{l.ObjectName, l.LinterID, l.Severity.String(), l.Message, l.ValueString()})
	}
	cw.Flush()
	return cw.Error()
}
