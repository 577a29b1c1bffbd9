package command

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"schemacrawler/internal/renderer"
	"schemacrawler/internal/schema"
)

// Operation 对每张表执行的内置查询
type Operation struct {
	Name  string
	Title string
	Query string
	// Aggregate 结果只取第一行第一列作为计数
	Aggregate bool
}

// Operations 内置操作
var Operations = []*Operation{
	{Name: "count", Title: "Row Count", Query: "SELECT COUNT(*) FROM ${table}", Aggregate: true},
	{Name: "dump", Title: "Dump", Query: "SELECT ${columns} FROM ${table} ORDER BY ${orderbycolumns}"},
	{Name: "quickdump", Title: "Quick Dump", Query: "SELECT ${columns} FROM ${table}"},
}

// Execute 执行操作
func (o *Operation) Execute(ctx context.Context, c *Context) error {
	q := &QueryCommand{Name: o.Name, Title: o.Title, Query: o.Query, aggregate: o.Aggregate}
	return q.Execute(ctx, c)
}

// QueryCommand 命名查询；包含 ${table} 时对每张表执行一次
type QueryCommand struct {
	Name      string
	Title     string
	Query     string
	aggregate bool
}

// IsQueryOver 是否对每张表执行
func (q *QueryCommand) IsQueryOver() bool {
	for _, m := range templateVariable.FindAllStringSubmatch(q.Query, -1) {
		if m[1] == "table" {
			return true
		}
	}
	return false
}

// Execute 执行查询并输出结果
func (q *QueryCommand) Execute(ctx context.Context, c *Context) error {
	if c.Adapter == nil {
		return fmt.Errorf("%w: %s", ErrNoConnection, q.Name)
	}
	dr, err := renderer.NewDataRenderer(c.Output.Format)
	if err != nil {
		return err
	}

	report := &renderer.DataReport{Title: q.Title, Options: c.Format}
	if report.Title == "" {
		report.Title = q.Name
	}
	if c.Result != nil {
		report.Catalog = c.Result.Catalog
	}

	if q.IsQueryOver() {
		if c.Result == nil {
			return fmt.Errorf("query %s runs against tables, but no tables were crawled", q.Name)
		}
		for _, t := range c.Result.Catalog.Tables {
			sqlText := expandTemplate(q.Query, tableVariables(c, t))
			section, err := q.run(ctx, c.Adapter.DB(), t.FullName(), sqlText)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger().Warn("bad operation for table", zap.String("table", t.FullName()), zap.Error(err))
				continue
			}
			report.Sections = append(report.Sections, section)
		}
	} else {
		section, err := q.run(ctx, c.Adapter.DB(), q.Name, expandTemplate(q.Query, nil))
		if err != nil {
			return err
		}
		report.Sections = append(report.Sections, section)
	}

	return c.write(func(w io.Writer) error {
		return dr.RenderData(w, report)
	})
}

func (q *QueryCommand) run(ctx context.Context, db *sql.DB, name, sqlText string) (renderer.DataSection, error) {
	section := renderer.DataSection{Name: name}
	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return section, fmt.Errorf("running query %s: %w", q.Name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return section, err
	}

	if q.aggregate {
		var count int64
		if rows.Next() {
			if err := rows.Scan(&count); err != nil {
				return section, err
			}
		}
		section.Message = countMessage(count)
		return section, rows.Err()
	}

	section.Columns = columns
	values := make([]sql.NullString, len(columns))
	dest := make([]interface{}, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}
	section.Rows = [][]string{}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return section, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		section.Rows = append(section.Rows, row)
	}
	return section, rows.Err()
}

func countMessage(n int64) string {
	switch n {
	case 0:
		return "empty"
	case 1:
		return "1 row"
	default:
		return fmt.Sprintf("%d rows", n)
	}
}

var templateVariable = regexp.MustCompile(`\$\{(\w+)\}`)

// expandTemplate 替换 ${name}，未知变量原样保留
func expandTemplate(query string, vars map[string]string) string {
	return templateVariable.ReplaceAllStringFunc(query, func(m string) string {
		name := templateVariable.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}

// tableVariables 对表执行时可用的模板变量，标识符一律加引号
func tableVariables(c *Context, t *schema.Table) map[string]string {
	columns := append([]*schema.Column(nil), t.Columns...)
	if c.SortColumns {
		sort.SliceStable(columns, func(i, j int) bool {
			return strings.ToLower(columns[i].Name) < strings.ToLower(columns[j].Name)
		})
	}

	var all, orderBy []string
	for _, col := range columns {
		quoted := c.Adapter.QuoteIdentifier(col.Name)
		all = append(all, quoted)
		if !col.Type.SQLType.IsLargeObject() {
			orderBy = append(orderBy, quoted)
		}
	}
	if len(all) == 0 {
		all = []string{"*"}
	}
	if len(orderBy) == 0 {
		orderBy = []string{"1"}
	}

	return map[string]string{
		"schema":         t.Schema.FullName(),
		"table":          c.Adapter.QuoteFullName(t),
		"tablename":      t.Name,
		"tabletype":      strings.ToUpper(tableType(t)),
		"columns":        strings.Join(all, ", "),
		"orderbycolumns": strings.Join(orderBy, ", "),
	}
}

func tableType(t *schema.Table) string {
	if t.IsView() {
		return "view"
	}
	return "table"
}
