package renderer

import (
	"time"

	"schemacrawler/internal/lint"
	"schemacrawler/internal/schema"
)

// 序列化用的文档结构，字段顺序即输出顺序

type catalogDocument struct {
	Title            string            `json:"title,omitempty" yaml:"title,omitempty"`
	CrawlInfo        *crawlInfoDoc     `json:"crawlInfo,omitempty" yaml:"crawlInfo,omitempty"`
	DatabaseInfo     *databaseInfoDoc  `json:"databaseInfo,omitempty" yaml:"databaseInfo,omitempty"`
	Schemas          []string          `json:"schemas" yaml:"schemas"`
	Tables           []tableDoc        `json:"tables" yaml:"tables"`
	Routines         []routineDoc      `json:"routines,omitempty" yaml:"routines,omitempty"`
	WeakAssociations []columnRefDoc    `json:"weakAssociations,omitempty" yaml:"weakAssociations,omitempty"`
}

type crawlInfoDoc struct {
	RunID          string `json:"runId" yaml:"runId"`
	CrawlTimestamp string `json:"crawlTimestamp" yaml:"crawlTimestamp"`
	ToolVersion    string `json:"toolVersion" yaml:"toolVersion"`
	InfoLevel      string `json:"infoLevel" yaml:"infoLevel"`
}

type databaseInfoDoc struct {
	ProductName    string `json:"productName" yaml:"productName"`
	ProductVersion string `json:"productVersion" yaml:"productVersion"`
	UserName       string `json:"userName,omitempty" yaml:"userName,omitempty"`
	DriverName     string `json:"driverName" yaml:"driverName"`
	DriverPath     string `json:"driverPath" yaml:"driverPath"`
}

type tableDoc struct {
	Name             string               `json:"name" yaml:"name"`
	FullName         string               `json:"fullName" yaml:"fullName"`
	Schema           string               `json:"schema,omitempty" yaml:"schema,omitempty"`
	Type             string               `json:"type" yaml:"type"`
	Remarks          string               `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	RowCount         *int64               `json:"rowCount,omitempty" yaml:"rowCount,omitempty"`
	Columns          []columnDoc          `json:"columns,omitempty" yaml:"columns,omitempty"`
	PrimaryKey       *primaryKeyDoc       `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	ForeignKeys      []foreignKeyDoc      `json:"foreignKeys,omitempty" yaml:"foreignKeys,omitempty"`
	Indexes          []indexDoc           `json:"indexes,omitempty" yaml:"indexes,omitempty"`
	Triggers         []triggerDoc         `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	CheckConstraints []checkConstraintDoc `json:"checkConstraints,omitempty" yaml:"checkConstraints,omitempty"`
	Definition       string               `json:"definition,omitempty" yaml:"definition,omitempty"`
}

type columnDoc struct {
	Name          string `json:"name" yaml:"name"`
	Ordinal       int    `json:"ordinal" yaml:"ordinal"`
	DataType      string `json:"dataType" yaml:"dataType"`
	SQLType       string `json:"sqlType" yaml:"sqlType"`
	Size          int    `json:"size,omitempty" yaml:"size,omitempty"`
	Decimals      int    `json:"decimals,omitempty" yaml:"decimals,omitempty"`
	Nullable      bool   `json:"nullable" yaml:"nullable"`
	DefaultValue  string `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	AutoIncrement bool   `json:"autoIncrement,omitempty" yaml:"autoIncrement,omitempty"`
	Generated     bool   `json:"generated,omitempty" yaml:"generated,omitempty"`
	Remarks       string `json:"remarks,omitempty" yaml:"remarks,omitempty"`
}

type primaryKeyDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

type columnRefDoc struct {
	ForeignKeyColumn string `json:"foreignKeyColumn" yaml:"foreignKeyColumn"`
	PrimaryKeyColumn string `json:"primaryKeyColumn" yaml:"primaryKeyColumn"`
}

type foreignKeyDoc struct {
	Name       string         `json:"name" yaml:"name"`
	Columns    []columnRefDoc `json:"columns" yaml:"columns"`
	UpdateRule string         `json:"updateRule,omitempty" yaml:"updateRule,omitempty"`
	DeleteRule string         `json:"deleteRule,omitempty" yaml:"deleteRule,omitempty"`
}

type indexDoc struct {
	Name    string   `json:"name" yaml:"name"`
	Unique  bool     `json:"unique" yaml:"unique"`
	Columns []string `json:"columns" yaml:"columns"`
}

type triggerDoc struct {
	Name   string `json:"name" yaml:"name"`
	Timing string `json:"timing,omitempty" yaml:"timing,omitempty"`
	Event  string `json:"event,omitempty" yaml:"event,omitempty"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
}

type checkConstraintDoc struct {
	Name       string `json:"name" yaml:"name"`
	Expression string `json:"expression" yaml:"expression"`
}

type routineDoc struct {
	Name         string         `json:"name" yaml:"name"`
	FullName     string         `json:"fullName" yaml:"fullName"`
	SpecificName string         `json:"specificName,omitempty" yaml:"specificName,omitempty"`
	Type         string         `json:"type" yaml:"type"`
	ReturnType   string         `json:"returnType,omitempty" yaml:"returnType,omitempty"`
	Parameters   []parameterDoc `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Remarks      string         `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	Definition   string         `json:"definition,omitempty" yaml:"definition,omitempty"`
}

type parameterDoc struct {
	Name     string `json:"name" yaml:"name"`
	Ordinal  int    `json:"ordinal" yaml:"ordinal"`
	Mode     string `json:"mode,omitempty" yaml:"mode,omitempty"`
	DataType string `json:"dataType" yaml:"dataType"`
}

type lintDocument struct {
	Title     string         `json:"title,omitempty" yaml:"title,omitempty"`
	CrawlInfo *crawlInfoDoc  `json:"crawlInfo,omitempty" yaml:"crawlInfo,omitempty"`
	Summary   map[string]int `json:"summary" yaml:"summary"`
	Lints     []lintDoc      `json:"lints" yaml:"lints"`
}

type lintDoc struct {
	Object     string      `json:"object" yaml:"object"`
	ObjectType string      `json:"objectType" yaml:"objectType"`
	LinterID   string      `json:"linterId" yaml:"linterId"`
	Severity   string      `json:"severity" yaml:"severity"`
	Message    string      `json:"message" yaml:"message"`
	Value      interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

func newCrawlInfoDoc(info schema.CrawlInfo) *crawlInfoDoc {
	doc := &crawlInfoDoc{RunID: info.RunID, ToolVersion: info.ToolVersion, InfoLevel: info.InfoLevel}
	if !info.CrawlTimestamp.IsZero() {
		doc.CrawlTimestamp = info.CrawlTimestamp.Format(time.RFC3339)
	}
	return doc
}

// newCatalogDocument 由报告构建文档；list 级别只输出表名
func newCatalogDocument(report *Report) *catalogDocument {
	catalog := report.Result.Catalog
	opts := report.Options
	doc := &catalogDocument{Title: opts.Title, Schemas: []string{}, Tables: []tableDoc{}}
	if !opts.NoInfo {
		doc.CrawlInfo = newCrawlInfoDoc(catalog.CrawlInfo)
		doc.DatabaseInfo = &databaseInfoDoc{
			ProductName:    catalog.DatabaseInfo.ProductName,
			ProductVersion: catalog.DatabaseInfo.ProductVersion,
			UserName:       catalog.DatabaseInfo.UserName,
			DriverName:     catalog.DriverInfo.DriverName,
			DriverPath:     catalog.DriverInfo.DriverPath,
		}
	}
	for _, s := range catalog.Schemas {
		doc.Schemas = append(doc.Schemas, s.FullName())
	}

	for _, t := range catalog.Tables {
		td := tableDoc{Name: t.Name, FullName: t.FullName(), Schema: t.Schema.FullName(), Type: tableKind(t)}
		if n, ok := report.Result.RowCount(t); ok {
			td.RowCount = &n
		}
		if report.Detail > DetailList {
			fillTableDoc(&td, t, opts)
		}
		doc.Tables = append(doc.Tables, td)
	}
	if report.Detail == DetailList {
		return doc
	}

	for _, r := range catalog.Routines {
		rd := routineDoc{
			Name:         r.Name,
			FullName:     r.FullName(),
			SpecificName: r.SpecificName,
			Type:         string(r.Type),
			ReturnType:   r.ReturnType,
			Definition:   r.Definition,
		}
		if !opts.HideRemarks {
			rd.Remarks = r.Remarks
		}
		for _, p := range r.Parameters {
			rd.Parameters = append(rd.Parameters, parameterDoc{Name: p.Name, Ordinal: p.Ordinal, Mode: p.Mode, DataType: p.Type.Name})
		}
		doc.Routines = append(doc.Routines, rd)
	}
	if !opts.HideWeakAssociations {
		for _, wa := range report.Result.WeakAssociations.All() {
			doc.WeakAssociations = append(doc.WeakAssociations, columnRefDoc{
				ForeignKeyColumn: wa.ForeignKeyColumn.FullName(),
				PrimaryKeyColumn: wa.PrimaryKeyColumn.FullName(),
			})
		}
	}
	return doc
}

func fillTableDoc(td *tableDoc, t *schema.Table, opts Options) {
	if !opts.HideRemarks {
		td.Remarks = t.Remarks
	}
	td.Definition = t.Definition
	for _, c := range t.Columns {
		cd := columnDoc{
			Name:          c.Name,
			Ordinal:       c.Ordinal,
			DataType:      c.Type.Name,
			SQLType:       c.Type.SQLType.String(),
			Size:          c.Size,
			Decimals:      c.Decimals,
			Nullable:      c.Nullable,
			DefaultValue:  c.DefaultValue,
			AutoIncrement: c.AutoIncrement,
			Generated:     c.Generated,
		}
		if !opts.HideRemarks {
			cd.Remarks = c.Remarks
		}
		td.Columns = append(td.Columns, cd)
	}
	if t.PrimaryKey != nil {
		td.PrimaryKey = &primaryKeyDoc{Name: t.PrimaryKey.Name, Columns: t.PrimaryKey.ColumnNames()}
	}
	for _, fk := range t.ImportedForeignKeys() {
		fd := foreignKeyDoc{Name: fk.Name, UpdateRule: fk.UpdateRule, DeleteRule: fk.DeleteRule}
		for _, ref := range fk.Columns {
			fd.Columns = append(fd.Columns, columnRefDoc{
				ForeignKeyColumn: ref.ForeignKeyColumn.FullName(),
				PrimaryKeyColumn: ref.PrimaryKeyColumn.FullName(),
			})
		}
		td.ForeignKeys = append(td.ForeignKeys, fd)
	}
	for _, idx := range t.Indexes {
		td.Indexes = append(td.Indexes, indexDoc{Name: idx.Name, Unique: idx.Unique, Columns: idx.ColumnNames()})
	}
	for _, tr := range t.Triggers {
		td.Triggers = append(td.Triggers, triggerDoc{Name: tr.Name, Timing: tr.Timing, Event: tr.Event, Action: tr.Action})
	}
	for _, cc := range t.CheckConstraints {
		td.CheckConstraints = append(td.CheckConstraints, checkConstraintDoc{Name: cc.Name, Expression: cc.Expression})
	}
}

func newLintDocument(report *LintReport) *lintDocument {
	doc := &lintDocument{Title: report.Options.Title, Summary: map[string]int{}, Lints: []lintDoc{}}
	if !report.Options.NoInfo && report.Catalog != nil {
		doc.CrawlInfo = newCrawlInfoDoc(report.Catalog.CrawlInfo)
	}
	for sev, n := range report.Collector.CountBySeverity() {
		doc.Summary[sev.String()] = n
	}
	for _, l := range report.Collector.All() {
		doc.Lints = append(doc.Lints, lintDoc{
			Object:     l.ObjectName,
			ObjectType: string(l.ObjectType),
			LinterID:   l.LinterID,
			Severity:   l.Severity.String(),
			Message:    l.Message,
			Value:      lintValue(l),
		})
	}
	return doc
}

// lintValue 布尔 true 只表示"有问题"，不输出
func lintValue(l lint.Lint) interface{} {
	if b, ok := l.Value.(bool); ok && b {
		return nil
	}
	return l.Value
}
