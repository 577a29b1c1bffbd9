package schema

import (
	"sort"
	"strings"
	"time"
)

// Catalog 爬取结果（元数据快照，爬取完成后只读）
type Catalog struct {
	DatabaseInfo DatabaseInfo
	DriverInfo   DriverInfo
	CrawlInfo    CrawlInfo
	Schemas      []SchemaRef
	Tables       []*Table
	Routines     []*Routine
}

// DatabaseInfo 数据库产品信息
type DatabaseInfo struct {
	ProductName    string            `json:"productName"`
	ProductVersion string            `json:"productVersion"`
	UserName       string            `json:"userName,omitempty"`
	Properties     map[string]string `json:"properties,omitempty"`
}

// DriverInfo 驱动信息
type DriverInfo struct {
	DriverName string `json:"driverName"`
	DriverPath string `json:"driverPath"`
}

// CrawlInfo 本次爬取的运行信息
type CrawlInfo struct {
	RunID          string    `json:"runId"`
	CrawlTimestamp time.Time `json:"crawlTimestamp"`
	ToolVersion    string    `json:"toolVersion"`
	InfoLevel      string    `json:"infoLevel"`
}

// SchemaRef schema 引用（catalog + schema 两级命名）
type SchemaRef struct {
	Catalog string `json:"catalog,omitempty"`
	Schema  string `json:"schema,omitempty"`
}

// FullName 返回 catalog.schema，省略空的部分
func (s SchemaRef) FullName() string {
	parts := make([]string, 0, 2)
	if s.Catalog != "" {
		parts = append(parts, s.Catalog)
	}
	if s.Schema != "" {
		parts = append(parts, s.Schema)
	}
	return strings.Join(parts, ".")
}

func (s SchemaRef) String() string {
	return s.FullName()
}

// LookupTable 按全名或表名查找表
func (c *Catalog) LookupTable(name string) *Table {
	for _, t := range c.Tables {
		if t.FullName() == name {
			return t
		}
	}
	for _, t := range c.Tables {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

// LookupColumn 按 table.column 全名查找列
func (c *Catalog) LookupColumn(fullName string) *Column {
	idx := strings.LastIndex(fullName, ".")
	if idx <= 0 {
		return nil
	}
	table := c.LookupTable(fullName[:idx])
	if table == nil {
		return nil
	}
	return table.LookupColumn(fullName[idx+1:])
}

// TablesInSchema 返回某个 schema 下的表
func (c *Catalog) TablesInSchema(ref SchemaRef) []*Table {
	var tables []*Table
	for _, t := range c.Tables {
		if t.Schema == ref {
			tables = append(tables, t)
		}
	}
	return tables
}

// SortTablesByName 按全名排序（大小写不敏感）
func SortTablesByName(tables []*Table) {
	sort.SliceStable(tables, func(i, j int) bool {
		return strings.ToLower(tables[i].FullName()) < strings.ToLower(tables[j].FullName())
	})
}
