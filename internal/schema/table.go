package schema

import (
	"sort"
	"strings"
)

// TableType 表类型
type TableType string

const (
	TableTypeTable TableType = "table"
	TableTypeView  TableType = "view"
)

// Table 表信息
type Table struct {
	Schema           SchemaRef
	Name             string
	Type             TableType
	Remarks          string
	Definition       string // 视图定义
	Columns          []*Column
	PrimaryKey       *PrimaryKey
	ForeignKeys      []*ForeignKey
	Indexes          []*Index
	Triggers         []*Trigger
	CheckConstraints []*CheckConstraint
}

// FullName 返回 schema.table
func (t *Table) FullName() string {
	if prefix := t.Schema.FullName(); prefix != "" {
		return prefix + "." + t.Name
	}
	return t.Name
}

func (t *Table) String() string {
	return t.FullName()
}

// LookupColumn 按名称查找列（大小写不敏感）
func (t *Table) LookupColumn(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// ImportedForeignKeys 本表作为引用方的外键
func (t *Table) ImportedForeignKeys() []*ForeignKey {
	var fks []*ForeignKey
	for _, fk := range t.ForeignKeys {
		if fk.ReferencingTable() == t {
			fks = append(fks, fk)
		}
	}
	return fks
}

// ExportedForeignKeys 本表作为被引用方的外键
func (t *Table) ExportedForeignKeys() []*ForeignKey {
	var fks []*ForeignKey
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable() == t {
			fks = append(fks, fk)
		}
	}
	return fks
}

// IsView 是否视图
func (t *Table) IsView() bool {
	return t.Type == TableTypeView
}

// SortColumns 按列名排序（默认按序号）
func (t *Table) SortColumns(alphabetical bool) {
	sort.SliceStable(t.Columns, func(i, j int) bool {
		if alphabetical {
			return strings.ToLower(t.Columns[i].Name) < strings.ToLower(t.Columns[j].Name)
		}
		return t.Columns[i].Ordinal < t.Columns[j].Ordinal
	})
}

// PrimaryKey 主键
type PrimaryKey struct {
	Name    string
	Columns []*Column
}

// ColumnNames 主键列名
func (pk *PrimaryKey) ColumnNames() []string {
	return columnNames(pk.Columns)
}

// ColumnReference 列引用（主键列 ← 外键列）
type ColumnReference struct {
	PrimaryKeyColumn *Column
	ForeignKeyColumn *Column
}

// ForeignKey 外键
type ForeignKey struct {
	Name       string
	Columns    []ColumnReference
	UpdateRule string
	DeleteRule string
}

// ReferencedTable 被引用的表
func (fk *ForeignKey) ReferencedTable() *Table {
	if len(fk.Columns) == 0 {
		return nil
	}
	return fk.Columns[0].PrimaryKeyColumn.Table
}

// ReferencingTable 引用方的表
func (fk *ForeignKey) ReferencingTable() *Table {
	if len(fk.Columns) == 0 {
		return nil
	}
	return fk.Columns[0].ForeignKeyColumn.Table
}

// Index 索引
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// ColumnNames 索引列名
func (i *Index) ColumnNames() []string {
	return columnNames(i.Columns)
}

// Trigger 触发器
type Trigger struct {
	Name   string
	Timing string // BEFORE/AFTER/INSTEAD OF
	Event  string // INSERT/UPDATE/DELETE
	Action string
}

// CheckConstraint 检查约束
type CheckConstraint struct {
	Name       string
	Expression string
}

func columnNames(columns []*Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}
