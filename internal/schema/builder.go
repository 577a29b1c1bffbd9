package schema

import (
	"strconv"
	"strings"
)

// NewTable 创建表
func NewTable(ref SchemaRef, name string, tableType TableType) *Table {
	return &Table{Schema: ref, Name: name, Type: tableType}
}

// AddColumn 追加列，序号自动递增；类型里的长度会拆到 Size/Decimals
func (t *Table) AddColumn(name, nativeType string, nullable bool) *Column {
	base, size, decimals := SplitTypeSize(nativeType)
	col := &Column{
		Table:    t,
		Name:     name,
		Ordinal:  len(t.Columns) + 1,
		Type:     NewColumnDataType(base),
		Size:     size,
		Decimals: decimals,
		Nullable: nullable,
	}
	t.Columns = append(t.Columns, col)
	return col
}

// SetPrimaryKey 设置主键，找不到的列会被忽略
func (t *Table) SetPrimaryKey(name string, columns ...string) *PrimaryKey {
	pk := &PrimaryKey{Name: name}
	for _, c := range columns {
		if col := t.LookupColumn(c); col != nil {
			pk.Columns = append(pk.Columns, col)
		}
	}
	if len(pk.Columns) == 0 {
		return nil
	}
	t.PrimaryKey = pk
	return pk
}

// AddIndex 追加索引
func (t *Table) AddIndex(name string, unique bool, columns ...string) *Index {
	idx := &Index{Name: name, Unique: unique}
	for _, c := range columns {
		if col := t.LookupColumn(c); col != nil {
			idx.Columns = append(idx.Columns, col)
		}
	}
	t.Indexes = append(t.Indexes, idx)
	return idx
}

// LinkForeignKey 建立外键，并挂到两端的表上
func LinkForeignKey(name string, refs ...ColumnReference) *ForeignKey {
	return AttachForeignKey(&ForeignKey{Name: name, Columns: refs})
}

// AttachForeignKey 把外键挂到两端的表上
func AttachForeignKey(fk *ForeignKey) *ForeignKey {
	referencing := fk.ReferencingTable()
	referenced := fk.ReferencedTable()
	if referencing != nil {
		referencing.ForeignKeys = append(referencing.ForeignKeys, fk)
	}
	if referenced != nil && referenced != referencing {
		referenced.ForeignKeys = append(referenced.ForeignKeys, fk)
	}
	return fk
}

// SplitTypeSize 拆分类型里的长度，"DECIMAL(10, 2)" → "DECIMAL", 10, 2
func SplitTypeSize(nativeType string) (string, int, int) {
	open := strings.Index(nativeType, "(")
	end := strings.LastIndex(nativeType, ")")
	if open < 0 || end < open {
		return nativeType, 0, 0
	}
	base := strings.TrimSpace(nativeType[:open] + nativeType[end+1:])
	parts := strings.Split(nativeType[open+1:end], ",")
	size, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nativeType, 0, 0
	}
	decimals := 0
	if len(parts) > 1 {
		decimals, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return base, size, decimals
}
