package schema

import "strconv"

// Column 列信息
type Column struct {
	Table         *Table // 所属表（仅引用）
	Name          string
	Ordinal       int
	Type          ColumnDataType
	Size          int
	Decimals      int
	Nullable      bool
	DefaultValue  string
	AutoIncrement bool
	Generated     bool
	Remarks       string
}

// ColumnDataType 列数据类型
type ColumnDataType struct {
	Name    string  // 数据库原生类型名
	SQLType SQLType // 标准类型码
}

// FullName 返回 schema.table.column
func (c *Column) FullName() string {
	if c.Table == nil {
		return c.Name
	}
	return c.Table.FullName() + "." + c.Name
}

func (c *Column) String() string {
	return c.FullName()
}

// IsPartOfPrimaryKey 是否主键列
func (c *Column) IsPartOfPrimaryKey() bool {
	if c.Table == nil || c.Table.PrimaryKey == nil {
		return false
	}
	for _, pk := range c.Table.PrimaryKey.Columns {
		if pk == c {
			return true
		}
	}
	return false
}

// IsPartOfForeignKey 是否参与外键（引用方）
func (c *Column) IsPartOfForeignKey() bool {
	if c.Table == nil {
		return false
	}
	for _, fk := range c.Table.ForeignKeys {
		for _, ref := range fk.Columns {
			if ref.ForeignKeyColumn == c {
				return true
			}
		}
	}
	return false
}

// IsPartOfIndex 是否在某个索引里
func (c *Column) IsPartOfIndex() bool {
	if c.Table == nil {
		return false
	}
	for _, idx := range c.Table.Indexes {
		for _, col := range idx.Columns {
			if col == c {
				return true
			}
		}
	}
	return false
}

// Width 返回类型宽度描述，例如 VARCHAR(255) 或 DECIMAL(10, 2)
func (c *Column) Width() string {
	if c.Size <= 0 || !c.Type.SQLType.HasSize() {
		return ""
	}
	if c.Decimals > 0 {
		return "(" + strconv.Itoa(c.Size) + ", " + strconv.Itoa(c.Decimals) + ")"
	}
	return "(" + strconv.Itoa(c.Size) + ")"
}
