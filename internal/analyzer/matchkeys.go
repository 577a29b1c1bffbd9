package analyzer

import (
	"strings"

	"schemacrawler/internal/schema"
)

// primaryKeyMatchKey 单列主键的固定匹配键
const primaryKeyMatchKey = "id"

// TableMatchKeys 匹配键 → 表 的多值索引
type TableMatchKeys struct {
	prefixes []string
	keys     map[string][]*schema.Table
	order    []string
}

// NewTableMatchKeys 根据表名前缀建立匹配键索引
func NewTableMatchKeys(tables []*schema.Table) *TableMatchKeys {
	m := &TableMatchKeys{keys: make(map[string][]*schema.Table)}
	if len(tables) == 0 {
		return m
	}

	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	m.prefixes = findPrefixes(names)

	for _, table := range tables {
		for _, prefix := range m.prefixes {
			key, ok := tableKey(table.Name, prefix)
			if !ok {
				continue
			}
			m.add(key, table)
		}
	}
	return m
}

func (m *TableMatchKeys) add(key string, table *schema.Table) {
	existing, ok := m.keys[key]
	if !ok {
		m.order = append(m.order, key)
	}
	for _, t := range existing {
		if t == table {
			return
		}
	}
	m.keys[key] = append(existing, table)
}

// Get 返回匹配键对应的表
func (m *TableMatchKeys) Get(key string) []*schema.Table {
	return m.keys[key]
}

// Prefixes 返回保留下来的前缀（含空前缀）
func (m *TableMatchKeys) Prefixes() []string {
	return m.prefixes
}

// Keys 按插入顺序返回所有匹配键
func (m *TableMatchKeys) Keys() []string {
	return m.order
}

// ColumnMatchKey 由列名推导匹配键
//
// 小写后去掉 "_id" 后缀；否则去掉 "id" 后缀（列名恰好是 "id" 时除外）。
func ColumnMatchKey(columnName string) string {
	key := strings.ToLower(columnName)
	if strings.HasSuffix(key, "_id") {
		return key[:len(key)-3]
	}
	if strings.HasSuffix(key, "id") && key != primaryKeyMatchKey {
		return key[:len(key)-2]
	}
	return key
}

type columnMatch struct {
	key    string
	column *schema.Column
}

// columnMatches 返回表中每一列的匹配键，单列主键额外登记为 "id"
func columnMatches(table *schema.Table) []columnMatch {
	byKey := make(map[string]int)
	var matches []columnMatch
	put := func(key string, col *schema.Column) {
		if i, ok := byKey[key]; ok {
			matches[i].column = col
			return
		}
		byKey[key] = len(matches)
		matches = append(matches, columnMatch{key: key, column: col})
	}

	if pk := table.PrimaryKey; pk != nil && len(pk.Columns) == 1 {
		put(primaryKeyMatchKey, pk.Columns[0])
	}
	for _, col := range table.Columns {
		put(ColumnMatchKey(col.Name), col)
	}
	return matches
}

// primaryKeyColumn 返回登记在 "id" 下的列
func primaryKeyColumn(table *schema.Table) *schema.Column {
	for _, m := range columnMatches(table) {
		if m.key == primaryKeyMatchKey {
			return m.column
		}
	}
	return nil
}
