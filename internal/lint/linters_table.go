package lint

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"schemacrawler/internal/schema"
)

func newTableWithNoIndexes() Linter {
	l := newBaseLinter("LinterTableWithNoIndexes", "no indexes", SeverityMedium)
	l.description = "Checks for tables that have no indexes."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if !t.IsView() && t.PrimaryKey == nil && len(t.Indexes) == 0 {
			l.addTableLint(t, l.summary, true)
		}
		return nil
	}
	return l
}

func newTableWithNoPrimaryKey() Linter {
	l := newBaseLinter("LinterTableWithNoPrimaryKey", "no primary key", SeverityHigh)
	l.description = "Checks for tables that have no primary key."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if !t.IsView() && t.PrimaryKey == nil {
			l.addTableLint(t, l.summary, true)
		}
		return nil
	}
	return l
}

func newTableWithSingleColumn() Linter {
	l := newBaseLinter("LinterTableWithSingleColumn", "single column", SeverityLow)
	l.description = "Checks for tables that have only a single column."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if !t.IsView() && len(t.Columns) == 1 {
			l.addTableLint(t, l.summary, true)
		}
		return nil
	}
	return l
}

var incrementingColumnPattern = regexp.MustCompile(`^(.*[^0-9])([0-9]+)$`)

func newTableWithIncrementingColumns() Linter {
	l := newBaseLinter("LinterTableWithIncrementingColumns", "incrementing columns", SeverityHigh)
	l.description = "Checks for tables with columns named like ADDRESS1, ADDRESS2 that suggest a missing child table."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		for _, group := range incrementingColumns(l.filteredColumns(t)) {
			names := make([]string, len(group))
			minInc, maxInc := group[0].increment, group[0].increment
			for i, ic := range group {
				names[i] = ic.column.Name
				if ic.increment < minInc {
					minInc = ic.increment
				}
				if ic.increment > maxInc {
					maxInc = ic.increment
				}
			}
			sort.Strings(names)
			l.addTableLint(t, l.summary, names)

			if maxInc-minInc+1 != len(group) {
				l.addTableLint(t, "incrementing columns are not consecutive", names)
			}

			first := group[0].column
			for _, ic := range group[1:] {
				if ic.column.Type != first.Type || ic.column.Size != first.Size {
					l.addTableLint(t, "incrementing columns don't have the same data-type", names)
					break
				}
			}
		}
		return nil
	}
	return l
}

type incrementingColumn struct {
	column    *schema.Column
	increment int
}

// incrementingColumns 按去掉数字后缀的列名分组，只保留出现两次以上的组
//
// 不带数字后缀的同名列视为第 0 个，例如 PHONE、PHONE1、PHONE2。
func incrementingColumns(columns []*schema.Column) [][]incrementingColumn {
	if len(columns) <= 1 {
		return nil
	}

	counts := make(map[string]int)
	for _, c := range columns {
		name := strings.ToLower(c.Name)
		counts[name]++
		if m := incrementingColumnPattern.FindStringSubmatch(name); m != nil {
			counts[m[1]]++
		}
	}

	groups := make(map[string][]incrementingColumn)
	var order []string
	add := func(base string, ic incrementingColumn) {
		if _, ok := groups[base]; !ok {
			order = append(order, base)
		}
		groups[base] = append(groups[base], ic)
	}
	for _, c := range columns {
		name := strings.ToLower(c.Name)
		if counts[name] > 1 {
			add(name, incrementingColumn{column: c, increment: 0})
		}
		if m := incrementingColumnPattern.FindStringSubmatch(name); m != nil && counts[m[1]] > 1 {
			n, err := strconv.Atoi(m[2])
			if err != nil {
				n = -1
			}
			add(m[1], incrementingColumn{column: c, increment: n})
		}
	}

	result := make([][]incrementingColumn, 0, len(order))
	for _, base := range order {
		result = append(result, groups[base])
	}
	return result
}

func newNullColumnsInIndex() Linter {
	l := newBaseLinter("LinterNullColumnsInIndex", "unique index with nullable columns", SeverityLow)
	l.description = "Checks for unique indexes that contain nullable columns."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		for _, idx := range t.Indexes {
			if !idx.Unique {
				continue
			}
			for _, c := range idx.Columns {
				if c.Nullable {
					l.addTableLint(t, l.summary, idx.Name)
					break
				}
			}
		}
		return nil
	}
	return l
}

func newForeignKeyWithNoIndexes() Linter {
	l := newBaseLinter("LinterForeignKeyWithNoIndexes", "foreign key with no index", SeverityMedium)
	l.description = "Checks for foreign keys whose columns are not the leading columns of any index."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if t.IsView() {
			return nil
		}
		for _, fk := range t.ImportedForeignKeys() {
			fkCols := make([]string, len(fk.Columns))
			for i, ref := range fk.Columns {
				fkCols[i] = ref.ForeignKeyColumn.Name
			}
			if !coveredByIndex(t, fkCols) {
				l.addTableLint(t, l.summary, fk.Name)
			}
		}
		return nil
	}
	return l
}

// coveredByIndex 列是否是某个索引（或主键）的前导列
func coveredByIndex(t *schema.Table, columns []string) bool {
	var candidates [][]string
	if t.PrimaryKey != nil {
		candidates = append(candidates, t.PrimaryKey.ColumnNames())
	}
	for _, idx := range t.Indexes {
		candidates = append(candidates, idx.ColumnNames())
	}
	for _, c := range candidates {
		if isPrefix(columns, c) {
			return true
		}
	}
	return false
}

func isPrefix(prefix, list []string) bool {
	if len(prefix) == 0 || len(prefix) > len(list) {
		return false
	}
	for i := range prefix {
		if !strings.EqualFold(prefix[i], list[i]) {
			return false
		}
	}
	return true
}

func newRedundantIndexes() Linter {
	l := newBaseLinter("LinterRedundantIndexes", "redundant index", SeverityHigh)
	l.description = "Checks for indexes whose columns are the leading columns of another index."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		for _, name := range redundantIndexes(t) {
			l.addTableLint(t, l.summary, name)
		}
		return nil
	}
	return l
}

// redundantIndexes 列是另一个索引前导列的索引；列完全相同时只保留名称较小的那个
func redundantIndexes(t *schema.Table) []string {
	var redundant []string
	for i, a := range t.Indexes {
		aCols := a.ColumnNames()
		for j, b := range t.Indexes {
			if i == j {
				continue
			}
			bCols := b.ColumnNames()
			if !isPrefix(aCols, bCols) {
				continue
			}
			if len(aCols) == len(bCols) && a.Name < b.Name {
				continue
			}
			redundant = append(redundant, a.Name)
			break
		}
	}
	sort.Strings(redundant)
	return redundant
}

func newUselessSurrogateKey() Linter {
	l := newBaseLinter("LinterUselessSurrogateKey", "useless surrogate key", SeverityLow)
	l.description = "Checks for single-column primary keys on tables that also have a unique index on other columns."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		pk := t.PrimaryKey
		if pk == nil || len(pk.Columns) != 1 {
			return nil
		}
		pkCol := pk.Columns[0]
		for _, idx := range t.Indexes {
			if !idx.Unique || idx.Name == pk.Name {
				continue
			}
			containsPK := false
			for _, c := range idx.Columns {
				if c == pkCol {
					containsPK = true
					break
				}
			}
			if !containsPK && len(idx.Columns) > 0 {
				l.addTableLint(t, l.summary, true)
				return nil
			}
		}
		return nil
	}
	return l
}

func newTableAllNullableColumns() Linter {
	l := newBaseLinter("LinterTableAllNullableColumns", "all data columns are nullable", SeverityMedium)
	l.description = "Checks for tables where every column outside the primary key is nullable."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if t.IsView() {
			return nil
		}
		data := 0
		for _, c := range t.Columns {
			if c.IsPartOfPrimaryKey() {
				continue
			}
			data++
			if !c.Nullable {
				return nil
			}
		}
		if data > 0 {
			l.addTableLint(t, l.summary, true)
		}
		return nil
	}
	return l
}

func newTableWithPrimaryKeyNotFirst() Linter {
	l := newBaseLinter("LinterTableWithPrimaryKeyNotFirst", "primary key not first", SeverityLow)
	l.description = "Checks for tables whose primary key columns are not the leading columns."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		pk := t.PrimaryKey
		if pk == nil {
			return nil
		}
		for _, c := range pk.Columns {
			if c.Ordinal > len(pk.Columns) {
				l.addTableLint(t, l.summary, true)
				return nil
			}
		}
		return nil
	}
	return l
}

func newForeignKeyMismatch() Linter {
	l := newBaseLinter("LinterForeignKeyMismatch", "foreign key data type different from primary key", SeverityHigh)
	l.description = "Checks for foreign key columns whose data type differs from the referenced column."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		for _, fk := range t.ImportedForeignKeys() {
			for _, ref := range fk.Columns {
				pkc, fkc := ref.PrimaryKeyColumn, ref.ForeignKeyColumn
				if pkc.Type.SQLType != fkc.Type.SQLType || pkc.Size != fkc.Size {
					l.addTableLint(t, l.summary, fk.Name)
					break
				}
			}
		}
		return nil
	}
	return l
}
