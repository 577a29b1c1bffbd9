package lint

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"schemacrawler/internal/schema"
)

func newColumnTypes() Linter {
	l := newBaseLinter("LinterColumnTypes", "column with same name but different data types", SeverityHigh)
	l.description = "Checks for columns that share a name across tables but not a data type."
	l.checkCatalog = func(_ context.Context, l *baseLinter, c *schema.Catalog, _ Connection) error {
		types := make(map[string]map[string]bool)
		var names []string
		for _, t := range c.Tables {
			if !l.tables.MatchesObject(t.FullName(), t.Name) {
				continue
			}
			for _, col := range l.filteredColumns(t) {
				name := strings.ToLower(col.Name)
				if _, ok := types[name]; !ok {
					types[name] = make(map[string]bool)
					names = append(names, name)
				}
				types[name][col.Type.Name+col.Width()] = true
			}
		}
		sort.Strings(names)
		for _, name := range names {
			if len(types[name]) <= 1 {
				continue
			}
			var list []string
			for typ := range types[name] {
				list = append(list, typ)
			}
			sort.Strings(list)
			l.addCatalogLint(l.summary, fmt.Sprintf("%s %v", name, list))
		}
		return nil
	}
	return l
}

func newTableWithBadlyNamedColumns() Linter {
	l := newBaseLinter("LinterTableWithBadlyNamedColumns", "badly named column", SeverityMedium)
	l.description = "Checks for columns whose names match a configurable pattern, given by the bad-column-names property."
	var pattern *regexp.Regexp
	l.configure = func(l *baseLinter) error {
		expr := l.configValue("bad-column-names", "")
		if expr == "" {
			pattern = nil
			return nil
		}
		var err error
		pattern, err = regexp.Compile(`(?i)^(?:` + expr + `)$`)
		if err != nil {
			return fmt.Errorf("%s: invalid bad-column-names %q: %w", l.id, expr, err)
		}
		return nil
	}
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if pattern == nil {
			return nil
		}
		for _, c := range l.filteredColumns(t) {
			if pattern.MatchString(c.FullName()) {
				l.addTableLint(t, l.summary, c.Name)
			}
		}
		return nil
	}
	return l
}

func newTableWithNoRemarks() Linter {
	l := newBaseLinter("LinterTableWithNoRemarks", "should have remarks", SeverityLow)
	l.description = "Checks for tables and columns that have no remarks."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if strings.TrimSpace(t.Remarks) == "" {
			l.addTableLint(t, l.summary, "")
		}
		var missing []string
		for _, c := range l.filteredColumns(t) {
			if strings.TrimSpace(c.Remarks) == "" {
				missing = append(missing, c.Name)
			}
		}
		if len(missing) > 0 {
			l.addTableLint(t, "columns should have remarks", missing)
		}
		return nil
	}
	return l
}

// reservedWords 需要加引号的常见保留字
var reservedWords = map[string]bool{
	"ADD": true, "ALL": true, "ALTER": true, "AND": true, "AS": true, "ASC": true,
	"BETWEEN": true, "BY": true, "CASE": true, "CHECK": true, "COLUMN": true,
	"CONSTRAINT": true, "CREATE": true, "CROSS": true, "CURRENT": true, "DATE": true,
	"DEFAULT": true, "DELETE": true, "DESC": true, "DISTINCT": true, "DROP": true,
	"ELSE": true, "END": true, "EXISTS": true, "FOR": true, "FOREIGN": true,
	"FROM": true, "FULL": true, "GRANT": true, "GROUP": true, "HAVING": true,
	"IN": true, "INDEX": true, "INNER": true, "INSERT": true, "INTO": true, "IS": true,
	"JOIN": true, "KEY": true, "LEFT": true, "LIKE": true, "LIMIT": true, "NOT": true,
	"NULL": true, "OF": true, "ON": true, "OR": true, "ORDER": true, "OUTER": true,
	"PRIMARY": true, "REFERENCES": true, "RIGHT": true, "SELECT": true, "SET": true,
	"TABLE": true, "THEN": true, "TIME": true, "TIMESTAMP": true, "TO": true,
	"UNION": true, "UNIQUE": true, "UPDATE": true, "USER": true, "VALUES": true,
	"VIEW": true, "WHEN": true, "WHERE": true, "WITH": true,
}

var unquotedIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// needsQuoting 含空格、特殊字符或为保留字的名称
func needsQuoting(name string) bool {
	return !unquotedIdentifier.MatchString(name) || reservedWords[strings.ToUpper(name)]
}

func newTableWithQuotedNames() Linter {
	l := newBaseLinter("LinterTableWithQuotedNames", "spaces in name, or reserved word", SeverityMedium)
	l.description = "Checks for table and column names that must be quoted."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		if needsQuoting(t.Name) {
			l.addTableLint(t, l.summary, t.Name)
		}
		for _, c := range l.filteredColumns(t) {
			if needsQuoting(c.Name) {
				l.addTableLint(t, l.summary, c.Name)
			}
		}
		return nil
	}
	return l
}

func newNullIntendedColumns() Linter {
	l := newBaseLinter("LinterNullIntendedColumns", "column where NULL may be intended", SeverityMedium)
	l.description = "Checks for columns whose default value is the string 'NULL'."
	l.checkTable = func(_ context.Context, l *baseLinter, t *schema.Table, _ Connection) error {
		for _, c := range l.filteredColumns(t) {
			def := strings.TrimSpace(c.DefaultValue)
			quoted := strings.HasPrefix(def, "'") || strings.HasPrefix(def, "\"")
			if quoted && strings.EqualFold(strings.Trim(def, "'\""), "NULL") {
				l.addTableLint(t, l.summary, c.Name)
			}
		}
		return nil
	}
	return l
}
