package lint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"schemacrawler/internal/graph"
	"schemacrawler/internal/schema"
)

func newTableCycles() Linter {
	l := newBaseLinter("LinterTableCycles", "cycles in table relationships", SeverityHigh)
	l.description = "Checks for cycles in foreign key relationships between tables."
	l.checkCatalog = func(_ context.Context, l *baseLinter, c *schema.Catalog, _ Connection) error {
		var tables []*schema.Table
		for _, t := range c.Tables {
			if l.tables.MatchesObject(t.FullName(), t.Name) {
				tables = append(tables, t)
			}
		}
		g := graph.Build(&schema.Catalog{Tables: tables}, nil)
		for _, cycle := range g.Cycles() {
			for _, id := range cycle {
				if t := c.LookupTable(id); t != nil {
					l.addTableLint(t, l.summary, cycle)
				}
			}
		}
		return nil
	}
	return l
}

func newTableEmpty() Linter {
	l := newBaseLinter("LinterTableEmpty", "empty table", SeverityLow)
	l.description = "Checks for empty tables with no data."
	l.usesConn = true
	l.checkTable = func(ctx context.Context, l *baseLinter, t *schema.Table, conn Connection) error {
		if t.IsView() || conn == nil {
			return nil
		}
		query := "SELECT COUNT(*) FROM " + quoteFullName(conn, t)
		var count int64
		if err := conn.DB().QueryRowContext(ctx, query).Scan(&count); err != nil {
			return fmt.Errorf("%s: counting rows in %s: %w", l.id, t.FullName(), err)
		}
		if count == 0 {
			l.addTableLint(t, l.summary, true)
		}
		return nil
	}
	return l
}

func newCatalogSQL() Linter {
	l := newBaseLinter("LinterCatalogSql", "SQL statement based catalog linter", SeverityMedium)
	l.description = "Runs the query given by the sql property and reports its first value, using the message property."
	l.usesConn = true
	var query, message string
	l.configure = func(l *baseLinter) error {
		query = strings.TrimSpace(l.configValue("sql", ""))
		message = l.configValue("message", l.summary)
		return nil
	}
	l.checkCatalog = func(ctx context.Context, l *baseLinter, _ *schema.Catalog, conn Connection) error {
		// 未配置 sql 时不检查
		if conn == nil || query == "" {
			return nil
		}
		var value sql.NullString
		err := conn.DB().QueryRowContext(ctx, query).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", l.id, err)
		}
		if value.Valid && value.String != "" {
			l.addCatalogLint(message, value.String)
		}
		return nil
	}
	return l
}

func quoteFullName(conn Connection, t *schema.Table) string {
	var parts []string
	if t.Schema.Catalog != "" {
		parts = append(parts, conn.QuoteIdentifier(t.Schema.Catalog))
	}
	if t.Schema.Schema != "" {
		parts = append(parts, conn.QuoteIdentifier(t.Schema.Schema))
	}
	parts = append(parts, conn.QuoteIdentifier(t.Name))
	return strings.Join(parts, ".")
}
