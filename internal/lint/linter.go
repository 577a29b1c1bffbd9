package lint

import (
	"context"
	"database/sql"
	"math"

	"schemacrawler/internal/filter"
	"schemacrawler/internal/schema"
)

// LinterIDPrefix 内置检查器 id 前缀
const LinterIDPrefix = "schemacrawler.tools.linter."

// Connection 需要连接的检查器使用的数据库访问
type Connection interface {
	DB() *sql.DB
	QuoteIdentifier(name string) string
}

// Linter 检查器
type Linter interface {
	ID() string
	Summary() string
	Description() string
	Severity() Severity
	// UsesConnection 需要数据库连接才能运行
	UsesConnection() bool
	Configure(cfg LinterConfig) error
	Lint(ctx context.Context, catalog *schema.Catalog, conn Connection, collector *Collector) error
	LintCount() int
	// ExceedsThreshold lint 数量超过阈值
	ExceedsThreshold() bool
}

// tableCheck 对单张表检查
type tableCheck func(ctx context.Context, l *baseLinter, table *schema.Table, conn Connection) error

// catalogCheck 对整个库检查
type catalogCheck func(ctx context.Context, l *baseLinter, catalog *schema.Catalog, conn Connection) error

// baseLinter 检查器公共部分，具体检查逻辑由 checkTable / checkCatalog 提供
type baseLinter struct {
	id          string
	summary     string
	description string
	severity    Severity
	threshold   int
	usesConn    bool

	tables  *filter.Rule
	columns *filter.Rule
	config  map[string]string

	configure    func(l *baseLinter) error
	checkTable   tableCheck
	checkCatalog catalogCheck

	collector *Collector
	count     int
}

func (l *baseLinter) ID() string           { return l.id }
func (l *baseLinter) Summary() string      { return l.summary }
func (l *baseLinter) Description() string  { return l.description }
func (l *baseLinter) Severity() Severity   { return l.severity }
func (l *baseLinter) UsesConnection() bool { return l.usesConn }
func (l *baseLinter) LintCount() int       { return l.count }

func (l *baseLinter) ExceedsThreshold() bool {
	return l.count > l.threshold
}

// Configure 应用配置，未配置的字段保持默认值
func (l *baseLinter) Configure(cfg LinterConfig) error {
	if cfg.Severity != nil {
		l.severity = *cfg.Severity
	}
	if cfg.Threshold != nil {
		l.threshold = *cfg.Threshold
	}
	var err error
	if l.tables, err = cfg.TableRule(); err != nil {
		return err
	}
	if l.columns, err = cfg.ColumnRule(); err != nil {
		return err
	}
	if cfg.Config != nil {
		l.config = cfg.Config
	}
	if l.configure != nil {
		return l.configure(l)
	}
	return nil
}

// Lint 运行检查
func (l *baseLinter) Lint(ctx context.Context, catalog *schema.Catalog, conn Connection, collector *Collector) error {
	l.collector = collector
	l.count = 0

	if l.checkCatalog != nil {
		if err := l.checkCatalog(ctx, l, catalog, conn); err != nil {
			return err
		}
	}
	if l.checkTable == nil {
		return nil
	}
	for _, table := range catalog.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !l.tables.MatchesObject(table.FullName(), table.Name) {
			continue
		}
		if err := l.checkTable(ctx, l, table, conn); err != nil {
			return err
		}
	}
	return nil
}

// filteredColumns 经过列过滤规则的列
func (l *baseLinter) filteredColumns(table *schema.Table) []*schema.Column {
	var cols []*schema.Column
	for _, c := range table.Columns {
		if l.columns.Matches(c.FullName()) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (l *baseLinter) configValue(key, fallback string) string {
	if v, ok := l.config[key]; ok && v != "" {
		return v
	}
	return fallback
}

func (l *baseLinter) addTableLint(table *schema.Table, message string, value interface{}) {
	l.add(Lint{
		LinterID:   l.id,
		ObjectType: ObjectTypeTable,
		ObjectName: table.FullName(),
		Severity:   l.severity,
		Message:    message,
		Value:      value,
	})
}

func (l *baseLinter) addCatalogLint(message string, value interface{}) {
	l.add(Lint{
		LinterID:   l.id,
		ObjectType: ObjectTypeDatabase,
		ObjectName: DatabaseObjectName,
		Severity:   l.severity,
		Message:    message,
		Value:      value,
	})
}

func (l *baseLinter) add(lint Lint) {
	l.count++
	if l.collector != nil {
		l.collector.Add(lint)
	}
}

func newBaseLinter(name, summary string, severity Severity) *baseLinter {
	return &baseLinter{
		id:        LinterIDPrefix + name,
		summary:   summary,
		severity:  severity,
		threshold: math.MaxInt,
		tables:    filter.IncludeAll,
		columns:   filter.IncludeAll,
		config:    map[string]string{},
	}
}

// noopLinter 未知 id 对应的空检查器
type noopLinter struct {
	id string
}

func (n *noopLinter) ID() string                   { return n.id }
func (n *noopLinter) Summary() string              { return "no-op linter" }
func (n *noopLinter) Description() string          { return "" }
func (n *noopLinter) Severity() Severity           { return SeverityLow }
func (n *noopLinter) UsesConnection() bool         { return false }
func (n *noopLinter) Configure(LinterConfig) error { return nil }
func (n *noopLinter) LintCount() int               { return 0 }
func (n *noopLinter) ExceedsThreshold() bool       { return false }
func (n *noopLinter) Lint(context.Context, *schema.Catalog, Connection, *Collector) error {
	return nil
}
