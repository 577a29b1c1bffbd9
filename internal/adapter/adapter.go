package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"schemacrawler/internal/filter"
	"schemacrawler/internal/schema"
)

// ErrUnsupportedDriver 无法识别的数据库类型
var ErrUnsupportedDriver = errors.New("unsupported database server")

// DBAdapter 数据库适配器接口
type DBAdapter interface {
	// IntrospectSchema 获取元数据
	IntrospectSchema(ctx context.Context, opts RetrievalOptions) (*schema.Catalog, error)

	// EstimateRowCount 估算行数
	EstimateRowCount(ctx context.Context, table *schema.Table) (int64, error)

	// QuoteIdentifier 按方言给标识符加引号
	QuoteIdentifier(name string) string

	// QuoteFullName 按方言给表全名加引号
	QuoteFullName(table *schema.Table) string

	// Dialect 数据库方言
	Dialect() *Dialect

	// DB 底层连接
	DB() *sql.DB

	// Close 关闭连接
	Close() error
}

// RetrievalOptions 获取哪些元数据
type RetrievalOptions struct {
	Schemas  *filter.Rule
	Tables   *filter.Rule
	Routines *filter.Rule
	// TableTypes 为空表示表和视图都要
	TableTypes []schema.TableType

	Columns           bool
	PrimaryKeys       bool
	Indexes           bool
	ForeignKeys       bool
	ViewDefinitions   bool
	CheckConstraints  bool
	Remarks           bool
	Triggers          bool
	RoutineList       bool
	RoutineParameters bool
}

// Adapter 基于命名查询的通用适配器，每种数据库只提供查询语句
type Adapter struct {
	db      *sql.DB
	dialect *Dialect
	queries map[string]string
	logger  *zap.Logger
}

// Open 连接数据库
func Open(ctx context.Context, opts ConnectionOptions, logger *zap.Logger) (*Adapter, error) {
	dialect, dsn, err := opts.Resolve()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", dialect.Name, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w", dialect.Name, err)
	}
	return NewAdapter(db, dialect, logger), nil
}

// NewAdapter 用已有连接创建适配器
func NewAdapter(db *sql.DB, dialect *Dialect, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	queries := make(map[string]string, len(dialect.Queries))
	for k, v := range dialect.Queries {
		queries[k] = v
	}
	return &Adapter{db: db, dialect: dialect, queries: queries, logger: logger}
}

// OverrideQueries 用配置里的 select.INFORMATION_SCHEMA.* 覆盖内置查询
func (a *Adapter) OverrideQueries(props map[string]string) {
	for key, sqlText := range props {
		name, ok := strings.CutPrefix(key, QueryKeyPrefix)
		if !ok || strings.TrimSpace(sqlText) == "" {
			continue
		}
		a.logger.Debug("overriding information schema query", zap.String("query", name))
		a.queries[strings.ToUpper(name)] = sqlText
	}
}

// Query 返回命名查询，未定义时返回空字符串
func (a *Adapter) Query(name string) string {
	return a.queries[name]
}

// Dialect 数据库方言
func (a *Adapter) Dialect() *Dialect {
	return a.dialect
}

// DB 底层连接
func (a *Adapter) DB() *sql.DB {
	return a.db
}

// QuoteIdentifier 按方言给标识符加引号
func (a *Adapter) QuoteIdentifier(name string) string {
	return a.dialect.Quote(name)
}

// QuoteFullName 按方言给表全名加引号
func (a *Adapter) QuoteFullName(t *schema.Table) string {
	var parts []string
	if t.Schema.Catalog != "" {
		parts = append(parts, a.dialect.Quote(t.Schema.Catalog))
	}
	if t.Schema.Schema != "" {
		parts = append(parts, a.dialect.Quote(t.Schema.Schema))
	}
	parts = append(parts, a.dialect.Quote(t.Name))
	return strings.Join(parts, ".")
}

// EstimateRowCount 估算行数，方言没有估算查询时精确计数
func (a *Adapter) EstimateRowCount(ctx context.Context, t *schema.Table) (int64, error) {
	if q := a.queries[QueryRowCountEstimate]; q != "" {
		var count sql.NullInt64
		err := a.db.QueryRowContext(ctx, q, t.Schema.Schema, t.Name).Scan(&count)
		if err == nil && count.Valid {
			return count.Int64, nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			a.logger.Debug("row count estimate failed, counting rows",
				zap.String("table", t.FullName()), zap.Error(err))
		}
	}
	return a.CountRows(ctx, t)
}

// CountRows 精确行数
func (a *Adapter) CountRows(ctx context.Context, t *schema.Table) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + a.QuoteFullName(t)
	if err := a.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting rows in %s: %w", t.FullName(), err)
	}
	return count, nil
}

// Close 关闭连接
func (a *Adapter) Close() error {
	return a.db.Close()
}
