package adapter

import (
	"fmt"
	"sort"
	"strings"
)

// QueryKeyPrefix 配置文件里覆盖查询用的键前缀
const QueryKeyPrefix = "select.INFORMATION_SCHEMA."

// 命名查询，每条查询的结果列顺序固定，见 retriever.go
const (
	QueryDatabaseInfo      = "DATABASE_INFO"
	QueryTables            = "TABLES"
	QueryColumns           = "COLUMNS"
	QueryPrimaryKeys       = "PRIMARY_KEYS"
	QueryIndexes           = "INDEXES"
	QueryForeignKeys       = "FOREIGN_KEYS"
	QueryViews             = "VIEWS"
	QueryTriggers          = "TRIGGERS"
	QueryCheckConstraints  = "CHECK_CONSTRAINTS"
	QueryRoutines          = "ROUTINES"
	QueryRoutineParameters = "ROUTINE_PARAMETERS"
	QueryRowCountEstimate  = "ROW_COUNT_ESTIMATE"
)

// Dialect 数据库方言
type Dialect struct {
	// Name 服务器类型，例如 mysql、postgresql
	Name string
	// ProductName 数据库产品名
	ProductName string
	// DriverName database/sql 驱动名
	DriverName string
	// DriverPath 驱动包路径
	DriverPath  string
	DefaultPort int
	// Aliases URL scheme 等别名
	Aliases []string
	// QuoteOpen/QuoteClose 标识符引号
	QuoteOpen  string
	QuoteClose string
	Queries    map[string]string
	// dsn 由连接参数生成驱动 DSN
	dsn func(o ConnectionOptions) (string, error)
}

// Quote 给标识符加引号，引号字符本身会被转义
func (d *Dialect) Quote(name string) string {
	if d.QuoteClose == "" {
		return name
	}
	escaped := strings.ReplaceAll(name, d.QuoteClose, d.QuoteClose+d.QuoteClose)
	return d.QuoteOpen + escaped + d.QuoteClose
}

var dialects = map[string]*Dialect{}

func registerDialect(d *Dialect) {
	dialects[d.Name] = d
	for _, alias := range d.Aliases {
		dialects[alias] = d
	}
}

// LookupDialect 按服务器类型或别名查找方言
func LookupDialect(name string) (*Dialect, error) {
	if d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedDriver, name, strings.Join(SupportedServers(), ", "))
}

// SupportedServers 支持的服务器类型
func SupportedServers() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range dialects {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names
}
