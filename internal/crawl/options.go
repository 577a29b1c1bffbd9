package crawl

import (
	"fmt"
	"strings"

	"schemacrawler/internal/filter"
	"schemacrawler/internal/schema"
)

// TableOrder 表的输出顺序
type TableOrder string

const (
	TableOrderAlphabetical TableOrder = "alphabetical"
	// TableOrderDependency 被引用的表在前
	TableOrderDependency TableOrder = "dependency"
)

// ParseTableOrder 解析 --sorttables 的值；true/false 兼容旧的布尔写法
func ParseTableOrder(s string) (TableOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alphabetical", "true":
		return TableOrderAlphabetical, nil
	case "dependency", "false":
		return TableOrderDependency, nil
	}
	return TableOrderAlphabetical, fmt.Errorf("unknown table order %q (expected alphabetical or dependency)", s)
}

// ProgressFunc 进度回调，percent 取 0-100
type ProgressFunc func(stage string, percent int)

// Options 爬取选项
type Options struct {
	InfoLevel InfoLevel

	Schemas  *filter.Rule
	Tables   *filter.Rule
	Routines *filter.Rule
	// Columns 按列全名过滤，--excludecolumns 是它的排除部分
	Columns    *filter.Rule
	TableTypes []schema.TableType

	Grep GrepOptions

	// ParentTableDepth/ChildTableDepth 把通过外键关联的父表、子表按层数加回结果
	ParentTableDepth int
	ChildTableDepth  int

	TableOrder     TableOrder
	SortColumns    bool
	SortParameters bool

	// WeakAssociations 低于 maximum 级别时也分析弱关联
	WeakAssociations bool
	LoadRowCounts    bool

	Progress ProgressFunc
}

// DefaultOptions 标准级别、全部包含
func DefaultOptions() Options {
	return Options{
		InfoLevel:  InfoLevelStandard,
		TableOrder: TableOrderAlphabetical,
	}
}

func (o Options) progress(stage string, percent int) {
	if o.Progress != nil {
		o.Progress(stage, percent)
	}
}
