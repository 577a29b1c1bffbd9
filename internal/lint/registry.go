package lint

import (
	"sort"
	"strings"
)

// Factory 检查器构造函数
type Factory func() Linter

var registry = map[string]Factory{}

func init() {
	for _, f := range []Factory{
		newTableWithNoIndexes,
		newTableWithNoPrimaryKey,
		newTableWithSingleColumn,
		newTableWithIncrementingColumns,
		newNullColumnsInIndex,
		newForeignKeyWithNoIndexes,
		newRedundantIndexes,
		newUselessSurrogateKey,
		newTableAllNullableColumns,
		newTableWithPrimaryKeyNotFirst,
		newForeignKeyMismatch,
		newColumnTypes,
		newTableWithBadlyNamedColumns,
		newTableWithNoRemarks,
		newTableWithQuotedNames,
		newNullIntendedColumns,
		newTableCycles,
		newTableEmpty,
		newCatalogSQL,
	} {
		Register(f)
	}
}

// Register 注册检查器，同 id 后注册的覆盖先注册的
func Register(f Factory) {
	registry[f().ID()] = f
}

// RegisteredIDs 已注册的检查器 id（已排序）
func RegisteredIDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NewLinter 按 id 创建检查器，未知 id 返回空检查器
//
// id 可以省略 "schemacrawler.tools.linter." 前缀。
func NewLinter(id string) (Linter, bool) {
	if f, ok := registry[id]; ok {
		return f(), true
	}
	if !strings.HasPrefix(id, LinterIDPrefix) {
		if f, ok := registry[LinterIDPrefix+id]; ok {
			return f(), true
		}
	}
	return &noopLinter{id: id}, false
}
