package analyzer

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"schemacrawler/internal/schema"
)

// ErrNoTables 构造分析器时没有提供表
var ErrNoTables = errors.New("no tables provided")

// minTablesForAnalysis 少于 3 张表时不做推断
const minTablesForAnalysis = 3

// WeakAssociation 推断出的弱关联（主键列 ← 外键列），不对应任何已声明的外键
type WeakAssociation struct {
	PrimaryKeyColumn *schema.Column
	ForeignKeyColumn *schema.Column
}

// Key 去重用的标识
func (w WeakAssociation) Key() string {
	return w.ForeignKeyColumn.FullName() + " --> " + w.PrimaryKeyColumn.FullName()
}

func (w WeakAssociation) String() string {
	return w.Key()
}

// WeakAssociations 弱关联集合
//
// 以 (主键列, 外键列) 去重，同时按表建立索引，渲染单张表时不需要扫描全集。
type WeakAssociations struct {
	byKey   map[string]WeakAssociation
	byTable map[string][]WeakAssociation
}

// NewWeakAssociations 创建空集合
func NewWeakAssociations() *WeakAssociations {
	return &WeakAssociations{
		byKey:   make(map[string]WeakAssociation),
		byTable: make(map[string][]WeakAssociation),
	}
}

// Add 添加弱关联，重复时返回 false
func (w *WeakAssociations) Add(wa WeakAssociation) bool {
	key := wa.Key()
	if _, exists := w.byKey[key]; exists {
		return false
	}
	w.byKey[key] = wa

	pkTable := wa.PrimaryKeyColumn.Table.FullName()
	fkTable := wa.ForeignKeyColumn.Table.FullName()
	w.byTable[pkTable] = append(w.byTable[pkTable], wa)
	if fkTable != pkTable {
		w.byTable[fkTable] = append(w.byTable[fkTable], wa)
	}
	return true
}

// Len 弱关联数量
func (w *WeakAssociations) Len() int {
	if w == nil {
		return 0
	}
	return len(w.byKey)
}

// All 返回全部弱关联，按外键列、主键列排序
func (w *WeakAssociations) All() []WeakAssociation {
	if w == nil {
		return nil
	}
	all := make([]WeakAssociation, 0, len(w.byKey))
	for _, wa := range w.byKey {
		all = append(all, wa)
	}
	sortAssociations(all)
	return all
}

// ForTable 返回涉及该表的弱关联
func (w *WeakAssociations) ForTable(table *schema.Table) []WeakAssociation {
	if w == nil || table == nil {
		return nil
	}
	list := append([]WeakAssociation(nil), w.byTable[table.FullName()]...)
	sortAssociations(list)
	return list
}

func sortAssociations(list []WeakAssociation) {
	sort.Slice(list, func(i, j int) bool {
		fi, fj := list[i].ForeignKeyColumn.FullName(), list[j].ForeignKeyColumn.FullName()
		if fi != fj {
			return fi < fj
		}
		return list[i].PrimaryKeyColumn.FullName() < list[j].PrimaryKeyColumn.FullName()
	})
}

// WeakAssociationsAnalyzer 弱关联推断器
type WeakAssociationsAnalyzer struct {
	tables []*schema.Table
	logger *zap.Logger
}

// NewWeakAssociationsAnalyzer 创建推断器
func NewWeakAssociationsAnalyzer(tables []*schema.Table, logger *zap.Logger) (*WeakAssociationsAnalyzer, error) {
	if tables == nil {
		return nil, ErrNoTables
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeakAssociationsAnalyzer{tables: tables, logger: logger}, nil
}

// Analyze 推断弱关联
//
// 按命名约定把 "xxx_id" 一类的列与表名匹配，再要求被匹配的表有单列主键
// 且类型码相同。已经声明为外键的关系不会重复记录。
func (a *WeakAssociationsAnalyzer) Analyze() *WeakAssociations {
	result := NewWeakAssociations()
	if len(a.tables) < minTablesForAnalysis {
		return result
	}

	tableKeys := NewTableMatchKeys(a.tables)
	a.logger.Debug("table name prefixes", zap.Strings("prefixes", tableKeys.Prefixes()))
	a.logger.Debug("table match keys", zap.Strings("keys", tableKeys.Keys()))

	for _, table := range a.tables {
		for _, m := range columnMatches(table) {
			fkColumn := m.column
			for _, matched := range tableKeys.Get(m.key) {
				if matched == fkColumn.Table {
					continue
				}
				// 已有外键
				if hasForeignKeyTo(fkColumn, matched) {
					continue
				}
				pkColumn := primaryKeyColumn(matched)
				if pkColumn == nil {
					continue
				}
				if pkColumn.Type.SQLType != fkColumn.Type.SQLType {
					continue
				}
				wa := WeakAssociation{PrimaryKeyColumn: pkColumn, ForeignKeyColumn: fkColumn}
				if result.Add(wa) {
					a.logger.Debug("found weak association",
						zap.String("fk", fkColumn.FullName()),
						zap.String("pk", pkColumn.FullName()))
				}
			}
		}
	}

	return result
}

// hasForeignKeyTo 列是否已通过外键引用目标表
func hasForeignKeyTo(column *schema.Column, target *schema.Table) bool {
	for _, fk := range column.Table.ForeignKeys {
		for _, ref := range fk.Columns {
			if ref.ForeignKeyColumn == column && ref.PrimaryKeyColumn.Table == target {
				return true
			}
		}
	}
	return false
}
