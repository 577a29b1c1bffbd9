package crawl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"schemacrawler/internal/adapter"
	"schemacrawler/internal/analyzer"
	"schemacrawler/internal/graph"
	"schemacrawler/internal/schema"
)

// Version 工具版本，构建时用 -ldflags 覆盖
var Version = "dev"

// Result 爬取结果
//
// 弱关联和行数不挂在表对象上，按表全名放在旁表里。
type Result struct {
	Catalog          *schema.Catalog
	WeakAssociations *analyzer.WeakAssociations
	RowCounts        map[string]int64
}

// RowCount 表的行数，没有统计时返回 false
func (r *Result) RowCount(t *schema.Table) (int64, bool) {
	if r == nil || r.RowCounts == nil {
		return 0, false
	}
	n, ok := r.RowCounts[t.FullName()]
	return n, ok
}

// Crawler 爬取数据库元数据
type Crawler struct {
	adapter adapter.DBAdapter
	logger  *zap.Logger
}

// NewCrawler 创建 Crawler
func NewCrawler(a adapter.DBAdapter, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{adapter: a, logger: logger}
}

// Crawl 获取元数据，按选项过滤、分析、排序
func (c *Crawler) Crawl(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	expand := opts.ParentTableDepth > 0 || opts.ChildTableDepth > 0

	retrieval := opts.InfoLevel.Retrieval()
	retrieval.Schemas = opts.Schemas
	retrieval.Routines = opts.Routines
	retrieval.TableTypes = opts.TableTypes
	if !expand {
		retrieval.Tables = opts.Tables
	}
	if opts.Grep.Parameters != nil {
		retrieval.RoutineParameters = true
	}
	// 弱关联分析要排除已声明的外键，父表/子表展开沿外键进行
	if opts.WeakAssociations || expand {
		retrieval.Columns = true
		retrieval.PrimaryKeys = true
		retrieval.ForeignKeys = true
	}

	opts.progress("retrieving metadata", 10)
	catalog, err := c.adapter.IntrospectSchema(ctx, retrieval)
	if err != nil {
		return nil, fmt.Errorf("crawling catalog: %w", err)
	}
	c.logger.Debug("retrieved metadata",
		zap.Int("tables", len(catalog.Tables)),
		zap.Int("routines", len(catalog.Routines)))

	opts.progress("filtering", 40)
	excludeColumns(catalog.Tables, opts)
	catalog.Tables = c.selectTables(catalog.Tables, opts, expand)
	catalog.Routines = selectRoutines(catalog.Routines, opts.Grep)
	if opts.Grep.OnlyMatching {
		dropOutsideForeignKeys(catalog.Tables)
	}

	result := &Result{Catalog: catalog}

	if opts.WeakAssociations || opts.InfoLevel.WeakAssociations() {
		opts.progress("analyzing weak associations", 60)
		if result.WeakAssociations, err = c.weakAssociations(catalog.Tables); err != nil {
			return nil, err
		}
	}

	if opts.LoadRowCounts {
		opts.progress("counting rows", 80)
		result.RowCounts = c.rowCounts(ctx, catalog.Tables)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	c.sort(catalog, opts)
	catalog.CrawlInfo = schema.CrawlInfo{
		RunID:          uuid.NewString(),
		CrawlTimestamp: start,
		ToolVersion:    Version,
		InfoLevel:      opts.InfoLevel.String(),
	}

	opts.progress("done", 100)
	c.logger.Info("crawl finished",
		zap.String("runId", catalog.CrawlInfo.RunID),
		zap.Int("tables", len(catalog.Tables)),
		zap.Int("routines", len(catalog.Routines)),
		zap.Int("weakAssociations", result.WeakAssociations.Len()),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func excludeColumns(tables []*schema.Table, opts Options) {
	if opts.Columns == nil {
		return
	}
	for _, t := range tables {
		kept := t.Columns[:0]
		for _, col := range t.Columns {
			if opts.Columns.Matches(col.FullName()) {
				kept = append(kept, col)
			}
		}
		t.Columns = kept
	}
}

// selectTables 应用表规则和 grep，再按外键层数加回父表、子表
func (c *Crawler) selectTables(tables []*schema.Table, opts Options, expand bool) []*schema.Table {
	selected := make(map[*schema.Table]bool)
	for _, t := range tables {
		if expand && !opts.Tables.MatchesObject(t.FullName(), t.Name) {
			continue
		}
		if opts.Grep.MatchTable(t) {
			selected[t] = true
		}
	}

	if expand {
		matched := len(selected)
		addRelated(selected, opts.ParentTableDepth, parentTables)
		addRelated(selected, opts.ChildTableDepth, childTables)
		c.logger.Debug("added related tables", zap.Int("count", len(selected)-matched))
	}

	var out []*schema.Table
	for _, t := range tables {
		if selected[t] {
			out = append(out, t)
		}
	}
	return out
}

// parentTables 被 t 的外键引用的表
func parentTables(t *schema.Table) []*schema.Table {
	var parents []*schema.Table
	for _, fk := range t.ForeignKeys {
		if fk.ReferencingTable() == t && fk.ReferencedTable() != t {
			parents = append(parents, fk.ReferencedTable())
		}
	}
	return parents
}

// childTables 外键引用 t 的表
func childTables(t *schema.Table) []*schema.Table {
	var children []*schema.Table
	for _, fk := range t.ForeignKeys {
		if fk.ReferencedTable() == t && fk.ReferencingTable() != t {
			children = append(children, fk.ReferencingTable())
		}
	}
	return children
}

func addRelated(selected map[*schema.Table]bool, depth int, related func(*schema.Table) []*schema.Table) {
	frontier := make([]*schema.Table, 0, len(selected))
	for t := range selected {
		frontier = append(frontier, t)
	}
	for i := 0; i < depth && len(frontier) > 0; i++ {
		var next []*schema.Table
		for _, t := range frontier {
			for _, r := range related(t) {
				if !selected[r] {
					selected[r] = true
					next = append(next, r)
				}
			}
		}
		frontier = next
	}
}

func selectRoutines(routines []*schema.Routine, grep GrepOptions) []*schema.Routine {
	var out []*schema.Routine
	for _, r := range routines {
		if grep.MatchRoutine(r) {
			out = append(out, r)
		}
	}
	return out
}

func dropOutsideForeignKeys(tables []*schema.Table) {
	included := make(map[*schema.Table]bool, len(tables))
	for _, t := range tables {
		included[t] = true
	}
	for _, t := range tables {
		kept := t.ForeignKeys[:0]
		for _, fk := range t.ForeignKeys {
			if included[fk.ReferencingTable()] && included[fk.ReferencedTable()] {
				kept = append(kept, fk)
			}
		}
		t.ForeignKeys = kept
	}
}

func (c *Crawler) weakAssociations(tables []*schema.Table) (*analyzer.WeakAssociations, error) {
	if len(tables) == 0 {
		return analyzer.NewWeakAssociations(), nil
	}
	a, err := analyzer.NewWeakAssociationsAnalyzer(tables, c.logger)
	if err != nil {
		return nil, fmt.Errorf("analyzing weak associations: %w", err)
	}
	return a.Analyze(), nil
}

func (c *Crawler) rowCounts(ctx context.Context, tables []*schema.Table) map[string]int64 {
	counts := make(map[string]int64)
	for _, t := range tables {
		if t.Type == schema.TableTypeView {
			continue
		}
		n, err := c.adapter.EstimateRowCount(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return counts
			}
			c.logger.Warn("could not count rows", zap.String("table", t.FullName()), zap.Error(err))
			continue
		}
		counts[t.FullName()] = n
	}
	return counts
}

func (c *Crawler) sort(catalog *schema.Catalog, opts Options) {
	for _, t := range catalog.Tables {
		t.SortColumns(opts.SortColumns)
	}
	for _, r := range catalog.Routines {
		params := r.Parameters
		sort.SliceStable(params, func(i, j int) bool {
			if opts.SortParameters {
				return strings.ToLower(params[i].Name) < strings.ToLower(params[j].Name)
			}
			return params[i].Ordinal < params[j].Ordinal
		})
	}

	schema.SortTablesByName(catalog.Tables)
	if opts.TableOrder != TableOrderDependency {
		return
	}
	order, err := graph.Build(catalog, nil).TopologicalSort()
	if err != nil && !errors.Is(err, graph.ErrCycle) {
		c.logger.Warn("could not sort tables by dependency", zap.Error(err))
		return
	}
	if err != nil {
		c.logger.Debug("foreign key cycle, cycle members sorted by name")
	}
	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	sort.SliceStable(catalog.Tables, func(i, j int) bool {
		return position[catalog.Tables[i].FullName()] < position[catalog.Tables[j].FullName()]
	})
}
