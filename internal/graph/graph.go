package graph

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"schemacrawler/internal/analyzer"
	"schemacrawler/internal/schema"
)

// ErrCycle 依赖图中存在环
var ErrCycle = errors.New("table dependency graph contains a cycle")

// SchemaGraph 数据库结构图
type SchemaGraph struct {
	mu    sync.RWMutex
	Nodes map[string]*Node `json:"nodes"`
	Edges map[string]*Edge `json:"edges"`
}

// NewSchemaGraph 创建新图
func NewSchemaGraph() *SchemaGraph {
	return &SchemaGraph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
	}
}

// Build 由爬取结果建图，weak 可以为 nil
func Build(catalog *schema.Catalog, weak *analyzer.WeakAssociations) *SchemaGraph {
	g := NewSchemaGraph()
	for _, t := range catalog.Tables {
		nodeType := NodeTypeTable
		if t.IsView() {
			nodeType = NodeTypeView
		}
		g.AddNode(&Node{
			ID:     t.FullName(),
			Type:   nodeType,
			Name:   t.Name,
			Schema: t.Schema.FullName(),
			Properties: map[string]interface{}{
				"columns": len(t.Columns),
				"remarks": t.Remarks,
			},
		})
	}

	for _, t := range catalog.Tables {
		for _, fk := range t.ImportedForeignKeys() {
			edge := &Edge{
				ID:   "fk:" + t.FullName() + "." + fk.Name,
				Type: EdgeTypeFK,
				Name: fk.Name,
				From: t.FullName(),
				To:   fk.ReferencedTable().FullName(),
			}
			for _, ref := range fk.Columns {
				edge.Columns = append(edge.Columns, ColumnPair{
					From: ref.ForeignKeyColumn.FullName(),
					To:   ref.PrimaryKeyColumn.FullName(),
				})
			}
			g.AddEdge(edge)
		}
	}

	for _, wa := range weak.All() {
		g.AddEdge(&Edge{
			ID:   "weak:" + wa.Key(),
			Type: EdgeTypeWeakAssociation,
			From: wa.ForeignKeyColumn.Table.FullName(),
			To:   wa.PrimaryKeyColumn.Table.FullName(),
			Columns: []ColumnPair{{
				From: wa.ForeignKeyColumn.FullName(),
				To:   wa.PrimaryKeyColumn.FullName(),
			}},
		})
	}

	return g
}

// AddNode 添加节点
func (g *SchemaGraph) AddNode(node *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Nodes[node.ID] = node
}

// AddEdge 添加边
func (g *SchemaGraph) AddEdge(edge *Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Edges[edge.ID] = edge
}

// GetNode 获取节点
func (g *SchemaGraph) GetNode(id string) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Nodes[id]
}

// SortedNodes 按 ID 排序的节点
func (g *SchemaGraph) SortedNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	nodes := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

// SortedEdges 按 ID 排序的边，types 为空时返回全部
func (g *SchemaGraph) SortedEdges(types ...EdgeType) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := make([]*Edge, 0, len(g.Edges))
	for _, e := range g.Edges {
		if len(types) > 0 && !containsType(types, e.Type) {
			continue
		}
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges
}

func containsType(types []EdgeType, t EdgeType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

// adjacency 引用方 → 被引用表，只看声明的外键，忽略自引用
func (g *SchemaGraph) adjacency() map[string][]string {
	edges := g.SortedEdges(EdgeTypeFK)

	g.mu.RLock()
	defer g.mu.RUnlock()
	adj := make(map[string][]string, len(g.Nodes))
	for id := range g.Nodes {
		adj[id] = nil
	}
	for _, e := range edges {
		if e.IsSelfReference() {
			continue
		}
		_, fromOK := g.Nodes[e.From]
		_, toOK := g.Nodes[e.To]
		if !fromOK || !toOK {
			continue
		}
		adj[e.From] = appendUnique(adj[e.From], e.To)
	}
	return adj
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}

// TopologicalSort 按依赖排序，被引用的表排在前面
//
// 存在环时，环上的表按名称追加在末尾，同时返回 ErrCycle。
func (g *SchemaGraph) TopologicalSort() ([]string, error) {
	adj := g.adjacency()

	// 入度 = 该表引用的表数量
	pending := make(map[string]int, len(adj))
	dependents := make(map[string][]string, len(adj))
	for from, tos := range adj {
		pending[from] += len(tos)
		for _, to := range tos {
			dependents[to] = append(dependents[to], from)
		}
	}

	var ready []string
	for id, n := range pending {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(adj))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		var next []string
		for _, dep := range dependents[id] {
			pending[dep]--
			if pending[dep] == 0 {
				next = append(next, dep)
			}
		}
		ready = append(ready, next...)
		sort.Strings(ready)
	}

	if len(order) == len(adj) {
		return order, nil
	}

	var rest []string
	for id, n := range pending {
		if n > 0 {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	return append(order, rest...), ErrCycle
}

// Cycles 返回所有环（强连通分量，大小 > 1），每个环内按名称排序
func (g *SchemaGraph) Cycles() [][]string {
	adj := g.adjacency()

	ids := make([]string, 0, len(adj))
	for id := range adj {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Tarjan
	index := 0
	indexes := make(map[string]int)
	lowlink := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var cycles [][]string

	var strongConnect func(v string)
	strongConnect = func(v string) {
		indexes[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if _, seen := indexes[w]; !seen {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] && indexes[w] < lowlink[v] {
				lowlink[v] = indexes[w]
			}
		}

		if lowlink[v] != indexes[v] {
			return
		}
		var component []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			component = append(component, w)
			if w == v {
				break
			}
		}
		if len(component) > 1 {
			sort.Strings(component)
			cycles = append(cycles, component)
		}
	}

	for _, id := range ids {
		if _, seen := indexes[id]; !seen {
			strongConnect(id)
		}
	}

	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// ToJSON 导出为JSON
func (g *SchemaGraph) ToJSON() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return json.MarshalIndent(g, "", "  ")
}
