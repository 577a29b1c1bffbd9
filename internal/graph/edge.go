package graph

// EdgeType 边类型
type EdgeType string

const (
	EdgeTypeFK              EdgeType = "foreign_key"      // 声明的外键
	EdgeTypeWeakAssociation EdgeType = "weak_association" // 推断的弱关联
)

// Edge 图的边，从引用方表指向被引用表
type Edge struct {
	ID      string       `json:"id"`
	Type    EdgeType     `json:"type"`
	Name    string       `json:"name,omitempty"`
	From    string       `json:"from"` // 引用方节点ID
	To      string       `json:"to"`   // 被引用节点ID
	Columns []ColumnPair `json:"columns"`
}

// ColumnPair 外键列 → 主键列
type ColumnPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// IsSelfReference 是否自引用
func (e *Edge) IsSelfReference() bool {
	return e.From == e.To
}
