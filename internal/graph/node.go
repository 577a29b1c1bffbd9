package graph

// NodeType 节点类型
type NodeType string

const (
	NodeTypeTable NodeType = "table"
	NodeTypeView  NodeType = "view"
)

// Node 图节点（一张表或视图）
type Node struct {
	ID         string                 `json:"id"`
	Type       NodeType               `json:"type"`
	Name       string                 `json:"name"`
	Schema     string                 `json:"schema,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}
