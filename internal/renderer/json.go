package renderer

import (
	"encoding/json"
	"io"
)

// JSONRenderer 序列化为 JSON
type JSONRenderer struct{}

// NewJSONRenderer 创建渲染器
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// RenderSchema 输出目录文档
func (r *JSONRenderer) RenderSchema(w io.Writer, report *Report) error {
	return writeJSON(w, newCatalogDocument(report))
}

// RenderLints 输出 lint 文档
func (r *JSONRenderer) RenderLints(w io.Writer, report *LintReport) error {
	return writeJSON(w, newLintDocument(report))
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
