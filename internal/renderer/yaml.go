package renderer

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLRenderer 序列化为 YAML
type YAMLRenderer struct{}

// NewYAMLRenderer 创建渲染器
func NewYAMLRenderer() *YAMLRenderer {
	return &YAMLRenderer{}
}

// RenderSchema 输出目录文档
func (r *YAMLRenderer) RenderSchema(w io.Writer, report *Report) error {
	return writeYAML(w, newCatalogDocument(report))
}

// RenderLints 输出 lint 文档
func (r *YAMLRenderer) RenderLints(w io.Writer, report *LintReport) error {
	return writeYAML(w, newLintDocument(report))
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
