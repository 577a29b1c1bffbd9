package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"schemacrawler/internal/graphviz"
	"schemacrawler/internal/renderer"
)

// ReportCommand schema 报告：list、brief、schema、details
type ReportCommand struct {
	Detail renderer.Detail
}

// Execute 渲染报告；图片格式先生成 DOT 再交给 Graphviz
func (r *ReportCommand) Execute(ctx context.Context, c *Context) error {
	report := &renderer.Report{Result: c.Result, Detail: r.Detail, Options: c.Format}
	if graphviz.IsImageFormat(c.Output.Format) {
		return writeDiagram(ctx, c, report)
	}

	sr, err := renderer.NewSchemaRenderer(c.Output.Format)
	if err != nil {
		return err
	}
	return c.write(func(w io.Writer) error {
		return sr.RenderSchema(w, report)
	})
}

func writeDiagram(ctx context.Context, c *Context, report *renderer.Report) error {
	if c.Output.File == "" {
		return fmt.Errorf("output format %q needs an output file", c.Output.Format)
	}
	if err := graphviz.Available(ctx); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.Output.File), "schemacrawler-*.dot")
	if err != nil {
		return fmt.Errorf("creating dot file: %w", err)
	}
	keep := false
	defer func() {
		if !keep {
			os.Remove(tmp.Name())
		}
	}()
	if err := renderer.NewDotRenderer().RenderSchema(tmp, report); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	c.logger().Debug("generating diagram",
		zap.String("format", c.Output.Format), zap.String("output", c.Output.File))
	err = graphviz.Generate(ctx, tmp.Name(), c.Output.File, c.Output.Format, c.Output.GraphvizOpts...)
	// 失败时 DOT 文件留给用户手动生成
	var procErr *graphviz.ProcessError
	keep = errors.As(err, &procErr)
	return err
}

// SerializeCommand 把完整目录序列化为 JSON 或 YAML
type SerializeCommand struct{}

// Execute 文本格式按 JSON 输出
func (s *SerializeCommand) Execute(_ context.Context, c *Context) error {
	format := renderer.NormalizeFormat(c.Output.Format)
	var sr renderer.SchemaRenderer
	switch format {
	case "json", "text":
		sr = renderer.NewJSONRenderer()
	case "yaml":
		sr = renderer.NewYAMLRenderer()
	default:
		return fmt.Errorf("%w for serialize: %q (use json or yaml)", renderer.ErrUnsupportedFormat, c.Output.Format)
	}
	report := &renderer.Report{Result: c.Result, Detail: renderer.DetailDetails, Options: c.Format}
	return c.write(func(w io.Writer) error {
		return sr.RenderSchema(w, report)
	})
}
