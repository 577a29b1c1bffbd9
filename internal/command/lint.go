package command

import (
	"context"
	"io"

	"schemacrawler/internal/lint"
	"schemacrawler/internal/renderer"
)

// LintCommand 运行检查器并输出 lint 报告
type LintCommand struct{}

// Execute 先写报告，再按阈值处理方式返回错误
func (l *LintCommand) Execute(ctx context.Context, c *Context) error {
	lr, err := renderer.NewLintRenderer(c.Output.Format)
	if err != nil {
		return err
	}
	linters, err := lint.NewLinters(c.Lint, c.logger())
	if err != nil {
		return err
	}

	var conn lint.Connection
	if c.Adapter != nil {
		conn = c.Adapter
	}
	catalog := c.Result.Catalog
	if err := linters.Lint(ctx, catalog, conn); err != nil {
		return err
	}

	report := &renderer.LintReport{Catalog: catalog, Collector: linters.Collector(), Options: c.Format}
	if err := c.write(func(w io.Writer) error {
		return lr.RenderLints(w, report)
	}); err != nil {
		return err
	}
	return linters.Dispatch()
}
