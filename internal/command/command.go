// Package command 可执行的报告、lint 与数据操作命令
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"go.uber.org/zap"

	"schemacrawler/internal/adapter"
	"schemacrawler/internal/crawl"
	"schemacrawler/internal/lint"
	"schemacrawler/internal/renderer"
)

var (
	// ErrUnknownCommand 既不是内置命令也不是配置里的命名查询
	ErrUnknownCommand = errors.New("unknown command")
	// ErrNoConnection 命令需要数据库连接
	ErrNoConnection = errors.New("command needs a database connection")
)

// Executable 一个可执行命令
type Executable interface {
	Execute(ctx context.Context, c *Context) error
}

// Output 输出目标
type Output struct {
	Format string
	// File 为空时写到 Writer
	File   string
	Writer io.Writer
	// GraphvizOpts 额外传给 dot 的参数
	GraphvizOpts []string
}

// Context 命令运行时需要的一切
type Context struct {
	Adapter adapter.DBAdapter
	Result  *crawl.Result
	Output  Output
	Format  renderer.Options
	// Queries 配置文件里的命名查询
	Queries map[string]string
	Lint    lint.Options
	// SortColumns ${columns} 按字母顺序展开
	SortColumns bool
	Logger      *zap.Logger
}

func (c *Context) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// write 打开输出目标并渲染
func (c *Context) write(render func(w io.Writer) error) error {
	if c.Output.File == "" {
		w := c.Output.Writer
		if w == nil {
			w = os.Stdout
		}
		return render(w)
	}

	f, err := os.Create(c.Output.File)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Registry 命令注册表
type Registry struct {
	commands map[string]Executable
}

// NewRegistry 创建注册表并注册内置命令
func NewRegistry() *Registry {
	r := &Registry{commands: make(map[string]Executable)}
	r.Register("list", &ReportCommand{Detail: renderer.DetailList})
	r.Register("brief", &ReportCommand{Detail: renderer.DetailBrief})
	r.Register("schema", &ReportCommand{Detail: renderer.DetailSchema})
	r.Register("details", &ReportCommand{Detail: renderer.DetailDetails})
	r.Register("lint", &LintCommand{})
	r.Register("serialize", &SerializeCommand{})
	for _, op := range Operations {
		r.Register(op.Name, op)
	}
	return r
}

// Register 注册命令，同名覆盖
func (r *Registry) Register(name string, e Executable) {
	r.commands[strings.ToLower(name)] = e
}

// Names 已注册的命令名
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup 解析命令名；不是内置命令时查找同名的命名查询（配置文件里的键是小写）
func (r *Registry) Lookup(name string, queries map[string]string) (Executable, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if e, ok := r.commands[key]; ok {
		return e, nil
	}
	for _, k := range []string{strings.TrimSpace(name), key} {
		if sql, ok := queries[k]; ok && strings.TrimSpace(sql) != "" {
			return &QueryCommand{Name: k, Query: sql}, nil
		}
	}

	candidates := r.Names()
	for q := range queries {
		candidates = append(candidates, q)
	}
	if s := suggest(key, candidates); s != "" {
		return nil, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownCommand, name, s)
	}
	return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownCommand, name, strings.Join(r.Names(), ", "))
}

// 替换的代价与插入、删除相同
var suggestOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// suggest 编辑距离最近的候选，差得太远时返回空
func suggest(name string, candidates []string) string {
	best, bestDistance := "", -1
	for _, c := range candidates {
		d := levenshtein.DistanceForStrings([]rune(name), []rune(strings.ToLower(c)), suggestOptions)
		if bestDistance < 0 || d < bestDistance || (d == bestDistance && c < best) {
			best, bestDistance = c, d
		}
	}
	limit := len(name) / 2
	if limit < 2 {
		limit = 2
	}
	if bestDistance < 0 || bestDistance > limit {
		return ""
	}
	return best
}
