package lint

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"schemacrawler/internal/schema"
)

var (
	// ErrThresholdExceeded 有检查器超过阈值
	ErrThresholdExceeded = errors.New("too many schema lints were found")
	// ErrTerminate 要求以非零状态退出
	ErrTerminate = errors.New("too many schema lints were found, terminating")
)

// DispatchMode 超过阈值后的处理方式
type DispatchMode string

const (
	DispatchNone            DispatchMode = "none"
	DispatchWriteErr        DispatchMode = "write_err"
	DispatchThrowException  DispatchMode = "throw_exception"
	DispatchTerminateSystem DispatchMode = "terminate_system"
)

// ParseDispatchMode 解析处理方式，空字符串视为 none
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch m := DispatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return DispatchNone, nil
	case DispatchNone, DispatchWriteErr, DispatchThrowException, DispatchTerminateSystem:
		return m, nil
	default:
		return DispatchNone, fmt.Errorf("unknown lint dispatch mode %q", s)
	}
}

// Options 运行选项
type Options struct {
	// RunAllLinters 运行所有已注册的检查器，配置文件只用来覆盖参数
	RunAllLinters bool
	Configs       *LinterConfigs
	Dispatch      DispatchMode
}

// Linters 一组检查器
type Linters struct {
	linters   []Linter
	collector *Collector
	dispatch  DispatchMode
	logger    *zap.Logger
}

// NewLinters 根据配置创建检查器
func NewLinters(opts Options, logger *zap.Logger) (*Linters, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ls := &Linters{
		collector: NewCollector(),
		dispatch:  opts.Dispatch,
		logger:    logger,
	}
	if ls.dispatch == "" {
		ls.dispatch = DispatchNone
	}

	configured := make(map[string]bool)
	if opts.Configs != nil {
		for _, cfg := range opts.Configs.Linters {
			linter, known := NewLinter(cfg.ID)
			configured[linter.ID()] = true
			if !cfg.ShouldRun() {
				logger.Debug("linter disabled by configuration", zap.String("linter", cfg.ID))
				continue
			}
			if !known {
				logger.Warn("unknown linter, using no-op linter", zap.String("linter", cfg.ID))
			}
			if err := linter.Configure(cfg); err != nil {
				return nil, fmt.Errorf("configuring linter %s: %w", cfg.ID, err)
			}
			ls.linters = append(ls.linters, linter)
		}
	}

	if opts.RunAllLinters || opts.Configs == nil {
		for _, id := range RegisteredIDs() {
			if configured[id] {
				continue
			}
			linter, _ := NewLinter(id)
			if err := linter.Configure(LinterConfig{ID: id}); err != nil {
				return nil, fmt.Errorf("configuring linter %s: %w", id, err)
			}
			ls.linters = append(ls.linters, linter)
		}
	}

	return ls, nil
}

// Lint 运行全部检查器；conn 为 nil 时跳过需要连接的检查器
func (ls *Linters) Lint(ctx context.Context, catalog *schema.Catalog, conn Connection) error {
	for _, linter := range ls.linters {
		if linter.UsesConnection() && conn == nil {
			ls.logger.Warn("skipping linter, no database connection", zap.String("linter", linter.ID()))
			continue
		}
		ls.logger.Debug("running linter", zap.String("linter", linter.ID()))
		if err := linter.Lint(ctx, catalog, conn, ls.collector); err != nil {
			return fmt.Errorf("running linter %s: %w", linter.ID(), err)
		}
	}
	return nil
}

// Collector 收集到的 lint
func (ls *Linters) Collector() *Collector {
	return ls.collector
}

// Linters 参与运行的检查器
func (ls *Linters) Linters() []Linter {
	return ls.linters
}

// ExceedingThreshold 超过阈值的检查器
func (ls *Linters) ExceedingThreshold() []Linter {
	var exceeded []Linter
	for _, l := range ls.linters {
		if l.ExceedsThreshold() {
			exceeded = append(exceeded, l)
		}
	}
	return exceeded
}

// Dispatch 按处理方式处理超过阈值的情况
func (ls *Linters) Dispatch() error {
	exceeded := ls.ExceedingThreshold()
	if len(exceeded) == 0 {
		return nil
	}

	ids := make([]string, len(exceeded))
	for i, l := range exceeded {
		ids[i] = fmt.Sprintf("%s (%d)", l.ID(), l.LintCount())
	}

	switch ls.dispatch {
	case DispatchWriteErr:
		ls.logger.Warn(ErrThresholdExceeded.Error(), zap.Strings("linters", ids))
	case DispatchThrowException:
		return fmt.Errorf("%w: %s", ErrThresholdExceeded, strings.Join(ids, ", "))
	case DispatchTerminateSystem:
		ls.logger.Error(ErrThresholdExceeded.Error(), zap.Strings("linters", ids))
		return fmt.Errorf("%w: %s", ErrTerminate, strings.Join(ids, ", "))
	}
	return nil
}
