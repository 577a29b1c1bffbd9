// Package logging 构建 zap 日志和命令行进度输出
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel 默认只输出警告和错误
const DefaultLevel = "warn"

// NewLogger 按级别构建日志，输出到 stderr（stdout 留给报告）
func NewLogger(level string) (*zap.Logger, error) {
	return newLogger(level, zapcore.Lock(os.Stderr))
}

func newLogger(level string, out zapcore.WriteSyncer) (*zap.Logger, error) {
	if strings.TrimSpace(level) == "" {
		level = DefaultLevel
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q (use debug, info, warn or error)", level)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), out, lvl)
	return zap.New(core), nil
}

// Progress 命令行进度提示
type Progress struct {
	out   io.Writer
	quiet bool
}

// NewProgress 创建进度输出，quiet 时什么都不打印
func NewProgress(out io.Writer, quiet bool) *Progress {
	return &Progress{out: out, quiet: quiet}
}

// Step 开始一个步骤
func (p *Progress) Step(emoji, format string, args ...interface{}) {
	p.print(color.New(color.FgCyan), emoji+" "+format, args...)
}

// Done 步骤完成
func (p *Progress) Done(format string, args ...interface{}) {
	p.print(color.New(color.FgGreen), "✓ "+format, args...)
}

// Warn 非致命问题
func (p *Progress) Warn(format string, args ...interface{}) {
	p.print(color.New(color.FgYellow), "⚠ "+format, args...)
}

// Fail 致命错误，quiet 时也输出
func (p *Progress) Fail(format string, args ...interface{}) {
	color.New(color.FgRed).Fprintf(p.out, "✗ "+format+"\n", args...)
}

func (p *Progress) print(c *color.Color, format string, args ...interface{}) {
	if p == nil || p.quiet {
		return
	}
	c.Fprintf(p.out, format+"\n", args...)
}
