// Package graphviz 调用本地 Graphviz dot 程序，把 DOT 文件转成图片
package graphviz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Executable dot 可执行文件名，测试时可以替换
var Executable = "dot"

// ErrNotAvailable 找不到 dot 程序
var ErrNotAvailable = errors.New("graphviz is not available")

// ImageFormats dot 能直接输出的常用图片格式
var ImageFormats = []string{"png", "svg", "pdf", "jpg", "jpeg", "gif", "bmp", "tif", "tiff", "ps", "eps", "webp"}

// IsImageFormat 格式是否需要经过 Graphviz
func IsImageFormat(format string) bool {
	f := strings.ToLower(format)
	for _, image := range ImageFormats {
		if f == image {
			return true
		}
	}
	return false
}

// ProcessError dot 进程执行失败
type ProcessError struct {
	ExitCode int
	Output   string
	DotFile  string
	Command  []string
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("graphviz exited with code %d", e.ExitCode)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// Hint 手动生成图片的提示
func (e *ProcessError) Hint() string {
	return fmt.Sprintf("the DOT file was kept at %s; generate the image manually with: %s",
		e.DotFile, strings.Join(e.Command, " "))
}

// Available 检查 dot 是否可以运行
func Available(ctx context.Context) error {
	path, err := exec.LookPath(Executable)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	if _, err := run(ctx, path, "-V"); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	return nil
}

// Generate 把 dotFile 渲染成 outputFile
//
// 失败时 DOT 文件被移到输出文件旁边，返回的 *ProcessError 里带有手动生成的命令。
func Generate(ctx context.Context, dotFile, outputFile, format string, extraOpts ...string) error {
	args := append([]string{}, extraOpts...)
	args = append(args, "-T"+strings.ToLower(format), "-o", outputFile, dotFile)

	output, err := run(ctx, Executable, args...)
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	kept := keepDotFile(dotFile, outputFile)
	args[len(args)-1] = kept
	return &ProcessError{
		ExitCode: exitErr.ExitCode(),
		Output:   output,
		DotFile:  kept,
		Command:  append([]string{Executable}, args...),
	}
}

// rename 测试时可以替换，模拟跨文件系统移动失败
var rename = os.Rename

// keepDotFile 把 DOT 文件移到输出文件旁边
//
// 不能重命名时（例如跨文件系统）先复制再删除，复制也失败时保留原位置。
func keepDotFile(dotFile, outputFile string) string {
	target := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".dot"
	if target == dotFile {
		return dotFile
	}
	if err := rename(dotFile, target); err == nil {
		return target
	}
	if err := copyFile(dotFile, target); err != nil {
		os.Remove(target)
		return dotFile
	}
	os.Remove(dotFile)
	return target
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// run 执行命令，同时读取 stdout 和 stderr，避免管道写满阻塞
func run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", err
	}
	if err := cmd.Start(); err != nil {
		return "", err
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})
	copyErr := g.Wait()

	waitErr := cmd.Wait()
	output := strings.TrimSpace(outBuf.String() + "\n" + errBuf.String())
	if waitErr != nil {
		return output, waitErr
	}
	return output, copyErr
}
