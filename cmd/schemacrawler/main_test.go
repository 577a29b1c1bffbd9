package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schemacrawler/internal/command"
	"schemacrawler/internal/testdb"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(append(args, "--quiet"))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestRun_Schema(t *testing.T) {
	url := testdb.Create(t)
	out, err := execute(t, "--url", url, "--command", "schema", "--no-info", "--info-level", "maximum")
	require.NoError(t, err)
	assert.Contains(t, out, "BOOKS")
	assert.Contains(t, out, "PUBLISHERS")
}

func TestRun_MultipleCommandsToFile(t *testing.T) {
	url := testdb.Create(t)
	file := filepath.Join(t.TempDir(), "out.csv")
	out, err := execute(t, "--url", url, "--command", "count, list", "--output-format", "csv", "--output-file", file, "--no-info")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BOOKS,3 rows")
	assert.Contains(t, string(data), "PUBLISHERS")
}

func TestRun_TableFilter(t *testing.T) {
	url := testdb.Create(t)
	out, err := execute(t, "--url", url, "--command", "list", "--tables", "BOOKS", "--output-format", "csv", "--no-info")
	require.NoError(t, err)
	assert.Contains(t, out, "BOOKS")
	assert.NotContains(t, out, "PUBLISHERS")
}

func TestRun_Errors(t *testing.T) {
	url := testdb.Create(t)

	_, err := execute(t, "--url", url, "--command", "shema")
	assert.ErrorIs(t, err, command.ErrUnknownCommand)
	assert.Contains(t, err.Error(), `did you mean "schema"?`)

	_, err = execute(t, "--url", url, "--command", "list", "--info-level", "everything")
	assert.Error(t, err)

	_, err = execute(t, "--url", url, "--command", "list", "--tables", "(")
	assert.Error(t, err)

	_, err = execute(t, "--url", url, "--command", "list,brief", "--output-format", "png", "--output-file", "x.png")
	assert.ErrorContains(t, err, "single command")

	_, err = execute(t, "--url", url, "--command", "lint", "--lint-dispatch", "explode")
	assert.ErrorContains(t, err, "explode")

	_, err = execute(t, "--url", url)
	assert.ErrorContains(t, err, "command")
}

func TestRun_LegacyFlagNames(t *testing.T) {
	url := testdb.Create(t)
	out, err := execute(t, "--url", url, "--command", "list", "--outputformat", "csv", "--sorttables", "dependency", "--infolevel", "detailed", "--no-info")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "PUBLISHERS"), strings.Index(out, "BOOK_AUTHORS"))
}

type failingCloser struct{ err error }

func (f failingCloser) Close() error { return f.err }

func TestCloseOutput(t *testing.T) {
	diskFull := errors.New("no space left on device")

	var err error
	closeOutput(failingCloser{diskFull}, &err)
	assert.ErrorIs(t, err, diskFull)

	earlier := errors.New("render failed")
	err = earlier
	closeOutput(failingCloser{diskFull}, &err)
	assert.Equal(t, earlier, err)

	err = nil
	closeOutput(failingCloser{}, &err)
	assert.NoError(t, err)
}
