package logging

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger("", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN")
	assert.Contains(t, buf.String(), "shown")

	logger, err = newLogger("DEBUG", zapcore.AddSync(&buf))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = newLogger("verbose", zapcore.AddSync(&buf))
	assert.Error(t, err)
}

func TestProgress(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	p := NewProgress(&buf, false)
	p.Step("🔍", "crawling %s", "books")
	p.Done("found %d tables", 5)
	assert.Equal(t, "🔍 crawling books\n✓ found 5 tables\n", buf.String())

	buf.Reset()
	quiet := NewProgress(&buf, true)
	quiet.Step("🔍", "crawling")
	quiet.Warn("slow")
	assert.Empty(t, buf.String())
	quiet.Fail("boom")
	assert.Equal(t, "✗ boom\n", buf.String())
}
