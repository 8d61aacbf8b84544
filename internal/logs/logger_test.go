package logs

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, Debug, ParseLevel("debug"))
	assert.Equal(t, Warn, ParseLevel(" WARN "))
	assert.Equal(t, Error, ParseLevel("error"))
	assert.Equal(t, Off, ParseLevel("off"))
	assert.Equal(t, Info, ParseLevel("whatever"))
}

func TestDefaultLogger_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(buf, Warn)
	ctx := context.Background()
	l.Debug(ctx, "debug %v", 1)
	l.Info(ctx, "info %v", 2)
	l.Warn(ctx, "warn %v", 3)
	l.Error(ctx, "error %v", 4)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, 2, len(lines))
	assert.Equal(t, true, strings.Contains(lines[0], "[WARN]"))
	assert.Equal(t, true, strings.HasSuffix(lines[0], "warn 3"))
	assert.Equal(t, true, strings.Contains(lines[1], "[ERROR]"))
	assert.Equal(t, true, strings.Contains(lines[1], "logger_test.go"))
}
