package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function restoring output, level and format.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	originalLevel := currentLevel.Load()
	originalFormat, _ := currentFormat.Load().(string)
	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		currentLevel.Store(originalLevel)
		currentFormat.Store(originalFormat)
		reconfigure()
	}

	return buf, cleanup
}

// ============================================================================
// Level Filtering Tests
// ============================================================================

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"DEBUG", []string{"debug message", "info message", "warn message", "error message"}, nil},
		{"INFO", []string{"info message", "warn message", "error message"}, []string{"debug message"}},
		{"WARN", []string{"warn message", "error message"}, []string{"debug message", "info message"}},
		{"ERROR", []string{"error message"}, []string{"debug message", "info message", "warn message"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf, cleanup := captureOutput()
			defer cleanup()

			SetLevel(tt.level)
			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")

			out := buf.String()
			for _, msg := range tt.visible {
				assert.Contains(t, out, msg)
			}
			for _, msg := range tt.hidden {
				assert.NotContains(t, out, msg)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	t.Run("CaseInsensitive", func(t *testing.T) {
		_, cleanup := captureOutput()
		defer cleanup()

		SetLevel("debug")
		assert.True(t, IsDebugEnabled())
		SetLevel("Warn")
		assert.False(t, IsDebugEnabled())
	})

	t.Run("IgnoresInvalidValues", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		SetLevel("LOUD")
		Info("hidden")
		Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("warning")
	assert.True(t, ok)
	assert.Equal(t, LevelWarn, l)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)

	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

// ============================================================================
// Formatting Tests
// ============================================================================

func TestTextFormat(t *testing.T) {
	t.Run("IncludesLevelAndFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		Info("login succeeded", KeyPrincipal, "alice@EXAMPLE.COM", KeyStatus, 200)

		out := buf.String()
		assert.Contains(t, out, "[INFO] login succeeded")
		assert.Contains(t, out, "principal=alice@EXAMPLE.COM")
		assert.Contains(t, out, "status=200")
	})

	t.Run("QuotesValuesWithSpaces", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		Warn("validation failed", KeyError, "decrypt failed: bad key")
		assert.Contains(t, buf.String(), `error="decrypt failed: bad key"`)
	})

	t.Run("GroupsArePrefixed", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		With("component", "negotiate").WithGroup("ticket").Info("issued", "realm", "EXAMPLE.COM")

		out := buf.String()
		assert.Contains(t, out, "component=negotiate")
		assert.Contains(t, out, "ticket.realm=EXAMPLE.COM")
	})
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	Info("session issued", KeySessionID, "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "session issued", record["msg"])
	assert.Equal(t, "abc", record[KeySessionID])
	assert.Contains(t, record, "time")
}

func TestFormatSwitchIgnoresInvalid(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	SetFormat("xml")
	Info("still text")

	assert.True(t, strings.HasPrefix(buf.String(), "["))
}

// ============================================================================
// Context Logging Tests
// ============================================================================

func TestContextLogging(t *testing.T) {
	t.Run("InjectsRequestFields", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		lc := NewLogContext("10.0.0.1")
		lc.RequestID = "req-1"
		lc.Method = "GET"
		lc.Path = "/login"
		ctx := WithContext(context.Background(), lc.WithPrincipal("bob@EXAMPLE.COM"))

		InfoCtx(ctx, "authenticated")

		out := buf.String()
		assert.Contains(t, out, "request_id=req-1")
		assert.Contains(t, out, "client_ip=10.0.0.1")
		assert.Contains(t, out, "path=/login")
		assert.Contains(t, out, "principal=bob@EXAMPLE.COM")
	})

	t.Run("ContextWithoutLogContext", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		WarnCtx(context.Background(), "plain")
		assert.Contains(t, buf.String(), "plain")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext("192.0.2.1")
		clone := lc.WithTrace("trace", "span")

		assert.Empty(t, lc.TraceID)
		assert.Equal(t, "trace", clone.TraceID)
		assert.Equal(t, lc.ClientIP, clone.ClientIP)
	})

	t.Run("NilSafe", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithPrincipal("x"))
		assert.Zero(t, lc.DurationMs())
	})
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, KeyError, Err(errors.New("boom")).Key)
	assert.True(t, Err(nil).Equal(Err(nil)))
	assert.Equal(t, KeySecurityEvent, SecurityEvent().Key)
	assert.True(t, SecurityEvent().Value.Bool())
}

// ============================================================================
// Concurrency / Init Tests
// ============================================================================

func TestConcurrentLogging(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				Info("tick", "id", id, "n", j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, goroutines*perGoroutine)
}

func TestInitWithFile(t *testing.T) {
	_, cleanup := captureOutput()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "kerbgate.log")
	require.NoError(t, Init(Config{Level: "INFO", Format: "json", Output: path}))
	Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}

func TestInitBadFile(t *testing.T) {
	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}
