package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(name string, level LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := New(name, WithOutput(buf), WithoutColor(), WithLevel(level))
	l.core.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 30, 45, 123000000, time.Local)
	}
	return l, buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{input: "DEBUG", want: DEBUG},
		{input: "info", want: INFO},
		{input: " Warn ", want: WARN},
		{input: "ERR", want: ERROR},
		{input: "error", want: ERROR},
		{input: "FATAL", want: FATAL},
		{input: "verbose", want: INFO, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_Format(t *testing.T) {
	l, buf := newTestLogger("server", DEBUG)

	l.Info("listening on port %d", 8080)

	assert.Equal(t, "[2024-05-01 12:30:45.123] [INFO ] [server] listening on port 8080\n", buf.String())
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger("rooms", WARN)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("shown warn")
	l.Error("shown error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN ] [rooms] shown warn")
	assert.Contains(t, out, "[ERROR] [rooms] shown error")

	l.SetLevel(DEBUG)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "[DEBUG] [rooms] now visible")
	assert.Equal(t, DEBUG, l.Level())
}

func TestLogger_NamedSharesCore(t *testing.T) {
	root, buf := newTestLogger("server", INFO)
	child := root.Named("network")

	child.Info("accepted")
	root.SetLevel(ERROR)
	child.Info("dropped")

	assert.Equal(t, "network", child.Name())
	assert.Contains(t, buf.String(), "[network] accepted")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestLogger_SetFile(t *testing.T) {
	l, buf := newTestLogger("server", INFO)
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	require.NoError(t, l.SetFile(path))
	l.Info("to both")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO ] [server] to both")
	assert.Contains(t, buf.String(), "to both")
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}

func TestLogger_Fatal(t *testing.T) {
	l, buf := newTestLogger("server", INFO)
	code := -1
	l.core.exit = func(c int) { code = c }

	l.Fatal("cannot bind: %s", "address in use")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] [server] cannot bind: address in use")
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Info("nothing")
		l.Error("still nothing")
	})
}
