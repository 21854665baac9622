package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesDailyFileWithComponent(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&Config{Enabled: true, Level: "INFO", LogsDir: dir}, "App")
	defer l.Close()

	l.WithPrefix("HTTP").Info("Request completed", "status", 200, "dangling")
	l.Debug("hidden")

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `component="App [HTTP]"`)
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "dangling=\"?\"")
	assert.False(t, strings.Contains(out, "hidden"), "debug не должен попадать в лог уровня INFO")
}

func TestRemoveOlderThan(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2000-01-01.log")
	require.NoError(t, os.WriteFile(old, []byte("x"), 0o644))
	past := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	l := NewLogger(&Config{Enabled: true, Level: "ERROR", LogsDir: dir}, "App")
	defer l.Close()
	l.removeOlderThan(time.Now().Add(-24 * time.Hour))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, time.Now().Format("2006-01-02")+".log"))
	assert.NoError(t, err)
}

func TestDisabledLoggerDiscards(t *testing.T) {
	l := NewLogger(&Config{Enabled: false, LogsDir: t.TempDir()}, "App")
	assert.Nil(t, l.file)
	l.Error("nothing")
	assert.NotNil(t, l.Entry())
}
