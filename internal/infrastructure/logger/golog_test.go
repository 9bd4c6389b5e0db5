package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGologLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf})

	l.Info("камера %s", "cam-0")
	l.Error("ошибка %d", 42)
	l.Debug("скрытое сообщение")

	out := buf.String()
	assert.Contains(t, out, "камера cam-0")
	assert.Contains(t, out, "ошибка 42")
	assert.NotContains(t, out, "скрытое сообщение")
}

func TestGologLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Debug: true})

	l.Debug("кадров: %d", 30)
	assert.Contains(t, buf.String(), "кадров: 30")
}

func TestGologLogger_File(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "photobooth.log")
	l := New(Options{Output: &buf, File: path})

	l.Info("запись в файл")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "запись в файл")
	assert.Contains(t, buf.String(), "запись в файл")
}

func TestGologLogger_Child(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf}).Child("camera")

	l.Info("открыта")
	assert.Contains(t, buf.String(), "открыта")
	assert.NoError(t, l.Close())
}
