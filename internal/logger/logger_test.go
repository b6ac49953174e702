package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)
}

func TestErrorLogReceivesWarnings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.log")

	log, err := New("error", path)
	require.NoError(t, err)

	log.Info("crop detected", zap.String("path", "ok.mkv"))
	log.Warn("crop sample failed", zap.String("path", "movie.mkv"), zap.Float64("offset", 30))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, `"msg":"crop sample failed"`)
	assert.Contains(t, content, `"path":"movie.mkv"`)
	assert.Contains(t, content, `"offset":30`)
	assert.NotContains(t, content, "ok.mkv")
}
