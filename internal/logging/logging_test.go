package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerBeforeInitDiscards(t *testing.T) {
	Shutdown()
	log := Logger()
	require.NotNil(t, log)
	log.Info("goes nowhere")
}

func TestForComponentPicksUpLateInit(t *testing.T) {
	Shutdown()
	// Component logger created before Init, as package-level vars are.
	log := ForComponent(CompLocal)

	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "debug"})
	t.Cleanup(Shutdown)

	log.Info("hello from component", "k", "v")

	data, err := os.ReadFile(filepath.Join(dir, "unified-history.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"local"`)
	assert.Contains(t, string(data), "hello from component")
}

func TestInitLevelFiltering(t *testing.T) {
	Shutdown()
	dir := t.TempDir()
	Init(Config{LogDir: dir, Level: "warn"})
	t.Cleanup(Shutdown)

	Logger().Info("suppressed")
	Logger().Warn("kept")

	data, _ := os.ReadFile(filepath.Join(dir, "unified-history.log"))
	assert.False(t, strings.Contains(string(data), "suppressed"))
	assert.Contains(t, string(data), "kept")
}
