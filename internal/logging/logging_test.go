package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Config{Format: "xml"}, "api")
	assert.Error(t, err)
}

func TestNewBuildsScopedLogger(t *testing.T) {
	logger, err := New(Config{Level: "warn", Format: "console"}, "api")
	require.NoError(t, err)
	require.NotNil(t, logger)

	child := logger.WithFields(map[string]any{"component": "test"})
	assert.NotNil(t, child)
}

func TestNoOpIsSafe(t *testing.T) {
	l := NoOp()
	l.Info("ignored", "k", "v")
	assert.Equal(t, l, l.WithFields(map[string]any{"a": 1}))
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "", normalizeLevel("loud"))
	assert.NotEmpty(t, normalizeLevel("WARNING"))
}
