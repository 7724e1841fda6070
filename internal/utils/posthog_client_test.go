package utils

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosthogClientWrapper_WithoutKeyIsNoOp(t *testing.T) {
	w := InitializePosthogClient("", slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.False(t, w.IsInitialized())
	assert.NotPanics(t, func() {
		w.Enqueue("user-1", "api_v1_journal-entries", map[string]any{"method": "GET"})
		w.Close()
	})
}
