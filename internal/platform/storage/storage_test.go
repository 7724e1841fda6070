package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/SscSPs/buchungsjournal/internal/adapters/filestore"
	"github.com/SscSPs/buchungsjournal/internal/adapters/memory"
	"github.com/SscSPs/buchungsjournal/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenRepositories_Memory(t *testing.T) {
	repos, err := OpenRepositories(context.Background(), &config.Config{StorageBackend: config.BackendMemory}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &memory.JournalMemoryStore{}, repos.JournalRepo)
	assert.Nil(t, repos.Close)
}

func TestOpenRepositories_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	repos, err := OpenRepositories(context.Background(), &config.Config{StorageBackend: config.BackendFile, DataDir: dir}, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &filestore.JournalFileStore{}, repos.JournalRepo)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenRepositories_Unknown(t *testing.T) {
	_, err := OpenRepositories(context.Background(), &config.Config{StorageBackend: "redis"}, discardLogger())
	assert.ErrorContains(t, err, "redis")
}
