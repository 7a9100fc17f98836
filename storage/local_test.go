package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	id := uuid.New()
	path, err := store.Upload(ctx, id, "supply contract.txt", strings.NewReader("clause body"))
	require.NoError(t, err)
	assert.Contains(t, path, id.String())
	assert.Contains(t, path, "supply_contract")

	reader, err := store.Download(ctx, path)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "clause body", string(data))

	require.NoError(t, store.Delete(ctx, path))
	_, err = store.Download(ctx, path)
	assert.Error(t, err)
}

func TestLocalStorageListBySuffix(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Upload(ctx, uuid.New(), "contract.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	textPath, err := store.Upload(ctx, uuid.New(), "contract_text.txt", strings.NewReader("text"))
	require.NoError(t, err)

	texts, err := store.List(ctx, "_text.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{textPath}, texts)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
