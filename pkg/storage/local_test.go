package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{BasePath: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorage_WriteReadDelete(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "uploads/a.png", strings.NewReader("payload"), 7, "image/png"))

	ok, err := s.Exists(ctx, "uploads/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Read(ctx, "uploads/a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, s.Delete(ctx, "uploads/a.png"))
	ok, err = s.Exists(ctx, "uploads/a.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalStorage_DeleteMissingIsNoOp(t *testing.T) {
	s := newLocal(t)
	assert.NoError(t, s.Delete(context.Background(), "never-written"))
}

func TestLocalStorage_GetURL(t *testing.T) {
	s := newLocal(t)
	ctx := context.Background()

	_, err := s.GetURL(ctx, "uploads/a.png", 0)
	assert.Error(t, err, "url for a missing key must fail")

	require.NoError(t, s.Write(ctx, "uploads/a.png", strings.NewReader("x"), 1, "image/png"))

	url, err := s.GetURL(ctx, "uploads/a.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/a.png", url)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s := newLocal(t)

	// A key trying to climb out of the base path stays inside it.
	path := s.fullPath("../../etc/passwd")
	assert.True(t, strings.HasPrefix(path, s.GetBasePath()))
	assert.Equal(t, filepath.Clean(s.GetBasePath()), filepath.Clean(path))
}
