package storage

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenList(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("u1/transcript.json", []byte(`{"terms":[]}`))
	require.NoError(t, err)
	_, err = store.Save("u1/transcript.csv", []byte("Term\n"))
	require.NoError(t, err)

	f, err := store.Open("u1/transcript.json")
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, `{"terms":[]}`, string(body))

	names, err := store.List("json")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1/transcript.json"}, names)

	all, err := store.List()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, store.Delete("u1/transcript.csv"))
	require.NoError(t, store.Delete("u1/transcript.csv"))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.json", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideBase)
	_, err = store.Save("/etc/passwd", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideBase)
	assert.Empty(t, store.Path("../x"))
}

func TestLocalStorageCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("old.csv", []byte("x"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("old.csv"), past, past))
	_, err = store.Save("new.csv", []byte("y"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.csv"}, deleted)
}
