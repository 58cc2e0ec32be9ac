package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-chat/internal/domain"
)

func TestMediaStoreSaveAndRemove(t *testing.T) {
	root := t.TempDir()
	store, err := NewMediaStore(root, 1024)
	require.NoError(t, err)

	ref, err := store.Save(domain.ContentImage, "Cat.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/static/uploads/images/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	onDisk := filepath.Join(root, "images", filepath.Base(ref))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Remove(ref))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Remove(ref), "removing twice is fine")
}

func TestMediaStoreRejectsOversize(t *testing.T) {
	root := t.TempDir()
	store, err := NewMediaStore(root, 4)
	require.NoError(t, err)

	_, err = store.Save(domain.ContentVoice, "note.ogg", strings.NewReader("too long"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "voice"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMediaStoreRejectsTextAndEscapes(t *testing.T) {
	store, err := NewMediaStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Save(domain.ContentText, "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupported)

	for _, ref := range []string{"", "/static/uploads/", "/etc/passwd"} {
		assert.ErrorIs(t, store.Remove(ref), ErrOutsideRoot, ref)
	}
}
