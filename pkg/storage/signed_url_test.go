package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("tok-1", "absence/tok-1.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ref, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", ref)
	assert.Equal(t, "absence/tok-1.pdf", path)
	assert.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("tok-1", "absence/tok-1.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, _, _, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrLinkExpired)

	ref, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", ref)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("tok-1", "absence/tok-1.pdf")
	require.NoError(t, err)

	_, _, _, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	assert.ErrorIs(t, err, ErrLinkInvalid)
	_, _, _, err = signer.Parse(token+"0", false)
	assert.ErrorIs(t, err, ErrLinkInvalid)
	_, _, _, err = signer.Parse("garbage", false)
	assert.ErrorIs(t, err, ErrLinkInvalid)
}

func TestLocalStorageSaveOpenCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("absence/a.pdf", []byte("pdf"))
	require.NoError(t, err)
	f, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	path, err := store.Path(rel)
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("absence", "a.pdf")}, deleted)
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrOutsideBase)
	_, err = store.Open("/etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideBase)
}
