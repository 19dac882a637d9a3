package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCookies() []*proto.NetworkCookie {
	return []*proto.NetworkCookie{
		{Name: "ltoken_v2", Value: "v2_token", Domain: ".hoyolab.com", Path: "/"},
		{Name: "ltuid_v2", Value: "123456", Domain: ".hoyolab.com", Path: "/"},
	}
}

func TestSessionStoreLoadAbsent(t *testing.T) {
	store := NewSessionStore(filepath.Join(t.TempDir(), "session.json"))

	record, err := store.Load()

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSessionStoreSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewSessionStore(path)

	saved := &SessionRecord{CapturedAt: time.Now().UTC().Truncate(time.Second), Cookies: testCookies()}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.CapturedAt, loaded.CapturedAt)
	require.Len(t, loaded.Cookies, 2)
	assert.Equal(t, "ltoken_v2", loaded.Cookies[0].Name)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSessionStoreSaveOverwritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	store := NewSessionStore(path)

	require.NoError(t, store.Save(&SessionRecord{CapturedAt: time.Now(), Cookies: testCookies()}))

	newer := &SessionRecord{CapturedAt: time.Now().Add(time.Hour), Cookies: testCookies()[:1]}
	require.NoError(t, store.Save(newer))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Len(t, loaded.Cookies, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may survive a save")
}

func TestSessionStoreCorruptRecordIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	record, err := NewSessionStore(path).Load()

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestSessionStoreInvalidRecordIsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"captured_at":"2026-01-01T00:00:00Z","cookies":[]}`), 0600))

	record, err := NewSessionStore(path).Load()

	require.NoError(t, err)
	assert.Nil(t, record, "a record with no cookies cannot resume a session")
}

func TestSessionStoreSaveStorageError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	// The parent of the target path is a regular file.
	store := NewSessionStore(filepath.Join(blocker, "session.json"))
	err := store.Save(&SessionRecord{CapturedAt: time.Now(), Cookies: testCookies()})

	require.Error(t, err)
	assert.True(t, IsStorageError(err))
}

func TestSessionRecordValidation(t *testing.T) {
	assert.False(t, (*SessionRecord)(nil).Valid())
	assert.False(t, (&SessionRecord{}).Valid())
	assert.False(t, (&SessionRecord{Cookies: []*proto.NetworkCookie{{Name: "a"}}}).Valid())
	assert.True(t, (&SessionRecord{Cookies: testCookies()}).Valid())
}
