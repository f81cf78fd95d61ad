package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"memnotes/internal/model"
	"memnotes/internal/storage"
	"memnotes/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupConfigPatch(t *testing.T) {
	env := newTestEnv(t)

	c, rec := env.request(http.MethodPut, "/api/backup/config",
		`{"webdav_url":"https://dav.example.com","webdav_user":"me"}`)
	require.NoError(t, env.h.UpdateBackupConfig(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// A later patch of one field must leave the others alone
	c, rec = env.request(http.MethodPut, "/api/backup/config", `{"s3_bucket":"archive"}`)
	require.NoError(t, env.h.UpdateBackupConfig(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = env.request(http.MethodGet, "/api/backup/config", "")
	require.NoError(t, env.h.GetBackupConfig(c))
	got := decodeMap(t, rec)
	assert.Equal(t, "https://dav.example.com", got["webdav_url"])
	assert.Equal(t, "me", got["webdav_user"])
	assert.Equal(t, "archive", got["s3_bucket"])
}

func TestBackupArchiveRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	env.store.AddNote(store.NoteDraft{Title: "survives backup", Content: "payload", Type: model.TypeText})
	env.store.AddCategory("Archived", "#808080")
	require.NoError(t, env.h.storage.SaveMedia(
		strings.NewReader("fake png bytes"),
		filepath.Join(env.h.storage.MediaDir("images"), "pic.png"),
	))
	env.store.Close() // settle the persisted keys

	archive, err := env.h.createBackupArchive()
	require.NoError(t, err)
	require.NotZero(t, archive.Len())

	// Wreck the data directory, then restore from the archive
	require.NoError(t, env.h.storage.Wipe())
	require.NoError(t, env.h.storage.Remove(
		filepath.Join(env.h.storage.MediaDir("images"), "pic.png")))

	require.NoError(t, env.h.extractBackupArchive(archive.Bytes()))
	require.NoError(t, env.store.Reload())

	notes := env.store.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "survives backup", notes[0].Title)
	require.Len(t, env.store.Categories(), 4)

	restored, err := env.h.storage.ReadFile(
		filepath.Join(env.h.storage.MediaDir("images"), "pic.png"))
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(restored))
}

func TestBackupTargetsUnconfigured(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.h.backupToWebDAV(storage.BackupConfig{})
	assert.Error(t, err)

	_, err = env.h.backupToS3(storage.BackupConfig{})
	assert.Error(t, err)
}
