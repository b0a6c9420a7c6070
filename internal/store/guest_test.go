package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fern-notes/internal/models"
)

func newTestGuest(t *testing.T) (*GuestStore, *FileKV) {
	t.Helper()
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)
	return NewGuestStore(kv), kv
}

func TestGuestCreateRoundTrip(t *testing.T) {
	g, _ := newTestGuest(t)
	ctx := context.Background()

	folder := int64(3)
	created, err := g.CreateNote(ctx, NoteDraft{Title: "X", Content: "<p>hi</p>", Folder: &folder})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	notes, err := g.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	got := notes[0]
	assert.Equal(t, "X", got.Title)
	require.NotNil(t, got.Folder)
	assert.Equal(t, int64(3), *got.Folder)
	assert.False(t, got.IsFavorite)
	assert.False(t, got.IsArchived)
	assert.Nil(t, got.DeletedAt)
	assert.Equal(t, "hi", got.Excerpt)
}

func TestGuestCreatePrepends(t *testing.T) {
	g, _ := newTestGuest(t)
	ctx := context.Background()

	first, err := g.CreateNote(ctx, NoteDraft{Title: "first"})
	require.NoError(t, err)
	second, err := g.CreateNote(ctx, NoteDraft{Title: "second"})
	require.NoError(t, err)

	notes, err := g.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID)
	assert.Equal(t, first.ID, notes[1].ID)
}

func TestGuestPersistsWholesaleUnderSingleKey(t *testing.T) {
	g, kv := newTestGuest(t)
	ctx := context.Background()

	_, err := g.CreateNote(ctx, NoteDraft{Title: "a"})
	require.NoError(t, err)
	_, err = g.CreateNote(ctx, NoteDraft{Title: "b"})
	require.NoError(t, err)

	raw, ok, err := kv.Get(GuestKey)
	require.NoError(t, err)
	require.True(t, ok)

	var stored []models.Note
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 2)

	// A fresh store over the same kv sees the same list.
	again := NewGuestStore(kv)
	notes, err := again.ListNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
}

func TestGuestUpdate(t *testing.T) {
	g, _ := newTestGuest(t)
	ctx := context.Background()

	created, err := g.CreateNote(ctx, NoteDraft{Title: "draft"})
	require.NoError(t, err)

	fav := true
	updated, err := g.UpdateNote(ctx, created.ID, models.NotePatch{IsFavorite: &fav})
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)

	title := "renamed"
	content := "<p>new body</p>"
	updated, err = g.UpdateNote(ctx, created.ID, models.NotePatch{Title: &title, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "new body", updated.Excerpt, "excerpt follows content when not supplied")
	assert.True(t, updated.IsFavorite, "earlier flag survives later patches")

	_, err = g.UpdateNote(ctx, "nope", models.NotePatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGuestDeleteStates(t *testing.T) {
	g, _ := newTestGuest(t)
	ctx := context.Background()

	created, err := g.CreateNote(ctx, NoteDraft{Title: "doomed"})
	require.NoError(t, err)

	// Soft delete keeps the record, stamped.
	require.NoError(t, g.DeleteNote(ctx, created.ID, false))
	notes, err := g.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.NotNil(t, notes[0].DeletedAt)

	// Purge drops it from storage entirely.
	require.NoError(t, g.DeleteNote(ctx, created.ID, true))
	notes, err = g.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes)

	assert.ErrorIs(t, g.DeleteNote(ctx, created.ID, true), ErrNotFound)
}

func TestGuestFolders(t *testing.T) {
	g, _ := newTestGuest(t)
	ctx := context.Background()

	folders, err := g.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, GuestFolderID, folders[0].ID)
	assert.Equal(t, "Local", folders[0].Name)

	_, err = g.CreateFolder(ctx, "more")
	assert.ErrorIs(t, err, ErrGuestFolders)
	_, err = g.RenameFolder(ctx, GuestFolderID, "renamed")
	assert.ErrorIs(t, err, ErrGuestFolders)
	assert.ErrorIs(t, g.DeleteFolder(ctx, GuestFolderID), ErrGuestFolders)
}

func TestFileKV(t *testing.T) {
	kv, err := NewFileKV(t.TempDir())
	require.NoError(t, err)

	_, ok, err := kv.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set("k", []byte("v")))
	got, ok, err := kv.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, kv.Delete("k"))
	require.NoError(t, kv.Delete("k"))
	_, ok, err = kv.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}
