package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fern-notes/internal/models"
)

func i64(v int64) *int64 { return &v }

func testNotes() []models.Note {
	trashed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Note{
		{ID: "a", Folder: i64(2)},
		{ID: "b", Folder: i64(2), DeletedAt: &trashed},
		{ID: "c", IsFavorite: true},
		{ID: "d", IsFavorite: true, IsArchived: true},
		{ID: "e", IsArchived: true, DeletedAt: &trashed},
		{ID: "f"},
	}
}

func ids(notes []models.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	notes := testNotes()

	tests := []struct {
		name string
		sel  Selector
		want []string
	}{
		{"all notes excludes trash", All, []string{"a", "c", "d", "f"}},
		{"favorites", Favorites, []string{"c", "d"}},
		{"archived", Archived, []string{"d"}},
		{"trash ignores flags", Trash, []string{"b", "e"}},
		{"folder excludes trashed member", ForFolder(2), []string{"a"}},
		{"empty folder", ForFolder(9), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(notes, tt.sel)))
		})
	}
}

func TestFilterDoesNotMutate(t *testing.T) {
	notes := testNotes()
	before := ids(notes)
	Filter(notes, Favorites)
	Filter(notes, Trash)
	assert.Equal(t, before, ids(notes))
}

func TestName(t *testing.T) {
	folders := []models.Folder{
		{ID: 1, Name: "Work"},
		{ID: 2, Name: "Travel"},
	}

	assert.Equal(t, "All Notes", Name(All, folders))
	assert.Equal(t, "Favorites", Name(Favorites, folders))
	assert.Equal(t, "Archived", Name(Archived, folders))
	assert.Equal(t, "Trash", Name(Trash, folders))
	assert.Equal(t, "Travel", Name(ForFolder(2), folders))
}

func TestNameDanglingFolder(t *testing.T) {
	folders := []models.Folder{{ID: 1, Name: "Work"}}

	// A deleted folder leaves notes pointing at a dead id; the label
	// falls back instead of failing.
	assert.Equal(t, "Uncategorized", Name(ForFolder(42), folders))
	assert.Equal(t, "Uncategorized", Name(Selector("not-a-number"), nil))
}

func TestSelectorFolderID(t *testing.T) {
	id, ok := ForFolder(7).FolderID()
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = Favorites.FolderID()
	assert.False(t, ok)
	_, ok = All.FolderID()
	assert.False(t, ok)
}
