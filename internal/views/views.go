// Package views derives filtered note collections from the canonical list.
// Everything here is pure: filters never mutate their input.
package views

import (
	"strconv"

	"fern-notes/internal/models"
)

// Selector identifies the active view. The zero value is "All Notes"; the
// three virtual folders filter by flag rather than by folder id; anything
// else is a decimal folder id.
type Selector string

const (
	All       Selector = ""
	Favorites Selector = "favorites"
	Archived  Selector = "archived"
	Trash     Selector = "trash"
)

// ForFolder returns the selector for a concrete folder id.
func ForFolder(id int64) Selector {
	return Selector(strconv.FormatInt(id, 10))
}

// FolderID returns the concrete folder id a selector names, if any.
func (s Selector) FolderID() (int64, bool) {
	switch s {
	case All, Favorites, Archived, Trash:
		return 0, false
	}
	id, err := strconv.ParseInt(string(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Filter returns the subset of notes visible under the selector. Trashed
// notes appear only in the Trash view; every other view excludes them.
func Filter(notes []models.Note, sel Selector) []models.Note {
	out := make([]models.Note, 0, len(notes))
	folderID, isFolder := sel.FolderID()

	for _, n := range notes {
		switch {
		case sel == Trash:
			if n.Trashed() {
				out = append(out, n)
			}
		case n.Trashed():
			// excluded from every non-trash view
		case sel == All:
			out = append(out, n)
		case sel == Favorites:
			if n.IsFavorite {
				out = append(out, n)
			}
		case sel == Archived:
			if n.IsArchived {
				out = append(out, n)
			}
		case isFolder:
			if n.Folder != nil && *n.Folder == folderID {
				out = append(out, n)
			}
		}
	}
	return out
}

// Name resolves the display label for a selector. Dangling folder ids fall
// back to "Uncategorized" so a deleted folder never breaks the view.
func Name(sel Selector, folders []models.Folder) string {
	switch sel {
	case All:
		return "All Notes"
	case Favorites:
		return "Favorites"
	case Archived:
		return "Archived"
	case Trash:
		return "Trash"
	}

	if id, ok := sel.FolderID(); ok {
		for _, f := range folders {
			if f.ID == id {
				return f.Name
			}
		}
	}
	return "Uncategorized"
}
