// Package store abstracts note and folder persistence behind repositories so
// the reconciliation core never branches on where data lives. Two
// implementations exist: RemoteStore speaks the hosted HTTP API, GuestStore
// round-trips a single local entry.
package store

import (
	"context"
	"errors"

	"fern-notes/internal/models"
)

var ErrNotFound = errors.New("note not found")

// ErrGuestFolders is returned for folder mutations in guest mode, which only
// ever has the one synthetic "Local" folder.
var ErrGuestFolders = errors.New("folders are read-only in guest mode")

// NoteDraft carries the fields a client supplies at creation time.
type NoteDraft struct {
	Title   string
	Content string
	Folder  *int64
}

type NoteRepository interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	CreateNote(ctx context.Context, draft NoteDraft) (*models.Note, error)
	UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error)
	// DeleteNote trashes the note, or purges it when permanent is true.
	DeleteNote(ctx context.Context, id string, permanent bool) error
}

type FolderRepository interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	RenameFolder(ctx context.Context, id int64, name string) (*models.Folder, error)
	DeleteFolder(ctx context.Context, id int64) error
}

// Store is the full backend surface the core selects between.
type Store interface {
	NoteRepository
	FolderRepository
}
