// Package core owns the canonical in-memory note and folder collections for
// the current view. Every mutation goes through it; it picks the active
// backend from session state and keeps the collections consistent across
// create/save/trash/restore/purge transitions.
package core

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"fern-notes/internal/models"
	"fern-notes/internal/session"
	"fern-notes/internal/store"
	"fern-notes/internal/views"
)

type Backend int

const (
	BackendGuest Backend = iota
	BackendRemote
)

func (b Backend) String() string {
	if b == BackendRemote {
		return "remote"
	}
	return "guest"
}

var (
	ErrNoteMissing    = errors.New("note is not in the current collection")
	ErrAlreadyTrashed = errors.New("note is already in the trash")
	// ErrNotTrashed guards the delete state machine: a note must pass
	// through the trash before it can be purged.
	ErrNotTrashed = errors.New("note must be trashed before permanent deletion")
)

// Notifier receives user-facing failure notices. Failures never propagate
// past the core as panics or unhandled errors; they are reported and the
// operation's error is returned.
type Notifier func(message string, err error)

type Core struct {
	sessions session.Provider
	remote   store.Store
	guest    store.Store
	notify   Notifier

	mu sync.Mutex
	// generation tags every backend read/write; it is bumped on each
	// session change so responses dispatched against a previous backend
	// are discarded instead of committed.
	generation uint64
	backend    Backend
	notes      []models.Note
	folders    []models.Folder
	selector   views.Selector
	selectedID string

	cancelSub func()
}

func New(sessions session.Provider, remote, guest store.Store, notify Notifier) *Core {
	if notify == nil {
		notify = func(message string, err error) {
			log.Printf("%s: %v", message, err)
		}
	}
	c := &Core{
		sessions: sessions,
		remote:   remote,
		guest:    guest,
		notify:   notify,
	}
	c.setBackendLocked(sessions.Current())
	return c
}

// Start subscribes to session changes and performs the initial load.
func (c *Core) Start(ctx context.Context) error {
	c.cancelSub = c.sessions.Subscribe(c.onSessionChange)
	return c.Reload(ctx)
}

func (c *Core) Close() {
	if c.cancelSub != nil {
		c.cancelSub()
		c.cancelSub = nil
	}
}

func (c *Core) setBackendLocked(s *models.Session) {
	if s != nil {
		c.backend = BackendRemote
	} else {
		c.backend = BackendGuest
	}
}

func (c *Core) activeLocked() store.Store {
	if c.backend == BackendRemote {
		return c.remote
	}
	return c.guest
}

// begin snapshots the active store and the generation it belongs to.
func (c *Core) begin() (store.Store, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked(), c.generation
}

// onSessionChange switches backends and reloads. The collections are cleared
// eagerly so nothing from the previous backend survives the switch; guest and
// remote data are never merged.
func (c *Core) onSessionChange(s *models.Session) {
	c.mu.Lock()
	c.generation++
	c.setBackendLocked(s)
	c.notes = nil
	c.folders = nil
	c.selectedID = ""
	c.selector = views.All
	c.mu.Unlock()

	if err := c.Reload(context.Background()); err != nil {
		c.notify("Failed to load notes after sign-in change", err)
	}
}

// Reload fetches both collections from the active backend. A reload that
// resolves after another session change is dropped on the floor rather than
// clobbering the new backend's data.
func (c *Core) Reload(ctx context.Context) error {
	st, gen := c.begin()

	notes, err := st.ListNotes(ctx)
	if err != nil {
		c.notify("Failed to load notes", err)
		return err
	}
	folders, err := st.ListFolders(ctx)
	if err != nil {
		c.notify("Failed to load folders", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return nil // stale fetch
	}
	c.notes = notes
	c.folders = folders
	if c.selectedID != "" && c.findLocked(c.selectedID) == nil {
		c.selectedID = ""
	}
	return nil
}

func (c *Core) findLocked(id string) *models.Note {
	for i := range c.notes {
		if c.notes[i].ID == id {
			return &c.notes[i]
		}
	}
	return nil
}

func (c *Core) replaceLocked(n *models.Note) {
	for i := range c.notes {
		if c.notes[i].ID == n.ID {
			c.notes[i] = *n
			return
		}
	}
}

// CreateNote makes a fresh "Untitled" note in the given folder (nil for
// unfiled) and selects it.
func (c *Core) CreateNote(ctx context.Context, folder *int64) (*models.Note, error) {
	st, gen := c.begin()

	note, err := st.CreateNote(ctx, store.NoteDraft{Title: "Untitled", Folder: folder})
	if err != nil {
		c.notify("Failed to create note", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return note, nil
	}
	c.notes = append([]models.Note{*note}, c.notes...)
	c.selectedID = note.ID
	return note, nil
}

// SaveNote writes the editable fields of a note and replaces the canonical
// entry with the stored record.
func (c *Core) SaveNote(ctx context.Context, id, title, content string, folder *int64) (*models.Note, error) {
	c.mu.Lock()
	if c.findLocked(id) == nil {
		c.mu.Unlock()
		return nil, ErrNoteMissing
	}
	c.mu.Unlock()

	patch := models.NotePatch{
		Title:   &title,
		Content: &content,
		Folder:  models.NullableInt64{Set: true, Value: folder},
	}
	return c.update(ctx, id, patch, "Failed to save note")
}

func (c *Core) ToggleFavorite(ctx context.Context, id string) (*models.Note, error) {
	return c.toggleFlag(ctx, id, func(n *models.Note) models.NotePatch {
		flipped := !n.IsFavorite
		return models.NotePatch{IsFavorite: &flipped}
	}, "Failed to update favorite")
}

func (c *Core) ToggleArchive(ctx context.Context, id string) (*models.Note, error) {
	return c.toggleFlag(ctx, id, func(n *models.Note) models.NotePatch {
		flipped := !n.IsArchived
		return models.NotePatch{IsArchived: &flipped}
	}, "Failed to update archive")
}

func (c *Core) toggleFlag(ctx context.Context, id string, mk func(*models.Note) models.NotePatch, failMsg string) (*models.Note, error) {
	c.mu.Lock()
	n := c.findLocked(id)
	if n == nil {
		c.mu.Unlock()
		return nil, ErrNoteMissing
	}
	patch := mk(n)
	c.mu.Unlock()

	return c.update(ctx, id, patch, failMsg)
}

// update runs a patch against the active backend and commits the returned
// record. On failure the canonical list is left exactly as it was.
func (c *Core) update(ctx context.Context, id string, patch models.NotePatch, failMsg string) (*models.Note, error) {
	st, gen := c.begin()

	note, err := st.UpdateNote(ctx, id, patch)
	if err != nil {
		c.notify(failMsg, err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.replaceLocked(note)
	}
	return note, nil
}

// Delete soft-deletes an active note, moving it to the trash.
func (c *Core) Delete(ctx context.Context, id string) (*models.Note, error) {
	c.mu.Lock()
	n := c.findLocked(id)
	if n == nil {
		c.mu.Unlock()
		return nil, ErrNoteMissing
	}
	if n.Trashed() {
		c.mu.Unlock()
		return nil, ErrAlreadyTrashed
	}
	c.mu.Unlock()

	now := time.Now().UTC()
	patch := models.NotePatch{DeletedAt: models.NullableTime{Set: true, Value: &now}}
	return c.update(ctx, id, patch, "Failed to move note to trash")
}

// Restore clears deleted_at on a trashed note, returning it to the active
// state.
func (c *Core) Restore(ctx context.Context, id string) (*models.Note, error) {
	c.mu.Lock()
	n := c.findLocked(id)
	if n == nil {
		c.mu.Unlock()
		return nil, ErrNoteMissing
	}
	if !n.Trashed() {
		c.mu.Unlock()
		return nil, ErrNotTrashed
	}
	c.mu.Unlock()

	patch := models.NotePatch{DeletedAt: models.NullableTime{Set: true, Value: nil}}
	return c.update(ctx, id, patch, "Failed to restore note")
}

// PermanentDelete purges a trashed note. Removal is optimistic: the note
// leaves the canonical list before the backend call resolves, and a backend
// failure is reported without putting it back.
func (c *Core) PermanentDelete(ctx context.Context, id string) error {
	c.mu.Lock()
	n := c.findLocked(id)
	if n == nil {
		c.mu.Unlock()
		return ErrNoteMissing
	}
	if !n.Trashed() {
		c.mu.Unlock()
		return ErrNotTrashed
	}
	for i := range c.notes {
		if c.notes[i].ID == id {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			break
		}
	}
	if c.selectedID == id {
		c.selectedID = ""
	}
	st := c.activeLocked()
	c.mu.Unlock()

	if err := st.DeleteNote(ctx, id, true); err != nil {
		c.notify("Failed to delete note permanently", err)
		return err
	}
	return nil
}

// Folders

func (c *Core) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	st, gen := c.begin()

	folder, err := st.CreateFolder(ctx, name)
	if err != nil {
		c.notify("Failed to create folder", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		c.folders = append(c.folders, *folder)
	}
	return folder, nil
}

func (c *Core) RenameFolder(ctx context.Context, id int64, name string) (*models.Folder, error) {
	st, gen := c.begin()

	folder, err := st.RenameFolder(ctx, id, name)
	if err != nil {
		c.notify("Failed to rename folder", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		for i := range c.folders {
			if c.folders[i].ID == id {
				c.folders[i] = *folder
			}
		}
	}
	return folder, nil
}

// DeleteFolder removes a folder. Notes filed under it keep their dangling
// reference and surface as "Uncategorized".
func (c *Core) DeleteFolder(ctx context.Context, id int64) error {
	st, gen := c.begin()

	if err := st.DeleteFolder(ctx, id); err != nil {
		c.notify("Failed to delete folder", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen == c.generation {
		for i := range c.folders {
			if c.folders[i].ID == id {
				c.folders = append(c.folders[:i], c.folders[i+1:]...)
				break
			}
		}
		if c.selector == views.ForFolder(id) {
			c.selector = views.All
		}
	}
	return nil
}

// View state

func (c *Core) Backend() Backend {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend
}

// Notes returns a copy of the canonical note list.
func (c *Core) Notes() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// Folders returns a copy of the canonical folder list.
func (c *Core) Folders() []models.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Folder, len(c.folders))
	copy(out, c.folders)
	return out
}

// VisibleNotes applies the active selector to the canonical list.
func (c *Core) VisibleNotes() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return views.Filter(c.notes, c.selector)
}

func (c *Core) SelectFolder(sel views.Selector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selector = sel
}

func (c *Core) Selector() views.Selector {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selector
}

// FolderName is the display label for the active selector.
func (c *Core) FolderName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return views.Name(c.selector, c.folders)
}

// Select marks a note as the one open in the editor. The note must be in the
// canonical list: selection can never reference a purged note.
func (c *Core) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.findLocked(id) == nil {
		return ErrNoteMissing
	}
	c.selectedID = id
	return nil
}

func (c *Core) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selectedID = ""
}

// Selected returns a copy of the selected note, or nil when nothing is
// selected.
func (c *Core) Selected() *models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.findLocked(c.selectedID)
	if n == nil {
		return nil
	}
	out := *n
	return &out
}
