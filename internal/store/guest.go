package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"fern-notes/internal/models"
)

// GuestKey is the single entry the guest note list lives under.
const GuestKey = "fern.guest-notes"

// GuestFolderID is the synthetic folder guest notes belong to.
const GuestFolderID int64 = 0

// KV is localStorage-shaped persistence: string keys, opaque values, no
// partial writes.
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileKV stores each key as a file in a directory.
type FileKV struct {
	dir string
}

func NewFileKV(dir string) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create kv directory: %w", err)
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	return os.WriteFile(f.path(key), value, 0644)
}

func (f *FileKV) Delete(key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// GuestStore persists the whole note list as one JSON-encoded array under
// GuestKey, read and rewritten wholesale on every mutation. It never issues a
// network call.
type GuestStore struct {
	mu sync.Mutex
	kv KV
}

func NewGuestStore(kv KV) *GuestStore {
	return &GuestStore{kv: kv}
}

func (g *GuestStore) load() ([]models.Note, error) {
	raw, ok, err := g.kv.Get(GuestKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read guest notes: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var notes []models.Note
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("failed to decode guest notes: %w", err)
	}
	return notes, nil
}

func (g *GuestStore) save(notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	raw, err := json.Marshal(notes)
	if err != nil {
		return err
	}
	if err := g.kv.Set(GuestKey, raw); err != nil {
		return fmt.Errorf("failed to write guest notes: %w", err)
	}
	return nil
}

func (g *GuestStore) ListNotes(ctx context.Context) ([]models.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.load()
}

func (g *GuestStore) CreateNote(ctx context.Context, draft NoteDraft) (*models.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	notes, err := g.load()
	if err != nil {
		return nil, err
	}

	note := models.Note{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		Content:   draft.Content,
		Excerpt:   models.DeriveExcerpt(draft.Content),
		Folder:    draft.Folder,
		CreatedAt: time.Now().UTC(),
	}

	notes = append([]models.Note{note}, notes...)
	if err := g.save(notes); err != nil {
		return nil, err
	}
	return &note, nil
}

func (g *GuestStore) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	notes, err := g.load()
	if err != nil {
		return nil, err
	}

	for i := range notes {
		if notes[i].ID != id {
			continue
		}
		notes[i].Apply(patch)
		if patch.Content != nil && patch.Excerpt == nil {
			notes[i].Excerpt = models.DeriveExcerpt(*patch.Content)
		}
		if err := g.save(notes); err != nil {
			return nil, err
		}
		updated := notes[i]
		return &updated, nil
	}
	return nil, ErrNotFound
}

func (g *GuestStore) DeleteNote(ctx context.Context, id string, permanent bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	notes, err := g.load()
	if err != nil {
		return err
	}

	for i := range notes {
		if notes[i].ID != id {
			continue
		}
		if permanent {
			notes = append(notes[:i], notes[i+1:]...)
		} else {
			now := time.Now().UTC()
			notes[i].DeletedAt = &now
		}
		return g.save(notes)
	}
	return ErrNotFound
}

func (g *GuestStore) ListFolders(ctx context.Context) ([]models.Folder, error) {
	return []models.Folder{{ID: GuestFolderID, Name: "Local"}}, nil
}

func (g *GuestStore) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	return nil, ErrGuestFolders
}

func (g *GuestStore) RenameFolder(ctx context.Context, id int64, name string) (*models.Folder, error) {
	return nil, ErrGuestFolders
}

func (g *GuestStore) DeleteFolder(ctx context.Context, id int64) error {
	return ErrGuestFolders
}
