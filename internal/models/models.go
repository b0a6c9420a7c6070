package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

type Note struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Excerpt    string     `json:"excerpt,omitempty"`
	Folder     *int64     `json:"folder"`
	CreatedAt  time.Time  `json:"created_at"`
	IsFavorite bool       `json:"is_favorite"`
	IsArchived bool       `json:"is_archived"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

// Trashed reports whether the note is soft-deleted.
func (n *Note) Trashed() bool {
	return n.DeletedAt != nil
}

type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session identifies the authenticated user behind a request or a client.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// NullableInt64 distinguishes an absent JSON field from an explicit null.
type NullableInt64 struct {
	Set   bool
	Value *int64
}

func (n *NullableInt64) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// NullableTime distinguishes an absent JSON field from an explicit null.
type NullableTime struct {
	Set   bool
	Value *time.Time
}

func (n *NullableTime) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// NotePatch is a partial note update. Nil pointer fields are left unchanged;
// Folder and DeletedAt carry an explicit null/absent distinction so a note can
// be unfiled or restored from trash.
type NotePatch struct {
	Title      *string       `json:"title"`
	Content    *string       `json:"content"`
	Excerpt    *string       `json:"excerpt"`
	Folder     NullableInt64 `json:"folder"`
	IsFavorite *bool         `json:"is_favorite"`
	IsArchived *bool         `json:"is_archived"`
	DeletedAt  NullableTime  `json:"deleted_at"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Excerpt == nil &&
		!p.Folder.Set && p.IsFavorite == nil && p.IsArchived == nil && !p.DeletedAt.Set
}

// Apply merges the patch into the note.
func (n *Note) Apply(p NotePatch) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Excerpt != nil {
		n.Excerpt = *p.Excerpt
	}
	if p.Folder.Set {
		n.Folder = p.Folder.Value
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	if p.IsArchived != nil {
		n.IsArchived = *p.IsArchived
	}
	if p.DeletedAt.Set {
		n.DeletedAt = p.DeletedAt.Value
	}
}

const excerptLimit = 120

// ExcerptOrDerived returns the stored excerpt, deriving one from the content
// when the client never supplied one.
func (n *Note) ExcerptOrDerived() string {
	if n.Excerpt != "" {
		return n.Excerpt
	}
	return DeriveExcerpt(n.Content)
}

// DeriveExcerpt produces a short plain-text preview from serialized editor
// markup: tags stripped, whitespace collapsed, truncated.
func DeriveExcerpt(content string) string {
	var b strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			if inTag {
				inTag = false
				b.WriteByte(' ')
			}
		case !inTag:
			b.WriteRune(r)
		}
	}
	plain := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(plain) <= excerptLimit {
		return plain
	}
	runes := []rune(plain)
	return string(runes[:excerptLimit]) + "…"
}
