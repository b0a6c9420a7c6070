package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"fern-notes/internal/models"
)

var ErrNotFound = errors.New("not found")

type DB struct {
	conn *sql.DB
}

func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return db, nil
}

func (d *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS folders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT,
			name TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			content TEXT DEFAULT '',
			excerpt TEXT DEFAULT '',
			folder_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			is_favorite BOOLEAN DEFAULT FALSE,
			is_archived BOOLEAN DEFAULT FALSE,
			deleted_at DATETIME,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id)`,
	}

	for _, q := range queries {
		if _, err := d.conn.Exec(q); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

// Users

func (d *DB) CreateUser(email, passwordHash string) (*models.User, error) {
	id := uuid.NewString()
	_, err := d.conn.Exec(`INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`, id, email, passwordHash)
	if err != nil {
		return nil, err
	}
	return d.GetUser(id)
}

func (d *DB) GetUser(id string) (*models.User, error) {
	var u models.User
	err := d.conn.QueryRow(`SELECT id, email, created_at FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCredentials returns the user and stored password hash for an email.
func (d *DB) GetCredentials(email string) (*models.User, string, error) {
	var u models.User
	var hash string
	err := d.conn.QueryRow(`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &hash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

// Folders

// GetFolders returns the user's folders plus shared folders, which have no
// owner row.
func (d *DB) GetFolders(userID string) ([]models.Folder, error) {
	rows, err := d.conn.Query(`SELECT id, name, created_at FROM folders WHERE user_id = ? OR user_id IS NULL ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var f models.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.CreatedAt); err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func (d *DB) GetFolder(userID string, id int64) (*models.Folder, error) {
	var f models.Folder
	err := d.conn.QueryRow(`SELECT id, name, created_at FROM folders WHERE id = ? AND (user_id = ? OR user_id IS NULL)`, id, userID).
		Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *DB) CreateFolder(userID, name string) (*models.Folder, error) {
	result, err := d.conn.Exec(`INSERT INTO folders (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return nil, err
	}
	id, _ := result.LastInsertId()
	return d.GetFolder(userID, id)
}

func (d *DB) RenameFolder(userID string, id int64, name string) (*models.Folder, error) {
	result, err := d.conn.Exec(`UPDATE folders SET name = ? WHERE id = ? AND user_id = ?`, name, id, userID)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetFolder(userID, id)
}

// DeleteFolder removes a folder. Notes referencing it keep their dangling
// folder_id; display-side name resolution falls back for those.
func (d *DB) DeleteFolder(userID string, id int64) error {
	result, err := d.conn.Exec(`DELETE FROM folders WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Notes

const noteColumns = `id, title, content, excerpt, folder_id, created_at, is_favorite, is_archived, deleted_at`

func scanNote(row interface{ Scan(...any) error }) (*models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.Title, &n.Content, &n.Excerpt, &n.Folder, &n.CreatedAt, &n.IsFavorite, &n.IsArchived, &n.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GetNotes returns every note owned by the user, trashed ones included. The
// client filters views; the server never hides trashed rows.
func (d *DB) GetNotes(userID string) ([]models.Note, error) {
	rows, err := d.conn.Query(`SELECT `+noteColumns+` FROM notes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (d *DB) GetNote(userID, id string) (*models.Note, error) {
	row := d.conn.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (d *DB) CreateNote(userID, title, content, excerpt string, folder *int64) (*models.Note, error) {
	id := uuid.NewString()
	if excerpt == "" {
		excerpt = models.DeriveExcerpt(content)
	}
	_, err := d.conn.Exec(
		`INSERT INTO notes (id, user_id, title, content, excerpt, folder_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, title, content, excerpt, folder)
	if err != nil {
		return nil, err
	}
	return d.GetNote(userID, id)
}

// UpdateNote applies a partial update and returns the stored row.
func (d *DB) UpdateNote(userID, id string, patch models.NotePatch) (*models.Note, error) {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
		if patch.Excerpt == nil {
			derived := models.DeriveExcerpt(*patch.Content)
			patch.Excerpt = &derived
		}
	}
	if patch.Excerpt != nil {
		sets = append(sets, "excerpt = ?")
		args = append(args, *patch.Excerpt)
	}
	if patch.Folder.Set {
		sets = append(sets, "folder_id = ?")
		args = append(args, patch.Folder.Value)
	}
	if patch.IsFavorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, *patch.IsFavorite)
	}
	if patch.IsArchived != nil {
		sets = append(sets, "is_archived = ?")
		args = append(args, *patch.IsArchived)
	}
	if patch.DeletedAt.Set {
		sets = append(sets, "deleted_at = ?")
		args = append(args, patch.DeletedAt.Value)
	}

	if len(sets) == 0 {
		return d.GetNote(userID, id)
	}

	args = append(args, id, userID)
	result, err := d.conn.Exec(`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetNote(userID, id)
}

// TrashNote soft-deletes a note by stamping deleted_at.
func (d *DB) TrashNote(userID, id string, at time.Time) (*models.Note, error) {
	result, err := d.conn.Exec(`UPDATE notes SET deleted_at = ? WHERE id = ? AND user_id = ?`, at, id, userID)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return d.GetNote(userID, id)
}

// DeleteNote removes the row for good.
func (d *DB) DeleteNote(userID, id string) error {
	result, err := d.conn.Exec(`DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
