package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fern-notes/internal/auth"
	"fern-notes/internal/cache"
	"fern-notes/internal/db"
	"fern-notes/internal/models"
)

// Error kinds used in the error envelope. Every failure body is
// {"kind": ..., "message": ...} so clients never have to guess the key.
const (
	KindUnauthorized   = "unauthorized"
	KindInvalidRequest = "invalid_request"
	KindNotFound       = "not_found"
	KindInternal       = "internal"
)

type Handlers struct {
	db    *db.DB
	cache *cache.Cache
	auth  *auth.Auth
}

func New(database *db.DB, c *cache.Cache, a *auth.Auth) *Handlers {
	return &Handlers{
		db:    database,
		cache: c,
		auth:  a,
	}
}

func (h *Handlers) respond(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *Handlers) data(w http.ResponseWriter, data interface{}, status int) {
	h.respond(w, map[string]interface{}{"data": data}, status)
}

func (h *Handlers) message(w http.ResponseWriter, msg string, status int) {
	h.respond(w, map[string]string{"message": msg}, status)
}

func (h *Handlers) error(w http.ResponseWriter, kind, message string, status int) {
	h.respond(w, map[string]string{"kind": kind, "message": message}, status)
}

func (h *Handlers) storeError(w http.ResponseWriter, err error, notFoundMsg string) {
	if errors.Is(err, db.ErrNotFound) {
		h.error(w, KindNotFound, notFoundMsg, http.StatusNotFound)
		return
	}
	h.error(w, KindInternal, "storage failure", http.StatusInternalServerError)
}

// Notes

// GetNotes degrades to an empty guest result when unauthenticated; every
// other note operation requires a session.
func (h *Handlers) GetNotes(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.data(w, []models.Note{}, http.StatusOK)
		return
	}

	if notes, ok := h.cache.Get(session.UserID); ok {
		h.data(w, notes, http.StatusOK)
		return
	}

	notes, err := h.db.GetNotes(session.UserID)
	if err != nil {
		h.error(w, KindInternal, "failed to load notes", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}

	h.cache.Set(session.UserID, notes)
	h.data(w, notes, http.StatusOK)
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.error(w, KindUnauthorized, "sign in to create notes", http.StatusUnauthorized)
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Excerpt string `json:"excerpt"`
		Folder  *int64 `json:"folder"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, KindInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title == "" {
		h.error(w, KindInvalidRequest, "title is required", http.StatusBadRequest)
		return
	}

	note, err := h.db.CreateNote(session.UserID, req.Title, req.Content, req.Excerpt, req.Folder)
	if err != nil {
		h.error(w, KindInternal, "failed to create note", http.StatusInternalServerError)
		return
	}

	h.cache.Invalidate(session.UserID)
	h.data(w, note, http.StatusCreated)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.error(w, KindUnauthorized, "sign in to edit notes", http.StatusUnauthorized)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.error(w, KindInvalidRequest, "id is required", http.StatusBadRequest)
		return
	}

	var patch models.NotePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.error(w, KindInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}
	if patch.Title != nil && *patch.Title == "" {
		h.error(w, KindInvalidRequest, "title cannot be empty", http.StatusBadRequest)
		return
	}

	note, err := h.db.UpdateNote(session.UserID, id, patch)
	if err != nil {
		h.storeError(w, err, "note not found")
		return
	}

	h.cache.Invalidate(session.UserID)
	h.data(w, note, http.StatusOK)
}

// DeleteNote trashes a note, or purges it when ?permanent=true.
func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.error(w, KindUnauthorized, "sign in to delete notes", http.StatusUnauthorized)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		h.error(w, KindInvalidRequest, "id is required", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("permanent") == "true" {
		if err := h.db.DeleteNote(session.UserID, id); err != nil {
			h.storeError(w, err, "note not found")
			return
		}
		h.cache.Invalidate(session.UserID)
		h.message(w, "note deleted permanently", http.StatusOK)
		return
	}

	if _, err := h.db.TrashNote(session.UserID, id, time.Now().UTC()); err != nil {
		h.storeError(w, err, "note not found")
		return
	}
	h.cache.Invalidate(session.UserID)
	h.message(w, "note moved to trash", http.StatusOK)
}

// Folders

func (h *Handlers) GetFolders(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.data(w, []models.Folder{}, http.StatusOK)
		return
	}

	folders, err := h.db.GetFolders(session.UserID)
	if err != nil {
		h.error(w, KindInternal, "failed to load folders", http.StatusInternalServerError)
		return
	}
	if folders == nil {
		folders = []models.Folder{}
	}

	h.data(w, folders, http.StatusOK)
}

func (h *Handlers) CreateFolder(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.error(w, KindUnauthorized, "sign in to create folders", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, KindInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		h.error(w, KindInvalidRequest, "name is required", http.StatusBadRequest)
		return
	}

	folder, err := h.db.CreateFolder(session.UserID, req.Name)
	if err != nil {
		h.error(w, KindInternal, "failed to create folder", http.StatusInternalServerError)
		return
	}

	h.data(w, folder, http.StatusCreated)
}

// RenameFolder handles PATCH /api/folders/{id}.
func (h *Handlers) RenameFolder(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.error(w, KindUnauthorized, "sign in to edit folders", http.StatusUnauthorized)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/folders/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.error(w, KindInvalidRequest, "invalid folder id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, KindInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.error(w, KindInvalidRequest, "name is required", http.StatusBadRequest)
		return
	}

	folder, err := h.db.RenameFolder(session.UserID, id, req.Name)
	if err != nil {
		h.storeError(w, err, "folder not found")
		return
	}

	h.data(w, folder, http.StatusOK)
}

func (h *Handlers) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.error(w, KindUnauthorized, "sign in to delete folders", http.StatusUnauthorized)
		return
	}

	idStr := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.error(w, KindInvalidRequest, "invalid folder id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteFolder(session.UserID, id); err != nil {
		h.storeError(w, err, "folder not found")
		return
	}

	h.message(w, "folder deleted", http.StatusOK)
}

// Auth

type sessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, KindInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		h.error(w, KindInvalidRequest, "email and password are required", http.StatusBadRequest)
		return
	}

	token, user, err := h.auth.SignUp(req.Email, req.Password)
	if err != nil {
		h.error(w, KindInternal, "failed to create account", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, token)
	h.data(w, sessionResponse{Token: token, UserID: user.ID, Email: user.Email}, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.error(w, KindInvalidRequest, "invalid request body", http.StatusBadRequest)
		return
	}

	token, user, err := h.auth.SignIn(req.Email, req.Password)
	if err != nil {
		h.error(w, KindUnauthorized, "invalid email or password", http.StatusUnauthorized)
		return
	}

	h.setSessionCookie(w, token)
	h.data(w, sessionResponse{Token: token, UserID: user.ID, Email: user.Email}, http.StatusOK)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	h.message(w, "signed out", http.StatusOK)
}

// GetSession reports the current session, or null for guests.
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFrom(r)
	if !ok {
		h.data(w, nil, http.StatusOK)
		return
	}
	h.data(w, session, http.StatusOK)
}
