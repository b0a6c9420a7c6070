package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"fern-notes/internal/models"
)

// APIError is a decoded server error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (%d %s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

// TokenSource supplies the current session token, empty when signed out.
type TokenSource func() string

// RemoteStore speaks the hosted note API. All responses arrive in a
// {"data": ...} envelope; failures in {"kind", "message"}.
type RemoteStore struct {
	baseURL string
	client  *http.Client
	token   TokenSource
}

func NewRemoteStore(baseURL string, client *http.Client, token TokenSource) *RemoteStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteStore{baseURL: baseURL, client: client, token: token}
}

func (r *RemoteStore) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != nil {
		if tok := r.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode}
		// Envelope decode failure still yields a usable status-only error.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(envelope.Data, out)
}

func (r *RemoteStore) ListNotes(ctx context.Context) ([]models.Note, error) {
	var notes []models.Note
	if err := r.do(ctx, http.MethodGet, "/api/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *RemoteStore) CreateNote(ctx context.Context, draft NoteDraft) (*models.Note, error) {
	body := map[string]interface{}{
		"title":   draft.Title,
		"content": draft.Content,
		"folder":  draft.Folder,
	}
	var note models.Note
	if err := r.do(ctx, http.MethodPost, "/api/notes", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// patchBody serializes only the fields a patch actually sets, keeping an
// explicit null for cleared folder/deleted_at.
func patchBody(patch models.NotePatch) map[string]interface{} {
	body := make(map[string]interface{})
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Content != nil {
		body["content"] = *patch.Content
	}
	if patch.Excerpt != nil {
		body["excerpt"] = *patch.Excerpt
	}
	if patch.Folder.Set {
		body["folder"] = patch.Folder.Value
	}
	if patch.IsFavorite != nil {
		body["is_favorite"] = *patch.IsFavorite
	}
	if patch.IsArchived != nil {
		body["is_archived"] = *patch.IsArchived
	}
	if patch.DeletedAt.Set {
		body["deleted_at"] = patch.DeletedAt.Value
	}
	return body
}

func (r *RemoteStore) UpdateNote(ctx context.Context, id string, patch models.NotePatch) (*models.Note, error) {
	var note models.Note
	path := "/api/notes?id=" + url.QueryEscape(id)
	if err := r.do(ctx, http.MethodPut, path, patchBody(patch), &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (r *RemoteStore) DeleteNote(ctx context.Context, id string, permanent bool) error {
	path := "/api/notes?id=" + url.QueryEscape(id)
	if permanent {
		path += "&permanent=true"
	}
	return r.do(ctx, http.MethodDelete, path, nil, nil)
}

func (r *RemoteStore) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	if err := r.do(ctx, http.MethodGet, "/api/folders", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *RemoteStore) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	var folder models.Folder
	if err := r.do(ctx, http.MethodPost, "/api/folders", map[string]string{"name": name}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *RemoteStore) RenameFolder(ctx context.Context, id int64, name string) (*models.Folder, error) {
	var folder models.Folder
	path := "/api/folders/" + strconv.FormatInt(id, 10)
	if err := r.do(ctx, http.MethodPatch, path, map[string]string{"name": name}, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *RemoteStore) DeleteFolder(ctx context.Context, id int64) error {
	return r.do(ctx, http.MethodDelete, "/api/folders?id="+strconv.FormatInt(id, 10), nil, nil)
}
