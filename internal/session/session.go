// Package session tracks who the client is signed in as and tells
// subscribers when that changes.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"fern-notes/internal/models"
)

// Provider exposes the current session and change notifications. Current
// returns nil for guests. Subscribers are invoked synchronously on every
// change, before any reload those changes trigger.
type Provider interface {
	Current() *models.Session
	Subscribe(fn func(*models.Session)) (cancel func())
}

// Client is a Provider backed by the hosted auth endpoints.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.Mutex
	token   string
	current *models.Session
	subs    map[int]func(*models.Session)
	nextSub int
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		baseURL: baseURL,
		http:    hc,
		subs:    make(map[int]func(*models.Session)),
	}
}

// Token returns the current session token, empty for guests.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) Current() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Client) Subscribe(fn func(*models.Session)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Client) setSession(token string, s *models.Session) {
	c.mu.Lock()
	c.token = token
	c.current = s
	subs := make([]func(*models.Session), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

type authResponse struct {
	Data struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	} `json:"data"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (c *Client) post(ctx context.Context, path string, body interface{}) (*authResponse, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded authResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("auth failed: %s", decoded.Message)
	}
	return &decoded, nil
}

func (c *Client) signInPath(ctx context.Context, path, email, password string) error {
	resp, err := c.post(ctx, path, map[string]string{"email": email, "password": password})
	if err != nil {
		return err
	}
	c.setSession(resp.Data.Token, &models.Session{UserID: resp.Data.UserID, Email: resp.Data.Email})
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	return c.signInPath(ctx, "/api/auth/signup", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) error {
	return c.signInPath(ctx, "/api/auth/login", email, password)
}

// SignOut drops the session locally and best-effort notifies the server.
func (c *Client) SignOut(ctx context.Context) {
	_, _ = c.post(ctx, "/api/auth/logout", nil)
	c.setSession("", nil)
}
