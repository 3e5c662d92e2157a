// Package client provides the authenticated HTTP client for the
// BookHub API. Clients are disposable: a Factory stamps one out per
// operation with the access token current at that moment, so a fresh
// sign-in is picked up by the very next call and a signed-out session
// sends no stale credentials.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bookhub-dev/bookhub/internal/cli/session"
)

// DomainError is a failure the API reports inside its response
// envelope. The envelope's statusCode is the domain outcome and can
// disagree with the transport status.
type DomainError struct {
	StatusCode int
	Message    string
}

func (e *DomainError) Error() string {
	return e.Message
}

// DomainStatus extracts the envelope statusCode, or 0 for transport
// failures
func DomainStatus(err error) int {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.StatusCode
	}
	return 0
}

// Factory builds per-operation API clients bound to the session store
type Factory struct {
	baseURL  string
	sessions *session.Store
}

// NewFactory creates a client factory for the given API base URL
func NewFactory(baseURL string, sessions *session.Store) *Factory {
	return &Factory{baseURL: baseURL, sessions: sessions}
}

// Build stamps out a client carrying whatever access token the session
// holds right now. An empty token still builds a working client; the
// server rejects the unauthenticated call.
func (f *Factory) Build() *Client {
	return &Client{
		baseURL:     f.baseURL,
		accessToken: f.sessions.Current().AccessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Client is a single-use API client carrying one access token
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	}
	return req, nil
}

// do sends the request and decodes the body into out (when non-nil).
// Mutations answer with the envelope; checkEnvelope turns a non-2xx
// domain statusCode into a DomainError.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := checkEnvelope(resp.StatusCode, raw); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

func checkEnvelope(transportStatus int, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.StatusCode == 0 {
		// Not an envelope; fall back to the transport status
		if transportStatus >= 200 && transportStatus < 300 {
			return nil
		}
		return &DomainError{StatusCode: transportStatus, Message: string(raw)}
	}
	if env.StatusCode >= 200 && env.StatusCode < 300 {
		return nil
	}
	return &DomainError{StatusCode: env.StatusCode, Message: env.Message}
}

// Book represents a book in the catalog
type Book struct {
	Name       string `json:"book_name"`
	Author     string `json:"author"`
	BorrowedBy string `json:"borrowby"`
	BorrowDate string `json:"borrow_date"`
}

// ListBooks returns the full catalog
func (c *Client) ListBooks(ctx context.Context) ([]Book, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/books", nil)
	if err != nil {
		return nil, err
	}
	var books []Book
	if err := c.do(req, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// SearchBooks returns catalog entries whose title starts with the query
func (c *Client) SearchBooks(ctx context.Context, query string) ([]Book, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/search?book_name="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, err
	}
	var books []Book
	if err := c.do(req, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// AddBook adds a new book to the catalog
func (c *Client) AddBook(ctx context.Context, name, author string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/add_book", map[string]string{
		"book_name": name,
		"author":    author,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// BorrowBook checks a book out to the current user
func (c *Client) BorrowBook(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/borrow", map[string]string{
		"book_name": name,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// ReturnBook returns a book the current user borrowed
func (c *Client) ReturnBook(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/api/return", map[string]string{
		"book_name": name,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DeleteBook removes a book from the catalog (admin only)
func (c *Client) DeleteBook(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/delete_book/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Collection represents a named group of digital resources
type Collection struct {
	Name string `json:"collection_name"`
}

// Resource represents a digital resource inside a collection
type Resource struct {
	Collection  string `json:"collection_name"`
	Name        string `json:"resource_name"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// ListCollections returns all resource collections
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/collections_list", nil)
	if err != nil {
		return nil, err
	}
	var collections []Collection
	if err := c.do(req, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

// ListResources returns the resources inside a collection
func (c *Client) ListResources(ctx context.Context, collection string) ([]Resource, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/collections_list/"+url.PathEscape(collection)+"/resources", nil)
	if err != nil {
		return nil, err
	}
	var resources []Resource
	if err := c.do(req, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// AddCollection creates a new resource collection
func (c *Client) AddCollection(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/add_collection", map[string]string{
		"collection_name": name,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// AddResource adds a resource to an existing collection
func (c *Client) AddResource(ctx context.Context, r Resource) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/add_resource", map[string]string{
		"collection_name": r.Collection,
		"resource_name":   r.Name,
		"link":            r.Link,
		"description":     r.Description,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DeleteCollection removes a collection and everything in it (admin only)
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/delete_collection/"+url.PathEscape(name), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// DeleteResource removes a single resource from a collection (admin only)
func (c *Client) DeleteResource(ctx context.Context, collection, resource string) error {
	req, err := c.newRequest(ctx, http.MethodDelete,
		"/api/delete_resource/"+url.PathEscape(collection)+"/"+url.PathEscape(resource), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// User represents a registered account as seen by administrators
type User struct {
	Name  string `json:"name"`
	Email string `json:"email_id"`
	Role  string `json:"role"`
}

type listUsersResponse struct {
	Users []User `json:"users"`
}

// ListUsers returns all registered accounts (admin only)
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/list-users", nil)
	if err != nil {
		return nil, err
	}
	var resp listUsersResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UpdateRole changes another account's role (admin only)
func (c *Client) UpdateRole(ctx context.Context, email, role string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/update-role", map[string]string{
		"email_id": email,
		"role":     role,
	})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
