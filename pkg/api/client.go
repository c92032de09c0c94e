// Package api is the REST client for the documentation server. It is the
// only part of the tree subsystem that performs I/O: the reorder flow
// issues one PUT per affected record, strictly in order, then refetches
// the full collection so the UI reconciles with whatever the server
// actually holds.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"github.com/mossdocs/arbor/pkg/model"
	"github.com/mossdocs/arbor/pkg/tree"
)

// Client talks to the documentation server.
type Client struct {
	baseURL string
	token   string
	http    *http.Client

	// Collapses concurrent refetches of the same collection into one GET.
	refetch singleflight.Group
}

// NewClient creates a client for the given server base URL. Token may be
// empty for servers that do not require auth.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient overrides the underlying HTTP client (tests, custom
// transports).
func (c *Client) SetHTTPClient(h *http.Client) {
	c.http = h
}

// ListProjects fetches the projects visible to the caller.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.getJSON(ctx, "/projects/", &projects); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListDocuments fetches the flat document collection of a project.
// Concurrent calls for the same project share a single request.
func (c *Client) ListDocuments(ctx context.Context, projectID string) ([]model.Document, error) {
	v, err, _ := c.refetch.Do("documents:"+projectID, func() (any, error) {
		var docs []model.Document
		path := fmt.Sprintf("/projects/%s/documents/", url.PathEscape(projectID))
		if err := c.getJSON(ctx, path, &docs); err != nil {
			return nil, err
		}
		return docs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list documents for project %s: %w", projectID, err)
	}
	return v.([]model.Document), nil
}

// ListTemplates fetches the flat template collection, filtered to one
// library category when categoryName is non-empty.
func (c *Client) ListTemplates(ctx context.Context, categoryName string) ([]model.Template, error) {
	v, err, _ := c.refetch.Do("templates:"+categoryName, func() (any, error) {
		var tpls []model.Template
		path := "/library/templates/"
		if categoryName != "" {
			path += "?category_name=" + url.QueryEscape(categoryName)
		}
		if err := c.getJSON(ctx, path, &tpls); err != nil {
			return nil, err
		}
		return tpls, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list templates for category %s: %w", categoryName, err)
	}
	return v.([]model.Template), nil
}

// ApplyDocumentUpdates commits a resolved reorder batch against a
// project's documents: one PUT per update, awaited in order. The first
// failure aborts the remaining updates and propagates; updates already
// committed are not rolled back. The caller's follow-up refetch
// reconciles the visible tree with the partially applied state.
func (c *Client) ApplyDocumentUpdates(ctx context.Context, projectID string, updates []tree.Update) error {
	base := fmt.Sprintf("/projects/%s/documents", url.PathEscape(projectID))
	return c.applyUpdates(ctx, base, updates)
}

// ApplyTemplateUpdates commits a reorder batch against the template
// library, with the same sequencing and failure semantics.
func (c *Client) ApplyTemplateUpdates(ctx context.Context, updates []tree.Update) error {
	return c.applyUpdates(ctx, "/library/templates", updates)
}

func (c *Client) applyUpdates(ctx context.Context, basePath string, updates []tree.Update) error {
	for i, u := range updates {
		if err := c.putPosition(ctx, basePath, u); err != nil {
			return fmt.Errorf("position update %d of %d (%s): %w",
				i+1, len(updates), u.ID, err)
		}
	}
	return nil
}

// positionPayload is the PUT body for a position update. parent_id is
// only present when the update reparents; null means "move to root".
type positionPayload struct {
	Order     int
	Parent    *string
	SetParent bool
}

func (p positionPayload) MarshalJSON() ([]byte, error) {
	body := map[string]any{"order": p.Order}
	if p.SetParent {
		body["parent_id"] = p.Parent
	}
	return json.Marshal(body)
}

func (c *Client) putPosition(ctx context.Context, basePath string, u tree.Update) error {
	payload := positionPayload{Order: u.Order, Parent: u.Parent, SetParent: u.SetParent}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	path := basePath + "/" + url.PathEscape(u.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// httpError turns a non-success response into an error carrying the
// status and a snippet of the body.
func httpError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return fmt.Errorf("server returned %s: %s", resp.Status, msg)
}
