// Package blobstore keeps the whole book as one JSON file inside a GitHub
// Gist. The last write wins.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/simonvc/cafeledger/internal/ledger"
)

const service = "gist"

type Gist struct {
	baseURL    string
	id         string
	token      string
	filename   string
	httpClient *http.Client
}

func New(baseURL, id, token, filename string) *Gist {
	return &Gist{
		baseURL:  baseURL,
		id:       id,
		token:    token,
		filename: filename,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type gistFile struct {
	Content   string `json:"content"`
	Truncated bool   `json:"truncated,omitempty"`
	RawURL    string `json:"raw_url,omitempty"`
}

type gistBody struct {
	Files map[string]*gistFile `json:"files"`
}

// Get loads the book. It returns nil, nil when the gist has no book file yet.
func (g *Gist) Get(ctx context.Context) (*ledger.Book, error) {
	var gist gistBody
	if err := g.do(ctx, http.MethodGet, g.gistURL(), nil, &gist); err != nil {
		return nil, err
	}
	f, ok := gist.Files[g.filename]
	if !ok || f == nil {
		return nil, nil
	}

	content := []byte(f.Content)
	if f.Truncated && f.RawURL != "" {
		raw, err := g.raw(ctx, f.RawURL)
		if err != nil {
			return nil, err
		}
		content = raw
	}

	var b ledger.Book
	if err := json.Unmarshal(content, &b); err != nil {
		return nil, &ledger.ServiceError{Service: service, Message: "decode book", Err: err}
	}
	return &b, nil
}

// Put replaces the book file with b.
func (g *Gist) Put(ctx context.Context, b *ledger.Book) error {
	content, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode book: %w", err)
	}
	body := gistBody{Files: map[string]*gistFile{g.filename: {Content: string(content)}}}
	return g.do(ctx, http.MethodPatch, g.gistURL(), body, nil)
}

func (g *Gist) gistURL() string {
	return g.baseURL + "/gists/" + url.PathEscape(g.id)
}

func (g *Gist) raw(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	g.authorize(req)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &ledger.ServiceError{Service: service, Message: "fetch raw file", Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ledger.ServiceError{Service: service, Message: "read raw file", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &ledger.ServiceError{Service: service, Status: resp.StatusCode, Message: string(data)}
	}
	return data, nil
}

func (g *Gist) authorize(req *http.Request) {
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
}

type apiError struct {
	Message string `json:"message"`
}

func (g *Gist) do(ctx context.Context, method, target string, body, result any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	g.authorize(req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &ledger.ServiceError{Service: service, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ledger.ServiceError{Service: service, Message: "read response", Err: err}
	}
	if resp.StatusCode >= 400 {
		msg := string(respBody)
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		return &ledger.ServiceError{Service: service, Status: resp.StatusCode, Message: msg}
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &ledger.ServiceError{Service: service, Message: "decode response", Err: err}
		}
	}
	return nil
}
