// Package client is a Go client for the pdfmark HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pdfmark/internal/model"
)

var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"error"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Detail != "" && e.Detail != msg {
		return fmt.Sprintf("api status %d: %s: %s", e.Status, msg, e.Detail)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, msg)
}

// Is makes a 404 match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload sends a PDF and returns the created document.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, author, message string) (*model.Document, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build upload form failed: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read upload file failed: %w", err)
	}
	if author != "" {
		_ = w.WriteField("author", author)
	}
	if message != "" {
		_ = w.WriteField("authorMessage", message)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build upload form failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("build upload request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var doc model.Document
	if err := c.do(req, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) GetDocument(ctx context.Context, docID string) (*model.Document, error) {
	var doc model.Document
	if err := c.call(ctx, http.MethodGet, docPath(docID), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments returns uploaded documents newest first, filtered by q.
func (c *Client) ListDocuments(ctx context.Context, q string, limit int) ([]model.Document, error) {
	params := url.Values{}
	if q != "" {
		params.Set("q", q)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/docs"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var docs []model.Document
	if err := c.call(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ListMarkups fetches the stored collection of kind for a document.
func (c *Client) ListMarkups(ctx context.Context, docID string, kind model.Kind) ([]model.Markup, error) {
	var items []model.Markup
	if err := c.call(ctx, http.MethodGet, collectionPath(docID, kind), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ReplaceMarkups overwrites the stored collection of kind with items.
func (c *Client) ReplaceMarkups(ctx context.Context, docID string, kind model.Kind, items []model.Markup) error {
	if items == nil {
		items = []model.Markup{}
	}
	body := map[string][]model.Markup{kind.Collection(): items}
	return c.call(ctx, http.MethodPost, collectionPath(docID, kind), body, nil)
}

func (c *Client) AddMarkup(ctx context.Context, docID string, kind model.Kind, m model.Markup) (*model.Markup, error) {
	var out model.Markup
	if err := c.call(ctx, http.MethodPost, collectionPath(docID, kind)+"/add", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMarkup(ctx context.Context, docID string, kind model.Kind, id model.MarkupID, m model.Markup) (*model.Markup, error) {
	var out model.Markup
	if err := c.call(ctx, http.MethodPut, itemPath(docID, kind, id), m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMarkup(ctx context.Context, docID string, kind model.Kind, id model.MarkupID) error {
	return c.call(ctx, http.MethodDelete, itemPath(docID, kind, id), nil, nil)
}

func docPath(docID string) string {
	return "/api/docs/" + url.PathEscape(docID)
}

func collectionPath(docID string, kind model.Kind) string {
	return docPath(docID) + "/" + kind.Collection()
}

func itemPath(docID string, kind model.Kind, id model.MarkupID) string {
	return collectionPath(docID, kind) + "/" + url.PathEscape(string(id))
}

func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request failed: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request failed: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if jsonErr := json.Unmarshal(raw, apiErr); jsonErr != nil {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response json failed: %w", err)
	}
	return nil
}
