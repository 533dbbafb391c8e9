package app

import (
	"context"
	"io"

	"pdfmark/internal/model"
)

// DocumentStore persists document metadata. GetByID returns nil, nil for an
// unknown id.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	// List returns documents newest first whose name, author or message
	// contains query, case-insensitively. An empty query matches all.
	List(ctx context.Context, query string, limit int) ([]model.Document, error)
}

// MarkupStore persists markup collections keyed by (document, kind). Lists
// are returned in Position order. Get returns nil, nil for an unknown id.
type MarkupStore interface {
	ListByDocument(ctx context.Context, documentID string, kind model.Kind) ([]model.Markup, error)
	// ReplaceByDocument deletes every record of (documentID, kind) and
	// inserts items as one unit.
	ReplaceByDocument(ctx context.Context, documentID string, kind model.Kind, items []model.Markup) error
	Get(ctx context.Context, documentID string, kind model.Kind, id model.MarkupID) (*model.Markup, error)
	Create(ctx context.Context, m *model.Markup) error
	Update(ctx context.Context, m *model.Markup) error
	Delete(ctx context.Context, documentID string, kind model.Kind, id model.MarkupID) error
}

// ObjectStore holds the uploaded PDF bytes.
type ObjectStore interface {
	// Put stores r under key and returns the URL the document is served from.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// MarkupCache is versioned per collection: Delete bumps the version and Set
// only stores a list read at the current version.
type MarkupCache interface {
	Get(ctx context.Context, documentID string, kind model.Kind) ([]model.Markup, bool, error)
	Version(ctx context.Context, documentID string, kind model.Kind) (int64, error)
	Set(ctx context.Context, documentID string, kind model.Kind, items []model.Markup, version int64) error
	Delete(ctx context.Context, documentID string, kind model.Kind) error
}

type UploadEventPublisher interface {
	Publish(ctx context.Context, event model.UploadEvent) error
}
