// Package memory implements the stores on go-memdb. Data lives only as long
// as the process; it backs local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"pdfmark/internal/model"
)

const (
	tblDocuments    = "documents"
	tblMarkups      = "markups"
	tblUploadEvents = "upload_events"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tblDocuments: {
			Name: tblDocuments,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "ID"},
				},
			},
		},
		tblMarkups: {
			Name: tblMarkups,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:   "id",
					Unique: true,
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "DocumentID"},
							&memdb.StringFieldIndex{Field: "Kind"},
							&memdb.StringFieldIndex{Field: "ID"},
						},
					},
				},
				"doc_kind": {
					Name: "doc_kind",
					Indexer: &memdb.CompoundIndex{
						Indexes: []memdb.Indexer{
							&memdb.StringFieldIndex{Field: "DocumentID"},
							&memdb.StringFieldIndex{Field: "Kind"},
						},
					},
				},
			},
		},
		tblUploadEvents: {
			Name: tblUploadEvents,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.UintFieldIndex{Field: "ID"},
				},
				"document_id": {
					Name:    "document_id",
					Indexer: &memdb.StringFieldIndex{Field: "DocumentID"},
				},
			},
		},
	},
}

// DB is an in-memory database shared by the repositories of this package.
type DB struct {
	db     *memdb.MemDB
	lastID atomic.Uint64
}

func New() (*DB, error) {
	memDB, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("new memdb failed: %w", err)
	}
	return &DB{db: memDB}, nil
}

func (d *DB) Close() error {
	return nil
}

type DocumentRepository struct {
	db *DB
}

func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(_ context.Context, doc *model.Document) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblDocuments, "id", doc.ID)
	if err != nil {
		return fmt.Errorf("find document failed: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("create document failed: %s already exists", doc.ID)
	}

	stored := *doc
	if err := txn.Insert(tblDocuments, &stored); err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*model.Document, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblDocuments, "id", id)
	if err != nil {
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	doc := *raw.(*model.Document)
	return &doc, nil
}

func (r *DocumentRepository) List(_ context.Context, query string, limit int) ([]model.Document, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblDocuments, "id")
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}

	query = strings.ToLower(query)
	var docs []model.Document
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		doc := *raw.(*model.Document)
		if query == "" || matches(&doc, query) {
			docs = append(docs, doc)
		}
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func matches(doc *model.Document, query string) bool {
	for _, field := range []string{doc.OriginalName, doc.Author, doc.AuthorMessage} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

type MarkupRepository struct {
	db *DB
}

func NewMarkupRepository(db *DB) *MarkupRepository {
	return &MarkupRepository{db: db}
}

func (r *MarkupRepository) ListByDocument(_ context.Context, documentID string, kind model.Kind) ([]model.Markup, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblMarkups, "doc_kind", documentID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list markups failed: %w", err)
	}

	var items []model.Markup
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		items = append(items, raw.(*model.Markup).Clone())
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Position < items[j].Position
	})
	return items, nil
}

// ReplaceByDocument swaps the collection within one write transaction.
func (r *MarkupRepository) ReplaceByDocument(_ context.Context, documentID string, kind model.Kind, items []model.Markup) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tblMarkups, "doc_kind", documentID, string(kind)); err != nil {
		return fmt.Errorf("delete markups failed: %w", err)
	}
	for i := range items {
		stored := items[i].Clone()
		stored.DocumentID = documentID
		stored.Kind = kind
		if err := txn.Insert(tblMarkups, &stored); err != nil {
			return fmt.Errorf("insert markup failed: %w", err)
		}
	}
	txn.Commit()
	return nil
}

func (r *MarkupRepository) Get(_ context.Context, documentID string, kind model.Kind, id model.MarkupID) (*model.Markup, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tblMarkups, "id", documentID, string(kind), string(id))
	if err != nil {
		return nil, fmt.Errorf("get markup failed: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	m := raw.(*model.Markup).Clone()
	return &m, nil
}

func (r *MarkupRepository) Create(_ context.Context, m *model.Markup) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblMarkups, "id", m.DocumentID, string(m.Kind), string(m.ID))
	if err != nil {
		return fmt.Errorf("find markup failed: %w", err)
	}
	if existing != nil {
		return fmt.Errorf("create markup failed: %s already exists", m.ID)
	}

	stored := m.Clone()
	if err := txn.Insert(tblMarkups, &stored); err != nil {
		return fmt.Errorf("create markup failed: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *MarkupRepository) Update(_ context.Context, m *model.Markup) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	existing, err := txn.First(tblMarkups, "id", m.DocumentID, string(m.Kind), string(m.ID))
	if err != nil {
		return fmt.Errorf("find markup failed: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("update markup failed: %s not found", m.ID)
	}

	stored := m.Clone()
	if err := txn.Insert(tblMarkups, &stored); err != nil {
		return fmt.Errorf("update markup failed: %w", err)
	}
	txn.Commit()
	return nil
}

func (r *MarkupRepository) Delete(_ context.Context, documentID string, kind model.Kind, id model.MarkupID) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	if _, err := txn.DeleteAll(tblMarkups, "id", documentID, string(kind), string(id)); err != nil {
		return fmt.Errorf("delete markup failed: %w", err)
	}
	txn.Commit()
	return nil
}

type UploadEventRepository struct {
	db *DB
}

func NewUploadEventRepository(db *DB) *UploadEventRepository {
	return &UploadEventRepository{db: db}
}

func (r *UploadEventRepository) Create(_ context.Context, event *model.UploadEvent) error {
	txn := r.db.db.Txn(true)
	defer txn.Abort()

	event.ID = uint(r.db.lastID.Add(1))
	stored := *event
	if err := txn.Insert(tblUploadEvents, &stored); err != nil {
		return fmt.Errorf("create upload event failed: %w", err)
	}
	txn.Commit()
	return nil
}

// ListByDocument returns the upload events recorded for a document.
func (r *UploadEventRepository) ListByDocument(_ context.Context, documentID string) ([]model.UploadEvent, error) {
	txn := r.db.db.Txn(false)
	defer txn.Abort()

	iter, err := txn.Get(tblUploadEvents, "document_id", documentID)
	if err != nil {
		return nil, fmt.Errorf("list upload events failed: %w", err)
	}
	var events []model.UploadEvent
	for raw := iter.Next(); raw != nil; raw = iter.Next() {
		events = append(events, *raw.(*model.UploadEvent))
	}
	return events, nil
}
