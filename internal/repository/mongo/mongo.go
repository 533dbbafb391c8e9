// Package mongo implements the stores on MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pdfmark/internal/model"
	platform "pdfmark/internal/platform/mongo"
)

type DocumentRepository struct {
	col *mongo.Collection
}

func NewDocumentRepository(db *mongo.Database) *DocumentRepository {
	return &DocumentRepository{col: db.Collection(platform.ColDocuments)}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) List(ctx context.Context, query string, limit int) ([]model.Document, error) {
	filter := bson.M{}
	if query != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
		filter = bson.M{"$or": bson.A{
			bson.M{"original_name": pattern},
			bson.M{"author": pattern},
			bson.M{"author_message": pattern},
		}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}

	var docs []model.Document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode documents failed: %w", err)
	}
	return docs, nil
}

type MarkupRepository struct {
	col *mongo.Collection
}

func NewMarkupRepository(db *mongo.Database) *MarkupRepository {
	return &MarkupRepository{col: db.Collection(platform.ColMarkups)}
}

func itemFilter(documentID string, kind model.Kind, id model.MarkupID) bson.M {
	return bson.M{"document_id": documentID, "kind": kind, "markup_id": id}
}

func (r *MarkupRepository) ListByDocument(ctx context.Context, documentID string, kind model.Kind) ([]model.Markup, error) {
	cursor, err := r.col.Find(ctx,
		bson.M{"document_id": documentID, "kind": kind},
		options.Find().SetSort(bson.D{{Key: "position", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list markups failed: %w", err)
	}

	var items []model.Markup
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode markups failed: %w", err)
	}
	return items, nil
}

// ReplaceByDocument deletes the stored collection and inserts items. The two
// steps are not atomic: a failed insert leaves the collection empty.
func (r *MarkupRepository) ReplaceByDocument(ctx context.Context, documentID string, kind model.Kind, items []model.Markup) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"document_id": documentID, "kind": kind}); err != nil {
		return fmt.Errorf("delete markups failed: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(items))
	for i := range items {
		m := items[i]
		m.DocumentID = documentID
		m.Kind = kind
		docs = append(docs, m)
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert markups failed: %w", err)
	}
	return nil
}

func (r *MarkupRepository) Get(ctx context.Context, documentID string, kind model.Kind, id model.MarkupID) (*model.Markup, error) {
	var m model.Markup
	err := r.col.FindOne(ctx, itemFilter(documentID, kind, id)).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get markup failed: %w", err)
	}
	return &m, nil
}

func (r *MarkupRepository) Create(ctx context.Context, m *model.Markup) error {
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("create markup failed: %w", err)
	}
	return nil
}

func (r *MarkupRepository) Update(ctx context.Context, m *model.Markup) error {
	res, err := r.col.ReplaceOne(ctx, itemFilter(m.DocumentID, m.Kind, m.ID), m)
	if err != nil {
		return fmt.Errorf("update markup failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update markup failed: %s not found", m.ID)
	}
	return nil
}

func (r *MarkupRepository) Delete(ctx context.Context, documentID string, kind model.Kind, id model.MarkupID) error {
	if _, err := r.col.DeleteOne(ctx, itemFilter(documentID, kind, id)); err != nil {
		return fmt.Errorf("delete markup failed: %w", err)
	}
	return nil
}

type UploadEventRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUploadEventRepository(db *mongo.Database) *UploadEventRepository {
	return &UploadEventRepository{col: db.Collection(platform.ColUploadEvents), now: time.Now}
}

func (r *UploadEventRepository) Create(ctx context.Context, event *model.UploadEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now()
	}
	if _, err := r.col.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("create upload event failed: %w", err)
	}
	return nil
}
