package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pdfmark/internal/model"
)

type MarkupRepository struct {
	db *gorm.DB
}

func NewMarkupRepository(db *gorm.DB) *MarkupRepository {
	return &MarkupRepository{db: db}
}

func (r *MarkupRepository) ListByDocument(ctx context.Context, documentID string, kind model.Kind) ([]model.Markup, error) {
	var items []model.Markup
	if err := r.db.WithContext(ctx).
		Where("document_id = ? AND kind = ?", documentID, kind).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list markups failed: %w", err)
	}
	return items, nil
}

// ReplaceByDocument deletes and reinserts the collection in one transaction.
func (r *MarkupRepository) ReplaceByDocument(ctx context.Context, documentID string, kind model.Kind, items []model.Markup) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ? AND kind = ?", documentID, kind).Delete(&model.Markup{}).Error; err != nil {
			return fmt.Errorf("delete markups failed: %w", err)
		}
		if len(items) == 0 {
			return nil
		}

		rows := make([]model.Markup, len(items))
		for i := range items {
			rows[i] = items[i].Clone()
			rows[i].RowID = 0
			rows[i].DocumentID = documentID
			rows[i].Kind = kind
		}
		if err := tx.CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("insert markups failed: %w", err)
		}
		return nil
	})
}

func (r *MarkupRepository) Get(ctx context.Context, documentID string, kind model.Kind, id model.MarkupID) (*model.Markup, error) {
	var m model.Markup
	if err := r.db.WithContext(ctx).
		Where("document_id = ? AND kind = ? AND markup_id = ?", documentID, kind, id).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get markup failed: %w", err)
	}
	return &m, nil
}

func (r *MarkupRepository) Create(ctx context.Context, m *model.Markup) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("create markup failed: %w", err)
	}
	return nil
}

// Update writes every column of m. m.RowID must be set.
func (r *MarkupRepository) Update(ctx context.Context, m *model.Markup) error {
	if m.RowID == 0 {
		return fmt.Errorf("update markup failed: missing row id for %s", m.ID)
	}
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("update markup failed: %w", err)
	}
	return nil
}

func (r *MarkupRepository) Delete(ctx context.Context, documentID string, kind model.Kind, id model.MarkupID) error {
	if err := r.db.WithContext(ctx).
		Where("document_id = ? AND kind = ? AND markup_id = ?", documentID, kind, id).
		Delete(&model.Markup{}).Error; err != nil {
		return fmt.Errorf("delete markup failed: %w", err)
	}
	return nil
}
