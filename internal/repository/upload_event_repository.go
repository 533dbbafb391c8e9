package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"pdfmark/internal/model"
)

type UploadEventRepository struct {
	db *gorm.DB
}

func NewUploadEventRepository(db *gorm.DB) *UploadEventRepository {
	return &UploadEventRepository{db: db}
}

func (r *UploadEventRepository) Create(ctx context.Context, event *model.UploadEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create upload event failed: %w", err)
	}
	return nil
}
