package model

import "time"

// UploadEvent is the analytics record written after a document upload. It is
// delivered asynchronously and may lag behind the document itself.
type UploadEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id" bson:"-"`
	DocumentID   string    `gorm:"size:64;not null;index" json:"document_id" bson:"document_id"`
	OriginalName string    `gorm:"size:255;not null" json:"original_name" bson:"original_name"`
	Author       string    `gorm:"size:128" json:"author" bson:"author"`
	Size         int64     `json:"size" bson:"size"`
	PageCount    int       `json:"page_count" bson:"page_count"`
	UploadedAt   time.Time `json:"uploaded_at" bson:"uploaded_at"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

func (UploadEvent) TableName() string {
	return "upload_events"
}
