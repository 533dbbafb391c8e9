package model

import "time"

// Document is an uploaded PDF. It is created once on upload and never edited;
// anyone holding its ID may view and annotate it.
type Document struct {
	ID            string    `gorm:"primaryKey;size:64" json:"docId" bson:"_id"`
	OriginalName  string    `gorm:"size:255;not null" json:"originalName" bson:"original_name"`
	SourceURL     string    `gorm:"size:1024;not null" json:"cloudUrl" bson:"source_url"`
	ObjectKey     string    `gorm:"size:512;not null" json:"cloudPublicId" bson:"object_key"`
	Author        string    `gorm:"size:128" json:"author,omitempty" bson:"author,omitempty"`
	AuthorMessage string    `gorm:"type:text" json:"authorMessage,omitempty" bson:"author_message,omitempty"`
	PageCount     int       `json:"pageCount,omitempty" bson:"page_count,omitempty"`
	Size          int64     `json:"size" bson:"size"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt" bson:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}
