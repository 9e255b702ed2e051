package models

import "time"

// Document is one JSON blob stored under a fixed key.
type Document struct {
	Key       string    `gorm:"column:doc_key;primaryKey;size:64"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (Document) TableName() string { return "store_documents" }
