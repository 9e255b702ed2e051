package kvstore

import (
	"context"
	"time"

	"github.com/angelmondragon/bazary-backend/pkg/db"
	"github.com/angelmondragon/bazary-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DBStore keeps documents in the store_documents table.
type DBStore struct {
	conn *gorm.DB
	now  func() time.Time
}

// NewDBStore builds a database-backed store.
func NewDBStore(conn *gorm.DB) *DBStore {
	return &DBStore{conn: conn, now: time.Now}
}

func (s *DBStore) Get(ctx context.Context, key string) (string, error) {
	var doc models.Document
	err := s.conn.WithContext(ctx).Where("doc_key = ?", key).First(&doc).Error
	if db.IsRecordNotFound(err) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Value, nil
}

func (s *DBStore) Put(ctx context.Context, key, value string) error {
	doc := models.Document{Key: key, Value: value, UpdatedAt: s.now().UTC()}
	return s.conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
}

func (s *DBStore) Delete(ctx context.Context, key string) error {
	return s.conn.WithContext(ctx).Where("doc_key = ?", key).Delete(&models.Document{}).Error
}
