package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var _ DocumentStore = (*SQLiteStore)(nil)

// documentModel 文件資料表
type documentModel struct {
	Collection string    `gorm:"primaryKey;size:64"`
	DocKey     string    `gorm:"column:doc_key;primaryKey;size:255"`
	Fields     string    `gorm:"type:text;not null"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (documentModel) TableName() string {
	return "documents"
}

// SQLiteStore 以 gorm + SQLite 實作的文件儲存
type SQLiteStore struct {
	db *gorm.DB
}

// OpenSQLite 開啟資料庫並自動建表，path 為空時使用記憶體資料庫
func OpenSQLite(path string, logLevel logger.LogLevel) (*SQLiteStore, error) {
	if path == "" {
		path = ":memory:"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if path == ":memory:" {
		// 每條連線各自一個記憶體資料庫
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&documentModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Set 寫入文件（upsert）
func (s *SQLiteStore) Set(ctx context.Context, collection, key string, doc Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	row := documentModel{Collection: collection, DocKey: key, Fields: string(data)}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Get 讀取文件
func (s *SQLiteStore) Get(ctx context.Context, collection, key string) (Document, error) {
	var row documentModel
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, key, err)
	}
	return decode([]byte(row.Fields))
}

// Delete 刪除文件
func (s *SQLiteStore) Delete(ctx context.Context, collection, key string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_key = ?", collection, key).
		Delete(&documentModel{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// QueryByField 以 json_extract 查詢欄位值
func (s *SQLiteStore) QueryByField(ctx context.Context, collection, field string, value any) ([]Document, error) {
	var rows []documentModel
	err := s.db.WithContext(ctx).
		Where("collection = ? AND json_extract(fields, ?) = ?", collection, "$."+field, value).
		Order("doc_key").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := decode([]byte(row.Fields))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Close 關閉資料庫連線
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
