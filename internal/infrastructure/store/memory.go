package store

import (
	"context"
	"sort"
	"sync"
)

var _ DocumentStore = (*MemoryStore)(nil)

// MemoryStore 記憶體文件儲存，以 JSON 編碼保存以避免共享參照
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
}

// NewMemoryStore 創建記憶體文件儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string][]byte)}
}

// Set 寫入文件（覆蓋）
func (s *MemoryStore) Set(ctx context.Context, collection, key string, doc Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		c = make(map[string][]byte)
		s.collections[collection] = c
	}
	c[key] = data
	return nil
}

// Get 讀取文件
func (s *MemoryStore) Get(ctx context.Context, collection, key string) (Document, error) {
	s.mu.RLock()
	data, ok := s.collections[collection][key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(data)
}

// Delete 刪除文件
func (s *MemoryStore) Delete(ctx context.Context, collection, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], key)
	return nil
}

// QueryByField 依欄位值查詢，結果依鍵排序
func (s *MemoryStore) QueryByField(ctx context.Context, collection, field string, value any) ([]Document, error) {
	s.mu.RLock()
	c := s.collections[collection]
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	raw := make([][]byte, 0, len(keys))
	for _, k := range keys {
		raw = append(raw, c[k])
	}
	s.mu.RUnlock()

	var docs []Document
	for _, data := range raw {
		doc, err := decode(data)
		if err != nil {
			return nil, err
		}
		if matches(doc, field, value) {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// Close 無需釋放資源
func (s *MemoryStore) Close() error {
	return nil
}
