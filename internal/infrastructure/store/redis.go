package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

var _ DocumentStore = (*RedisStore)(nil)

const mgetBatch = 100

// RedisStore Redis 文件儲存：每份文件一個字串鍵，每個集合一個索引 set
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore 以既有連線建立文件儲存
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) docKey(collection, key string) string {
	return s.prefix + ":doc:" + collection + ":" + key
}

func (s *RedisStore) indexKey(collection string) string {
	return s.prefix + ":idx:" + collection
}

// Set 寫入文件並更新集合索引
func (s *RedisStore) Set(ctx context.Context, collection, key string, doc Document) error {
	data, err := encode(doc)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(collection, key), data, 0)
		pipe.SAdd(ctx, s.indexKey(collection), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Get 讀取文件
func (s *RedisStore) Get(ctx context.Context, collection, key string) (Document, error) {
	data, err := s.client.Get(ctx, s.docKey(collection, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, key, err)
	}
	return decode(data)
}

// Delete 刪除文件並移出索引
func (s *RedisStore) Delete(ctx context.Context, collection, key string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.docKey(collection, key))
		pipe.SRem(ctx, s.indexKey(collection), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, key, err)
	}
	return nil
}

// QueryByField 掃描集合索引並在客戶端過濾
func (s *RedisStore) QueryByField(ctx context.Context, collection, field string, value any) ([]Document, error) {
	keys, err := s.client.SMembers(ctx, s.indexKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	sort.Strings(keys)

	var docs []Document
	for start := 0; start < len(keys); start += mgetBatch {
		end := start + mgetBatch
		if end > len(keys) {
			end = len(keys)
		}
		docKeys := make([]string, 0, end-start)
		for _, k := range keys[start:end] {
			docKeys = append(docKeys, s.docKey(collection, k))
		}
		values, err := s.client.MGet(ctx, docKeys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", collection, err)
		}
		for _, v := range values {
			str, ok := v.(string)
			if !ok {
				continue // 索引殘留
			}
			doc, err := decode([]byte(str))
			if err != nil {
				return nil, err
			}
			if matches(doc, field, value) {
				docs = append(docs, doc)
			}
		}
	}
	return docs, nil
}

// Close 連線由呼叫端管理
func (s *RedisStore) Close() error {
	return nil
}
