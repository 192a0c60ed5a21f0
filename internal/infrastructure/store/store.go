package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"recipe-scanner/internal/pkg/common"
)

// 集合名稱
const (
	CollectionFavorites    = "favorites"
	CollectionFullRecipe   = "full_recipe"
	CollectionBannerRecipe = "banner_recipe"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("document not found")

// Document 文件欄位
type Document map[string]any

// DocumentStore 文件儲存介面，Delete 為冪等
type DocumentStore interface {
	Set(ctx context.Context, collection, key string, doc Document) error
	Get(ctx context.Context, collection, key string) (Document, error)
	Delete(ctx context.Context, collection, key string) error
	QueryByField(ctx context.Context, collection, field string, value any) ([]Document, error)
	Close() error
}

func encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Document, error) {
	var doc Document
	if err := common.ParseJSONBytes(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

// matches 依型別比較純量欄位：字串只等於字串，數字以數值比較（3 等於 3.0），
// 布林視為 1/0，與 SQLite json_extract 的比較結果一致
func matches(doc Document, field string, value any) bool {
	v, ok := doc[field]
	if !ok {
		return false
	}
	left, ok := scalar(v)
	if !ok {
		return false
	}
	right, ok := scalar(value)
	return ok && left == right
}

// scalarValue 正規化後的純量
type scalarValue struct {
	text    string
	number  float64
	numeric bool
}

func scalar(v any) (scalarValue, bool) {
	switch t := v.(type) {
	case string:
		return scalarValue{text: t}, true
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return scalarValue{number: f, numeric: true}, err == nil
	case float64:
		return scalarValue{number: t, numeric: true}, true
	case float32:
		return scalarValue{number: float64(t), numeric: true}, true
	case int:
		return scalarValue{number: float64(t), numeric: true}, true
	case int32:
		return scalarValue{number: float64(t), numeric: true}, true
	case int64:
		return scalarValue{number: float64(t), numeric: true}, true
	case bool:
		if t {
			return scalarValue{number: 1, numeric: true}, true
		}
		return scalarValue{numeric: true}, true
	}
	return scalarValue{}, false
}
