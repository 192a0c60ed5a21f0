package service

import (
	"context"
	"errors"

	"recipe-scanner/internal/core/ai/cache"
	"recipe-scanner/internal/core/ai/gemini"
	"recipe-scanner/internal/infrastructure/metrics"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// Caller 推論服務呼叫介面
type Caller interface {
	Call(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error)
}

// Service AI 服務：在推論客戶端前加上回應快取
type Service struct {
	caller  Caller
	cache   cache.Store
	metrics *metrics.Metrics
}

// NewService 創建 AI 服務，store 為 nil 時停用快取
func NewService(caller Caller, store cache.Store, m *metrics.Metrics) *Service {
	return &Service{
		caller:  caller,
		cache:   store,
		metrics: m,
	}
}

// Generate 回傳推論服務的原始封包，優先使用快取
func (s *Service) Generate(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error) {
	key := requestKey(req)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			s.metrics.CacheLookup(true)
			common.LogDebug("快取命中", zap.String("intent", string(req.Intent)))
			return gemini.RawResponse(data), nil
		case !errors.Is(err, common.ErrCacheMiss):
			common.LogWarn("快取讀取失敗", zap.Error(err))
		}
		s.metrics.CacheLookup(false)
	}

	raw, err := s.caller.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, raw); err != nil {
			common.LogWarn("快取寫入失敗", zap.Error(err))
		}
	}
	return raw, nil
}

// Evict 移除某請求的快取回應，讓重試能真正呼叫推論服務
func (s *Service) Evict(ctx context.Context, req *gemini.Request) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, requestKey(req)); err != nil {
		common.LogWarn("快取移除失敗", zap.Error(err))
	}
}

func requestKey(req *gemini.Request) string {
	return cache.Key(string(req.Intent)+"\n"+req.Prompt(), req.ImageData())
}
