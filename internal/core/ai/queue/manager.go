package queue

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"

	"recipe-scanner/internal/core/ai/gemini"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrClosed 管理器已關閉
var ErrClosed = errors.New("inference queue is closed")

// Caller 被排隊保護的推論呼叫
type Caller interface {
	Call(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error)
}

// Status 隊列狀態
type Status struct {
	Waiting        int   `json:"waiting"`
	Running        int   `json:"running"`
	ProcessedCount int64 `json:"processed_count"`
	MaxQueueSize   int   `json:"max_queue_size"`
	Workers        int   `json:"workers"`
}

// Manager 推論呼叫的排隊管理器
// Workers 限制同時進行的上游呼叫數，MaxSize 限制等待中的呼叫數
type Manager struct {
	caller    Caller
	slots     chan struct{}
	maxSize   int
	waiting   int64
	processed int64
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器
func NewManager(caller Caller, cfg config.QueueConfig) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		caller:  caller,
		slots:   make(chan struct{}, workers),
		maxSize: cfg.MaxSize,
		done:    make(chan struct{}),
	}
}

// Call 取得執行名額後呼叫推論服務；需要等待且等待數已滿時立即回傳 503
func (m *Manager) Call(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	select {
	case m.slots <- struct{}{}:
	default:
		if err := m.wait(ctx, req); err != nil {
			return nil, err
		}
	}
	defer func() { <-m.slots }()

	raw, err := m.caller.Call(ctx, req)
	atomic.AddInt64(&m.processed, 1)
	return raw, err
}

// wait 所有 worker 忙碌時排隊等待名額
func (m *Manager) wait(ctx context.Context, req *gemini.Request) error {
	if n := atomic.AddInt64(&m.waiting, 1); n > int64(m.maxSize) {
		atomic.AddInt64(&m.waiting, -1)
		common.LogWarn("Inference queue is full",
			zap.String("intent", string(req.Intent)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return &common.ServiceError{
			StatusCode: http.StatusServiceUnavailable,
			Message:    "inference queue is full",
		}
	}
	defer atomic.AddInt64(&m.waiting, -1)

	select {
	case m.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &common.ServiceError{
			Timeout: errors.Is(ctx.Err(), context.DeadlineExceeded),
			Err:     ctx.Err(),
		}
	case <-m.done:
		return ErrClosed
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		Waiting:        int(atomic.LoadInt64(&m.waiting)),
		Running:        len(m.slots),
		ProcessedCount: atomic.LoadInt64(&m.processed),
		MaxQueueSize:   m.maxSize,
		Workers:        cap(m.slots),
	}
}

// Close 關閉隊列管理器，等待中的呼叫回傳 ErrClosed
func (m *Manager) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
