package gemini

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/infrastructure/metrics"
	"recipe-scanner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Client 推論服務客戶端
type Client struct {
	cfg     config.GeminiConfig
	client  *resty.Client
	metrics *metrics.Metrics
}

// Option 客戶端選項
type Option func(*Client)

// WithMetrics 記錄呼叫指標
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient 創建推論服務客戶端，缺少 URL 或 Key 時回傳 ConfigurationError
func NewClient(cfg config.GeminiConfig, opts ...Option) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, common.NewConfigurationError("GEMINI_API_URL", "inference endpoint URL is required")
	}
	if cfg.APIKey == "" {
		return nil, common.NewConfigurationError("GEMINI_API_KEY", "inference API key is required")
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", cfg.APIKey).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryDelay).
		SetRetryMaxWaitTime(cfg.RetryMaxDelay).
		AddRetryCondition(shouldRetry).
		AddRetryHook(func(resp *resty.Response, err error) {
			fields := []zap.Field{zap.Error(err)}
			if resp != nil {
				fields = append(fields,
					zap.Int("status", resp.StatusCode()),
					zap.Int("attempt", resp.Request.Attempt),
				)
			}
			common.LogWarn("AI 請求重試", fields...)
		})

	c := &Client{
		cfg:    cfg,
		client: client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// shouldRetry 僅對網路錯誤、429 與 5xx 重試
func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Call 發送請求並回傳未修改的回應封包
func (c *Client) Call(ctx context.Context, req *Request) (RawResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.cfg.APIURL)

	raw, err := c.handleResponse(ctx, resp, err)

	duration := time.Since(start)
	c.metrics.ObserveInference(string(req.Intent), duration, err)
	common.LogAICall(string(req.Intent), duration, err)

	return raw, err
}

func (c *Client) handleResponse(ctx context.Context, resp *resty.Response, err error) (RawResponse, error) {
	if err != nil {
		return nil, &common.ServiceError{
			Timeout: isTimeout(ctx, err),
			Err:     err,
		}
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		msg := gjson.GetBytes(body, "error.message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		common.LogError("AI 服務回傳錯誤",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", msg),
		)
		return nil, &common.ServiceError{
			StatusCode: resp.StatusCode(),
			Message:    msg,
		}
	}

	if !gjson.ValidBytes(body) {
		return nil, &common.ServiceError{
			StatusCode: resp.StatusCode(),
			Message:    "response envelope is not valid JSON",
		}
	}

	return RawResponse(body), nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
