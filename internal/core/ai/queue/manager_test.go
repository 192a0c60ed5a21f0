package queue

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"recipe-scanner/internal/core/ai/gemini"
	"recipe-scanner/internal/core/ai/prompt"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingCaller 在 release 關閉前阻塞
type blockingCaller struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingCaller) Call(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error) {
	b.started <- struct{}{}
	<-b.release
	return gemini.RawResponse(`{}`), nil
}

func newBlocking() *blockingCaller {
	return &blockingCaller{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func request() *gemini.Request {
	return gemini.NewTextRequest(prompt.IntentBanners, "p")
}

func TestCallPassesThrough(t *testing.T) {
	c := newBlocking()
	close(c.release)
	m := NewManager(c, config.QueueConfig{Workers: 2, MaxSize: 4})
	defer m.Close()

	raw, err := m.Call(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, gemini.RawResponse(`{}`), raw)

	status := m.GetQueueStatus()
	assert.EqualValues(t, 1, status.ProcessedCount)
	assert.Equal(t, 0, status.Running)
	assert.Equal(t, 2, status.Workers)
}

func TestCallIdleWorkerWithoutWaitingRoom(t *testing.T) {
	c := newBlocking()
	close(c.release)
	m := NewManager(c, config.QueueConfig{Workers: 1, MaxSize: 0})
	defer m.Close()

	_, err := m.Call(context.Background(), request())
	require.NoError(t, err)
	assert.EqualValues(t, 1, m.GetQueueStatus().ProcessedCount)
}

func TestCallRejectsWhenQueueFull(t *testing.T) {
	c := newBlocking()
	m := NewManager(c, config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = m.Call(context.Background(), request())
	}()
	<-c.started
	go func() {
		defer wg.Done()
		_, _ = m.Call(context.Background(), request())
	}()
	require.Eventually(t, func() bool { return m.GetQueueStatus().Waiting == 1 }, time.Second, 5*time.Millisecond)

	_, err := m.Call(context.Background(), request())

	var se *common.ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)

	close(c.release)
	wg.Wait()
	assert.EqualValues(t, 2, m.GetQueueStatus().ProcessedCount)
}

func TestCallWaitsForFreeWorker(t *testing.T) {
	c := newBlocking()
	m := NewManager(c, config.QueueConfig{Workers: 1, MaxSize: 2})
	defer m.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = m.Call(context.Background(), request())
	}()
	<-c.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := m.Call(ctx, request())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var se *common.ServiceError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.Timeout)
	assert.True(t, common.IsRecoverable(err))
	assert.Equal(t, http.StatusGatewayTimeout, common.ToCustomError(err).Status)
	assert.Equal(t, 0, m.GetQueueStatus().Waiting)

	close(c.release)
	wg.Wait()
	assert.EqualValues(t, 1, m.GetQueueStatus().ProcessedCount)
}

func TestCallAfterClose(t *testing.T) {
	c := newBlocking()
	m := NewManager(c, config.QueueConfig{Workers: 1, MaxSize: 2})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = m.Call(context.Background(), request())
	}()
	<-c.started

	errc := make(chan error, 1)
	go func() {
		_, err := m.Call(context.Background(), request())
		errc <- err
	}()
	require.Eventually(t, func() bool { return m.GetQueueStatus().Waiting == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, <-errc, ErrClosed)

	close(c.release)
	wg.Wait()
}
