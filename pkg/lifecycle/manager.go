package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager 管理后台任务的启停，停机时广播取消信号并等待任务退出
type Manager struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	workers map[string]bool

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager() *Manager {
	m := &Manager{workers: make(map[string]bool)}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Go 以name注册并启动一个后台任务，同名任务只能存在一个
func (m *Manager) Go(name string, run func(h *Handle)) error {
	h, err := m.register(name)
	if err != nil {
		return err
	}
	go func() {
		defer h.close()
		run(h)
	}()
	return nil
}

func (m *Manager) register(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.workers[name] {
		return nil, fmt.Errorf("后台任务 %s 已被注册", name)
	}
	m.workers[name] = true
	m.wg.Add(1)
	zap.L().Info("后台任务已启动", zap.String("worker", name))

	var once sync.Once
	return &Handle{
		ctx: m.ctx,
		close: func() {
			once.Do(func() {
				m.mu.Lock()
				delete(m.workers, name)
				m.mu.Unlock()
				m.wg.Done()
			})
		},
	}, nil
}

// Stop 广播停机信号并等待所有任务退出，超时后返回仍未退出的任务名
func (m *Manager) Stop(timeout time.Duration) []string {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		remaining := make([]string, 0, len(m.workers))
		for name := range m.workers {
			remaining = append(remaining, name)
		}
		return remaining
	}
}
