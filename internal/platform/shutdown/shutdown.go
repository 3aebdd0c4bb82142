package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const httpTimeout = 15 * time.Second

// Coordinator 负责编排应用程序的优雅停机流程：
// 先停止接收新请求并等待进行中的请求完成，再依次释放存储连接。
type Coordinator struct {
	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// NewCoordinator 创建一个新的停机协调器。
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// OnShutdown 注册一个在HTTP服务器关闭后执行的清理函数，按注册顺序执行。
func (c *Coordinator) OnShutdown(name string, fn func() error) {
	c.closers = append(c.closers, namedCloser{name: name, close: fn})
}

// ListenForSignalsAndShutdown 启动信号监听并阻塞，直到停机流程完成。
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 阻塞直到接收到停机信号
	sig := <-sigChan
	zap.L().Info("收到关闭信号，开始优雅停机...", zap.String("signal", sig.String()))
	c.Shutdown(server)
}

// Shutdown 关闭HTTP服务器并执行全部清理函数
func (c *Coordinator) Shutdown(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP服务器关闭错误", zap.Error(err))
	} else {
		zap.L().Info("HTTP服务器已关闭。")
	}

	for _, closer := range c.closers {
		if err := closer.close(); err != nil {
			zap.L().Error("释放资源失败", zap.String("resource", closer.name), zap.Error(err))
			continue
		}
		zap.L().Info("资源已释放", zap.String("resource", closer.name))
	}

	zap.L().Info("优雅停机完成。")
}
