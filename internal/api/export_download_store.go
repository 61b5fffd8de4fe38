package api

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// exportFile 已生成、等待下载的导出文件
type exportFile struct {
	path      string
	month     string
	expiresAt time.Time
}

// exportFiles 一次性下载链接登记表；过期条目连同临时文件一并清理
type exportFiles struct {
	mu     sync.Mutex
	files  map[string]exportFile
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func newExportFiles(ttl time.Duration, logger *zap.Logger) *exportFiles {
	return &exportFiles{
		files:  make(map[string]exportFile),
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// register 登记文件并返回下载 token
func (e *exportFiles) register(path, month string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.sweepLocked(now)

	token := uuid.NewString()
	e.files[token] = exportFile{path: path, month: month, expiresAt: now.Add(e.ttl)}
	return token
}

// take 取出并注销 token；文件由调用方在发送后删除
func (e *exportFiles) take(token string) (exportFile, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sweepLocked(e.now())

	f, ok := e.files[token]
	if ok {
		delete(e.files, token)
	}
	return f, ok
}

func (e *exportFiles) sweepLocked(now time.Time) {
	for token, f := range e.files {
		if !now.After(f.expiresAt) {
			continue
		}
		delete(e.files, token)
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			e.logger.Warn("remove expired export failed", zap.String("path", f.path), zap.Error(err))
		}
	}
}
