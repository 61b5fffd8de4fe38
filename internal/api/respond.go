package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// writeError 按 AppError 输出错误响应
func (h *Handler) writeError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.String("dataset", appErr.Dataset),
			zap.Error(err))
	}
	body := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if appErr.Dataset != "" {
		body["dataset"] = appErr.Dataset
	}
	c.JSON(appErr.HTTPStatus, body)
}

// bindFilter 从 query 解析筛选条件
func bindFilter(c *gin.Context) (model.Filter, error) {
	var f model.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		return f, apperror.InvalidInput("筛选参数错误")
	}
	return f, nil
}

func parseIntWithDefault(v string, d int) int {
	if v == "" {
		return d
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return d
	}
	return i
}

// progressEvent SSE 事件
type progressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// sseWriter 以 data: {json} 形式推送事件
type sseWriter struct {
	c       *gin.Context
	flusher http.Flusher
}

func startSSE(c *gin.Context) (*sseWriter, bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return nil, false
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	return &sseWriter{c: c, flusher: flusher}, true
}

func (w *sseWriter) send(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w.c.Writer, "data: %s\n\n", b)
	w.flusher.Flush()
}

func (w *sseWriter) event(typ, message string, data interface{}) {
	if data == nil {
		data = map[string]any{}
	}
	w.send(progressEvent{Type: typ, Message: message, Data: data, Timestamp: time.Now()})
}
