package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/exporter"
)

const exportDownloadTTL = 10 * time.Minute

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream?month=2025-06
func (h *Handler) ExportStream(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	w, ok := startSSE(c)
	if !ok {
		return
	}

	w.event("start", "开始导出", map[string]any{"month": f.Month})

	lastPercent := -1
	progressFn := func(p exporter.ProgressEvent) {
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		w.event("progress", p.Stage, map[string]any{"percent": p.Percent, "sheet": p.Sheet})
	}

	file, month, err := h.exporter.Export(c.Request.Context(), exporter.ExportOptions{
		Filter:   f,
		Progress: progressFn,
	})
	if err != nil {
		message := "导出失败: " + err.Error()
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			message = "导出失败: " + appErr.Message
		}
		h.logger.Warn("export failed", zap.String("month", f.Month), zap.Error(err))
		w.event("error", message, nil)
		return
	}
	defer file.Close()

	tempPath := filepath.Join(os.TempDir(), fmt.Sprintf("employment_export_%d_%d.xlsx", time.Now().UnixNano(), os.Getpid()))
	if err := file.SaveAs(tempPath); err != nil {
		w.event("error", "写入导出文件失败: "+err.Error(), nil)
		_ = os.Remove(tempPath)
		return
	}

	token := h.downloads.register(tempPath, month)
	prefix := strings.TrimSuffix(c.FullPath(), "/export/stream")
	downloadURL := fmt.Sprintf("%s/export/download/%s", prefix, token)

	w.event("done", "导出完成", map[string]any{
		"percent":     100,
		"month":       month,
		"downloadUrl": downloadURL,
	})
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 token"})
		return
	}

	item, ok := h.downloads.take(token)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载链接已失效"})
		return
	}
	defer os.Remove(item.path)

	if _, err := os.Stat(item.path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出文件不存在"})
		return
	}

	c.Header("Content-Disposition", buildExportContentDisposition(item.month))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.File(item.path)
}

// buildExportContentDisposition ASCII 文件名兜底 + RFC 5987 中文文件名
func buildExportContentDisposition(month string) string {
	ascii := fmt.Sprintf("employment-dashboard-%s.xlsx", month)
	name := fmt.Sprintf("%s用工监测.xlsx", strings.Replace(month, "-", "年", 1)+"月")
	return fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", ascii, url.PathEscape(name))
}
