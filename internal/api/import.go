package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/importer"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/ingest"
)

// maxIngestRecords 单次 JSON 写入的记录上限
const maxIngestRecords = 5000

// Import 导入 Excel 数据
// POST /api/import (multipart: file, month, replaceMonth, stream)
// stream=false 时等待导入结束后返回最终事件，否则以 SSE 推送进度
func (h *Handler) Import(c *gin.Context) {
	uploadedFile, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件", "code": apperror.CodeInvalidInput})
		return
	}

	dir := h.uploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.writeError(c, err)
		return
	}
	tempFilePath := filepath.Join(dir, fmt.Sprintf("employment_import_%d_%s", time.Now().UnixNano(), filepath.Base(uploadedFile.Filename)))
	if err := c.SaveUploadedFile(uploadedFile, tempFilePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "code": apperror.CodeInternalError})
		return
	}
	defer os.Remove(tempFilePath)

	progressChan := h.importer.Import(c.Request.Context(), importer.ImportOptions{
		FilePath:     tempFilePath,
		DisplayName:  uploadedFile.Filename,
		Month:        c.PostForm("month"),
		ReplaceMonth: c.DefaultPostForm("replaceMonth", "false") == "true",
	})

	if c.DefaultPostForm("stream", "true") != "true" {
		var last importer.ProgressEvent
		for event := range progressChan {
			last = event
		}
		status := http.StatusOK
		if last.Type == "error" {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, last)
		return
	}

	w, ok := startSSE(c)
	if !ok {
		// 排空通道，保证导入协程退出
		for range progressChan {
		}
		return
	}
	for event := range progressChan {
		w.send(event)
	}
}

// IngestRecords 直接写入规范化月报记录
// POST /api/records  body: [{company_name, month, employees_total, ...}]
func (h *Handler) IngestRecords(c *gin.Context) {
	var records []ingest.Record
	if err := c.ShouldBindJSON(&records); err != nil {
		h.writeError(c, apperror.InvalidInput("请求格式错误"))
		return
	}
	if len(records) == 0 {
		h.writeError(c, apperror.InvalidInput("记录为空"))
		return
	}
	if len(records) > maxIngestRecords {
		h.writeError(c, apperror.InvalidInput(fmt.Sprintf("单次最多写入 %d 条记录", maxIngestRecords)))
		return
	}

	res, err := h.ingester.Ingest(c.Request.Context(), records)
	if err != nil {
		h.writeError(c, apperror.DataUnavailable("records", err))
		return
	}
	h.logger.Info("records received", zap.Int("count", len(records)), zap.Int("imported", res.Imported))
	c.JSON(http.StatusOK, res)
}
