package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/ingest"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/parser"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

// 导入日志状态
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusFailed  = "failed"
)

// Store 导入依赖的存储能力（*store.Store 实现）
type Store interface {
	ingest.Writer
	CreateImportLog(ctx context.Context, filename, fileHash string) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, reportMonth string, totalRows, importedRows, errorRows int, status, errorMessage string) error
}

var _ Store = (*store.Store)(nil)

// Coordinator 导入协调器
type Coordinator struct {
	store      Store
	ingester   *ingest.Ingester
	recognizer *parser.SheetRecognizer
	parser     *parser.WorkforceParser
	logger     *zap.Logger
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:      st,
		ingester:   ingest.NewIngester(st, logger),
		recognizer: parser.NewSheetRecognizer(),
		parser:     parser.NewWorkforceParser(),
		logger:     logger.Named("importer"),
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	// DisplayName 上传时的原始文件名（为空取 FilePath 的文件名）
	DisplayName string
	// Month 指定数据月份；为空时依次取月份列、Sheet 名、文件名
	Month string
	// ReplaceMonth 导入前删除该月已有月报
	ReplaceMonth bool
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/sheet_start/sheet_done/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// importContext 单次导入的上下文
type importContext struct {
	ctx          context.Context
	opts         ImportOptions
	file         *excelize.File
	fileMonth    string
	report       *parser.ImportReport
	progressChan chan ProgressEvent
	cleared      map[string]bool
	months       map[string]bool
}

// Import 执行导入，返回进度通道（导入结束后关闭）
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()
	name := opts.DisplayName
	if name == "" {
		name = filepath.Base(opts.FilePath)
	}

	ic := &importContext{
		ctx:          ctx,
		opts:         opts,
		progressChan: progressChan,
		cleared:      make(map[string]bool),
		months:       make(map[string]bool),
		report: &parser.ImportReport{
			BatchID:  uuid.NewString(),
			Filename: name,
			Months:   []string{},
			Sheets:   []parser.ParseResult{},
		},
	}
	if month, ok := parser.ExtractMonthKey(name); ok {
		ic.fileMonth = month
	}
	if opts.Month != "" {
		month, ok := parser.ExtractMonthKey(opts.Month)
		if !ok {
			c.fail(ic, 0, fmt.Sprintf("指定月份无法识别: %s", opts.Month))
			return
		}
		ic.opts.Month = month
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "开始导入 Excel 文件",
		Data: map[string]string{
			"filename": name,
			"batch_id": ic.report.BatchID,
		},
		Timestamp: time.Now(),
	})

	hash, err := fileHash(opts.FilePath)
	if err != nil {
		c.fail(ic, 0, fmt.Sprintf("读取文件失败: %v", err))
		return
	}
	logID, err := c.store.CreateImportLog(ctx, name, hash)
	if err != nil {
		c.fail(ic, 0, fmt.Sprintf("写入导入日志失败: %v", err))
		return
	}

	file, err := excelize.OpenFile(opts.FilePath)
	if err != nil {
		c.fail(ic, logID, fmt.Sprintf("打开文件失败: %v", err))
		return
	}
	defer file.Close()
	ic.file = file

	sheetList := file.GetSheetList()
	ic.report.TotalSheets = len(sheetList)
	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("发现 %d 个 Sheet", len(sheetList)),
		Data: map[string]interface{}{
			"total_sheets": len(sheetList),
		},
		Timestamp: time.Now(),
	})

	for _, sheetName := range sheetList {
		if ctx.Err() != nil {
			c.fail(ic, logID, "导入已取消")
			return
		}
		c.processSheet(ic, sheetName)
	}

	ic.report.Duration = time.Since(startTime)
	status := StatusSuccess
	switch {
	case ic.report.ImportedRows == 0:
		status = StatusFailed
	case ic.report.ErrorRows > 0:
		status = StatusPartial
	}
	if err := c.store.UpdateImportLog(ctx, logID, strings.Join(ic.report.Months, ","),
		ic.report.TotalRows, ic.report.ImportedRows, ic.report.ErrorRows, status, summarizeErrors(ic.report)); err != nil {
		c.logger.Warn("update import log failed", zap.Int64("import_log_id", logID), zap.Error(err))
	}

	c.logger.Info("import finished",
		zap.String("batch_id", ic.report.BatchID),
		zap.String("filename", name),
		zap.String("status", status),
		zap.Int("imported_rows", ic.report.ImportedRows),
		zap.Int("error_rows", ic.report.ErrorRows),
		zap.Duration("duration", ic.report.Duration),
	)

	c.sendFinal(ic, ProgressEvent{
		Type:      "done",
		Message:   "导入完成",
		Data:      ic.report,
		Timestamp: time.Now(),
	})
}

// processSheet 处理单个 Sheet
func (c *Coordinator) processSheet(ic *importContext, sheetName string) {
	sheetStartTime := time.Now()

	c.sendProgress(ic.progressChan, ProgressEvent{
		Type:    "sheet_start",
		Message: fmt.Sprintf("正在解析 Sheet: %s", sheetName),
		Data: map[string]string{
			"sheet_name": sheetName,
		},
		Timestamp: time.Now(),
	})

	rows, err := ic.file.GetRows(sheetName)
	if err != nil || len(rows) < 1 {
		msg := "空 Sheet"
		if err != nil {
			msg = fmt.Sprintf("读取 Sheet 失败: %v", err)
		}
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypeUnknown,
			Status:    "skipped",
			Errors:    []string{msg},
			Duration:  time.Since(sheetStartTime),
		})
		return
	}

	recognition := c.recognizer.Recognize(sheetName, rows)
	c.sendProgress(ic.progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("Sheet \"%s\" 识别为: %s (置信度: %.2f)", sheetName, recognition.SheetType, recognition.Confidence),
		Data: map[string]interface{}{
			"sheet_name": sheetName,
			"sheet_type": string(recognition.SheetType),
			"confidence": recognition.Confidence,
		},
		Timestamp: time.Now(),
	})

	if recognition.SheetType != parser.SheetTypeWorkforce {
		result := parser.ParseResult{
			SheetName: sheetName,
			SheetType: recognition.SheetType,
			Status:    "skipped",
			Duration:  time.Since(sheetStartTime),
		}
		if recognition.SheetType == parser.SheetTypeUnknown {
			result.Errors = []string{"无法识别 Sheet 类型"}
			c.sendProgress(ic.progressChan, ProgressEvent{
				Type:      "warning",
				Message:   fmt.Sprintf("无法识别 Sheet: %s (置信度过低)", sheetName),
				Timestamp: time.Now(),
			})
		}
		c.recordSheetResult(ic, result)
		return
	}

	c.processWorkforce(ic, sheetName, rows, recognition, sheetStartTime)
}

// sheetMonth 数据月份：指定月份 > Sheet 名 > 文件名（行内月份列在解析时优先）
func (ic *importContext) sheetMonth(recognition parser.SheetRecognitionResult) string {
	switch {
	case ic.opts.Month != "":
		return ic.opts.Month
	case recognition.Month != "":
		return recognition.Month
	default:
		return ic.fileMonth
	}
}

func (c *Coordinator) processWorkforce(ic *importContext, sheetName string, rows [][]string, recognition parser.SheetRecognitionResult, start time.Time) {
	month := ic.sheetMonth(recognition)
	parsed, err := c.parser.Parse(rows, recognition.HeaderRow, month)
	if err != nil {
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypeWorkforce,
			Status:    "error",
			Errors:    []string{err.Error()},
			Duration:  time.Since(start),
		})
		return
	}

	if ic.opts.Month != "" {
		for i := range parsed.Records {
			parsed.Records[i].Month = ic.opts.Month
		}
	}

	var res *ingest.Result
	if ic.opts.ReplaceMonth {
		res, err = c.ingester.Replace(ic.ctx, parsed.Records, ic.cleared)
	} else {
		res, err = c.ingester.Ingest(ic.ctx, parsed.Records)
	}
	if err != nil {
		c.recordSheetResult(ic, parser.ParseResult{
			SheetName: sheetName,
			SheetType: parser.SheetTypeWorkforce,
			Status:    "error",
			Month:     month,
			ErrorRows: parsed.TotalRows,
			Errors:    append(parsed.Errors, fmt.Sprintf("批量写入失败: %v", err)),
			Duration:  time.Since(start),
		})
		return
	}

	for _, m := range res.Replaced {
		ic.cleared[m] = true
		c.sendProgress(ic.progressChan, ProgressEvent{
			Type:      "info",
			Message:   fmt.Sprintf("已替换 %s 旧数据", m),
			Timestamp: time.Now(),
		})
	}

	errs := parsed.Errors
	for _, r := range res.Rejected {
		errs = append(errs, fmt.Sprintf("%s: %s", r.Company, strings.Join(r.Errors, "；")))
	}
	for _, m := range res.Months {
		if !ic.months[m] {
			ic.months[m] = true
			ic.report.Months = append(ic.report.Months, m)
		}
	}

	status := "imported"
	switch {
	case parsed.TotalRows == 0:
		status = "skipped"
	case res.Imported == 0:
		status = "error"
	}
	if month == "" && len(res.Months) > 0 {
		month = res.Months[0]
	}
	c.recordSheetResult(ic, parser.ParseResult{
		SheetName:    sheetName,
		SheetType:    parser.SheetTypeWorkforce,
		Status:       status,
		Month:        month,
		ImportedRows: res.Imported,
		ErrorRows:    len(errs),
		Errors:       errs,
		Warnings:     res.Warnings,
		Duration:     time.Since(start),
	})

	c.sendProgress(ic.progressChan, ProgressEvent{
		Type:    "sheet_done",
		Message: fmt.Sprintf("Sheet \"%s\" 导入完成: %d 行成功, %d 行失败", sheetName, res.Imported, len(errs)),
		Data: map[string]interface{}{
			"sheet_name":    sheetName,
			"month":         month,
			"imported_rows": res.Imported,
			"error_rows":    len(errs),
		},
		Timestamp: time.Now(),
	})
}

// recordSheetResult 记录 Sheet 处理结果
func (c *Coordinator) recordSheetResult(ic *importContext, result parser.ParseResult) {
	ic.report.Sheets = append(ic.report.Sheets, result)

	switch result.Status {
	case "imported":
		ic.report.ImportedSheets++
		ic.report.ImportedRows += result.ImportedRows
	case "skipped":
		ic.report.SkippedSheets++
	}
	ic.report.ErrorRows += result.ErrorRows
	ic.report.TotalRows += result.ImportedRows + result.ErrorRows
}

// fail 以错误结束导入
func (c *Coordinator) fail(ic *importContext, logID int64, message string) {
	c.logger.Error("import failed", zap.String("batch_id", ic.report.BatchID), zap.String("reason", message))
	if logID > 0 {
		if err := c.store.UpdateImportLog(context.Background(), logID, "", ic.report.TotalRows,
			ic.report.ImportedRows, ic.report.ErrorRows, StatusFailed, message); err != nil {
			c.logger.Warn("update import log failed", zap.Int64("import_log_id", logID), zap.Error(err))
		}
	}
	c.sendFinal(ic, ProgressEvent{
		Type:      "error",
		Message:   message,
		Data:      ic.report,
		Timestamp: time.Now(),
	})
}

// sendProgress 发送进度事件
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}

// sendFinal 结束事件不丢弃，除非调用方已取消
func (c *Coordinator) sendFinal(ic *importContext, event ProgressEvent) {
	select {
	case ic.progressChan <- event:
	case <-ic.ctx.Done():
	}
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func summarizeErrors(report *parser.ImportReport) string {
	var parts []string
	for _, s := range report.Sheets {
		if len(s.Errors) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d 条错误", s.SheetName, len(s.Errors)))
		}
	}
	return strings.Join(parts, "; ")
}
