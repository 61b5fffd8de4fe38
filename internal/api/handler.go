package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/exporter"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/importer"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/ingest"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/narrative"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

// Deps Handler 依赖
type Deps struct {
	Store     *store.Store
	Dashboard *dashboard.Service
	Narrator  narrative.Generator
	Importer  *importer.Coordinator
	Ingester  *ingest.Ingester
	Exporter  *exporter.Exporter
	// UploadDir 上传文件暂存目录（为空使用系统临时目录）
	UploadDir string
	Logger    *zap.Logger
}

// Handler 看板 API 处理器
type Handler struct {
	store     *store.Store
	dashboard *dashboard.Service
	narrator  narrative.Generator
	importer  *importer.Coordinator
	ingester  *ingest.Ingester
	exporter  *exporter.Exporter
	uploadDir string
	downloads *exportFiles
	logger    *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	exp := d.Exporter
	if exp == nil {
		exp = exporter.NewExporter(d.Dashboard)
	}
	ing := d.Ingester
	if ing == nil && d.Store != nil {
		ing = ingest.NewIngester(d.Store, logger)
	}
	imp := d.Importer
	if imp == nil && d.Store != nil {
		imp = importer.NewCoordinator(d.Store, logger)
	}
	narrator := d.Narrator
	if narrator == nil {
		narrator = &narrative.TemplateGenerator{}
	}
	logger = logger.Named("api")
	return &Handler{
		store:     d.Store,
		dashboard: d.Dashboard,
		narrator:  narrator,
		importer:  imp,
		ingester:  ing,
		exporter:  exp,
		uploadDir: d.UploadDir,
		downloads: newExportFiles(exportDownloadTTL, logger),
		logger:    logger,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	// 可用月份与筛选项
	router.GET("/months", h.ListMonths)
	router.GET("/dimensions", h.GetDimensions)

	// 企业
	router.GET("/companies", h.ListCompanies)
	router.GET("/companies/:id/history", h.GetCompanyHistory)

	// 分析视图
	router.GET("/overview", h.GetOverview)
	router.GET("/towns", h.GetTowns)
	router.GET("/industries", h.GetIndustries)
	router.GET("/trend", h.GetTrend)
	router.GET("/yoy", h.GetYearOverYear)
	router.GET("/ranking", h.GetRanking)
	router.GET("/anomalies", h.GetAnomalies)
	router.GET("/shortage", h.GetShortageStructure)

	// 智能报告
	router.GET("/report", h.GetReport)
	router.POST("/report/stream", h.ReportStream)

	// 数据写入
	router.POST("/import", h.Import)
	router.POST("/records", h.IngestRecords)

	// 数据导出
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)
}
