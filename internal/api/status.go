package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized    bool   `json:"initialized"`    // 是否已有月报数据
	Database       string `json:"database"`       // ok / unavailable
	LatestMonth    string `json:"latestMonth"`    // 最新数据月份
	MonthCount     int    `json:"monthCount"`     // 有数据的月份数
	TotalCompanies int    `json:"totalCompanies"` // 最新月份上报企业数
	LastImportTime string `json:"lastImportTime"` // 最后导入时间
	LastImportFile string `json:"lastImportFile"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()
	resp := StatusResponse{Database: "ok"}
	if err := h.store.Ping(ctx); err != nil {
		resp.Database = "unavailable"
		c.JSON(http.StatusOK, resp)
		return
	}

	months, err := h.dashboard.Months(ctx)
	if err == nil && len(months) > 0 {
		// 月份按倒序排列
		resp.Initialized = true
		resp.LatestMonth = months[0].Month
		resp.TotalCompanies = months[0].CompanyCount
		resp.MonthCount = len(months)
	}

	if log, err := h.store.LatestImportLog(ctx); err == nil && log != nil {
		resp.LastImportTime = log.CreatedAt
		resp.LastImportFile = log.Filename
	}

	c.JSON(http.StatusOK, resp)
}
