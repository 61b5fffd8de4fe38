package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/analytics"
)

// GetOverview 概览 KPI
// GET /api/overview
func (h *Handler) GetOverview(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.Overview(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundTotals(&res.Data.Totals)
	c.JSON(http.StatusOK, res)
}

// GetTowns 镇街统计
// GET /api/towns
func (h *Handler) GetTowns(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.Towns(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundTowns(res.Data)
	c.JSON(http.StatusOK, res)
}

// GetIndustries 行业统计
// GET /api/industries
func (h *Handler) GetIndustries(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.Industries(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundIndustries(res.Data)
	c.JSON(http.StatusOK, res)
}

// GetTrend 月度趋势
// GET /api/trend
func (h *Handler) GetTrend(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.Trend(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundTrend(res.Data)
	c.JSON(http.StatusOK, res)
}

// GetYearOverYear 同比
// GET /api/yoy
func (h *Handler) GetYearOverYear(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.YearOverYear(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundYoY(res.Data)
	c.JSON(http.StatusOK, res)
}

// GetRanking 企业排名
// GET /api/ranking?metric=shortage_total&n=10
func (h *Handler) GetRanking(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	metric := strings.TrimSpace(c.DefaultQuery("metric", string(analytics.MetricShortage)))
	n := parseIntWithDefault(c.Query("n"), 0)
	res, err := h.dashboard.Ranking(c.Request.Context(), f, metric, n)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundRanking(res.Data, metric)
	c.JSON(http.StatusOK, res)
}

// GetAnomalies 边招边缺预警
// GET /api/anomalies?n=10
func (h *Handler) GetAnomalies(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	n := parseIntWithDefault(c.Query("n"), -1)
	res, err := h.dashboard.Anomalies(c.Request.Context(), f, n)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetShortageStructure 缺工结构
// GET /api/shortage
func (h *Handler) GetShortageStructure(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.ShortageStructure(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetReport 单月完整分析数据
// GET /api/report
func (h *Handler) GetReport(c *gin.Context) {
	f, err := bindFilter(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	res, err := h.dashboard.Report(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundReport(&res.Data)
	c.JSON(http.StatusOK, res)
}
