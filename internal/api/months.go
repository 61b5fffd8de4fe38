package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

type monthsResponse struct {
	Latest string            `json:"latest"`
	Items  []store.MonthStat `json:"items"`
}

// ListMonths 获取可用月份列表（倒序）
// GET /api/months
func (h *Handler) ListMonths(c *gin.Context) {
	items, err := h.dashboard.Months(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	resp := monthsResponse{Items: items}
	if len(items) > 0 {
		resp.Latest = items[0].Month
	}
	c.JSON(http.StatusOK, resp)
}

// GetDimensions 镇街/行业筛选项
// GET /api/dimensions
func (h *Handler) GetDimensions(c *gin.Context) {
	dims, err := h.dashboard.Dimensions(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dims)
}
