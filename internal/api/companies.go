package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/apperror"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/store"
)

type listCompaniesResponse struct {
	Items    []model.Company `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// ListCompanies 查询企业列表
// GET /api/companies?keyword=&industry=&town=&page=1&pageSize=200
func (h *Handler) ListCompanies(c *gin.Context) {
	page := parseIntWithDefault(c.Query("page"), 1)
	pageSize := parseIntWithDefault(c.Query("pageSize"), 200)
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 200
	}
	if pageSize > 2000 {
		pageSize = 2000
	}

	items, err := h.dashboard.Companies(c.Request.Context(), store.CompanyQueryOptions{
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Industry: strings.TrimSpace(c.Query("industry")),
		Town:     strings.TrimSpace(c.Query("town")),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, listCompaniesResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetCompanyHistory 企业历史月报
// GET /api/companies/:id/history
func (h *Handler) GetCompanyHistory(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(c, apperror.InvalidInput("invalid id"))
		return
	}
	history, err := h.dashboard.CompanyHistory(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	roundHistory(history)
	c.JSON(http.StatusOK, history)
}
