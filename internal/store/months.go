package store

import (
	"context"
	"fmt"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// MonthStat 可用月份统计
type MonthStat struct {
	Month        string `json:"month"` // YYYY-MM
	CompanyCount int    `json:"companyCount"`
}

// ListAvailableMonths 列出存在月报数据的月份（按月份倒序）
func (s *Store) ListAvailableMonths(ctx context.Context) ([]MonthStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT report_month, COUNT(DISTINCT company_id)
		FROM monthly_reports
		GROUP BY report_month
		ORDER BY report_month DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query available months failed: %w", err)
	}
	defer rows.Close()

	var out []MonthStat
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scan available months failed: %w", err)
		}
		month, ok := model.NormalizeMonth(raw)
		if !ok {
			continue
		}
		// 同一月份可能以不同写法落库，按规范化后的月份合并
		if n := len(out); n > 0 && out[n-1].Month == month {
			out[n-1].CompanyCount += count
			continue
		}
		out = append(out, MonthStat{Month: month, CompanyCount: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate available months failed: %w", err)
	}
	return out, nil
}
