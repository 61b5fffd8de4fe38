package api

import (
	"github.com/shopspring/decimal"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/analytics"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// 比率对外保留 4 位小数
const ratePlaces = 4

func roundRate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(ratePlaces).InexactFloat64()
}

func roundRatePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := roundRate(*v)
	return &r
}

func roundTotals(t *model.Totals) {
	if t == nil {
		return
	}
	t.TurnoverRate = roundRate(t.TurnoverRate)
	t.ShortageRate = roundRate(t.ShortageRate)
}

func roundTowns(stats []model.TownStat) {
	for i := range stats {
		roundTotals(&stats[i].Totals)
	}
}

func roundIndustries(stats []model.IndustryStat) {
	for i := range stats {
		roundTotals(&stats[i].Totals)
	}
}

func roundTrend(points []model.TrendPoint) {
	for i := range points {
		roundTotals(&points[i].Totals)
	}
}

func roundYoY(items []model.YoYComparison) {
	for i := range items {
		roundTotals(items[i].Current)
		roundTotals(items[i].Prior)
		items[i].EmployeesChangeRate = roundRatePtr(items[i].EmployeesChangeRate)
	}
}

func roundRanking(entries []model.RankEntry, metric string) {
	if metric != string(analytics.MetricTurnover) {
		return
	}
	for i := range entries {
		entries[i].Value = roundRate(entries[i].Value)
	}
}

func roundHistory(h *model.CompanyHistory) {
	for i := range h.Points {
		h.Points[i].TurnoverRate = roundRate(h.Points[i].TurnoverRate)
	}
}

func roundReport(r *dashboard.Report) {
	roundTotals(&r.Totals)
	roundTowns(r.Towns)
	roundIndustries(r.Industries)
	roundTrend(r.Trend)
	roundYoY(r.YoY)
}
