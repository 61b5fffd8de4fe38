package analytics

import (
	"sort"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// Metric 排名指标
type Metric string

const (
	MetricShortage  Metric = "shortage_total"
	MetricRecruited Metric = "recruited_new"
	MetricNetGrowth Metric = "net_growth"
	MetricTurnover  Metric = "turnover"
	MetricEmployees Metric = "employees_total"
)

// ParseMetric 解析排名指标
func ParseMetric(s string) (Metric, bool) {
	switch m := Metric(s); m {
	case MetricShortage, MetricRecruited, MetricNetGrowth, MetricTurnover, MetricEmployees:
		return m, true
	}
	return "", false
}

type companyAgg struct {
	rec model.Record
	acc *accumulator
}

func metricValue(metric Metric, t model.Totals) float64 {
	switch metric {
	case MetricShortage:
		return float64(t.ShortageCount)
	case MetricRecruited:
		return float64(t.RecruitedNew)
	case MetricNetGrowth:
		return float64(t.NetGrowth)
	case MetricTurnover:
		return t.TurnoverRate
	case MetricEmployees:
		return float64(t.TotalEmployees)
	}
	return 0
}

// Rank 指定月份按指标降序排名；并列时按企业名称升序、再按企业 ID 升序
func Rank(records []model.Record, metric Metric, month string) []model.RankEntry {
	month = resolveMonth(records, month)
	entries := make([]model.RankEntry, 0)
	if month == "" {
		return entries
	}

	byCompany := make(map[int64]*companyAgg)
	for _, r := range records {
		if r.Month != month {
			continue
		}
		c, ok := byCompany[r.CompanyID]
		if !ok {
			c = &companyAgg{rec: r, acc: newAccumulator()}
			byCompany[r.CompanyID] = c
		}
		c.acc.add(r)
	}

	for id, c := range byCompany {
		entries = append(entries, model.RankEntry{
			CompanyID:   id,
			CompanyName: c.rec.CompanyName,
			Industry:    c.rec.Industry,
			Town:        c.rec.Town,
			Value:       metricValue(metric, c.acc.result()),
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		if a.CompanyName != b.CompanyName {
			return a.CompanyName < b.CompanyName
		}
		return a.CompanyID < b.CompanyID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// TopN 取排名前 n 项；n <= 0 返回空列表
func TopN(entries []model.RankEntry, n int) []model.RankEntry {
	if n <= 0 {
		return []model.RankEntry{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]model.RankEntry, n)
	copy(out, entries[:n])
	return out
}
