package analytics

import (
	"sort"
	"strings"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// GroupKey 分组维度
type GroupKey string

const (
	GroupByTown     GroupKey = "town"
	GroupByIndustry GroupKey = "industry"
	GroupByNone     GroupKey = "none"
)

// AllKey 不分组时的分组名称
const AllKey = "全部"

// ParseGroupKey 解析分组维度
func ParseGroupKey(s string) (GroupKey, bool) {
	switch GroupKey(strings.ToLower(strings.TrimSpace(s))) {
	case GroupByTown:
		return GroupByTown, true
	case GroupByIndustry:
		return GroupByIndustry, true
	case GroupByNone, "":
		return GroupByNone, true
	}
	return "", false
}

func groupValue(r model.Record, key GroupKey) string {
	var v string
	switch key {
	case GroupByTown:
		v = r.Town
	case GroupByIndustry:
		v = r.Industry
	default:
		return AllKey
	}
	if v = strings.TrimSpace(v); v == "" {
		return model.UnclassifiedKey
	}
	return v
}

// Rollup 按维度汇总指定月份（month 为空取最新月份）
// 各分组互斥且完整覆盖当月记录；结果按在岗人数降序、分组名升序
func Rollup(records []model.Record, key GroupKey, month string) []model.GroupStat {
	month = resolveMonth(records, month)
	stats := make([]model.GroupStat, 0)
	if month == "" {
		return stats
	}

	groups := make(map[string]*accumulator)
	for _, r := range records {
		if r.Month != month {
			continue
		}
		k := groupValue(r, key)
		acc, ok := groups[k]
		if !ok {
			acc = newAccumulator()
			groups[k] = acc
		}
		acc.add(r)
	}

	for k, acc := range groups {
		stats = append(stats, model.GroupStat{Key: k, Month: month, Totals: acc.result()})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalEmployees != stats[j].TotalEmployees {
			return stats[i].TotalEmployees > stats[j].TotalEmployees
		}
		return stats[i].Key < stats[j].Key
	})
	return stats
}

// TownStats 镇街统计
func TownStats(records []model.Record, month string) []model.TownStat {
	groups := Rollup(records, GroupByTown, month)
	out := make([]model.TownStat, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.TownStat{Town: g.Key, Month: g.Month, Totals: g.Totals})
	}
	return out
}

// IndustryStats 行业统计
func IndustryStats(records []model.Record, month string) []model.IndustryStat {
	groups := Rollup(records, GroupByIndustry, month)
	out := make([]model.IndustryStat, 0, len(groups))
	for _, g := range groups {
		out = append(out, model.IndustryStat{Industry: g.Key, Month: g.Month, Totals: g.Totals})
	}
	return out
}

// ShortageStructure 缺工结构汇总（普工/技术工/管理岗）
func ShortageStructure(records []model.Record, month string) model.ShortageStructure {
	month = resolveMonth(records, month)
	s := model.ShortageStructure{Month: month}
	for _, r := range records {
		if r.Month != month {
			continue
		}
		s.ShortageTotal += r.ShortageTotal
		s.Detail.General += r.ShortageDetail.General
		s.Detail.Technical += r.ShortageDetail.Technical
		s.Detail.Management += r.ShortageDetail.Management
		if r.ShortageDetail.IsZero() {
			s.Unclassified += r.ShortageTotal
		}
	}
	return s
}
