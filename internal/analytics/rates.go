package analytics

import (
	"sort"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// rate 计算比率：分母为 0 时返回 0，结果限定在 [0,1]
func rate(num, den int) float64 {
	if den <= 0 || num <= 0 {
		return 0
	}
	r := float64(num) / float64(den)
	if r > 1 {
		return 1
	}
	return r
}

// changeRate 增减幅度 (current - base) / base；基数为 0 时无意义，返回 nil
func changeRate(current, base int) *float64 {
	if base == 0 {
		return nil
	}
	v := float64(current-base) / float64(base)
	return &v
}

func intPtr(v int) *int {
	return &v
}

// accumulator 分组累加器，企业数按企业 ID 去重
type accumulator struct {
	companies map[int64]struct{}
	totals    model.Totals
}

func newAccumulator() *accumulator {
	return &accumulator{companies: make(map[int64]struct{})}
}

func (a *accumulator) add(r model.Record) {
	a.companies[r.CompanyID] = struct{}{}
	a.totals.TotalEmployees += r.EmployeesTotal
	a.totals.ShortageCount += r.ShortageTotal
	a.totals.RecruitedNew += r.RecruitedNew
	a.totals.ResignedTotal += r.ResignedTotal
}

func (a *accumulator) result() model.Totals {
	t := a.totals
	t.CompanyCount = len(a.companies)
	t.NetGrowth = t.RecruitedNew - t.ResignedTotal
	t.TurnoverRate = rate(t.ResignedTotal, t.TotalEmployees)
	t.ShortageRate = rate(t.ShortageCount, t.TotalEmployees+t.ShortageCount)
	return t
}

// Months 数据中出现的月份（升序去重）
func Months(records []model.Record) []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		months = append(months, r.Month)
	}
	sort.Strings(months)
	return months
}

// LatestMonth 最新报告月份（月份键的字典序最大值），无数据返回空串
func LatestMonth(records []model.Record) string {
	latest := ""
	for _, r := range records {
		if r.Month > latest {
			latest = r.Month
		}
	}
	return latest
}

// resolveMonth 未指定月份时取最新月份
func resolveMonth(records []model.Record, month string) string {
	if month != "" {
		return month
	}
	return LatestMonth(records)
}

// MonthTotals 指定月份的全量汇总（不分组）
func MonthTotals(records []model.Record, month string) model.Totals {
	month = resolveMonth(records, month)
	acc := newAccumulator()
	for _, r := range records {
		if r.Month == month {
			acc.add(r)
		}
	}
	return acc.result()
}
