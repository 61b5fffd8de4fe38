package analytics

import (
	"sort"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// Trend 月度趋势：每个有数据的月份一个点，升序，不插值
// 上一个自然月缺数据时 GapBefore=true
func Trend(records []model.Record) []model.TrendPoint {
	byMonth := make(map[string]*accumulator)
	for _, r := range records {
		acc, ok := byMonth[r.Month]
		if !ok {
			acc = newAccumulator()
			byMonth[r.Month] = acc
		}
		acc.add(r)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	points := make([]model.TrendPoint, 0, len(months))
	for i, m := range months {
		points = append(points, model.TrendPoint{
			Month:     m,
			GapBefore: i > 0 && model.PrevMonth(m) != months[i-1],
			Totals:    byMonth[m].result(),
		})
	}
	return points
}

// YearOverYear 最新年份 1-12 月逐月与上年同月对比
// 任一侧缺数据时 Available=false，差值为 null（区别于零变化）
func YearOverYear(points []model.TrendPoint) []model.YoYComparison {
	out := make([]model.YoYComparison, 0, 12)
	if len(points) == 0 {
		return out
	}

	index := make(map[string]model.Totals, len(points))
	latestYear := 0
	for _, p := range points {
		index[p.Month] = p.Totals
		if y, _, ok := model.SplitMonth(p.Month); ok && y > latestYear {
			latestYear = y
		}
	}
	if latestYear == 0 {
		return out
	}

	for m := 1; m <= 12; m++ {
		key := model.FormatMonth(latestYear, m)
		priorKey := model.FormatMonth(latestYear-1, m)
		c := model.YoYComparison{Month: key, PriorMonth: priorKey}

		cur, hasCur := index[key]
		prior, hasPrior := index[priorKey]
		if hasCur {
			c.Current = &cur
		}
		if hasPrior {
			c.Prior = &prior
		}
		if hasCur && hasPrior {
			c.Available = true
			c.EmployeesDelta = intPtr(cur.TotalEmployees - prior.TotalEmployees)
			c.EmployeesChangeRate = changeRate(cur.TotalEmployees, prior.TotalEmployees)
			c.ShortageDelta = intPtr(cur.ShortageCount - prior.ShortageCount)
			c.RecruitedDelta = intPtr(cur.RecruitedNew - prior.RecruitedNew)
			c.ResignedDelta = intPtr(cur.ResignedTotal - prior.ResignedTotal)
		}
		out = append(out, c)
	}
	return out
}

// MonthOverMonth 最新月份与上一个自然月的环比
func MonthOverMonth(points []model.TrendPoint) model.MonthChange {
	if len(points) == 0 {
		return model.MonthChange{}
	}
	last := points[len(points)-1]
	c := model.MonthChange{Month: last.Month, PrevMonth: model.PrevMonth(last.Month)}
	if len(points) < 2 || last.GapBefore {
		return c
	}
	prev := points[len(points)-2]
	c.Available = true
	c.EmployeesDelta = intPtr(last.TotalEmployees - prev.TotalEmployees)
	c.ShortageDelta = intPtr(last.ShortageCount - prev.ShortageCount)
	return c
}
