package narrative

import (
	"github.com/tmzhouw/employment-time-machine-sub001/internal/dashboard"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// 上下文中携带的分组数量
const topGroups = 5

// Aggregates 报告用汇总值
type Aggregates struct {
	Totals        model.Totals            `json:"totals"`
	Shortage      model.ShortageStructure `json:"shortage"`
	YoY           *model.YoYComparison    `json:"yoy,omitempty"`
	TopTowns      []model.TownStat        `json:"topTowns"`
	TopIndustries []model.IndustryStat    `json:"topIndustries"`
	Anomalies     []model.Anomaly         `json:"anomalies"`
}

// Context 文本生成服务的输入；所有数值直接取自聚合结果
type Context struct {
	Month           string            `json:"month"`
	TopShortageList []model.RankEntry `json:"topShortageList"`
	TopHireList     []model.RankEntry `json:"topHireList"`
	Aggregates      Aggregates        `json:"aggregates"`
}

// BuildContext 由单月分析结果组装生成上下文
func BuildContext(r *dashboard.Report) *Context {
	c := &Context{
		Month:           r.Month,
		TopShortageList: nonNil(r.TopShortage),
		TopHireList:     nonNil(r.TopHires),
		Aggregates: Aggregates{
			Totals:        r.Totals,
			Shortage:      r.Shortage,
			TopTowns:      head(r.Towns, topGroups),
			TopIndustries: head(r.Industries, topGroups),
			Anomalies:     nonNil(r.Anomalies),
		},
	}
	for i := range r.YoY {
		if r.YoY[i].Month == r.Month {
			yoy := r.YoY[i]
			c.Aggregates.YoY = &yoy
			break
		}
	}
	return c
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	return nonNil(items)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
