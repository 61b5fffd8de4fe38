package analytics

import (
	"fmt"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// DetectHighTurnover 同时进入缺工前 N 和新招前 N 的企业（边招边缺，流动性高）
// 两个榜单按企业 ID 取交集，结果沿用缺工榜顺序。
// 企业数不足时零值企业也会入榜，此时 Reason 只陈述名次。
func DetectHighTurnover(records []model.Record, month string, n int) []model.Anomaly {
	out := make([]model.Anomaly, 0)
	if n <= 0 {
		return out
	}
	month = resolveMonth(records, month)

	shortage := TopN(Rank(records, MetricShortage, month), n)
	hires := TopN(Rank(records, MetricRecruited, month), n)

	hireByID := make(map[int64]model.RankEntry, len(hires))
	for _, h := range hires {
		hireByID[h.CompanyID] = h
	}

	for _, s := range shortage {
		h, ok := hireByID[s.CompanyID]
		if !ok {
			continue
		}
		a := model.Anomaly{
			CompanyID:     s.CompanyID,
			CompanyName:   s.CompanyName,
			Industry:      s.Industry,
			Town:          s.Town,
			Month:         month,
			ShortageRank:  s.Rank,
			HireRank:      h.Rank,
			ShortageTotal: int(s.Value),
			RecruitedNew:  int(h.Value),
		}
		a.Reason = turnoverReason(a)
		out = append(out, a)
	}
	return out
}

func turnoverReason(a model.Anomaly) string {
	if a.HiringWhileShort() {
		return fmt.Sprintf("缺工排名第%d、新招排名第%d，边招边缺", a.ShortageRank, a.HireRank)
	}
	return fmt.Sprintf("缺工排名第%d（%d人）、新招排名第%d（%d人），数值偏低，仅名次入选",
		a.ShortageRank, a.ShortageTotal, a.HireRank, a.RecruitedNew)
}
