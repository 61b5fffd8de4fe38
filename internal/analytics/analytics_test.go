package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

func rec(id int64, name, town, industry, month string, employees, recruited, resigned, shortage int) model.Record {
	return model.Record{
		CompanyID:      id,
		CompanyName:    name,
		Town:           town,
		Industry:       industry,
		Month:          month,
		EmployeesTotal: employees,
		RecruitedNew:   recruited,
		ResignedTotal:  resigned,
		ShortageTotal:  shortage,
	}
}

func TestRate(t *testing.T) {
	tests := []struct {
		name     string
		num, den int
		want     float64
	}{
		{"分母为零", 5, 0, 0},
		{"分子为零", 0, 10, 0},
		{"正常比例", 1, 4, 0.25},
		{"超过一截断", 30, 10, 1},
		{"负数分母", 3, -2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rate(tt.num, tt.den))
		})
	}
}

func TestTownStats_Scenario(t *testing.T) {
	records := []model.Record{
		rec(1, "甲", "A镇", "制造业", "2025-06", 100, 0, 0, 0),
		rec(2, "乙", "A镇", "制造业", "2025-06", 200, 0, 0, 0),
		rec(3, "丙", "A镇", "服务业", "2025-06", 300, 0, 0, 0),
		rec(4, "丁", "B镇", "服务业", "2025-06", 50, 0, 0, 0),
	}

	stats := TownStats(records, "2025-06")
	require.Len(t, stats, 2)
	assert.Equal(t, "A镇", stats[0].Town)
	assert.Equal(t, 600, stats[0].TotalEmployees)
	assert.Equal(t, 3, stats[0].CompanyCount)
	assert.Equal(t, "B镇", stats[1].Town)
	assert.Equal(t, 50, stats[1].TotalEmployees)
	assert.Equal(t, 1, stats[1].CompanyCount)
}

func TestRollup_PartitionSumsToTotal(t *testing.T) {
	records := []model.Record{
		rec(1, "甲", "A镇", "制造业", "2025-05", 80, 3, 1, 2),
		rec(1, "甲", "A镇", "制造业", "2025-06", 100, 5, 2, 4),
		rec(2, "乙", "", "服务业", "2025-06", 40, 1, 6, 0),
		rec(3, "丙", "B镇", "", "2025-06", 70, 0, 0, 9),
		rec(4, "丁", "B镇", "制造业", "2025-06", 0, 0, 0, 0),
	}
	total := MonthTotals(records, "2025-06")
	assert.Equal(t, 210, total.TotalEmployees)
	assert.Equal(t, 4, total.CompanyCount)

	for _, key := range []GroupKey{GroupByTown, GroupByIndustry, GroupByNone} {
		sum, companies := 0, 0
		for _, g := range Rollup(records, key, "") {
			assert.Equal(t, "2025-06", g.Month)
			assert.GreaterOrEqual(t, g.TurnoverRate, 0.0)
			assert.LessOrEqual(t, g.TurnoverRate, 1.0)
			assert.GreaterOrEqual(t, g.ShortageRate, 0.0)
			assert.LessOrEqual(t, g.ShortageRate, 1.0)
			sum += g.TotalEmployees
			companies += g.CompanyCount
		}
		assert.Equal(t, total.TotalEmployees, sum, "group by %s", key)
		assert.Equal(t, total.CompanyCount, companies, "group by %s", key)
	}
}

func TestRollup_UnclassifiedAndOrdering(t *testing.T) {
	records := []model.Record{
		rec(1, "甲", " ", "制造业", "2025-06", 10, 0, 0, 0),
		rec(2, "乙", "B镇", "制造业", "2025-06", 10, 0, 0, 0),
		rec(3, "丙", "A镇", "制造业", "2025-06", 10, 0, 0, 0),
		rec(4, "丁", "C镇", "制造业", "2025-06", 0, 0, 0, 0),
	}
	stats := Rollup(records, GroupByTown, "2025-06")
	keys := make([]string, 0, len(stats))
	for _, s := range stats {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"A镇", "B镇", model.UnclassifiedKey, "C镇"}, keys)

	zero := stats[3]
	assert.Equal(t, 0.0, zero.TurnoverRate)
	assert.Equal(t, 0.0, zero.ShortageRate)
}

func TestRollup_Rates(t *testing.T) {
	records := []model.Record{
		rec(1, "甲", "A镇", "制造业", "2025-06", 90, 0, 9, 10),
	}
	stats := Rollup(records, GroupByNone, "")
	require.Len(t, stats, 1)
	assert.Equal(t, AllKey, stats[0].Key)
	assert.InDelta(t, 0.1, stats[0].TurnoverRate, 1e-9)
	assert.InDelta(t, 0.1, stats[0].ShortageRate, 1e-9)
	assert.Equal(t, -9, stats[0].NetGrowth)
}

func TestRollup_EmptyInput(t *testing.T) {
	assert.Empty(t, Rollup(nil, GroupByTown, ""))
	assert.NotNil(t, TownStats(nil, ""))
	assert.Equal(t, "", LatestMonth(nil))
}

func TestRollup_Idempotent(t *testing.T) {
	records := []model.Record{
		rec(1, "甲", "A镇", "制造业", "2025-06", 100, 5, 2, 4),
		rec(2, "乙", "B镇", "服务业", "2025-06", 100, 1, 6, 0),
		rec(3, "丙", "C镇", "建筑业", "2025-06", 100, 2, 1, 7),
		rec(4, "丁", "", "", "2025-06", 100, 0, 0, 0),
	}
	encode := func() []byte {
		b, err := json.Marshal(struct {
			Towns      []model.TownStat
			Industries []model.IndustryStat
			Trend      []model.TrendPoint
			Rank       []model.RankEntry
		}{
			TownStats(records, ""),
			IndustryStats(records, ""),
			Trend(records),
			Rank(records, MetricTurnover, ""),
		})
		require.NoError(t, err)
		return b
	}
	first := encode()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, encode())
	}
}

func TestShortageStructure(t *testing.T) {
	a := rec(1, "甲", "A镇", "制造业", "2025-06", 100, 0, 0, 6)
	a.ShortageDetail = model.ShortageDetail{General: 3, Technical: 2, Management: 1}
	b := rec(2, "乙", "A镇", "制造业", "2025-06", 100, 0, 0, 4)
	old := rec(2, "乙", "A镇", "制造业", "2025-05", 100, 0, 0, 99)

	s := ShortageStructure([]model.Record{a, b, old}, "")
	assert.Equal(t, "2025-06", s.Month)
	assert.Equal(t, 10, s.ShortageTotal)
	assert.Equal(t, model.ShortageDetail{General: 3, Technical: 2, Management: 1}, s.Detail)
	assert.Equal(t, 4, s.Unclassified)
	assert.Equal(t, s.ShortageTotal, s.Detail.Sum()+s.Unclassified)
}
