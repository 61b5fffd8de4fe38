package model

// UnclassifiedKey 镇街/行业为空时的归类名称
const UnclassifiedKey = "未分类"

// Totals 分组汇总值
type Totals struct {
	CompanyCount   int     `json:"companyCount"`
	TotalEmployees int     `json:"totalEmployees"`
	ShortageCount  int     `json:"shortageCount"`
	RecruitedNew   int     `json:"recruitedNew"`
	ResignedTotal  int     `json:"resignedTotal"`
	NetGrowth      int     `json:"netGrowth"`
	TurnoverRate   float64 `json:"turnoverRate"` // 离职率 = 离职 / 在岗
	ShortageRate   float64 `json:"shortageRate"` // 缺工率 = 缺工 / (在岗 + 缺工)
}

// GroupStat 单个分组的统计结果
type GroupStat struct {
	Key   string `json:"key"`
	Month string `json:"month"`
	Totals
}

// TownStat 镇街统计
type TownStat struct {
	Town  string `json:"town"`
	Month string `json:"month"`
	Totals
}

// IndustryStat 行业统计
type IndustryStat struct {
	Industry string `json:"industry"`
	Month    string `json:"month"`
	Totals
}

// TrendPoint 月度趋势点（仅包含有数据的月份）
type TrendPoint struct {
	Month     string `json:"month"`
	GapBefore bool   `json:"gapBefore"` // 上一个自然月无数据
	Totals
}

// YoYComparison 同比对比；Available=false 表示缺少当期或上年同期数据（不是零变化）
type YoYComparison struct {
	Month               string   `json:"month"`
	PriorMonth          string   `json:"priorMonth"`
	Available           bool     `json:"available"`
	Current             *Totals  `json:"current"`
	Prior               *Totals  `json:"prior"`
	EmployeesDelta      *int     `json:"employeesDelta"`
	EmployeesChangeRate *float64 `json:"employeesChangeRate"`
	ShortageDelta       *int     `json:"shortageDelta"`
	RecruitedDelta      *int     `json:"recruitedDelta"`
	ResignedDelta       *int     `json:"resignedDelta"`
}

// MonthChange 环比变化
type MonthChange struct {
	Month          string `json:"month"`
	PrevMonth      string `json:"prevMonth"`
	Available      bool   `json:"available"`
	EmployeesDelta *int   `json:"employeesDelta"`
	ShortageDelta  *int   `json:"shortageDelta"`
}

// ShortageStructure 缺工结构汇总
type ShortageStructure struct {
	Month         string         `json:"month"`
	ShortageTotal int            `json:"shortageTotal"`
	Detail        ShortageDetail `json:"detail"`
	// Unclassified 缺工结构无效（被置零）的企业缺工合计
	Unclassified int `json:"unclassified"`
}

// RankEntry 排名条目
type RankEntry struct {
	Rank        int     `json:"rank"`
	CompanyID   int64   `json:"companyId"`
	CompanyName string  `json:"companyName"`
	Industry    string  `json:"industry"`
	Town        string  `json:"town"`
	Value       float64 `json:"value"`
}

// Anomaly 高流动性（招工同时缺工）预警企业
type Anomaly struct {
	CompanyID     int64  `json:"companyId"`
	CompanyName   string `json:"companyName"`
	Industry      string `json:"industry"`
	Town          string `json:"town"`
	Month         string `json:"month"`
	ShortageRank  int    `json:"shortageRank"`
	HireRank      int    `json:"hireRank"`
	ShortageTotal int    `json:"shortageTotal"`
	RecruitedNew  int    `json:"recruitedNew"`
	Reason        string `json:"reason"`
}

// HiringWhileShort 本月确有新招且仍有缺工
func (a Anomaly) HiringWhileShort() bool {
	return a.ShortageTotal > 0 && a.RecruitedNew > 0
}

// CompanyPoint 企业单月数据
type CompanyPoint struct {
	Month              string         `json:"month"`
	EmployeesTotal     int            `json:"employeesTotal"`
	RecruitedNew       int            `json:"recruitedNew"`
	ResignedTotal      int            `json:"resignedTotal"`
	NetGrowth          int            `json:"netGrowth"`
	ShortageTotal      int            `json:"shortageTotal"`
	ShortageDetail     ShortageDetail `json:"shortageDetail"`
	PlannedRecruitment int            `json:"plannedRecruitment"`
	TurnoverRate       float64        `json:"turnoverRate"`
	Notes              string         `json:"notes,omitempty"`
}

// CompanyHistory 企业历史月报
type CompanyHistory struct {
	Company Company        `json:"company"`
	Points  []CompanyPoint `json:"points"`
}
