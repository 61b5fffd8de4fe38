package model

// ShortageDetail 缺工结构（普工/技术工/管理岗）
type ShortageDetail struct {
	General    int `json:"general"`
	Technical  int `json:"technical"`
	Management int `json:"management"`
}

// Sum 缺工结构合计
func (d ShortageDetail) Sum() int {
	return d.General + d.Technical + d.Management
}

// IsZero 是否为全零结构
func (d ShortageDetail) IsZero() bool {
	return d == ShortageDetail{}
}

// MonthlyReport 企业月报，(company_id, report_month) 唯一
type MonthlyReport struct {
	ID                 int64          `json:"id"`
	CompanyID          int64          `json:"companyId"`
	ReportMonth        string         `json:"reportMonth"` // YYYY-MM
	EmployeesTotal     int            `json:"employeesTotal"`
	RecruitedNew       int            `json:"recruitedNew"`
	ResignedTotal      int            `json:"resignedTotal"`
	ShortageTotal      int            `json:"shortageTotal"`
	ShortageDetail     ShortageDetail `json:"shortageDetail"`
	PlannedRecruitment int            `json:"plannedRecruitment"`
	Notes              string         `json:"notes,omitempty"`
}

// NetGrowth 净增人数 = 新招 - 离职（只计算，不落库）
func (r *MonthlyReport) NetGrowth() int {
	return r.RecruitedNew - r.ResignedTotal
}

// Record 月报与企业属性的联表行（聚合引擎的输入）
type Record struct {
	CompanyID          int64          `json:"companyId"`
	CompanyName        string         `json:"companyName"`
	Industry           string         `json:"industry"`
	Town               string         `json:"town"`
	Month              string         `json:"month"` // YYYY-MM
	EmployeesTotal     int            `json:"employeesTotal"`
	RecruitedNew       int            `json:"recruitedNew"`
	ResignedTotal      int            `json:"resignedTotal"`
	ShortageTotal      int            `json:"shortageTotal"`
	ShortageDetail     ShortageDetail `json:"shortageDetail"`
	PlannedRecruitment int            `json:"plannedRecruitment"`
	Notes              string         `json:"notes,omitempty"`
}

// NetGrowth 净增人数
func (r Record) NetGrowth() int {
	return r.RecruitedNew - r.ResignedTotal
}
