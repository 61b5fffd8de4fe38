package model

// Filter 看板查询条件（与 URL 参数解耦的显式类型）
//
// Month 为空表示取最新月份；StartMonth/EndMonth 限定加载范围（闭区间）。
// 月份接受 NormalizeMonth 支持的任一写法，由看板服务统一归一为 YYYY-MM。
type Filter struct {
	Month      string `form:"month" json:"month,omitempty"`
	StartMonth string `form:"startMonth" json:"startMonth,omitempty"`
	EndMonth   string `form:"endMonth" json:"endMonth,omitempty"`
	Industry   string `form:"industry" json:"industry,omitempty"`
	Town       string `form:"town" json:"town,omitempty"`
}

// IsZero 是否未设置任何条件
func (f Filter) IsZero() bool {
	return f == Filter{}
}
