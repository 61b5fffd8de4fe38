package parser

import "strings"

// FieldMapper 字段映射器
type FieldMapper struct{}

// NewFieldMapper 创建字段映射器
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{}
}

// MapWorkforce 映射用工月报字段；同一字段只取第一列
func (m *FieldMapper) MapWorkforce(columnNames []string) map[int]FieldMapping {
	mappings := make(map[int]FieldMapping)
	seen := make(map[string]bool)

	for idx, raw := range columnNames {
		col := NormalizeColumnName(raw)
		if col == "" {
			continue
		}
		field := m.mapColumn(col)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		mappings[idx] = FieldMapping{
			ColumnIndex: idx,
			ColumnName:  col,
			Field:       field,
		}
	}
	return mappings
}

// mapColumn 映射单个列名；顺序敏感（如"计划招聘"需先于"招聘"判断）
func (m *FieldMapper) mapColumn(col string) string {
	switch {
	case col == "序号" || col == "编号":
		return ""
	case MatchPattern(col, `企业名称|单位名称|企业全称|单位详细名称`):
		return FieldCompanyName
	case strings.Contains(col, "行业"):
		return FieldIndustry
	case MatchPattern(col, `镇街|乡镇|街道|所属镇`):
		return FieldTown
	case strings.Contains(col, "联系人"):
		return FieldContactPerson
	case MatchPattern(col, `联系电话|电话|手机`):
		return FieldContactPhone
	case MatchPattern(col, `^(填报)?月份$|报告期|统计月份`):
		return FieldMonth
	case strings.Contains(col, "缺"):
		return m.mapShortage(col)
	case MatchPattern(col, `计划招聘|拟招聘|招聘计划`):
		return FieldPlannedRecruitment
	case MatchPattern(col, `新招|新增|招聘人数|本月招工`):
		return FieldRecruitedNew
	case MatchPattern(col, `离职|流失|减少`):
		return FieldResignedTotal
	case MatchPattern(col, `员工总数|在岗人数|在岗职工|职工总数|用工总数|员工人数`):
		return FieldEmployeesTotal
	case strings.Contains(col, "备注"):
		return FieldNotes
	}
	return ""
}

func (m *FieldMapper) mapShortage(col string) string {
	switch {
	case strings.Contains(col, "普工"):
		return FieldShortageGeneral
	case strings.Contains(col, "技术") || strings.Contains(col, "技工"):
		return FieldShortageTechnical
	case strings.Contains(col, "管理"):
		return FieldShortageManagement
	case strings.Contains(col, "缺工") || strings.Contains(col, "缺口"):
		return FieldShortageTotal
	}
	return ""
}
