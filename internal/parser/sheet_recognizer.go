package parser

import "strings"

// 表头最多向下查找的行数（兼容标题行、填报说明行）
const maxHeaderScan = 6

var workforceKeyFields = []string{
	`企业名称|单位名称|企业全称|单位详细名称`,
	`员工总数|在岗人数|在岗职工|职工总数|用工总数|员工人数`,
	`新招|新增|招聘人数|本月招工`,
	`离职|流失|减少`,
	`缺工`,
	`行业`,
	`镇街|乡镇|街道|所属镇`,
}

// SheetRecognizer Sheet 类型识别器
type SheetRecognizer struct{}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer() *SheetRecognizer {
	return &SheetRecognizer{}
}

// Recognize 识别 Sheet 类型；rows 为整个 Sheet 的行，表头在前几行内自动定位
func (r *SheetRecognizer) Recognize(sheetName string, rows [][]string) SheetRecognitionResult {
	result := SheetRecognitionResult{
		SheetName: sheetName,
		SheetType: SheetTypeUnknown,
	}
	if month, ok := ExtractMonthKey(sheetName); ok {
		result.Month = month
	}

	for i := 0; i < len(rows) && i < maxHeaderScan; i++ {
		confidence := r.workforceConfidence(sheetName, rows[i])
		if confidence > result.Confidence {
			result.Confidence = confidence
			result.HeaderRow = i
		}
	}

	if result.Confidence >= 0.5 {
		result.SheetType = SheetTypeWorkforce
		return result
	}
	if ContainsAny(sheetName, []string{"汇总", "合计", "说明", "目录", "封面"}) {
		result.SheetType = SheetTypeSummary
		result.Confidence = 0.3
	}
	return result
}

func (r *SheetRecognizer) workforceConfidence(sheetName string, header []string) float64 {
	columns := make([]string, 0, len(header))
	for _, col := range header {
		if col = NormalizeColumnName(col); col != "" {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return 0
	}

	matchCount := 0
	for _, field := range workforceKeyFields {
		for _, col := range columns {
			if MatchPattern(col, field) {
				matchCount++
				break
			}
		}
	}
	confidence := float64(matchCount) / float64(len(workforceKeyFields))

	// Sheet 名称辅助判定
	if confidence > 0 && ContainsAny(sheetName, []string{"用工", "就业", "缺工", "月报"}) {
		confidence += 0.15
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence
}

// IsTotalRow 是否为合计/小计行
func IsTotalRow(name string) bool {
	name = strings.ReplaceAll(name, " ", "")
	return ContainsAny(name, []string{"合计", "总计", "小计"})
}
