package parser

import "time"

// SheetType Sheet 类型
type SheetType string

const (
	SheetTypeWorkforce SheetType = "workforce" // 企业用工月报
	SheetTypeSummary   SheetType = "summary"   // 汇总/说明页
	SheetTypeUnknown   SheetType = "unknown"
)

// 月报字段
const (
	FieldCompanyName        = "company_name"
	FieldIndustry           = "industry"
	FieldTown               = "town"
	FieldContactPerson      = "contact_person"
	FieldContactPhone       = "contact_phone"
	FieldMonth              = "month"
	FieldEmployeesTotal     = "employees_total"
	FieldRecruitedNew       = "recruited_new"
	FieldResignedTotal      = "resigned_total"
	FieldShortageTotal      = "shortage_total"
	FieldShortageGeneral    = "shortage_general"
	FieldShortageTechnical  = "shortage_technical"
	FieldShortageManagement = "shortage_management"
	FieldPlannedRecruitment = "planned_recruitment"
	FieldNotes              = "notes"
)

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string    `json:"sheetName"`
	SheetType  SheetType `json:"sheetType"`
	Confidence float64   `json:"confidence"` // 置信度 0-1
	HeaderRow  int       `json:"headerRow"`  // 表头所在行（0 起）
	Month      string    `json:"month"`      // Sheet 名中识别出的月份 YYYY-MM
}

// FieldMapping 字段映射结果
type FieldMapping struct {
	ColumnIndex int    `json:"columnIndex"` // Excel 列索引
	ColumnName  string `json:"columnName"`  // Excel 列名
	Field       string `json:"field"`       // 月报字段名
}

// ParseResult 单个 Sheet 的导入结果
type ParseResult struct {
	SheetName    string        `json:"sheetName"`
	SheetType    SheetType     `json:"sheetType"`
	Status       string        `json:"status"` // imported/skipped/error
	Month        string        `json:"month,omitempty"`
	ImportedRows int           `json:"importedRows"`
	ErrorRows    int           `json:"errorRows"`
	Errors       []string      `json:"errors,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// ImportReport 导入报告
type ImportReport struct {
	BatchID        string        `json:"batchId"`
	Filename       string        `json:"filename"`
	TotalSheets    int           `json:"totalSheets"`
	ImportedSheets int           `json:"importedSheets"`
	SkippedSheets  int           `json:"skippedSheets"`
	TotalRows      int           `json:"totalRows"`
	ImportedRows   int           `json:"importedRows"`
	ErrorRows      int           `json:"errorRows"`
	Months         []string      `json:"months"`
	Duration       time.Duration `json:"duration"`
	Sheets         []ParseResult `json:"sheets"`
}
