package parser

import (
	"fmt"
	"strings"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/ingest"
	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

// ParsedSheet 解析后的 Sheet
type ParsedSheet struct {
	Records   []ingest.Record
	Errors    []string
	TotalRows int
	Skipped   int // 空行、合计行
}

// WorkforceParser 用工月报解析器
type WorkforceParser struct {
	mapper *FieldMapper
}

// NewWorkforceParser 创建解析器
func NewWorkforceParser() *WorkforceParser {
	return &WorkforceParser{mapper: NewFieldMapper()}
}

// Parse 解析数据行；month 为行内无月份列时使用的月份（YYYY-MM，可为空）
func (p *WorkforceParser) Parse(rows [][]string, headerRow int, month string) (*ParsedSheet, error) {
	if headerRow >= len(rows) {
		return nil, fmt.Errorf("表头行 %d 超出范围", headerRow+1)
	}
	mappings := p.mapper.MapWorkforce(rows[headerRow])

	columns := make(map[string]int, len(mappings))
	for idx, m := range mappings {
		columns[m.Field] = idx
	}
	if _, ok := columns[FieldCompanyName]; !ok {
		return nil, fmt.Errorf("未找到企业名称列")
	}
	if _, ok := columns[FieldMonth]; !ok && month == "" {
		return nil, fmt.Errorf("无法确定数据月份：请在 Sheet 名称或月份列中注明")
	}

	result := &ParsedSheet{}
	for i := headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		cell := func(field string) string {
			idx, ok := columns[field]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		name := cell(FieldCompanyName)
		if name == "" || IsTotalRow(name) {
			if !isBlankRow(row) {
				result.Skipped++
			}
			continue
		}
		result.TotalRows++

		rec, errs := p.parseRow(cell, month)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("第 %d 行（%s）: %s", i+1, name, strings.Join(errs, "；")))
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func (p *WorkforceParser) parseRow(cell func(string) string, month string) (ingest.Record, []string) {
	var errs []string
	rec := ingest.Record{
		CompanyName:   model.NormalizeName(cell(FieldCompanyName)),
		Industry:      cell(FieldIndustry),
		Town:          cell(FieldTown),
		ContactPerson: cell(FieldContactPerson),
		ContactPhone:  cell(FieldContactPhone),
		Notes:         cell(FieldNotes),
		Month:         month,
	}

	if raw := cell(FieldMonth); raw != "" {
		m, ok := ExtractMonthKey(raw)
		if !ok {
			errs = append(errs, "月份无法识别: "+raw)
		} else {
			rec.Month = m
		}
	}

	count := func(field, label string) int {
		v, ok := ParseCount(cell(field))
		if !ok {
			errs = append(errs, fmt.Sprintf("%s 不是有效人数: %s", label, cell(field)))
		}
		return v
	}
	rec.EmployeesTotal = count(FieldEmployeesTotal, "员工总数")
	rec.RecruitedNew = count(FieldRecruitedNew, "新招人数")
	rec.ResignedTotal = count(FieldResignedTotal, "离职人数")
	rec.ShortageTotal = count(FieldShortageTotal, "缺工人数")

	if cell(FieldPlannedRecruitment) != "" {
		v := count(FieldPlannedRecruitment, "计划招聘")
		rec.PlannedRecruitment = &v
	}

	if cell(FieldShortageGeneral) != "" || cell(FieldShortageTechnical) != "" || cell(FieldShortageManagement) != "" {
		rec.ShortageBreakdown = &model.ShortageDetail{
			General:    count(FieldShortageGeneral, "普工缺口"),
			Technical:  count(FieldShortageTechnical, "技术工缺口"),
			Management: count(FieldShortageManagement, "管理岗缺口"),
		}
		// 只有分项没有合计时用分项合计
		if cell(FieldShortageTotal) == "" {
			rec.ShortageTotal = rec.ShortageBreakdown.Sum()
		}
	}
	return rec, errs
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
