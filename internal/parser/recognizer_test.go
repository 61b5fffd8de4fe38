package parser

import "testing"

var sampleHeader = []string{
	"序号", "企业名称", "所属行业", "镇街", "员工总数", "本月新招", "本月离职",
	"缺工人数", "普工缺口", "技术工缺口", "管理岗缺口", "计划招聘", "联系人", "联系电话", "备注",
}

func TestSheetRecognizer_Workforce(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer()
	rows := [][]string{
		{"2025年6月重点企业用工情况统计表"},
		{"填报单位：人社局"},
		sampleHeader,
		{"1", "甲公司", "制造业", "城关镇", "100"},
	}
	res := r.Recognize("2025年6月", rows)
	if res.SheetType != SheetTypeWorkforce {
		t.Fatalf("type mismatch: got=%s conf=%.2f", res.SheetType, res.Confidence)
	}
	if res.HeaderRow != 2 {
		t.Fatalf("header row: got=%d want=2", res.HeaderRow)
	}
	if res.Month != "2025-06" {
		t.Fatalf("month: got=%s", res.Month)
	}
}

func TestSheetRecognizer_SummaryAndUnknown(t *testing.T) {
	t.Parallel()

	r := NewSheetRecognizer()
	if res := r.Recognize("填报说明", [][]string{{"请按要求填写"}}); res.SheetType != SheetTypeSummary {
		t.Fatalf("填报说明: got=%s", res.SheetType)
	}
	if res := r.Recognize("Sheet3", nil); res.SheetType != SheetTypeUnknown {
		t.Fatalf("Sheet3: got=%s", res.SheetType)
	}
}

func TestFieldMapper_MapWorkforce(t *testing.T) {
	t.Parallel()

	mappings := NewFieldMapper().MapWorkforce(sampleHeader)
	want := map[int]string{
		1:  FieldCompanyName,
		2:  FieldIndustry,
		3:  FieldTown,
		4:  FieldEmployeesTotal,
		5:  FieldRecruitedNew,
		6:  FieldResignedTotal,
		7:  FieldShortageTotal,
		8:  FieldShortageGeneral,
		9:  FieldShortageTechnical,
		10: FieldShortageManagement,
		11: FieldPlannedRecruitment,
		12: FieldContactPerson,
		13: FieldContactPhone,
		14: FieldNotes,
	}
	if len(mappings) != len(want) {
		t.Fatalf("mapping count: got=%d want=%d (%v)", len(mappings), len(want), mappings)
	}
	for idx, field := range want {
		if mappings[idx].Field != field {
			t.Fatalf("column %d (%s): got=%s want=%s", idx, sampleHeader[idx], mappings[idx].Field, field)
		}
	}
}
