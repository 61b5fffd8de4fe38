package parser

import "testing"

func TestExtractMonthKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2025年6月用工情况":   "2025-06",
		"2025 年 06 月":   "2025-06",
		"企业用工;2024年12月": "2024-12",
		"2025-06":       "2025-06",
		"2025-06-01":    "2025-06",
	}
	for in, want := range cases {
		got, ok := ExtractMonthKey(in)
		if !ok || got != want {
			t.Fatalf("%s: want=%s got=%s ok=%v", in, want, got, ok)
		}
	}

	for _, in := range []string{"Sheet1", "2025年13月", "六月"} {
		if got, ok := ExtractMonthKey(in); ok {
			t.Fatalf("%s: expected not found, got %s", in, got)
		}
	}
}

func TestParseCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want int
		ok   bool
	}{
		{"空单元格", "", 0, true},
		{"横线", "-", 0, true},
		{"千分位", "1,234", 1234, true},
		{"浮点整数", "12.0", 12, true},
		{"带单位", "30人", 30, true},
		{"负数", "-3", 0, false},
		{"小数", "1.5", 0, false},
		{"文本", "若干", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCount(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("%s: ParseCount(%q) = %d,%v want %d,%v", tt.name, tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	if got := NormalizeColumnName(" 缺工人数\n（人） "); got != "缺工人数(人)" {
		t.Fatalf("unexpected: %q", got)
	}
}
