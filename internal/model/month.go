package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoMonthPattern = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-\d{1,2})?(?:[T ].*)?$`)
	cnMonthPattern  = regexp.MustCompile(`(\d{4})年0?(\d{1,2})月`)
)

// NormalizeMonth 将月份统一为 YYYY-MM
// 支持格式: "2025-06" / "2025-6" / "2025-06-01" / "2025-06-01T00:00:00Z" / "2025年6月"
func NormalizeMonth(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	var ys, ms string
	if m := isoMonthPattern.FindStringSubmatch(text); len(m) == 3 {
		ys, ms = m[1], m[2]
	} else if m := cnMonthPattern.FindStringSubmatch(text); len(m) == 3 {
		ys, ms = m[1], m[2]
	} else {
		return "", false
	}

	year, _ := strconv.Atoi(ys)
	month, _ := strconv.Atoi(ms)
	if year <= 0 || month < 1 || month > 12 {
		return "", false
	}
	return FormatMonth(year, month), true
}

// FormatMonth 格式化为 YYYY-MM
func FormatMonth(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// SplitMonth 拆分 YYYY-MM
func SplitMonth(key string) (year, month int, ok bool) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), int(t.Month()), true
}

// PrevMonth 上一个自然月
func PrevMonth(key string) string {
	year, month, ok := SplitMonth(key)
	if !ok {
		return ""
	}
	if month == 1 {
		return FormatMonth(year-1, 12)
	}
	return FormatMonth(year, month-1)
}

// SameMonthLastYear 上年同月
func SameMonthLastYear(key string) string {
	year, month, ok := SplitMonth(key)
	if !ok {
		return ""
	}
	return FormatMonth(year-1, month)
}

// MonthStart 月份首日，用于落库的 report_month（YYYY-MM-01）
func MonthStart(key string) string {
	return key + "-01"
}

// NextMonth 下一个自然月
func NextMonth(key string) string {
	year, month, ok := SplitMonth(key)
	if !ok {
		return ""
	}
	if month == 12 {
		return FormatMonth(year+1, 1)
	}
	return FormatMonth(year, month+1)
}
