package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tmzhouw/employment-time-machine-sub001/internal/model"
)

var (
	yearMonthPattern = regexp.MustCompile(`(\d{4})\s*年\s*0?(\d{1,2})\s*月`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// ExtractYearMonth 从字符串中提取年月信息
// 支持格式: "2025年6月用工情况" / "2025年06月" / "企业用工;2025年6月"
func ExtractYearMonth(text string) (year, month int, found bool) {
	matches := yearMonthPattern.FindStringSubmatch(text)
	if len(matches) >= 3 {
		year, _ = strconv.Atoi(matches[1])
		month, _ = strconv.Atoi(matches[2])
		if month >= 1 && month <= 12 {
			return year, month, true
		}
	}
	return 0, 0, false
}

// ExtractMonthKey 提取月份键 YYYY-MM；兼容 "2025-06" 等日期写法
func ExtractMonthKey(text string) (string, bool) {
	if year, month, ok := ExtractYearMonth(text); ok {
		return model.FormatMonth(year, month), true
	}
	return model.NormalizeMonth(text)
}

// NormalizeColumnName 规范化列名，去除空格和换行
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "（", "(")
	name = strings.ReplaceAll(name, "）", ")")
	return whitespace.ReplaceAllString(name, "")
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// MatchPattern 使用正则匹配
func MatchPattern(text, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// ParseCount 解析人数单元格；空单元格为 0，非数值或负数返回 false
func ParseCount(cell string) (int, bool) {
	cell = strings.TrimSpace(strings.ReplaceAll(cell, ",", ""))
	cell = strings.TrimSuffix(cell, "人")
	if cell == "" || cell == "-" || cell == "—" {
		return 0, true
	}
	if n, err := strconv.Atoi(cell); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f < 0 || f != float64(int64(f)) {
		return 0, false
	}
	return int(f), true
}
