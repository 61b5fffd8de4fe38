package model

import "strings"

// Company 企业基础信息（按名称唯一，由导入创建）
type Company struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Industry      string `json:"industry"`
	Town          string `json:"town"`
	ContactPerson string `json:"contactPerson,omitempty"`
	ContactPhone  string `json:"contactPhone,omitempty"`
}

// NormalizeName 规范化企业名称，去除首尾及中间多余空白
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), "")
}

// Validate 校验企业数据
func (c *Company) Validate() []ValidationError {
	var errors []ValidationError
	if NormalizeName(c.Name) == "" {
		errors = append(errors, ValidationError{
			Field:    "name",
			Message:  "企业名称不能为空",
			Severity: "error",
		})
	}
	if strings.TrimSpace(c.Town) == "" {
		errors = append(errors, ValidationError{
			Field:    "town",
			Message:  "未填写所属镇街",
			Severity: "warning",
		})
	}
	return errors
}

// ValidationError 校验错误
type ValidationError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // error or warning
}
