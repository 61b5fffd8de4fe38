package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeNotFound        = "NOT_FOUND"
	CodeDataUnavailable = "DATA_UNAVAILABLE"
	CodeInternalError   = "INTERNAL_ERROR"
)

// AppError 面向展示层的错误
type AppError struct {
	Code       string // 错误码
	Message    string // 提示信息
	HTTPStatus int
	Dataset    string // 请求失败的数据集（towns/trend/...）
	Err        error
}

// Error implements error interface
func (e *AppError) Error() string {
	prefix := e.Message
	if e.Dataset != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Message, e.Dataset)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

// Unwrap implements errors.Unwrap interface for errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError without wrapping
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap creates an AppError that wraps an existing error
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// DataUnavailable 存储不可达
func DataUnavailable(dataset string, err error) *AppError {
	return &AppError{
		Code:       CodeDataUnavailable,
		Message:    "数据暂不可用",
		HTTPStatus: http.StatusServiceUnavailable,
		Dataset:    dataset,
		Err:        err,
	}
}

// InvalidInput 参数错误
func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message, http.StatusBadRequest)
}

// NotFound 资源不存在
func NotFound(message string) *AppError {
	return New(CodeNotFound, message, http.StatusNotFound)
}

// IsDataUnavailable 是否为存储不可达错误
func IsDataUnavailable(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeDataUnavailable
}

// From 将任意错误转换为 AppError（未知错误视为内部错误）
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "服务内部错误", http.StatusInternalServerError)
}
