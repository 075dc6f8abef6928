package service

import (
	"errors"
	"fmt"

	"github.com/sandip-dolai/suntechERP/internal/erp/repository"
)

// 错误分类，调用方用 errors.Is 判断
var (
	// ErrConfiguration 主数据配置不完整，非用户输入问题
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation 用户输入不合法，无副作用
	ErrValidation = errors.New("validation error")
	// ErrConflict 唯一约束冲突
	ErrConflict = errors.New("integrity conflict")
	// ErrForbidden 无权操作
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound 记录不存在
	ErrNotFound = repository.ErrNotFound
)

// Error 带分类的业务错误，Message 面向用户
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationErrorf(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func configErrorf(format string, args ...interface{}) error {
	return newError(ErrConfiguration, format, args...)
}

func conflictErrorf(format string, args ...interface{}) error {
	return newError(ErrConflict, format, args...)
}

func forbiddenErrorf(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func notFoundErrorf(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

// 常用业务错误
var (
	ErrDuplicateBOM  = &Error{Kind: ErrValidation, Message: "BOM already exists for this PO"}
	ErrIndentClosed  = &Error{Kind: ErrValidation, Message: "indent is closed and can no longer be modified"}
	ErrPOCancelled   = &Error{Kind: ErrValidation, Message: "purchase order is cancelled"}
	ErrAdminRequired = &Error{Kind: ErrForbidden, Message: "administrator permission required"}
)

// mapDuplicate 将仓库层唯一冲突转换为业务冲突错误
func mapDuplicate(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return conflictErrorf("%s", message)
	}
	return err
}
