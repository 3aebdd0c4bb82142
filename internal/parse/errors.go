package parse

import (
	"fmt"
	"net/http"
)

// Parse协议中使用到的错误码
const (
	CodeOther               = 1
	CodeObjectNotFound      = 101
	CodeInvalidPointer      = 105
	CodeOperationForbidden  = 119
	CodeUsernameMissing     = 200
	CodeDuplicateValue      = 202
	CodeInvalidSessionToken = 209
)

// Error 是渲染为 {"code":..., "error":...} 的协议错误
type Error struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error %d: %s", e.Code, e.Message)
}

// NewError 构造一个协议错误
func NewError(status, code int, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// ErrObjectNotFound 是按objectId查找失败时的通用错误
var ErrObjectNotFound = NewError(http.StatusNotFound, CodeObjectNotFound, "Object not found")

// ErrInvalidSession 表示会话令牌未知或已过期
var ErrInvalidSession = NewError(http.StatusUnauthorized, CodeInvalidSessionToken, "Invalid session token")

// ErrPermissionDenied 表示试图修改他人的记录
var ErrPermissionDenied = NewError(http.StatusForbidden, CodeOperationForbidden, "Permission denied")

// ErrMethodNotAllowed 表示 _method 覆盖指定了不支持的方法
var ErrMethodNotAllowed = NewError(http.StatusMethodNotAllowed, CodeOther, "Method not allowed")

// InvalidPointer 构造一个负载校验失败的错误（code 105）
func InvalidPointer(message string) *Error {
	return NewError(http.StatusBadRequest, CodeInvalidPointer, message)
}
