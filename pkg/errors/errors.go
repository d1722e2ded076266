package errors

import (
	"errors"
	"net/http"
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrDuplicateKey 唯一键冲突：记录已存在
var ErrDuplicateKey = errors.New("记录已存在")

// Kind 业务错误分类，决定对外暴露的 HTTP 状态
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindPolicyViolation
	KindConflict
	KindInvalidArgument
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPolicyViolation:
		return "policy_violation"
	case KindConflict:
		return "conflict"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// Error 带分类的业务错误。
// 各模块以包级变量声明，调用方用 errors.Is 比较具体错误，用 KindOf 判断分类。
type Error struct {
	kind Kind
	msg  string
}

// New 创建业务错误
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

// Kind 返回错误分类
func (e *Error) Kind() Kind { return e.kind }

// KindOf 提取错误链上的分类；非业务错误视为 KindInternal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// HTTPStatus 分类 → HTTP 状态码
// PolicyViolation 与 Conflict 均对应 409，但仍通过 Kind 区分
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindPolicyViolation, KindConflict:
		return http.StatusConflict
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
