package service

import (
	"errors"

	pkgerrors "tams/pkg/errors"
)

// ── 课程 ──

var ErrCourseNotFound = pkgerrors.New(pkgerrors.KindNotFound, "课程不存在")

// ── 申请模块业务错误 ──

var (
	ErrApplicationNotFound     = pkgerrors.New(pkgerrors.KindNotFound, "申请不存在")
	ErrApplicationExists       = pkgerrors.New(pkgerrors.KindConflict, "该课程已存在你的申请")
	ErrApplicationNotPending   = pkgerrors.New(pkgerrors.KindConflict, "申请已处理，无法变更")
	ErrCandidacyLimitReached   = pkgerrors.New(pkgerrors.KindPolicyViolation, "待处理申请已达上限（最多 3 个）")
	ErrGradeOutOfRange         = pkgerrors.New(pkgerrors.KindPolicyViolation, "成绩必须在 1.0 到 10.0 之间")
	ErrGradeBelowRequirement   = pkgerrors.New(pkgerrors.KindPolicyViolation, "成绩未达到助教要求（至少 6.0）")
	ErrApplicationDeadlinePast = pkgerrors.New(pkgerrors.KindPolicyViolation, "申请截止时间已过")
)

// ── 合同模块业务错误 ──

var (
	ErrContractNotFound      = pkgerrors.New(pkgerrors.KindNotFound, "合同不存在")
	ErrContractExists        = pkgerrors.New(pkgerrors.KindConflict, "该课程已存在此助教的合同")
	ErrContractAlreadySigned = pkgerrors.New(pkgerrors.KindConflict, "合同已签署")
	ErrContractNotSigned     = pkgerrors.New(pkgerrors.KindForbidden, "合同未签署，无法登记工时")
	ErrCapacityReached       = pkgerrors.New(pkgerrors.KindConflict, "课程助教名额已满")
	ErrContractKeyRequired   = pkgerrors.New(pkgerrors.KindInvalidArgument, "net_id 与 course_id 不能为空")
	ErrMaxHoursInvalid       = pkgerrors.New(pkgerrors.KindInvalidArgument, "最大工时必须大于 0")
	ErrActualHoursNegative   = pkgerrors.New(pkgerrors.KindInvalidArgument, "实际工时不能为负数")
	ErrNetIDsRequired        = pkgerrors.New(pkgerrors.KindInvalidArgument, "net_ids 不能为空")
)

// ── 工时模块业务错误 ──

var (
	ErrDeclarationNotFound = pkgerrors.New(pkgerrors.KindNotFound, "工时申报不存在")
	ErrDeclarationReviewed = pkgerrors.New(pkgerrors.KindPolicyViolation, "工时申报已审核，不可再次审核")
	ErrWorkedTimeInvalid   = pkgerrors.New(pkgerrors.KindPolicyViolation, "工时必须大于 0")
	ErrHoursExceeded       = pkgerrors.New(pkgerrors.KindPolicyViolation, "超出合同剩余工时")
	ErrDateInvalid         = pkgerrors.New(pkgerrors.KindInvalidArgument, "日期格式无效，应为 YYYY-MM-DD")
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = errors.New("生成 Excel 文件失败")

// isBusinessError 业务错误无需记录错误日志
func isBusinessError(err error) bool {
	var e *pkgerrors.Error
	return errors.As(err, &e)
}
