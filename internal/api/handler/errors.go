package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tams/internal/service"
	pkgerrors "tams/pkg/errors"
	"tams/pkg/response"
)

// 业务错误码分段：
//   10xxx 通用（参数、认证、权限、限流、并发冲突）
//   20xxx 课程   21xxx 申请   22xxx 合同   23xxx 工时   24xxx 导出

// writeError 按错误分类输出 HTTP 状态，details 携带分类名
func writeError(c *gin.Context, code int, err error) {
	kind := pkgerrors.KindOf(err)
	response.ErrorWithDetails(c, pkgerrors.HTTPStatus(kind), code, err.Error(), kind.String())
}

// handleCommonError 各模块共用的兜底映射
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		writeError(c, 20001, err)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10005, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
