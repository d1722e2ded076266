package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"tams/internal/dto"
	"tams/internal/service"
	"tams/pkg/response"
)

// ApplicationHandler 助教申请模块 HTTP 处理器
type ApplicationHandler struct {
	applicationSvc service.ApplicationService
}

// NewApplicationHandler 创建 ApplicationHandler
func NewApplicationHandler(applicationSvc service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationSvc: applicationSvc}
}

// Submit 提交助教申请（申请人为当前用户）
// POST /api/v1/courses/:course_id/applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	app, err := h.applicationSvc.Submit(c.Request.Context(), courseID, netID, &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.Created(c, app)
}

// GetMine 查询本人在某课程的申请
// GET /api/v1/courses/:course_id/applications/me
func (h *ApplicationHandler) GetMine(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	app, err := h.applicationSvc.GetStatus(c.Request.Context(), courseID, netID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

// Withdraw 撤回本人申请；截止后返回 withdrawn=false
// DELETE /api/v1/courses/:course_id/applications/me
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	withdrawn, err := h.applicationSvc.Withdraw(c.Request.Context(), courseID, netID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, dto.WithdrawResponse{Withdrawn: withdrawn})
}

// ListMine 查询本人全部申请
// GET /api/v1/applications/me
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	apps, err := h.applicationSvc.ListByNetID(c.Request.Context(), netID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": apps})
}

// ListPending 课程待处理申请（附平均评分）
// GET /api/v1/courses/:course_id/applications
func (h *ApplicationHandler) ListPending(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	apps, err := h.applicationSvc.ListPending(c.Request.Context(), courseID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": apps})
}

// Recommend 按历史评分推荐申请人
// GET /api/v1/courses/:course_id/applications/recommendations?amount=5
func (h *ApplicationHandler) Recommend(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	amount, err := strconv.Atoi(c.DefaultQuery("amount", "5"))
	if err != nil || amount < 0 {
		response.BadRequest(c, 10001, "amount 必须为非负整数")
		return
	}

	apps, err := h.applicationSvc.Recommend(c.Request.Context(), courseID, amount)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": apps})
}

// Accept 录取申请并生成合同
// POST /api/v1/courses/:course_id/applications/:net_id/accept
func (h *ApplicationHandler) Accept(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := mustParam(c, "net_id", "net_id 不能为空")
	if !ok {
		return
	}

	var req dto.AcceptApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	contract, err := h.applicationSvc.Accept(c.Request.Context(), courseID, netID, &req)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.Created(c, contract)
}

// Reject 拒绝申请
// POST /api/v1/courses/:course_id/applications/:net_id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := mustParam(c, "net_id", "net_id 不能为空")
	if !ok {
		return
	}

	app, err := h.applicationSvc.Reject(c.Request.Context(), courseID, netID)
	if err != nil {
		h.handleApplicationError(c, err)
		return
	}

	response.OK(c, app)
}

func (h *ApplicationHandler) handleApplicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		writeError(c, 21001, err)
	case errors.Is(err, service.ErrApplicationExists):
		writeError(c, 21002, err)
	case errors.Is(err, service.ErrApplicationNotPending):
		writeError(c, 21003, err)
	case errors.Is(err, service.ErrCandidacyLimitReached):
		writeError(c, 21004, err)
	case errors.Is(err, service.ErrGradeOutOfRange):
		writeError(c, 21005, err)
	case errors.Is(err, service.ErrGradeBelowRequirement):
		writeError(c, 21006, err)
	case errors.Is(err, service.ErrApplicationDeadlinePast):
		writeError(c, 21007, err)
	// 录取时由合同模块产生的错误
	case errors.Is(err, service.ErrContractExists):
		writeError(c, 22002, err)
	case errors.Is(err, service.ErrCapacityReached):
		writeError(c, 22005, err)
	case errors.Is(err, service.ErrMaxHoursInvalid):
		writeError(c, 22007, err)
	default:
		handleCommonError(c, err)
	}
}
