package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"tams/internal/dto"
	"tams/internal/service"
	"tams/pkg/response"
)

// HourHandler 工时申报模块 HTTP 处理器
type HourHandler struct {
	hourSvc service.HourService
	courses service.CourseDirectory
}

// NewHourHandler 创建 HourHandler
func NewHourHandler(hourSvc service.HourService, courses service.CourseDirectory) *HourHandler {
	return &HourHandler{hourSvc: hourSvc, courses: courses}
}

// Submit 助教申报工时
// POST /api/v1/courses/:course_id/hours
func (h *HourHandler) Submit(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	var req dto.SubmitHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	decl, err := h.hourSvc.Submit(c.Request.Context(), courseID, netID, &req)
	if err != nil {
		h.handleHourError(c, err)
		return
	}

	response.Created(c, decl)
}

// ListOpen 课程下待审核的工时申报，可按 net_id 过滤
// GET /api/v1/courses/:course_id/hours/open?net_id=xxx
func (h *HourHandler) ListOpen(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	decls, err := h.hourSvc.GetOpen(c.Request.Context(), courseID, c.Query("net_id"))
	if err != nil {
		h.handleHourError(c, err)
		return
	}

	response.OK(c, gin.H{"list": decls})
}

// ListMine 当前用户在某课程合同下的全部申报
// GET /api/v1/courses/:course_id/contracts/me/hours
func (h *HourHandler) ListMine(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	decls, err := h.hourSvc.ListByContract(c.Request.Context(), netID, courseID)
	if err != nil {
		h.handleHourError(c, err)
		return
	}

	response.OK(c, gin.H{"list": decls})
}

// Get 查询工时申报详情（申报人本人或课程讲师）
// GET /api/v1/hours/:id
func (h *HourHandler) Get(c *gin.Context) {
	id, ok := mustParam(c, "id", "申报ID不能为空")
	if !ok {
		return
	}
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	decl, err := h.hourSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleHourError(c, err)
		return
	}

	if decl.NetID != netID && !h.requireLecturer(c, netID, decl.CourseID) {
		return
	}

	response.OK(c, decl)
}

// Approve 审核工时申报，仅限申报所属课程的负责讲师
// PUT /api/v1/hours/:id/approve
func (h *HourHandler) Approve(c *gin.Context) {
	id, ok := mustParam(c, "id", "申报ID不能为空")
	if !ok {
		return
	}

	var req dto.ApproveHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	decl, err := h.hourSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleHourError(c, err)
		return
	}
	if !h.requireLecturer(c, netID, decl.CourseID) {
		return
	}

	result, err := h.hourSvc.Approve(c.Request.Context(), id, *req.Accept)
	if err != nil {
		h.handleHourError(c, err)
		return
	}

	response.OK(c, result)
}

// requireLecturer 校验讲师身份，失败时已写入响应
func (h *HourHandler) requireLecturer(c *gin.Context, netID, courseID string) bool {
	ok, err := h.courses.IsResponsibleLecturer(c.Request.Context(), netID, courseID)
	if err != nil {
		writeError(c, 20001, service.ErrCourseNotFound)
		return false
	}
	if !ok {
		response.Forbidden(c, 10003, "仅课程负责讲师可操作")
		return false
	}
	return true
}

func (h *HourHandler) handleHourError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDeclarationNotFound):
		writeError(c, 23001, err)
	case errors.Is(err, service.ErrDeclarationReviewed):
		writeError(c, 23002, err)
	case errors.Is(err, service.ErrWorkedTimeInvalid):
		writeError(c, 23003, err)
	case errors.Is(err, service.ErrHoursExceeded):
		writeError(c, 23004, err)
	case errors.Is(err, service.ErrDateInvalid):
		writeError(c, 23005, err)
	case errors.Is(err, service.ErrContractNotFound):
		writeError(c, 22001, err)
	case errors.Is(err, service.ErrContractNotSigned):
		writeError(c, 22004, err)
	default:
		handleCommonError(c, err)
	}
}
