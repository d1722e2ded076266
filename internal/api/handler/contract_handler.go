package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"tams/internal/dto"
	"tams/internal/repository"
	"tams/internal/service"
	"tams/pkg/response"
)

// ContractHandler 合同模块 HTTP 处理器
type ContractHandler struct {
	contractSvc service.ContractService
}

// NewContractHandler 创建 ContractHandler
func NewContractHandler(contractSvc service.ContractService) *ContractHandler {
	return &ContractHandler{contractSvc: contractSvc}
}

// Create 讲师直接创建合同（不经申请流程）
// POST /api/v1/courses/:course_id/contracts
func (h *ContractHandler) Create(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	var req dto.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	contract, err := h.contractSvc.Create(c.Request.Context(), courseID, &req)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.Created(c, contract)
}

// ListByCourse 课程下的合同列表，可按 signed 过滤
// GET /api/v1/courses/:course_id/contracts?signed=true
func (h *ContractHandler) ListByCourse(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}

	filter := repository.ContractFilter{CourseID: courseID}
	if raw := c.Query("signed"); raw != "" {
		signed, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, 10001, "signed 参数无效")
			return
		}
		filter.Signed = &signed
	}

	contracts, err := h.contractSvc.List(c.Request.Context(), filter)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, gin.H{"list": contracts})
}

// ListMine 当前用户的全部合同
// GET /api/v1/contracts/me
func (h *ContractHandler) ListMine(c *gin.Context) {
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	contracts, err := h.contractSvc.List(c.Request.Context(), repository.ContractFilter{NetID: netID})
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, gin.H{"list": contracts})
}

// GetMine 当前用户在某课程的合同
// GET /api/v1/courses/:course_id/contracts/me
func (h *ContractHandler) GetMine(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	contract, err := h.contractSvc.Get(c.Request.Context(), netID, courseID)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, contract)
}

// Sign 助教签署本人合同
// POST /api/v1/courses/:course_id/contracts/me/sign
func (h *ContractHandler) Sign(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := MustGetNetID(c)
	if !ok {
		return
	}

	contract, err := h.contractSvc.Sign(c.Request.Context(), netID, courseID)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, contract)
}

// Rate 讲师为助教评分
// PUT /api/v1/courses/:course_id/contracts/:net_id/rating
func (h *ContractHandler) Rate(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := mustParam(c, "net_id", "net_id 不能为空")
	if !ok {
		return
	}

	var req dto.RateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	contract, err := h.contractSvc.Rate(c.Request.Context(), netID, courseID, *req.Rating)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, contract)
}

// UpdateHours 讲师覆盖合同实际工时
// PUT /api/v1/courses/:course_id/contracts/:net_id/hours
func (h *ContractHandler) UpdateHours(c *gin.Context) {
	courseID, ok := mustParam(c, "course_id", "课程ID不能为空")
	if !ok {
		return
	}
	netID, ok := mustParam(c, "net_id", "net_id 不能为空")
	if !ok {
		return
	}

	var req dto.UpdateHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	contract, err := h.contractSvc.UpdateHours(c.Request.Context(), netID, courseID, *req.Hours)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, contract)
}

// AverageRatings 批量查询平均评分，无记录为 -1
// POST /api/v1/contracts/ratings
func (h *ContractHandler) AverageRatings(c *gin.Context) {
	var req dto.AverageRatingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	ratings, err := h.contractSvc.AverageRatings(c.Request.Context(), req.NetIDs)
	if err != nil {
		h.handleContractError(c, err)
		return
	}

	response.OK(c, dto.AverageRatingsResponse{Ratings: ratings})
}

func (h *ContractHandler) handleContractError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContractNotFound):
		writeError(c, 22001, err)
	case errors.Is(err, service.ErrContractExists):
		writeError(c, 22002, err)
	case errors.Is(err, service.ErrContractAlreadySigned):
		writeError(c, 22003, err)
	case errors.Is(err, service.ErrContractNotSigned):
		writeError(c, 22004, err)
	case errors.Is(err, service.ErrCapacityReached):
		writeError(c, 22005, err)
	case errors.Is(err, service.ErrContractKeyRequired):
		writeError(c, 22006, err)
	case errors.Is(err, service.ErrMaxHoursInvalid):
		writeError(c, 22007, err)
	case errors.Is(err, service.ErrActualHoursNegative):
		writeError(c, 22008, err)
	case errors.Is(err, service.ErrNetIDsRequired):
		writeError(c, 22009, err)
	default:
		handleCommonError(c, err)
	}
}
