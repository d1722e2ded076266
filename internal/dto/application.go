package dto

// ── 助教申请模块 DTO ──

// SubmitApplicationRequest 提交申请请求
// 成绩范围与及格线在业务层校验，以保证错误顺序
type SubmitApplicationRequest struct {
	Grade        float64 `json:"grade"`
	Motivation   string  `json:"motivation"    binding:"max=4000"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email,max=255"`
}

// AcceptApplicationRequest 录取申请请求（同时生成合同）
type AcceptApplicationRequest struct {
	MaxHours int    `json:"max_hours"`
	Duties   string `json:"duties"    binding:"max=4000"`
}

// ApplicationResponse 申请信息响应
type ApplicationResponse struct {
	CourseID     string  `json:"course_id"`
	NetID        string  `json:"net_id"`
	Grade        float64 `json:"grade"`
	Motivation   string  `json:"motivation"`
	Status       string  `json:"status"`
	ContactEmail *string `json:"contact_email,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// RatedApplicationResponse 附带申请人历史平均评分（-1 表示无记录）
type RatedApplicationResponse struct {
	ApplicationResponse
	Rating float64 `json:"rating"`
}

// WithdrawResponse 撤回结果；截止后撤回返回 withdrawn=false
type WithdrawResponse struct {
	Withdrawn bool `json:"withdrawn"`
}
