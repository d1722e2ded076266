package dto

// ── 工时申报模块 DTO ──

// SubmitHoursRequest 申报工时
type SubmitHoursRequest struct {
	WorkedTime  int    `json:"worked_time"`
	Date        string `json:"date"        binding:"required"` // "2026-10-01"
	Description string `json:"description" binding:"max=2000"`
}

// ApproveHoursRequest 审核工时
type ApproveHoursRequest struct {
	Accept *bool `json:"accept" binding:"required"`
}

// HourDeclarationResponse 工时申报响应
type HourDeclarationResponse struct {
	ID          string `json:"id"`
	ContractID  string `json:"contract_id"`
	CourseID    string `json:"course_id"`
	NetID       string `json:"net_id"`
	WorkedTime  int    `json:"worked_time"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Approved    *bool  `json:"approved"`
	Reviewed    bool   `json:"reviewed"`
	CreatedAt   string `json:"created_at"`
}
