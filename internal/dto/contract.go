package dto

// ── 合同模块 DTO ──

// CreateContractRequest 讲师直接创建合同
type CreateContractRequest struct {
	NetID        string  `json:"net_id"        binding:"required,netid"`
	MaxHours     int     `json:"max_hours"`
	Duties       string  `json:"duties"        binding:"max=4000"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email,max=255"`
}

// RateContractRequest 评分请求，范围 [0, 10]
type RateContractRequest struct {
	Rating *float64 `json:"rating" binding:"required,min=0,max=10"`
}

// UpdateHoursRequest 覆盖合同实际工时
type UpdateHoursRequest struct {
	Hours *int `json:"hours" binding:"required"`
}

// AverageRatingsRequest 批量查询平均评分
type AverageRatingsRequest struct {
	NetIDs []string `json:"net_ids" binding:"dive,netid"`
}

// AverageRatingsResponse netID → 平均评分，无记录为 -1
type AverageRatingsResponse struct {
	Ratings map[string]float64 `json:"ratings"`
}

// ContractResponse 合同信息响应
type ContractResponse struct {
	ID                string   `json:"id"`
	CourseID          string   `json:"course_id"`
	NetID             string   `json:"net_id"`
	MaxHours          int      `json:"max_hours"`
	Duties            string   `json:"duties"`
	Signed            bool     `json:"signed"`
	Rating            *float64 `json:"rating"`
	ActualWorkedHours int      `json:"actual_worked_hours"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}
