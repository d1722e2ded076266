package model

// ApplicationStatus 申请状态
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application 助教申请表：对应 applications，主键 (course_id, net_id)
type Application struct {
	CourseID     string            `gorm:"type:varchar(64);primaryKey"                json:"course_id"`
	NetID        string            `gorm:"type:varchar(64);primaryKey"                json:"net_id"`
	Grade        float64           `gorm:"not null"                                   json:"grade"`
	Motivation   string            `gorm:"type:text;not null;default:''"              json:"motivation"`
	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // pending | accepted | rejected
	ContactEmail *string           `gorm:"type:varchar(255)"                          json:"contact_email,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Application) TableName() string { return "applications" }

// IsPending 是否仍处于待处理状态
func (a *Application) IsPending() bool { return a.Status == ApplicationPending }
