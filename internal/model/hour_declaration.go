package model

import "time"

// HourDeclaration 工时申报表：对应 hour_declarations
type HourDeclaration struct {
	DeclarationID string    `gorm:"type:uuid;primaryKey"          json:"declaration_id"`
	ContractID    string    `gorm:"type:uuid;not null;index"      json:"contract_id"`
	CourseID      string    `gorm:"type:varchar(64);not null"     json:"course_id"` // 冗余快照
	NetID         string    `gorm:"type:varchar(64);not null"     json:"net_id"`    // 冗余快照
	WorkedTime    int       `gorm:"not null"                      json:"worked_time"`
	Description   string    `gorm:"type:text;not null;default:''" json:"description"`
	Date          time.Time `gorm:"type:date;not null"            json:"date"`
	Approved      *bool     `json:"approved,omitempty"` // nil = 待审核
	Reviewed      bool      `gorm:"not null;default:false"        json:"reviewed"`
	VersionedModel

	// 关联
	Contract *Contract `gorm:"foreignKey:ContractID;references:ContractID" json:"contract,omitempty"`
}

// TableName 指定表名
func (HourDeclaration) TableName() string { return "hour_declarations" }

// IsApproved 已审核且通过
func (d *HourDeclaration) IsApproved() bool {
	return d.Reviewed && d.Approved != nil && *d.Approved
}
