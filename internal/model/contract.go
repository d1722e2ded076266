package model

// Contract 助教合同表：对应 contracts，(course_id, net_id) 唯一
type Contract struct {
	ContractID        string   `gorm:"type:uuid;primaryKey"                               json:"contract_id"`
	CourseID          string   `gorm:"type:varchar(64);not null;uniqueIndex:uq_contracts_course_net" json:"course_id"`
	NetID             string   `gorm:"type:varchar(64);not null;uniqueIndex:uq_contracts_course_net" json:"net_id"`
	MaxHours          int      `gorm:"not null"                                           json:"max_hours"` // 创建后不可变
	Duties            string   `gorm:"type:text;not null;default:''"                      json:"duties"`
	Signed            bool     `gorm:"not null;default:false"                             json:"signed"`
	Rating            *float64 `json:"rating,omitempty"`                                                     // nil 表示尚未评分
	ActualWorkedHours int      `gorm:"not null;default:0"                                 json:"actual_worked_hours"` // 冗余派生：已批准工时合计
	VersionedModel
}

// TableName 指定表名
func (Contract) TableName() string { return "contracts" }
