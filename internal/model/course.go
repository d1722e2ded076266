package model

import "time"

// Course 课程信息，由课程服务提供，本服务不落库
type Course struct {
	ID           string    `json:"id"`
	StartDate    time.Time `json:"start_date"`
	StudentCount int       `json:"student_count"`
}
