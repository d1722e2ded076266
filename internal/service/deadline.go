package service

import (
	"time"

	"tams/internal/model"
	"tams/pkg/clock"
)

// applicationWindowDays 开课前多少天停止接受申请与撤回
const applicationWindowDays = 21

// DeadlineFor 申请截止时间 = 开课时间 - 3 周
func DeadlineFor(course *model.Course) time.Time {
	return course.StartDate.AddDate(0, 0, -applicationWindowDays)
}

// IsBeforeDeadline 当前时间严格早于截止时间
func IsBeforeDeadline(clk clock.Clock, course *model.Course) bool {
	return clk.Now().Before(DeadlineFor(course))
}

// Capacity 课程助教名额 ⌈studentCount / 20⌉
func Capacity(studentCount int) int64 {
	if studentCount <= 0 {
		return 0
	}
	return int64((studentCount + studentsPerTA - 1) / studentsPerTA)
}

const studentsPerTA = 20
