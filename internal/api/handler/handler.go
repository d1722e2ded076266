package handler

import "tams/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Application *ApplicationHandler
	Contract    *ContractHandler
	Hour        *HourHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
// courses 用于工时审核时按申报所属课程校验讲师身份
func NewHandler(svc *service.Service, courses service.CourseDirectory) *Handler {
	return &Handler{
		Application: NewApplicationHandler(svc.Application),
		Contract:    NewContractHandler(svc.Contract),
		Hour:        NewHourHandler(svc.Hour, courses),
		Export:      NewExportHandler(svc.Export),
	}
}
