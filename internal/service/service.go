package service

import (
	"go.uber.org/zap"

	"tams/internal/repository"
	"tams/pkg/clock"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Application ApplicationService
	Contract    ContractService
	Hour        HourService
	Export      ExportService
}

// NewService 创建 Service 聚合
func NewService(
	repo *repository.Repository,
	courses CourseDirectory,
	notifier Notifier,
	clk clock.Clock,
	logger *zap.Logger,
) *Service {
	contracts := NewContractService(repo, courses, notifier, logger)
	return &Service{
		Application: NewApplicationService(repo, courses, contracts, contracts, clk, logger),
		Contract:    contracts,
		Hour:        NewHourService(repo, logger),
		Export:      NewExportService(repo, logger),
	}
}
