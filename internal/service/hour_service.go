package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tams/internal/dto"
	"tams/internal/model"
	"tams/internal/repository"
	applogger "tams/pkg/logger"
)

const dateLayout = "2006-01-02"

// HourService 工时申报业务接口
//
// 合同下已批准工时合计不得超过 MaxHours。申报时按已批准工时预检，
// 批准时在合同行锁内复核；驳回不占用额度。
type HourService interface {
	Submit(ctx context.Context, courseID, netID string, req *dto.SubmitHoursRequest) (*dto.HourDeclarationResponse, error)
	// Approve 审核结果不可更改，重复审核一律报错
	Approve(ctx context.Context, declarationID string, accept bool) (*dto.HourDeclarationResponse, error)
	GetOpen(ctx context.Context, courseID, netID string) ([]dto.HourDeclarationResponse, error)
	Get(ctx context.Context, declarationID string) (*dto.HourDeclarationResponse, error)
	ListByContract(ctx context.Context, netID, courseID string) ([]dto.HourDeclarationResponse, error)
}

type hourService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewHourService 创建 HourService 实例
func NewHourService(repo *repository.Repository, logger *zap.Logger) HourService {
	return &hourService{repo: repo, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *hourService) Submit(ctx context.Context, courseID, netID string, req *dto.SubmitHoursRequest) (*dto.HourDeclarationResponse, error) {
	contract, err := s.repo.Contract.GetByKey(ctx, netID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		s.logger.Error("查询合同失败", zap.String("net_id", netID), zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if req.WorkedTime <= 0 {
		return nil, ErrWorkedTimeInvalid
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, ErrDateInvalid
	}

	decl := &model.HourDeclaration{
		ContractID:  contract.ContractID,
		CourseID:    contract.CourseID,
		NetID:       contract.NetID,
		WorkedTime:  req.WorkedTime,
		Description: req.Description,
		Date:        date,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := tx.Contract.GetByIDForUpdate(ctx, contract.ContractID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		approved, err := tx.HourDeclaration.SumApproved(ctx, c.ContractID, "")
		if err != nil {
			return err
		}
		if approved+req.WorkedTime > c.MaxHours {
			return ErrHoursExceeded
		}
		return tx.HourDeclaration.Create(ctx, decl)
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("申报工时失败", zap.String("contract_id", contract.ContractID), zap.Error(err))
		}
		return nil, err
	}

	return toHourDeclarationResponse(decl), nil
}

// ────────────────────── Approve ──────────────────────

func (s *hourService) Approve(ctx context.Context, declarationID string, accept bool) (*dto.HourDeclarationResponse, error) {
	if declarationID == "" {
		return nil, ErrDeclarationNotFound
	}

	var decl *model.HourDeclaration
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		d, err := tx.HourDeclaration.GetByIDForUpdate(ctx, declarationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDeclarationNotFound
			}
			return err
		}
		if d.Reviewed {
			return ErrDeclarationReviewed
		}

		var contract *model.Contract
		if accept {
			contract, err = tx.Contract.GetByIDForUpdate(ctx, d.ContractID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrContractNotFound
				}
				return err
			}
			others, err := tx.HourDeclaration.SumApproved(ctx, d.ContractID, d.DeclarationID)
			if err != nil {
				return err
			}
			if others+d.WorkedTime > contract.MaxHours {
				return ErrHoursExceeded
			}
		}

		d.Approved = &accept
		d.Reviewed = true
		if err := tx.HourDeclaration.Update(ctx, d); err != nil {
			return err
		}

		// 实际工时仅在已签署合同上累加
		if contract != nil && contract.Signed {
			contract.ActualWorkedHours += d.WorkedTime
			if err := tx.Contract.Update(ctx, contract); err != nil {
				return err
			}
		}

		decl = d
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("审核工时失败", zap.String("declaration_id", declarationID), zap.Error(err))
		}
		return nil, err
	}

	applogger.FromContext(ctx, s.logger).Info("工时申报已审核",
		zap.String("declaration_id", decl.DeclarationID),
		zap.String("contract_id", decl.ContractID),
		zap.Bool("approved", accept),
	)
	return toHourDeclarationResponse(decl), nil
}

// ────────────────────── Queries ──────────────────────

func (s *hourService) GetOpen(ctx context.Context, courseID, netID string) ([]dto.HourDeclarationResponse, error) {
	list, err := s.repo.HourDeclaration.ListOpen(ctx, courseID, netID)
	if err != nil {
		s.logger.Error("列出待审核工时失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return toHourDeclarationResponses(list), nil
}

func (s *hourService) Get(ctx context.Context, declarationID string) (*dto.HourDeclarationResponse, error) {
	if declarationID == "" {
		return nil, ErrDeclarationNotFound
	}
	d, err := s.repo.HourDeclaration.GetByID(ctx, declarationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeclarationNotFound
		}
		s.logger.Error("查询工时申报失败", zap.String("declaration_id", declarationID), zap.Error(err))
		return nil, err
	}
	return toHourDeclarationResponse(d), nil
}

func (s *hourService) ListByContract(ctx context.Context, netID, courseID string) ([]dto.HourDeclarationResponse, error) {
	contract, err := s.repo.Contract.GetByKey(ctx, netID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		s.logger.Error("查询合同失败", zap.String("net_id", netID), zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}

	list, err := s.repo.HourDeclaration.ListByContract(ctx, contract.ContractID)
	if err != nil {
		s.logger.Error("列出工时申报失败", zap.String("contract_id", contract.ContractID), zap.Error(err))
		return nil, err
	}
	return toHourDeclarationResponses(list), nil
}

// ── 内部辅助方法 ──

func toHourDeclarationResponse(d *model.HourDeclaration) *dto.HourDeclarationResponse {
	return &dto.HourDeclarationResponse{
		ID:          d.DeclarationID,
		ContractID:  d.ContractID,
		CourseID:    d.CourseID,
		NetID:       d.NetID,
		WorkedTime:  d.WorkedTime,
		Description: d.Description,
		Date:        d.Date.Format(dateLayout),
		Approved:    d.Approved,
		Reviewed:    d.Reviewed,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
}

func toHourDeclarationResponses(list []model.HourDeclaration) []dto.HourDeclarationResponse {
	result := make([]dto.HourDeclarationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toHourDeclarationResponse(&list[i]))
	}
	return result
}
