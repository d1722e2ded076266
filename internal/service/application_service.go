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
	"tams/pkg/clock"
	pkgerrors "tams/pkg/errors"
	applogger "tams/pkg/logger"
)

// 申请规则
const (
	MaxPendingApplications = 3
	MinGrade               = 1.0
	MaxGrade               = 10.0
	PassingGrade           = 6.0
)

const lockScopeNetID = "net_id"

// ApplicationService 助教申请业务接口
//
// 状态机：pending 为唯一初始状态，accepted / rejected 为终态；
// 撤回仅允许 pending 且在截止时间之前。
type ApplicationService interface {
	Submit(ctx context.Context, courseID, netID string, req *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error)
	// Withdraw 截止后返回 false 且不报错
	Withdraw(ctx context.Context, courseID, netID string) (bool, error)
	Accept(ctx context.Context, courseID, netID string, req *dto.AcceptApplicationRequest) (*dto.ContractResponse, error)
	Reject(ctx context.Context, courseID, netID string) (*dto.ApplicationResponse, error)
	GetStatus(ctx context.Context, courseID, netID string) (*dto.ApplicationResponse, error)
	ListByNetID(ctx context.Context, netID string) ([]dto.ApplicationResponse, error)
	ListPending(ctx context.Context, courseID string) ([]dto.RatedApplicationResponse, error)
	Recommend(ctx context.Context, courseID string, amount int) ([]dto.RatedApplicationResponse, error)
}

type applicationService struct {
	repo      *repository.Repository
	courses   CourseDirectory
	contracts ContractFactory
	ratings   RatingProvider
	clock     clock.Clock
	logger    *zap.Logger
}

// NewApplicationService 创建 ApplicationService 实例
func NewApplicationService(
	repo *repository.Repository,
	courses CourseDirectory,
	contracts ContractFactory,
	ratings RatingProvider,
	clk clock.Clock,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		repo:      repo,
		courses:   courses,
		contracts: contracts,
		ratings:   ratings,
		clock:     clk,
		logger:    logger,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *applicationService) Submit(ctx context.Context, courseID, netID string, req *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error) {
	// 校验顺序对外可见：名额 → 课程 → 成绩范围 → 及格线 → 截止时间
	if err := s.checkCandidacy(ctx, s.repo, netID); err != nil {
		return nil, err
	}

	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if req.Grade < MinGrade || req.Grade > MaxGrade {
		return nil, ErrGradeOutOfRange
	}
	if req.Grade < PassingGrade {
		return nil, ErrGradeBelowRequirement
	}
	if !IsBeforeDeadline(s.clock, course) {
		return nil, ErrApplicationDeadlinePast
	}

	app := &model.Application{
		CourseID:     courseID,
		NetID:        netID,
		Grade:        req.Grade,
		Motivation:   req.Motivation,
		Status:       model.ApplicationPending,
		ContactEmail: req.ContactEmail,
	}

	// netID 级锁内复核名额后插入
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Lock.Acquire(ctx, lockScopeNetID, netID); err != nil {
			return err
		}
		if err := s.checkCandidacy(ctx, tx, netID); err != nil {
			return err
		}
		if err := tx.Application.Create(ctx, app); err != nil {
			if errors.Is(err, pkgerrors.ErrDuplicateKey) {
				return ErrApplicationExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("提交申请失败", zap.String("course_id", courseID), zap.String("net_id", netID), zap.Error(err))
		}
		return nil, err
	}

	return toApplicationResponse(app), nil
}

// ────────────────────── Withdraw ──────────────────────

func (s *applicationService) Withdraw(ctx context.Context, courseID, netID string) (bool, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return false, err
	}

	withdrawn := false
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		app, err := tx.Application.GetByKeyForUpdate(ctx, courseID, netID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if !app.IsPending() {
			return ErrApplicationNotPending
		}
		if !IsBeforeDeadline(s.clock, course) {
			return nil
		}
		if err := tx.Application.Delete(ctx, courseID, netID); err != nil {
			return err
		}
		withdrawn = true
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("撤回申请失败", zap.String("course_id", courseID), zap.String("net_id", netID), zap.Error(err))
		}
		return false, err
	}

	return withdrawn, nil
}

// ────────────────────── Accept ──────────────────────

// Accept 先创建合同，再确认申请状态；确认失败时删除合同作为补偿
func (s *applicationService) Accept(ctx context.Context, courseID, netID string, req *dto.AcceptApplicationRequest) (*dto.ContractResponse, error) {
	app, err := s.getApplication(ctx, courseID, netID)
	if err != nil {
		return nil, err
	}
	if !app.IsPending() {
		return nil, ErrApplicationNotPending
	}

	contract, err := s.contracts.CreateContract(ctx, CreateContractParams{
		NetID:        netID,
		CourseID:     courseID,
		MaxHours:     req.MaxHours,
		Duties:       req.Duties,
		ContactEmail: app.ContactEmail,
	})
	if err != nil {
		return nil, err
	}

	if err := s.transition(ctx, courseID, netID, model.ApplicationAccepted); err != nil {
		if derr := s.contracts.DiscardContract(ctx, contract.ContractID); derr != nil {
			s.logger.Error("录取确认失败且合同补偿失败",
				zap.String("contract_id", contract.ContractID),
				zap.NamedError("confirm_error", err),
				zap.NamedError("discard_error", derr),
			)
		}
		return nil, err
	}

	s.contracts.NotifyHired(ctx, contract, app.ContactEmail)

	applogger.FromContext(ctx, s.logger).Info("申请已录取", zap.String("course_id", courseID), zap.String("net_id", netID))
	return toContractResponse(contract), nil
}

// ────────────────────── Reject ──────────────────────

func (s *applicationService) Reject(ctx context.Context, courseID, netID string) (*dto.ApplicationResponse, error) {
	if err := s.transition(ctx, courseID, netID, model.ApplicationRejected); err != nil {
		return nil, err
	}
	return s.GetStatus(ctx, courseID, netID)
}

// ────────────────────── Queries ──────────────────────

func (s *applicationService) GetStatus(ctx context.Context, courseID, netID string) (*dto.ApplicationResponse, error) {
	app, err := s.getApplication(ctx, courseID, netID)
	if err != nil {
		return nil, err
	}
	return toApplicationResponse(app), nil
}

func (s *applicationService) ListByNetID(ctx context.Context, netID string) ([]dto.ApplicationResponse, error) {
	apps, err := s.repo.Application.ListByNetID(ctx, netID)
	if err != nil {
		s.logger.Error("列出申请失败", zap.String("net_id", netID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.ApplicationResponse, 0, len(apps))
	for i := range apps {
		result = append(result, *toApplicationResponse(&apps[i]))
	}
	return result, nil
}

func (s *applicationService) ListPending(ctx context.Context, courseID string) ([]dto.RatedApplicationResponse, error) {
	ranked, err := s.pendingWithRatings(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toRatedResponses(ranked), nil
}

func (s *applicationService) Recommend(ctx context.Context, courseID string, amount int) ([]dto.RatedApplicationResponse, error) {
	ranked, err := s.pendingWithRatings(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return toRatedResponses(Rank(ranked, amount)), nil
}

// ── 内部辅助方法 ──

func (s *applicationService) checkCandidacy(ctx context.Context, repo *repository.Repository, netID string) error {
	pending, err := repo.Application.CountPendingByNetID(ctx, netID)
	if err != nil {
		s.logger.Error("统计待处理申请失败", zap.String("net_id", netID), zap.Error(err))
		return err
	}
	if pending >= MaxPendingApplications {
		return ErrCandidacyLimitReached
	}
	return nil
}

func (s *applicationService) getCourse(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.courses.GetCourse(ctx, courseID)
	if err != nil || course == nil {
		s.logger.Warn("课程查询失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, ErrCourseNotFound
	}
	return course, nil
}

func (s *applicationService) getApplication(ctx context.Context, courseID, netID string) (*model.Application, error) {
	app, err := s.repo.Application.GetByKey(ctx, courseID, netID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		s.logger.Error("查询申请失败", zap.String("course_id", courseID), zap.String("net_id", netID), zap.Error(err))
		return nil, err
	}
	return app, nil
}

// transition 行锁内完成 pending → to
func (s *applicationService) transition(ctx context.Context, courseID, netID string, to model.ApplicationStatus) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		app, err := tx.Application.GetByKeyForUpdate(ctx, courseID, netID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrApplicationNotFound
			}
			return err
		}
		if !app.IsPending() {
			return ErrApplicationNotPending
		}
		if err := tx.Application.UpdateStatus(ctx, app, to); err != nil {
			if errors.Is(err, pkgerrors.ErrOptimisticLock) {
				return ErrApplicationNotPending
			}
			return err
		}
		return nil
	})
	if err != nil && !isBusinessError(err) {
		s.logger.Error("更新申请状态失败",
			zap.String("course_id", courseID),
			zap.String("net_id", netID),
			zap.String("to", string(to)),
			zap.Error(err),
		)
	}
	return err
}

func (s *applicationService) pendingWithRatings(ctx context.Context, courseID string) ([]RankedApplication, error) {
	apps, err := s.repo.Application.ListByCourse(ctx, courseID, model.ApplicationPending)
	if err != nil {
		s.logger.Error("列出待处理申请失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	if len(apps) == 0 {
		return []RankedApplication{}, nil
	}

	netIDs := make([]string, 0, len(apps))
	for i := range apps {
		netIDs = append(netIDs, apps[i].NetID)
	}
	ratings, err := s.ratings.AverageRatings(ctx, netIDs)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedApplication, 0, len(apps))
	for i := range apps {
		rating, ok := ratings[apps[i].NetID]
		if !ok {
			rating = NoRating
		}
		ranked = append(ranked, RankedApplication{Application: apps[i], Rating: rating})
	}
	return ranked, nil
}

func toApplicationResponse(app *model.Application) *dto.ApplicationResponse {
	return &dto.ApplicationResponse{
		CourseID:     app.CourseID,
		NetID:        app.NetID,
		Grade:        app.Grade,
		Motivation:   app.Motivation,
		Status:       string(app.Status),
		ContactEmail: app.ContactEmail,
		CreatedAt:    app.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    app.UpdatedAt.Format(time.RFC3339),
	}
}

func toRatedResponses(ranked []RankedApplication) []dto.RatedApplicationResponse {
	result := make([]dto.RatedApplicationResponse, 0, len(ranked))
	for i := range ranked {
		result = append(result, dto.RatedApplicationResponse{
			ApplicationResponse: *toApplicationResponse(&ranked[i].Application),
			Rating:              ranked[i].Rating,
		})
	}
	return result
}
