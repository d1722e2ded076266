package service

import (
	"bytes"
	"context"
	"errors"
	"text/template"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"tams/internal/dto"
	"tams/internal/model"
	"tams/internal/repository"
	pkgerrors "tams/pkg/errors"
	applogger "tams/pkg/logger"
)

// CreateContractParams 创建合同参数
type CreateContractParams struct {
	NetID        string
	CourseID     string
	MaxHours     int
	Duties       string
	ContactEmail *string
}

// ContractFactory 申请录取流程所需的合同能力
type ContractFactory interface {
	// CreateContract 校验名额并落库，不发送通知
	CreateContract(ctx context.Context, params CreateContractParams) (*model.Contract, error)
	// DiscardContract 补偿：录取确认失败时删除刚创建的合同
	DiscardContract(ctx context.Context, contractID string) error
	// NotifyHired 向联系邮箱发送录用通知，失败只记日志
	NotifyHired(ctx context.Context, contract *model.Contract, contactEmail *string)
}

// RatingProvider 历史平均评分
type RatingProvider interface {
	// AverageRatings 无记录的 netID 返回 NoRating
	AverageRatings(ctx context.Context, netIDs []string) (map[string]float64, error)
}

// ContractService 合同业务接口
type ContractService interface {
	ContractFactory
	RatingProvider

	Create(ctx context.Context, courseID string, req *dto.CreateContractRequest) (*dto.ContractResponse, error)
	Sign(ctx context.Context, netID, courseID string) (*dto.ContractResponse, error)
	Rate(ctx context.Context, netID, courseID string, rating float64) (*dto.ContractResponse, error)
	UpdateHours(ctx context.Context, netID, courseID string, hours int) (*dto.ContractResponse, error)
	Get(ctx context.Context, netID, courseID string) (*dto.ContractResponse, error)
	List(ctx context.Context, filter repository.ContractFilter) ([]dto.ContractResponse, error)
}

type contractService struct {
	repo     *repository.Repository
	courses  CourseDirectory
	notifier Notifier
	logger   *zap.Logger
}

// NewContractService 创建 ContractService 实例
func NewContractService(repo *repository.Repository, courses CourseDirectory, notifier Notifier, logger *zap.Logger) ContractService {
	return &contractService{repo: repo, courses: courses, notifier: notifier, logger: logger}
}

const lockScopeCourse = "course"

// ────────────────────── CreateContract ──────────────────────

func (s *contractService) CreateContract(ctx context.Context, params CreateContractParams) (*model.Contract, error) {
	if params.NetID == "" || params.CourseID == "" {
		return nil, ErrContractKeyRequired
	}
	if params.MaxHours <= 0 {
		return nil, ErrMaxHoursInvalid
	}

	if _, err := s.repo.Contract.GetByKey(ctx, params.NetID, params.CourseID); err == nil {
		return nil, ErrContractExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询合同失败", zap.String("net_id", params.NetID), zap.String("course_id", params.CourseID), zap.Error(err))
		return nil, err
	}

	course, err := s.courses.GetCourse(ctx, params.CourseID)
	if err != nil || course == nil {
		s.logger.Warn("课程查询失败", zap.String("course_id", params.CourseID), zap.Error(err))
		return nil, ErrCourseNotFound
	}
	allowed := Capacity(course.StudentCount)

	contract := &model.Contract{
		CourseID: params.CourseID,
		NetID:    params.NetID,
		MaxHours: params.MaxHours,
		Duties:   params.Duties,
	}

	// 课程级锁内完成 计数 + 插入，防止并发超额
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Lock.Acquire(ctx, lockScopeCourse, params.CourseID); err != nil {
			return err
		}
		current, err := tx.Contract.CountByCourse(ctx, params.CourseID)
		if err != nil {
			return err
		}
		if current >= allowed {
			return ErrCapacityReached
		}
		if err := tx.Contract.Create(ctx, contract); err != nil {
			if errors.Is(err, pkgerrors.ErrDuplicateKey) {
				return ErrContractExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("创建合同失败", zap.String("course_id", params.CourseID), zap.Error(err))
		}
		return nil, err
	}

	applogger.FromContext(ctx, s.logger).Info("合同已创建",
		zap.String("contract_id", contract.ContractID),
		zap.String("course_id", contract.CourseID),
		zap.String("net_id", contract.NetID),
	)
	return contract, nil
}

// ────────────────────── DiscardContract ──────────────────────

func (s *contractService) DiscardContract(ctx context.Context, contractID string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Contract.Delete(ctx, contractID)
	})
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("补偿删除合同失败", zap.String("contract_id", contractID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── NotifyHired ──────────────────────

var (
	hiredSubjectTmpl = template.Must(template.New("subject").Parse(
		`你已被录用为课程 {{.CourseID}} 的助教`))
	hiredBodyTmpl = template.Must(template.New("body").Parse(
		`{{.NetID}}，你好：

你已被录用为课程 {{.CourseID}} 的助教。
工作职责：{{.Duties}}
最大工时：{{.MaxHours}} 小时

请登录系统查看并签署合同。
`))
)

func (s *contractService) NotifyHired(ctx context.Context, contract *model.Contract, contactEmail *string) {
	if contactEmail == nil || *contactEmail == "" || s.notifier == nil {
		return
	}

	var subject, body bytes.Buffer
	if err := hiredSubjectTmpl.Execute(&subject, contract); err != nil {
		s.logger.Warn("渲染录用通知失败", zap.Error(err))
		return
	}
	if err := hiredBodyTmpl.Execute(&body, contract); err != nil {
		s.logger.Warn("渲染录用通知失败", zap.Error(err))
		return
	}

	if err := s.notifier.SendEmail(ctx, *contactEmail, subject.String(), body.String()); err != nil {
		s.logger.Warn("录用通知发送失败",
			zap.String("contract_id", contract.ContractID),
			zap.String("to", *contactEmail),
			zap.Error(err),
		)
	}
}

// ────────────────────── Create ──────────────────────

func (s *contractService) Create(ctx context.Context, courseID string, req *dto.CreateContractRequest) (*dto.ContractResponse, error) {
	contract, err := s.CreateContract(ctx, CreateContractParams{
		NetID:        req.NetID,
		CourseID:     courseID,
		MaxHours:     req.MaxHours,
		Duties:       req.Duties,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		return nil, err
	}

	s.NotifyHired(ctx, contract, req.ContactEmail)
	return toContractResponse(contract), nil
}

// ────────────────────── Sign ──────────────────────

func (s *contractService) Sign(ctx context.Context, netID, courseID string) (*dto.ContractResponse, error) {
	return s.mutate(ctx, netID, courseID, func(c *model.Contract) error {
		if c.Signed {
			return ErrContractAlreadySigned
		}
		c.Signed = true
		return nil
	})
}

// ────────────────────── Rate ──────────────────────

// Rate 覆盖评分；取值范围由调用方校验
func (s *contractService) Rate(ctx context.Context, netID, courseID string, rating float64) (*dto.ContractResponse, error) {
	return s.mutate(ctx, netID, courseID, func(c *model.Contract) error {
		c.Rating = &rating
		return nil
	})
}

// ────────────────────── UpdateHours ──────────────────────

func (s *contractService) UpdateHours(ctx context.Context, netID, courseID string, hours int) (*dto.ContractResponse, error) {
	return s.mutate(ctx, netID, courseID, func(c *model.Contract) error {
		if !c.Signed {
			return ErrContractNotSigned
		}
		if hours < 0 {
			return ErrActualHoursNegative
		}
		c.ActualWorkedHours = hours
		return nil
	})
}

// ────────────────────── Get / List ──────────────────────

func (s *contractService) Get(ctx context.Context, netID, courseID string) (*dto.ContractResponse, error) {
	contract, err := s.repo.Contract.GetByKey(ctx, netID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContractNotFound
		}
		s.logger.Error("查询合同失败", zap.String("net_id", netID), zap.String("course_id", courseID), zap.Error(err))
		return nil, err
	}
	return toContractResponse(contract), nil
}

func (s *contractService) List(ctx context.Context, filter repository.ContractFilter) ([]dto.ContractResponse, error) {
	contracts, err := s.repo.Contract.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出合同失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ContractResponse, 0, len(contracts))
	for i := range contracts {
		result = append(result, *toContractResponse(&contracts[i]))
	}
	return result, nil
}

// ────────────────────── AverageRatings ──────────────────────

func (s *contractService) AverageRatings(ctx context.Context, netIDs []string) (map[string]float64, error) {
	if len(netIDs) == 0 {
		return nil, ErrNetIDsRequired
	}

	unique := make([]string, 0, len(netIDs))
	seen := make(map[string]struct{}, len(netIDs))
	for _, id := range netIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	avg, err := s.repo.Contract.AverageRatings(ctx, unique)
	if err != nil {
		s.logger.Error("统计平均评分失败", zap.Int("count", len(unique)), zap.Error(err))
		return nil, err
	}

	result := make(map[string]float64, len(unique))
	for _, id := range unique {
		if v, ok := avg[id]; ok {
			result[id] = v
		} else {
			result[id] = NoRating
		}
	}
	return result, nil
}

// ── 内部辅助方法 ──

// mutate 行锁内读取合同、应用变更并写回
func (s *contractService) mutate(ctx context.Context, netID, courseID string, apply func(c *model.Contract) error) (*dto.ContractResponse, error) {
	var contract *model.Contract
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		c, err := tx.Contract.GetByKeyForUpdate(ctx, netID, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrContractNotFound
			}
			return err
		}
		if err := apply(c); err != nil {
			return err
		}
		if err := tx.Contract.Update(ctx, c); err != nil {
			return err
		}
		contract = c
		return nil
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("更新合同失败", zap.String("net_id", netID), zap.String("course_id", courseID), zap.Error(err))
		}
		return nil, err
	}
	return toContractResponse(contract), nil
}

func toContractResponse(c *model.Contract) *dto.ContractResponse {
	return &dto.ContractResponse{
		ID:                c.ContractID,
		CourseID:          c.CourseID,
		NetID:             c.NetID,
		MaxHours:          c.MaxHours,
		Duties:            c.Duties,
		Signed:            c.Signed,
		Rating:            c.Rating,
		ActualWorkedHours: c.ActualWorkedHours,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         c.UpdatedAt.Format(time.RFC3339),
	}
}
