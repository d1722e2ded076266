package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tams/internal/model"
	pkgerrors "tams/pkg/errors"
)

// HourDeclarationRepository 工时申报数据访问接口
type HourDeclarationRepository interface {
	Create(ctx context.Context, d *model.HourDeclaration) error
	GetByID(ctx context.Context, id string) (*model.HourDeclaration, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.HourDeclaration, error)
	// SumApproved 合同下已批准工时合计；excludeID 非空时排除该申报
	SumApproved(ctx context.Context, contractID, excludeID string) (int, error)
	// ListOpen 未审核申报；netID 为空时返回整门课程
	ListOpen(ctx context.Context, courseID, netID string) ([]model.HourDeclaration, error)
	ListByContract(ctx context.Context, contractID string) ([]model.HourDeclaration, error)
	// Update 写回 approved / reviewed，带乐观锁
	Update(ctx context.Context, d *model.HourDeclaration) error
}

type hourDeclarationRepo struct {
	db *gorm.DB
}

// NewHourDeclarationRepo 创建 HourDeclarationRepository 实例
func NewHourDeclarationRepo(db *gorm.DB) HourDeclarationRepository {
	return &hourDeclarationRepo{db: db}
}

func (r *hourDeclarationRepo) Create(ctx context.Context, d *model.HourDeclaration) error {
	if d.DeclarationID == "" {
		d.DeclarationID = uuid.New().String()
	}
	d.Version = 1
	return r.db.WithContext(ctx).Omit("Contract").Create(d).Error
}

func (r *hourDeclarationRepo) GetByID(ctx context.Context, id string) (*model.HourDeclaration, error) {
	var d model.HourDeclaration
	err := r.db.WithContext(ctx).
		Where("declaration_id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *hourDeclarationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.HourDeclaration, error) {
	var d model.HourDeclaration
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("declaration_id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *hourDeclarationRepo) SumApproved(ctx context.Context, contractID, excludeID string) (int, error) {
	var total int
	db := r.db.WithContext(ctx).
		Model(&model.HourDeclaration{}).
		Select("COALESCE(SUM(worked_time), 0)").
		Where("contract_id = ? AND reviewed = ? AND approved = ?", contractID, true, true)
	if excludeID != "" {
		db = db.Where("declaration_id <> ?", excludeID)
	}
	err := db.Scan(&total).Error
	return total, err
}

func (r *hourDeclarationRepo) ListOpen(ctx context.Context, courseID, netID string) ([]model.HourDeclaration, error) {
	db := r.db.WithContext(ctx).
		Where("course_id = ? AND reviewed = ?", courseID, false)
	if netID != "" {
		db = db.Where("net_id = ?", netID)
	}

	list := make([]model.HourDeclaration, 0)
	err := db.Order("date ASC, created_at ASC").Find(&list).Error
	return list, err
}

func (r *hourDeclarationRepo) ListByContract(ctx context.Context, contractID string) ([]model.HourDeclaration, error) {
	list := make([]model.HourDeclaration, 0)
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("date ASC, created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *hourDeclarationRepo) Update(ctx context.Context, d *model.HourDeclaration) error {
	oldVersion := d.Version
	result := r.db.WithContext(ctx).
		Model(&model.HourDeclaration{}).
		Where("declaration_id = ? AND version = ?", d.DeclarationID, oldVersion).
		Updates(map[string]interface{}{
			"approved":   d.Approved,
			"reviewed":   d.Reviewed,
			"version":    oldVersion + 1,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	d.Version = oldVersion + 1
	return nil
}
