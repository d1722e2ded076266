package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tams/internal/model"
	pkgerrors "tams/pkg/errors"
)

// ApplicationRepository 助教申请数据访问接口
type ApplicationRepository interface {
	Create(ctx context.Context, app *model.Application) error
	GetByKey(ctx context.Context, courseID, netID string) (*model.Application, error)
	// GetByKeyForUpdate 读取并锁定记录直到事务结束
	GetByKeyForUpdate(ctx context.Context, courseID, netID string) (*model.Application, error)
	CountPendingByNetID(ctx context.Context, netID string) (int64, error)
	// ListByCourse status 为空时返回全部状态，按提交先后排序
	ListByCourse(ctx context.Context, courseID string, status model.ApplicationStatus) ([]model.Application, error)
	ListByNetID(ctx context.Context, netID string) ([]model.Application, error)
	UpdateStatus(ctx context.Context, app *model.Application, status model.ApplicationStatus) error
	Delete(ctx context.Context, courseID, netID string) error
}

type applicationRepo struct {
	db *gorm.DB
}

// NewApplicationRepo 创建 ApplicationRepository 实例
func NewApplicationRepo(db *gorm.DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func (r *applicationRepo) Create(ctx context.Context, app *model.Application) error {
	if app.Status == "" {
		app.Status = model.ApplicationPending
	}
	app.Version = 1
	err := r.db.WithContext(ctx).Create(app).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateKey
	}
	return err
}

func (r *applicationRepo) GetByKey(ctx context.Context, courseID, netID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND net_id = ?", courseID, netID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) GetByKeyForUpdate(ctx context.Context, courseID, netID string) (*model.Application, error) {
	var app model.Application
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("course_id = ? AND net_id = ?", courseID, netID).
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepo) CountPendingByNetID(ctx context.Context, netID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("net_id = ? AND status = ?", netID, model.ApplicationPending).
		Count(&n).Error
	return n, err
}

func (r *applicationRepo) ListByCourse(ctx context.Context, courseID string, status model.ApplicationStatus) ([]model.Application, error) {
	var apps []model.Application
	db := r.db.WithContext(ctx).Where("course_id = ?", courseID)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at ASC, net_id ASC").Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) ListByNetID(ctx context.Context, netID string) ([]model.Application, error) {
	var apps []model.Application
	err := r.db.WithContext(ctx).
		Where("net_id = ?", netID).
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, app *model.Application, status model.ApplicationStatus) error {
	oldVersion := app.Version
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("course_id = ? AND net_id = ? AND version = ?", app.CourseID, app.NetID, oldVersion).
		Updates(map[string]interface{}{
			"status":     status,
			"version":    oldVersion + 1,
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	app.Status = status
	app.Version = oldVersion + 1
	return nil
}

func (r *applicationRepo) Delete(ctx context.Context, courseID, netID string) error {
	result := r.db.WithContext(ctx).
		Where("course_id = ? AND net_id = ?", courseID, netID).
		Delete(&model.Application{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
