package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tams/internal/model"
	pkgerrors "tams/pkg/errors"
)

// ContractFilter 合同查询条件，空字段不参与过滤
type ContractFilter struct {
	NetID    string
	CourseID string
	Signed   *bool
}

// ContractRepository 助教合同数据访问接口
type ContractRepository interface {
	Create(ctx context.Context, c *model.Contract) error
	GetByKey(ctx context.Context, netID, courseID string) (*model.Contract, error)
	GetByKeyForUpdate(ctx context.Context, netID, courseID string) (*model.Contract, error)
	GetByIDForUpdate(ctx context.Context, contractID string) (*model.Contract, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	List(ctx context.Context, filter ContractFilter) ([]model.Contract, error)
	// AverageRatings 仅统计已签署且已评分的合同；无数据的 netID 不出现在结果中
	AverageRatings(ctx context.Context, netIDs []string) (map[string]float64, error)
	// Update 写回 duties / signed / rating / actual_worked_hours，带乐观锁
	Update(ctx context.Context, c *model.Contract) error
	Delete(ctx context.Context, contractID string) error
}

type contractRepo struct {
	db *gorm.DB
}

// NewContractRepo 创建 ContractRepository 实例
func NewContractRepo(db *gorm.DB) ContractRepository {
	return &contractRepo{db: db}
}

func (r *contractRepo) Create(ctx context.Context, c *model.Contract) error {
	if c.ContractID == "" {
		c.ContractID = uuid.New().String()
	}
	c.Version = 1
	err := r.db.WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateKey
	}
	return err
}

func (r *contractRepo) GetByKey(ctx context.Context, netID, courseID string) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Where("net_id = ? AND course_id = ?", netID, courseID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepo) GetByKeyForUpdate(ctx context.Context, netID, courseID string) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("net_id = ? AND course_id = ?", netID, courseID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepo) GetByIDForUpdate(ctx context.Context, contractID string) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_id = ?", contractID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contractRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *contractRepo) List(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	db := r.db.WithContext(ctx).Model(&model.Contract{})
	if filter.NetID != "" {
		db = db.Where("net_id = ?", filter.NetID)
	}
	if filter.CourseID != "" {
		db = db.Where("course_id = ?", filter.CourseID)
	}
	if filter.Signed != nil {
		db = db.Where("signed = ?", *filter.Signed)
	}

	var list []model.Contract
	err := db.Order("course_id ASC, created_at ASC").Find(&list).Error
	return list, err
}

type ratingRow struct {
	NetID string
	Avg   float64
}

func (r *contractRepo) AverageRatings(ctx context.Context, netIDs []string) (map[string]float64, error) {
	var rows []ratingRow
	err := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Select("net_id, AVG(rating) AS avg").
		Where("net_id IN ? AND signed = ? AND rating IS NOT NULL", netIDs, true).
		Group("net_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]float64, len(rows))
	for _, row := range rows {
		result[row.NetID] = row.Avg
	}
	return result, nil
}

func (r *contractRepo) Update(ctx context.Context, c *model.Contract) error {
	oldVersion := c.Version
	result := r.db.WithContext(ctx).
		Model(&model.Contract{}).
		Where("contract_id = ? AND version = ?", c.ContractID, oldVersion).
		Updates(map[string]interface{}{
			"duties":              c.Duties,
			"signed":              c.Signed,
			"rating":              c.Rating,
			"actual_worked_hours": c.ActualWorkedHours,
			"version":             oldVersion + 1,
			"updated_at":          gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	c.Version = oldVersion + 1
	return nil
}

func (r *contractRepo) Delete(ctx context.Context, contractID string) error {
	result := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&model.Contract{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
