package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Application     ApplicationRepository
	Contract        ContractRepository
	HourDeclaration HourDeclarationRepository
	Lock            LockRepository

	// runTx 为 nil 表示当前已处于事务中，Transaction 直接执行回调
	runTx func(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository 创建基于 PostgreSQL 的 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	r := newGormRepository(db)
	r.runTx = func(ctx context.Context, fn func(tx *Repository) error) error {
		return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(WithTx(tx))
		})
	}
	return r
}

// WithTx 返回绑定到事务 tx 的 Repository
func WithTx(tx *gorm.DB) *Repository {
	return newGormRepository(tx)
}

func newGormRepository(db *gorm.DB) *Repository {
	return &Repository{
		Application:     NewApplicationRepo(db),
		Contract:        NewContractRepo(db),
		HourDeclaration: NewHourDeclarationRepo(db),
		Lock:            NewLockRepo(db),
	}
}

// Transaction 在单个事务中执行 fn，fn 返回错误时回滚
// 所有"先检查状态、再写入"的操作都必须走这里
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.runTx == nil {
		return fn(r)
	}
	return r.runTx(ctx, fn)
}
