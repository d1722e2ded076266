package repository

import (
	"context"

	"gorm.io/gorm"
)

// LockRepository 事务级命名锁
type LockRepository interface {
	// Acquire 阻塞直到获得 (scope, key) 锁，事务提交或回滚时自动释放。
	// 只能在 Repository.Transaction 内调用。
	Acquire(ctx context.Context, scope, key string) error
}

type lockRepo struct {
	db *gorm.DB
}

// NewLockRepo 创建基于 pg_advisory_xact_lock 的 LockRepository
func NewLockRepo(db *gorm.DB) LockRepository {
	return &lockRepo{db: db}
}

func (r *lockRepo) Acquire(ctx context.Context, scope, key string) error {
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", scope+":"+key).Error
}
