package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"tams/internal/model"
	pkgerrors "tams/pkg/errors"
)

// ────────────────────── 内存存储（开发 / 单测） ──────────────────────
//
// 与 gorm 实现语义保持一致：未命中返回 gorm.ErrRecordNotFound，
// 唯一键冲突返回 ErrDuplicateKey，版本不匹配返回 ErrOptimisticLock。
// Transaction 以全局互斥串行执行，回调出错时恢复快照。

type appKey struct {
	courseID string
	netID    string
}

type memApplication struct {
	seq int64
	app model.Application
}

type memStore struct {
	mu           sync.RWMutex
	seq          int64
	applications map[appKey]*memApplication
	contracts    map[string]*model.Contract
	declarations map[string]*model.HourDeclaration
}

type memSnapshot struct {
	seq          int64
	applications map[appKey]*memApplication
	contracts    map[string]*model.Contract
	declarations map[string]*model.HourDeclaration
}

// NewMemoryRepository 创建进程内 Repository
func NewMemoryRepository() *Repository {
	s := &memStore{
		applications: make(map[appKey]*memApplication),
		contracts:    make(map[string]*model.Contract),
		declarations: make(map[string]*model.HourDeclaration),
	}

	inner := &Repository{
		Application:     &memApplicationRepo{s: s},
		Contract:        &memContractRepo{s: s},
		HourDeclaration: &memHourDeclarationRepo{s: s},
		Lock:            memLockRepo{},
	}

	var txMu sync.Mutex
	outer := *inner
	outer.runTx = func(ctx context.Context, fn func(tx *Repository) error) error {
		txMu.Lock()
		defer txMu.Unlock()

		if err := ctx.Err(); err != nil {
			return err
		}
		snap := s.snapshot()
		if err := fn(inner); err != nil {
			s.restore(snap)
			return err
		}
		return nil
	}
	return &outer
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := memSnapshot{
		seq:          s.seq,
		applications: make(map[appKey]*memApplication, len(s.applications)),
		contracts:    make(map[string]*model.Contract, len(s.contracts)),
		declarations: make(map[string]*model.HourDeclaration, len(s.declarations)),
	}
	for k, v := range s.applications {
		snap.applications[k] = &memApplication{seq: v.seq, app: cloneApplication(v.app)}
	}
	for k, v := range s.contracts {
		c := cloneContract(*v)
		snap.contracts[k] = &c
	}
	for k, v := range s.declarations {
		d := cloneDeclaration(*v)
		snap.declarations[k] = &d
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = snap.seq
	s.applications = snap.applications
	s.contracts = snap.contracts
	s.declarations = snap.declarations
}

func cloneApplication(a model.Application) model.Application {
	if a.ContactEmail != nil {
		email := *a.ContactEmail
		a.ContactEmail = &email
	}
	return a
}

func cloneContract(c model.Contract) model.Contract {
	if c.Rating != nil {
		rating := *c.Rating
		c.Rating = &rating
	}
	return c
}

func cloneDeclaration(d model.HourDeclaration) model.HourDeclaration {
	if d.Approved != nil {
		approved := *d.Approved
		d.Approved = &approved
	}
	d.Contract = nil
	return d
}

// ── Lock ──

type memLockRepo struct{}

// Acquire 内存事务已全局串行，无需额外加锁
func (memLockRepo) Acquire(context.Context, string, string) error { return nil }

// ── Application ──

type memApplicationRepo struct {
	s *memStore
}

func (r *memApplicationRepo) Create(_ context.Context, app *model.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := appKey{app.CourseID, app.NetID}
	if _, ok := r.s.applications[key]; ok {
		return pkgerrors.ErrDuplicateKey
	}
	if app.Status == "" {
		app.Status = model.ApplicationPending
	}
	now := time.Now()
	app.Version = 1
	app.CreatedAt = now
	app.UpdatedAt = now

	r.s.seq++
	r.s.applications[key] = &memApplication{seq: r.s.seq, app: cloneApplication(*app)}
	return nil
}

func (r *memApplicationRepo) GetByKey(_ context.Context, courseID, netID string) (*model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if v, ok := r.s.applications[appKey{courseID, netID}]; ok {
		app := cloneApplication(v.app)
		return &app, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memApplicationRepo) GetByKeyForUpdate(ctx context.Context, courseID, netID string) (*model.Application, error) {
	return r.GetByKey(ctx, courseID, netID)
}

func (r *memApplicationRepo) CountPendingByNetID(_ context.Context, netID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, v := range r.s.applications {
		if v.app.NetID == netID && v.app.Status == model.ApplicationPending {
			n++
		}
	}
	return n, nil
}

func (r *memApplicationRepo) query(match func(*model.Application) bool) []memApplication {
	rows := make([]memApplication, 0)
	for _, v := range r.s.applications {
		if match(&v.app) {
			rows = append(rows, memApplication{seq: v.seq, app: cloneApplication(v.app)})
		}
	}
	return rows
}

func (r *memApplicationRepo) ListByCourse(_ context.Context, courseID string, status model.ApplicationStatus) ([]model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := r.query(func(a *model.Application) bool {
		return a.CourseID == courseID && (status == "" || a.Status == status)
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	apps := make([]model.Application, len(rows))
	for i := range rows {
		apps[i] = rows[i].app
	}
	return apps, nil
}

func (r *memApplicationRepo) ListByNetID(_ context.Context, netID string) ([]model.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rows := r.query(func(a *model.Application) bool { return a.NetID == netID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	apps := make([]model.Application, len(rows))
	for i := range rows {
		apps[i] = rows[i].app
	}
	return apps, nil
}

func (r *memApplicationRepo) UpdateStatus(_ context.Context, app *model.Application, status model.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	v, ok := r.s.applications[appKey{app.CourseID, app.NetID}]
	if !ok || v.app.Version != app.Version {
		return pkgerrors.ErrOptimisticLock
	}
	v.app.Status = status
	v.app.Version++
	v.app.UpdatedAt = time.Now()

	app.Status = status
	app.Version = v.app.Version
	return nil
}

func (r *memApplicationRepo) Delete(_ context.Context, courseID, netID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := appKey{courseID, netID}
	if _, ok := r.s.applications[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.applications, key)
	return nil
}

// ── Contract ──

type memContractRepo struct {
	s *memStore
}

func (r *memContractRepo) find(netID, courseID string) *model.Contract {
	for _, c := range r.s.contracts {
		if c.NetID == netID && c.CourseID == courseID {
			return c
		}
	}
	return nil
}

func (r *memContractRepo) Create(_ context.Context, c *model.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.find(c.NetID, c.CourseID) != nil {
		return pkgerrors.ErrDuplicateKey
	}
	if c.ContractID == "" {
		c.ContractID = uuid.New().String()
	}
	now := time.Now()
	c.Version = 1
	c.CreatedAt = now
	c.UpdatedAt = now

	stored := cloneContract(*c)
	r.s.contracts[c.ContractID] = &stored
	return nil
}

func (r *memContractRepo) GetByKey(_ context.Context, netID, courseID string) (*model.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c := r.find(netID, courseID); c != nil {
		out := cloneContract(*c)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memContractRepo) GetByKeyForUpdate(ctx context.Context, netID, courseID string) (*model.Contract, error) {
	return r.GetByKey(ctx, netID, courseID)
}

func (r *memContractRepo) GetByIDForUpdate(_ context.Context, contractID string) (*model.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if c, ok := r.s.contracts[contractID]; ok {
		out := cloneContract(*c)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memContractRepo) CountByCourse(_ context.Context, courseID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, c := range r.s.contracts {
		if c.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (r *memContractRepo) List(_ context.Context, filter ContractFilter) ([]model.Contract, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	list := make([]model.Contract, 0)
	for _, c := range r.s.contracts {
		if filter.NetID != "" && c.NetID != filter.NetID {
			continue
		}
		if filter.CourseID != "" && c.CourseID != filter.CourseID {
			continue
		}
		if filter.Signed != nil && c.Signed != *filter.Signed {
			continue
		}
		list = append(list, cloneContract(*c))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CourseID != list[j].CourseID {
			return list[i].CourseID < list[j].CourseID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list, nil
}

func (r *memContractRepo) AverageRatings(_ context.Context, netIDs []string) (map[string]float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(netIDs))
	for _, id := range netIDs {
		wanted[id] = struct{}{}
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, c := range r.s.contracts {
		if _, ok := wanted[c.NetID]; !ok || !c.Signed || c.Rating == nil {
			continue
		}
		sums[c.NetID] += *c.Rating
		counts[c.NetID]++
	}

	result := make(map[string]float64, len(counts))
	for id, n := range counts {
		result[id] = sums[id] / float64(n)
	}
	return result, nil
}

func (r *memContractRepo) Update(_ context.Context, c *model.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.contracts[c.ContractID]
	if !ok || stored.Version != c.Version {
		return pkgerrors.ErrOptimisticLock
	}
	updated := cloneContract(*c)
	updated.MaxHours = stored.MaxHours
	updated.CreatedAt = stored.CreatedAt
	updated.UpdatedAt = time.Now()
	updated.Version = stored.Version + 1
	r.s.contracts[c.ContractID] = &updated

	c.Version = updated.Version
	return nil
}

func (r *memContractRepo) Delete(_ context.Context, contractID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.contracts[contractID]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.contracts, contractID)
	for id, d := range r.s.declarations {
		if d.ContractID == contractID {
			delete(r.s.declarations, id)
		}
	}
	return nil
}

// ── HourDeclaration ──

type memHourDeclarationRepo struct {
	s *memStore
}

func (r *memHourDeclarationRepo) Create(_ context.Context, d *model.HourDeclaration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.DeclarationID == "" {
		d.DeclarationID = uuid.New().String()
	}
	now := time.Now()
	d.Version = 1
	d.CreatedAt = now
	d.UpdatedAt = now

	stored := cloneDeclaration(*d)
	r.s.declarations[d.DeclarationID] = &stored
	return nil
}

func (r *memHourDeclarationRepo) GetByID(_ context.Context, id string) (*model.HourDeclaration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if d, ok := r.s.declarations[id]; ok {
		out := cloneDeclaration(*d)
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memHourDeclarationRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.HourDeclaration, error) {
	return r.GetByID(ctx, id)
}

func (r *memHourDeclarationRepo) SumApproved(_ context.Context, contractID, excludeID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	total := 0
	for id, d := range r.s.declarations {
		if d.ContractID == contractID && id != excludeID && d.IsApproved() {
			total += d.WorkedTime
		}
	}
	return total, nil
}

func (r *memHourDeclarationRepo) list(match func(*model.HourDeclaration) bool) []model.HourDeclaration {
	list := make([]model.HourDeclaration, 0)
	for _, d := range r.s.declarations {
		if match(d) {
			list = append(list, cloneDeclaration(*d))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
	return list
}

func (r *memHourDeclarationRepo) ListOpen(_ context.Context, courseID, netID string) ([]model.HourDeclaration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.list(func(d *model.HourDeclaration) bool {
		return !d.Reviewed && d.CourseID == courseID && (netID == "" || d.NetID == netID)
	}), nil
}

func (r *memHourDeclarationRepo) ListByContract(_ context.Context, contractID string) ([]model.HourDeclaration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.list(func(d *model.HourDeclaration) bool { return d.ContractID == contractID }), nil
}

func (r *memHourDeclarationRepo) Update(_ context.Context, d *model.HourDeclaration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.declarations[d.DeclarationID]
	if !ok || stored.Version != d.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if d.Approved != nil {
		approved := *d.Approved
		stored.Approved = &approved
	} else {
		stored.Approved = nil
	}
	stored.Reviewed = d.Reviewed
	stored.Version++
	stored.UpdatedAt = time.Now()

	d.Version = stored.Version
	return nil
}
