package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tams/internal/model"
	"tams/internal/repository"
	"tams/pkg/clock"
)

// ── Fake CourseDirectory ──

type fakeCourseDirectory struct {
	mu        sync.Mutex
	courses   map[string]model.Course
	lecturers map[string]string // courseID → netID
	err       error
}

func newFakeCourseDirectory() *fakeCourseDirectory {
	return &fakeCourseDirectory{
		courses:   make(map[string]model.Course),
		lecturers: make(map[string]string),
	}
}

func (f *fakeCourseDirectory) addCourse(id string, start time.Time, students int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.courses[id] = model.Course{ID: id, StartDate: start, StudentCount: students}
}

func (f *fakeCourseDirectory) GetCourse(_ context.Context, courseID string) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.courses[courseID]
	if !ok {
		return nil, errors.New("course service: 404")
	}
	return &c, nil
}

func (f *fakeCourseDirectory) IsResponsibleLecturer(_ context.Context, netID, courseID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lecturers[courseID] == netID, nil
}

// ── Recording Notifier ──

type sentEmail struct {
	recipient string
	subject   string
	body      string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (n *recordingNotifier) SendEmail(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{recipient: recipient, subject: subject, body: body})
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// ── Hooked ContractFactory ──

// hookedFactory 在合同创建成功后执行 afterCreate，用于模拟确认前的并发变更
type hookedFactory struct {
	ContractFactory
	afterCreate func()
}

func (h *hookedFactory) CreateContract(ctx context.Context, params CreateContractParams) (*model.Contract, error) {
	c, err := h.ContractFactory.CreateContract(ctx, params)
	if err == nil && h.afterCreate != nil {
		h.afterCreate()
	}
	return c, err
}

// ── 测试环境 ──

const testCourse = "CSE1100"

// testNow 固定当前时间；testCourse 两个月后开课
var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	repo     *repository.Repository
	courses  *fakeCourseDirectory
	notifier *recordingNotifier
	clock    *clock.Mock
	svc      *Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := repository.NewMemoryRepository()
	courses := newFakeCourseDirectory()
	courses.addCourse(testCourse, testNow.AddDate(0, 2, 0), 40)
	notifier := &recordingNotifier{}
	clk := clock.NewMock(testNow)

	return &testEnv{
		repo:     repo,
		courses:  courses,
		notifier: notifier,
		clock:    clk,
		svc:      NewService(repo, courses, notifier, clk, zap.NewNop()),
	}
}

// seedApplication 绕过业务校验直接写入申请
func (e *testEnv) seedApplication(t *testing.T, courseID, netID string, status model.ApplicationStatus) {
	t.Helper()
	app := &model.Application{CourseID: courseID, NetID: netID, Grade: 8, Status: status}
	if err := e.repo.Application.Create(context.Background(), app); err != nil {
		t.Fatalf("写入申请失败: %v", err)
	}
}

// seedContract 绕过名额校验直接写入合同
func (e *testEnv) seedContract(t *testing.T, courseID, netID string, maxHours int, signed bool, rating *float64) *model.Contract {
	t.Helper()
	c := &model.Contract{CourseID: courseID, NetID: netID, MaxHours: maxHours, Signed: signed, Rating: rating}
	if err := e.repo.Contract.Create(context.Background(), c); err != nil {
		t.Fatalf("写入合同失败: %v", err)
	}
	return c
}

func ptr[T any](v T) *T { return &v }

func repositoryFilter(courseID string) repository.ContractFilter {
	return repository.ContractFilter{CourseID: courseID}
}
