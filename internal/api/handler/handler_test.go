package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"tams/internal/dto"
	"tams/internal/model"
	"tams/internal/repository"
	"tams/internal/service"
	pkgerrors "tams/pkg/errors"
	"tams/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ApplicationService ──

type mockApplicationService struct {
	submitResult   *dto.ApplicationResponse
	submitErr      error
	withdrawResult bool
	withdrawErr    error
	acceptResult   *dto.ContractResponse
	acceptErr      error
	rejectResult   *dto.ApplicationResponse
	rejectErr      error
	statusResult   *dto.ApplicationResponse
	statusErr      error
	listResult     []dto.ApplicationResponse
	pendingResult  []dto.RatedApplicationResponse
	recommendErr   error

	gotNetID  string
	gotAmount int
}

func (m *mockApplicationService) Submit(_ context.Context, _, netID string, _ *dto.SubmitApplicationRequest) (*dto.ApplicationResponse, error) {
	m.gotNetID = netID
	return m.submitResult, m.submitErr
}
func (m *mockApplicationService) Withdraw(_ context.Context, _, _ string) (bool, error) {
	return m.withdrawResult, m.withdrawErr
}
func (m *mockApplicationService) Accept(_ context.Context, _, netID string, _ *dto.AcceptApplicationRequest) (*dto.ContractResponse, error) {
	m.gotNetID = netID
	return m.acceptResult, m.acceptErr
}
func (m *mockApplicationService) Reject(_ context.Context, _, _ string) (*dto.ApplicationResponse, error) {
	return m.rejectResult, m.rejectErr
}
func (m *mockApplicationService) GetStatus(_ context.Context, _, _ string) (*dto.ApplicationResponse, error) {
	return m.statusResult, m.statusErr
}
func (m *mockApplicationService) ListByNetID(_ context.Context, _ string) ([]dto.ApplicationResponse, error) {
	return m.listResult, nil
}
func (m *mockApplicationService) ListPending(_ context.Context, _ string) ([]dto.RatedApplicationResponse, error) {
	return m.pendingResult, nil
}
func (m *mockApplicationService) Recommend(_ context.Context, _ string, amount int) ([]dto.RatedApplicationResponse, error) {
	m.gotAmount = amount
	return m.pendingResult, m.recommendErr
}

// ── Mock ContractService ──

type mockContractService struct {
	result     *dto.ContractResponse
	err        error
	listResult []dto.ContractResponse
	ratings    map[string]float64

	gotRating float64
	gotFilter repository.ContractFilter
}

func (m *mockContractService) CreateContract(_ context.Context, _ service.CreateContractParams) (*model.Contract, error) {
	return nil, errors.New("not used")
}
func (m *mockContractService) DiscardContract(_ context.Context, _ string) error { return nil }
func (m *mockContractService) NotifyHired(_ context.Context, _ *model.Contract, _ *string) {}
func (m *mockContractService) AverageRatings(_ context.Context, netIDs []string) (map[string]float64, error) {
	if len(netIDs) == 0 {
		return nil, service.ErrNetIDsRequired
	}
	return m.ratings, m.err
}
func (m *mockContractService) Create(_ context.Context, _ string, _ *dto.CreateContractRequest) (*dto.ContractResponse, error) {
	return m.result, m.err
}
func (m *mockContractService) Sign(_ context.Context, _, _ string) (*dto.ContractResponse, error) {
	return m.result, m.err
}
func (m *mockContractService) Rate(_ context.Context, _, _ string, rating float64) (*dto.ContractResponse, error) {
	m.gotRating = rating
	return m.result, m.err
}
func (m *mockContractService) UpdateHours(_ context.Context, _, _ string, _ int) (*dto.ContractResponse, error) {
	return m.result, m.err
}
func (m *mockContractService) Get(_ context.Context, _, _ string) (*dto.ContractResponse, error) {
	return m.result, m.err
}
func (m *mockContractService) List(_ context.Context, filter repository.ContractFilter) ([]dto.ContractResponse, error) {
	m.gotFilter = filter
	return m.listResult, m.err
}

// ── Mock HourService ──

type mockHourService struct {
	getResult     *dto.HourDeclarationResponse
	getErr        error
	approveResult *dto.HourDeclarationResponse
	approveErr    error
	submitErr     error

	approveCalled bool
	gotAccept     bool
}

func (m *mockHourService) Submit(_ context.Context, _, _ string, _ *dto.SubmitHoursRequest) (*dto.HourDeclarationResponse, error) {
	return m.getResult, m.submitErr
}
func (m *mockHourService) Approve(_ context.Context, _ string, accept bool) (*dto.HourDeclarationResponse, error) {
	m.approveCalled = true
	m.gotAccept = accept
	return m.approveResult, m.approveErr
}
func (m *mockHourService) GetOpen(_ context.Context, _, _ string) ([]dto.HourDeclarationResponse, error) {
	return []dto.HourDeclarationResponse{}, nil
}
func (m *mockHourService) Get(_ context.Context, _ string) (*dto.HourDeclarationResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockHourService) ListByContract(_ context.Context, _, _ string) ([]dto.HourDeclarationResponse, error) {
	return []dto.HourDeclarationResponse{}, nil
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportCourse(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock CourseDirectory ──

type mockCourseDirectory struct {
	lecturer bool
	err      error
}

func (m *mockCourseDirectory) GetCourse(_ context.Context, courseID string) (*model.Course, error) {
	return &model.Course{ID: courseID}, m.err
}
func (m *mockCourseDirectory) IsResponsibleLecturer(_ context.Context, _, _ string) (bool, error) {
	return m.lecturer, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("net_id", "jdoe")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单条路由并执行请求；auth=true 时注入当前用户
func serve(method, route, target string, body io.Reader, auth bool, h gin.HandlerFunc) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, route, func(c *gin.Context) {
		if auth {
			setAuth(c)
		}
		h(c)
	})

	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ═══════════════════════════════════════════════════════════
// ApplicationHandler Tests
// ═══════════════════════════════════════════════════════════

func TestApplicationHandler_Submit_Success(t *testing.T) {
	mock := &mockApplicationService{submitResult: &dto.ApplicationResponse{CourseID: "CSE1100", NetID: "jdoe", Status: "pending"}}
	h := NewApplicationHandler(mock)

	w := serve("POST", "/courses/:course_id/applications", "/courses/CSE1100/applications",
		jsonBody(dto.SubmitApplicationRequest{Grade: 8.5, Motivation: "I like teaching"}), true, h.Submit)

	if w.Code != http.StatusCreated {
		t.Errorf("期望 201，实际: %d", w.Code)
	}
	if mock.gotNetID != "jdoe" {
		t.Errorf("申请人应取自认证上下文，实际: %s", mock.gotNetID)
	}
}

func TestApplicationHandler_Submit_BadJSON(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{})

	w := serve("POST", "/courses/:course_id/applications", "/courses/CSE1100/applications",
		bytes.NewReader([]byte("bad")), true, h.Submit)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestApplicationHandler_Submit_InvalidEmail(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{})
	email := "not-an-email"

	w := serve("POST", "/courses/:course_id/applications", "/courses/CSE1100/applications",
		jsonBody(dto.SubmitApplicationRequest{Grade: 8, ContactEmail: &email}), true, h.Submit)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestApplicationHandler_Submit_Unauthenticated(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{})

	w := serve("POST", "/courses/:course_id/applications", "/courses/CSE1100/applications",
		jsonBody(dto.SubmitApplicationRequest{Grade: 8}), false, h.Submit)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际: %d", w.Code)
	}
}

func TestApplicationHandler_Submit_CandidacyLimit(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{submitErr: service.ErrCandidacyLimitReached})

	w := serve("POST", "/courses/:course_id/applications", "/courses/CSE1100/applications",
		jsonBody(dto.SubmitApplicationRequest{Grade: 8}), true, h.Submit)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 21004 {
		t.Errorf("期望错误码 21004，实际: %d", resp.Code)
	}
	if resp.Details != "policy_violation" {
		t.Errorf("期望 details=policy_violation，实际: %s", resp.Details)
	}
}

func TestApplicationHandler_Submit_CourseNotFound(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{submitErr: service.ErrCourseNotFound})

	w := serve("POST", "/courses/:course_id/applications", "/courses/NOPE/applications",
		jsonBody(dto.SubmitApplicationRequest{Grade: 8}), true, h.Submit)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20001 {
		t.Errorf("期望错误码 20001，实际: %d", resp.Code)
	}
}

func TestApplicationHandler_Withdraw_AfterDeadline(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{withdrawResult: false})

	w := serve("DELETE", "/courses/:course_id/applications/me", "/courses/CSE1100/applications/me", nil, true, h.Withdraw)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	var body struct {
		Data dto.WithdrawResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Withdrawn {
		t.Error("截止后撤回应返回 withdrawn=false")
	}
}

func TestApplicationHandler_Withdraw_NotPending(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{withdrawErr: service.ErrApplicationNotPending})

	w := serve("DELETE", "/courses/:course_id/applications/me", "/courses/CSE1100/applications/me", nil, true, h.Withdraw)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Details != "conflict" {
		t.Errorf("期望 details=conflict，实际: %s", resp.Details)
	}
}

func TestApplicationHandler_Recommend_Amount(t *testing.T) {
	mock := &mockApplicationService{}
	h := NewApplicationHandler(mock)

	w := serve("GET", "/courses/:course_id/applications/recommendations",
		"/courses/CSE1100/applications/recommendations?amount=3", nil, true, h.Recommend)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if mock.gotAmount != 3 {
		t.Errorf("期望 amount=3，实际: %d", mock.gotAmount)
	}

	w = serve("GET", "/courses/:course_id/applications/recommendations",
		"/courses/CSE1100/applications/recommendations?amount=-1", nil, true, h.Recommend)
	if w.Code != http.StatusBadRequest {
		t.Errorf("负数 amount 期望 400，实际: %d", w.Code)
	}
}

func TestApplicationHandler_Accept_CapacityReached(t *testing.T) {
	mock := &mockApplicationService{acceptErr: service.ErrCapacityReached}
	h := NewApplicationHandler(mock)

	w := serve("POST", "/courses/:course_id/applications/:net_id/accept", "/courses/CSE1100/applications/asmith/accept",
		jsonBody(dto.AcceptApplicationRequest{MaxHours: 40}), true, h.Accept)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22005 {
		t.Errorf("期望错误码 22005，实际: %d", resp.Code)
	}
	if mock.gotNetID != "asmith" {
		t.Errorf("应录取路径中的 net_id，实际: %s", mock.gotNetID)
	}
}

func TestApplicationHandler_Reject_OptimisticLock(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{rejectErr: pkgerrors.ErrOptimisticLock})

	w := serve("POST", "/courses/:course_id/applications/:net_id/reject", "/courses/CSE1100/applications/asmith/reject",
		nil, true, h.Reject)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 10005 {
		t.Errorf("期望错误码 10005，实际: %d", resp.Code)
	}
}

func TestApplicationHandler_GetMine_InternalError(t *testing.T) {
	h := NewApplicationHandler(&mockApplicationService{statusErr: errors.New("db down")})

	w := serve("GET", "/courses/:course_id/applications/me", "/courses/CSE1100/applications/me", nil, true, h.GetMine)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("期望 500，实际: %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ContractHandler Tests
// ═══════════════════════════════════════════════════════════

func TestContractHandler_Create_InvalidNetID(t *testing.T) {
	h := NewContractHandler(&mockContractService{})

	w := serve("POST", "/courses/:course_id/contracts", "/courses/CSE1100/contracts",
		jsonBody(dto.CreateContractRequest{NetID: "bad id!", MaxHours: 10}), true, h.Create)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestContractHandler_Create_MaxHoursInvalid(t *testing.T) {
	h := NewContractHandler(&mockContractService{err: service.ErrMaxHoursInvalid})

	w := serve("POST", "/courses/:course_id/contracts", "/courses/CSE1100/contracts",
		jsonBody(dto.CreateContractRequest{NetID: "asmith", MaxHours: 0}), true, h.Create)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22007 {
		t.Errorf("期望错误码 22007，实际: %d", resp.Code)
	}
}

func TestContractHandler_Rate_OutOfRange(t *testing.T) {
	mock := &mockContractService{}
	h := NewContractHandler(mock)

	rating := 11.0
	w := serve("PUT", "/courses/:course_id/contracts/:net_id/rating", "/courses/CSE1100/contracts/asmith/rating",
		jsonBody(dto.RateContractRequest{Rating: &rating}), true, h.Rate)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestContractHandler_Rate_Zero(t *testing.T) {
	mock := &mockContractService{result: &dto.ContractResponse{NetID: "asmith"}}
	h := NewContractHandler(mock)

	rating := 0.0
	w := serve("PUT", "/courses/:course_id/contracts/:net_id/rating", "/courses/CSE1100/contracts/asmith/rating",
		jsonBody(dto.RateContractRequest{Rating: &rating}), true, h.Rate)

	if w.Code != http.StatusOK {
		t.Errorf("评分 0 合法，期望 200，实际: %d", w.Code)
	}
	if mock.gotRating != 0 {
		t.Errorf("期望 rating=0，实际: %v", mock.gotRating)
	}
}

func TestContractHandler_UpdateHours_NotSigned(t *testing.T) {
	h := NewContractHandler(&mockContractService{err: service.ErrContractNotSigned})

	hours := 5
	w := serve("PUT", "/courses/:course_id/contracts/:net_id/hours", "/courses/CSE1100/contracts/asmith/hours",
		jsonBody(dto.UpdateHoursRequest{Hours: &hours}), true, h.UpdateHours)

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际: %d", w.Code)
	}
}

func TestContractHandler_Sign_AlreadySigned(t *testing.T) {
	h := NewContractHandler(&mockContractService{err: service.ErrContractAlreadySigned})

	w := serve("POST", "/courses/:course_id/contracts/me/sign", "/courses/CSE1100/contracts/me/sign", nil, true, h.Sign)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
}

func TestContractHandler_ListByCourse_SignedFilter(t *testing.T) {
	mock := &mockContractService{listResult: []dto.ContractResponse{}}
	h := NewContractHandler(mock)

	w := serve("GET", "/courses/:course_id/contracts", "/courses/CSE1100/contracts?signed=true", nil, true, h.ListByCourse)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if mock.gotFilter.CourseID != "CSE1100" {
		t.Errorf("期望按课程过滤，实际: %+v", mock.gotFilter)
	}
	if mock.gotFilter.Signed == nil || !*mock.gotFilter.Signed {
		t.Error("期望 signed=true 过滤")
	}

	w = serve("GET", "/courses/:course_id/contracts", "/courses/CSE1100/contracts?signed=maybe", nil, true, h.ListByCourse)
	if w.Code != http.StatusBadRequest {
		t.Errorf("无效 signed 期望 400，实际: %d", w.Code)
	}
}

func TestContractHandler_ListMine_UsesCaller(t *testing.T) {
	mock := &mockContractService{listResult: []dto.ContractResponse{}}
	h := NewContractHandler(mock)

	w := serve("GET", "/contracts/me", "/contracts/me", nil, true, h.ListMine)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if mock.gotFilter.NetID != "jdoe" || mock.gotFilter.CourseID != "" {
		t.Errorf("期望只按当前用户过滤，实际: %+v", mock.gotFilter)
	}
}

func TestContractHandler_AverageRatings(t *testing.T) {
	mock := &mockContractService{ratings: map[string]float64{"asmith": 8.5, "bjones": service.NoRating}}
	h := NewContractHandler(mock)

	w := serve("POST", "/contracts/ratings", "/contracts/ratings",
		jsonBody(dto.AverageRatingsRequest{NetIDs: []string{"asmith", "bjones"}}), true, h.AverageRatings)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	var body struct {
		Data dto.AverageRatingsResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Ratings["bjones"] != -1 {
		t.Errorf("无评分应为 -1，实际: %v", body.Data.Ratings["bjones"])
	}

	w = serve("POST", "/contracts/ratings", "/contracts/ratings",
		jsonBody(dto.AverageRatingsRequest{NetIDs: []string{}}), true, h.AverageRatings)
	if w.Code != http.StatusBadRequest {
		t.Errorf("空列表期望 400，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 22009 {
		t.Errorf("期望错误码 22009，实际: %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// HourHandler Tests
// ═══════════════════════════════════════════════════════════

func approveBody(accept bool) io.Reader {
	return jsonBody(dto.ApproveHoursRequest{Accept: &accept})
}

func TestHourHandler_Approve_Success(t *testing.T) {
	hours := &mockHourService{
		getResult:     &dto.HourDeclarationResponse{ID: "d1", CourseID: "CSE1100", NetID: "asmith"},
		approveResult: &dto.HourDeclarationResponse{ID: "d1", Reviewed: true},
	}
	h := NewHourHandler(hours, &mockCourseDirectory{lecturer: true})

	w := serve("PUT", "/hours/:id/approve", "/hours/d1/approve", approveBody(false), true, h.Approve)

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际: %d", w.Code)
	}
	if !hours.approveCalled || hours.gotAccept {
		t.Errorf("期望以 accept=false 调用审核，实际 called=%v accept=%v", hours.approveCalled, hours.gotAccept)
	}
}

func TestHourHandler_Approve_NotLecturer(t *testing.T) {
	hours := &mockHourService{getResult: &dto.HourDeclarationResponse{ID: "d1", CourseID: "CSE1100"}}
	h := NewHourHandler(hours, &mockCourseDirectory{lecturer: false})

	w := serve("PUT", "/hours/:id/approve", "/hours/d1/approve", approveBody(true), true, h.Approve)

	if w.Code != http.StatusForbidden {
		t.Errorf("期望 403，实际: %d", w.Code)
	}
	if hours.approveCalled {
		t.Error("非讲师不应触发审核")
	}
}

func TestHourHandler_Approve_DirectoryFailure(t *testing.T) {
	hours := &mockHourService{getResult: &dto.HourDeclarationResponse{ID: "d1", CourseID: "CSE1100"}}
	h := NewHourHandler(hours, &mockCourseDirectory{err: errors.New("timeout")})

	w := serve("PUT", "/hours/:id/approve", "/hours/d1/approve", approveBody(true), true, h.Approve)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际: %d", w.Code)
	}
	if hours.approveCalled {
		t.Error("课程查询失败不应触发审核")
	}
}

func TestHourHandler_Approve_MissingAccept(t *testing.T) {
	h := NewHourHandler(&mockHourService{}, &mockCourseDirectory{lecturer: true})

	w := serve("PUT", "/hours/:id/approve", "/hours/d1/approve", jsonBody(map[string]any{}), true, h.Approve)

	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际: %d", w.Code)
	}
}

func TestHourHandler_Approve_Reviewed(t *testing.T) {
	hours := &mockHourService{
		getResult:  &dto.HourDeclarationResponse{ID: "d1", CourseID: "CSE1100"},
		approveErr: service.ErrDeclarationReviewed,
	}
	h := NewHourHandler(hours, &mockCourseDirectory{lecturer: true})

	w := serve("PUT", "/hours/:id/approve", "/hours/d1/approve", approveBody(true), true, h.Approve)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 23002 {
		t.Errorf("期望错误码 23002，实际: %d", resp.Code)
	}
}

func TestHourHandler_Get_NotFound(t *testing.T) {
	h := NewHourHandler(&mockHourService{getErr: service.ErrDeclarationNotFound}, &mockCourseDirectory{})

	w := serve("GET", "/hours/:id", "/hours/missing", nil, true, h.Get)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际: %d", w.Code)
	}
}

func TestHourHandler_Get_OwnerWithoutLecturerCheck(t *testing.T) {
	hours := &mockHourService{getResult: &dto.HourDeclarationResponse{ID: "d1", CourseID: "CSE1100", NetID: "jdoe"}}
	h := NewHourHandler(hours, &mockCourseDirectory{lecturer: false})

	w := serve("GET", "/hours/:id", "/hours/d1", nil, true, h.Get)

	if w.Code != http.StatusOK {
		t.Errorf("申报人本人期望 200，实际: %d", w.Code)
	}
}

func TestHourHandler_Submit_Exceeded(t *testing.T) {
	h := NewHourHandler(&mockHourService{submitErr: service.ErrHoursExceeded}, &mockCourseDirectory{})

	w := serve("POST", "/courses/:course_id/hours", "/courses/CSE1100/hours",
		jsonBody(dto.SubmitHoursRequest{WorkedTime: 50, Date: "2026-10-01"}), true, h.Submit)

	if w.Code != http.StatusConflict {
		t.Errorf("期望 409，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 23004 {
		t.Errorf("期望错误码 23004，实际: %d", resp.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportCourse_Success(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("xlsx"), filename: "CSE1100_助教.xlsx"})

	w := serve("GET", "/courses/:course_id/export", "/courses/CSE1100/export", nil, true, h.ExportCourse)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际: %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("Content-Type 不正确，实际: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("缺少 Content-Disposition")
	}
}

func TestExportHandler_ExportCourse_NoContracts(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoContracts})

	w := serve("GET", "/courses/:course_id/export", "/courses/CSE1100/export", nil, true, h.ExportCourse)

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际: %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 24001 {
		t.Errorf("期望错误码 24001，实际: %d", resp.Code)
	}
}
