package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/aulora-api/internal/models"
	"github.com/noah-isme/aulora-api/internal/service"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

type tokenStub struct {
	tokens map[string]*models.JWTClaims
}

func (s tokenStub) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	if claims, ok := s.tokens[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type authServiceMock struct {
	loginResp *models.LoginResponse
	loginErr  error
	revoked   *models.JWTClaims
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	return m.loginResp, m.loginErr
}

func (m *authServiceMock) RevokeToken(ctx context.Context, claims *models.JWTClaims) error {
	m.revoked = claims
	return nil
}

type catalogMock struct {
	lastFilter      models.CourseFilter
	lastItinFilter  models.ItineraryFilter
	lastPrincipal   *models.JWTClaims
	courses         []models.CourseDetail
	getErr          error
	createdCourse   *models.CourseDetail
	createdModule   *models.Module
	createdItin     *models.ItineraryDetail
	price           *models.Price
	priceErr        error
	exploreCalled   bool
	listCalled      bool
	createCalled    bool
	createItinCalls int
}

func (m *catalogMock) ListCategories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: "c1", Name: "Math"}}, nil
}

func (m *catalogMock) ListCourses(ctx context.Context, principal *models.JWTClaims, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	m.listCalled = true
	m.lastPrincipal = principal
	m.lastFilter = filter
	return m.courses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.courses)}, nil
}

func (m *catalogMock) ExploreCourses(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	m.exploreCalled = true
	m.lastFilter = filter
	return m.courses, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.courses)}, nil
}

func (m *catalogMock) GetCourse(ctx context.Context, principal *models.JWTClaims, id string) (*models.CourseDetail, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.CourseDetail{Course: models.Course{ID: id}}, nil
}

func (m *catalogMock) CreateCourse(ctx context.Context, principal *models.JWTClaims, req models.CreateCourseRequest) (*models.CourseDetail, error) {
	m.createCalled = true
	m.lastPrincipal = principal
	return m.createdCourse, nil
}

func (m *catalogMock) ListModules(ctx context.Context, principal *models.JWTClaims, courseID string) ([]models.Module, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return []models.Module{{ID: "m1", CourseID: courseID, Position: 1}}, nil
}

func (m *catalogMock) CreateModule(ctx context.Context, principal *models.JWTClaims, courseID string, req models.CreateModuleRequest) (*models.Module, error) {
	return m.createdModule, nil
}

func (m *catalogMock) CoursePrice(ctx context.Context, id string) (*models.Price, error) {
	return m.price, m.priceErr
}

func (m *catalogMock) ListItineraries(ctx context.Context, principal *models.JWTClaims, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error) {
	m.lastItinFilter = filter
	return []models.Itinerary{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *catalogMock) ExploreItineraries(ctx context.Context, filter models.ItineraryFilter) ([]models.Itinerary, *models.Pagination, error) {
	m.lastItinFilter = filter
	return []models.Itinerary{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (m *catalogMock) GetItinerary(ctx context.Context, id string) (*models.ItineraryDetail, error) {
	return &models.ItineraryDetail{Itinerary: models.Itinerary{ID: id}, Courses: []models.ItineraryCourse{}}, nil
}

func (m *catalogMock) CreateItinerary(ctx context.Context, req models.CreateItineraryRequest) (*models.ItineraryDetail, error) {
	m.createItinCalls++
	return m.createdItin, nil
}

func (m *catalogMock) ItineraryPrice(ctx context.Context, id string) (*models.Price, error) {
	return m.price, m.priceErr
}

type enrollmentMock struct {
	enrollErr   error
	lastUser    string
	lastTarget  string
	lastPayment models.PurchaseItineraryRequest
}

func (m *enrollmentMock) EnrollInCourse(ctx context.Context, userID, courseID string) (*models.EnrollmentResult, error) {
	m.lastUser, m.lastTarget = userID, courseID
	if m.enrollErr != nil {
		return nil, m.enrollErr
	}
	return &models.EnrollmentResult{Message: "enrolled in course", CourseID: courseID}, nil
}

func (m *enrollmentMock) EnrollInItinerary(ctx context.Context, userID, itineraryID string) (*models.EnrollmentResult, error) {
	m.lastUser, m.lastTarget = userID, itineraryID
	return &models.EnrollmentResult{Message: "enrolled in itinerary", ItineraryID: itineraryID}, nil
}

func (m *enrollmentMock) PurchaseItinerary(ctx context.Context, userID, itineraryID string, req models.PurchaseItineraryRequest) (*models.PurchaseResult, error) {
	m.lastUser, m.lastTarget, m.lastPayment = userID, itineraryID, req
	return &models.PurchaseResult{ItineraryID: itineraryID, CoursesTotal: 3, CoursesEnrolled: 3}, nil
}

func (m *enrollmentMock) MyCourses(ctx context.Context, userID string) ([]models.CourseDetail, error) {
	return nil, nil
}

func (m *enrollmentMock) MyItineraries(ctx context.Context, userID string) ([]models.EnrolledItinerary, error) {
	return nil, errors.New("db down")
}

type progressMock struct {
	result   *models.ProgressUpdateResult
	err      error
	lastUser string
}

func (m *progressMock) CompleteModule(ctx context.Context, userID, moduleID string) (*models.ProgressUpdateResult, error) {
	m.lastUser = userID
	return m.result, m.err
}

func (m *progressMock) CourseProgress(ctx context.Context, userID, courseID string) (*models.CourseProgressView, error) {
	return &models.CourseProgressView{CourseID: courseID, Percentage: 50, State: models.ProgressInProgress}, nil
}

func (m *progressMock) ItineraryProgress(ctx context.Context, userID, itineraryID string) (*models.ItineraryProgressView, error) {
	return &models.ItineraryProgressView{ItineraryID: itineraryID, Percentage: 33}, nil
}

type profileMock struct {
	profile  *models.Profile
	lastReq  models.UpdateProfileRequest
	exported service.ExportFormat
}

func (m *profileMock) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	return m.profile, nil
}

func (m *profileMock) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.Profile, error) {
	m.lastReq = req
	return m.profile, nil
}

func (m *profileMock) ProgressReport(ctx context.Context, principal *models.JWTClaims, format service.ExportFormat) (*service.ExportFile, error) {
	m.exported = format
	return &service.ExportFile{Filename: "progress-20260101.csv", ContentType: "text/csv", Body: []byte("Course\n")}, nil
}

func (m *profileMock) MyPayments(ctx context.Context, userID string) ([]models.Payment, error) {
	return nil, nil
}

type assistantMock struct{ question string }

func (m *assistantMock) Reply(ctx context.Context, question string) (*models.AssistantReply, error) {
	m.question = question
	return &models.AssistantReply{Answer: "ok", Options: []string{"Volver al inicio"}}, nil
}

var (
	adminClaims   = &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	teacherClaims = &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher, TeacherSubject: "Math"}
	studentClaims = &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}
)

type testAPI struct {
	router     *gin.Engine
	auth       *authServiceMock
	catalog    *catalogMock
	enrollment *enrollmentMock
	progress   *progressMock
	profile    *profileMock
	assistant  *assistantMock
}

func newTestAPI() *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		auth:       &authServiceMock{},
		catalog:    &catalogMock{price: &models.Price{Price: 25}},
		enrollment: &enrollmentMock{},
		progress:   &progressMock{},
		profile:    &profileMock{profile: &models.Profile{User: models.User{ID: "student-1"}, CompletedCourseCount: 2}},
		assistant:  &assistantMock{},
	}
	tokens := tokenStub{tokens: map[string]*models.JWTClaims{
		"admin":   adminClaims,
		"teacher": teacherClaims,
		"student": studentClaims,
	}}
	r := gin.New()
	RegisterRoutes(r.Group("/api/v1"), Handlers{
		Auth:       NewAuthHandler(api.auth),
		Profile:    NewProfileHandler(api.profile, api.profile, api.profile),
		Course:     NewCourseHandler(api.catalog),
		Itinerary:  NewItineraryHandler(api.catalog),
		Enrollment: NewEnrollmentHandler(api.enrollment),
		Progress:   NewProgressHandler(api.progress),
		Assistant:  NewAssistantHandler(api.assistant, nil),
		Metrics:    NewMetricsHandler(service.NewMetricsService(), nil, nil),
	}, tokens)
	api.router = r
	return api
}

func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
