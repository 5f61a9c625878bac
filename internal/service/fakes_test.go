package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/aulora-api/internal/models"
)

type pair struct{ a, b string }

// memoryDB is an in-memory stand-in for the Postgres schema shared by the service fakes.
type memoryDB struct {
	users             map[string]*models.User
	categories        []models.Category
	courses           map[string]*models.CourseDetail
	modules           map[string]*models.Module
	itineraries       map[string]*models.Itinerary
	itineraryCourses  map[string][]string
	enrollments       map[pair]models.Enrollment
	memberships       map[pair]time.Time
	completions       map[pair]time.Time
	courseProgress    map[pair]*models.CourseProgress
	itineraryProgress map[pair]int
	payments          []models.Payment
	locks             []pair
	seq               int
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:             map[string]*models.User{},
		courses:           map[string]*models.CourseDetail{},
		modules:           map[string]*models.Module{},
		itineraries:       map[string]*models.Itinerary{},
		itineraryCourses:  map[string][]string{},
		enrollments:       map[pair]models.Enrollment{},
		memberships:       map[pair]time.Time{},
		completions:       map[pair]time.Time{},
		courseProgress:    map[pair]*models.CourseProgress{},
		itineraryProgress: map[pair]int{},
	}
}

func (db *memoryDB) nextID(prefix string) string {
	db.seq++
	return fmt.Sprintf("%s-%d", prefix, db.seq)
}

func (db *memoryDB) addUser(id string, role models.Role, subject string) *models.User {
	user := &models.User{ID: id, Email: id + "@aulora.test", FullName: id, Role: role, AccountType: models.AccountFree, Active: true}
	if subject != "" {
		user.Subject = &subject
	}
	db.users[id] = user
	return user
}

func (db *memoryDB) addCategory(id, name string) {
	db.categories = append(db.categories, models.Category{ID: id, Name: name})
}

func (db *memoryDB) categoryName(id string) string {
	for _, c := range db.categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// addCourse creates a course with n modules named <id>-m1..mn.
func (db *memoryDB) addCourse(id, categoryID string, price, modules int) {
	db.courses[id] = &models.CourseDetail{
		Course:       models.Course{ID: id, Title: "Course " + id, CategoryID: categoryID, Price: price},
		CategoryName: db.categoryName(categoryID),
		ModuleCount:  modules,
	}
	for i := 1; i <= modules; i++ {
		moduleID := fmt.Sprintf("%s-m%d", id, i)
		db.modules[moduleID] = &models.Module{ID: moduleID, CourseID: id, Title: moduleID, Position: i}
	}
}

func (db *memoryDB) addItinerary(id string, price int, courseIDs ...string) {
	db.itineraries[id] = &models.Itinerary{ID: id, Title: "Itinerary " + id, Price: price}
	db.itineraryCourses[id] = append([]string(nil), courseIDs...)
}

// fakeTx runs the unit of work inline and counts invocations.
type fakeTx struct{ calls int }

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// progress store and enrollment ledger

func (db *memoryDB) RecordModuleCompletion(_ context.Context, userID, moduleID string, at time.Time) (bool, error) {
	key := pair{userID, moduleID}
	if _, ok := db.completions[key]; ok {
		return false, nil
	}
	db.completions[key] = at
	return true, nil
}

func (db *memoryDB) CountModules(_ context.Context, courseID string) (int, error) {
	total := 0
	for _, m := range db.modules {
		if m.CourseID == courseID {
			total++
		}
	}
	return total, nil
}

func (db *memoryDB) CountCompletedModules(_ context.Context, userID, courseID string) (int, error) {
	completed := 0
	for key := range db.completions {
		if key.a != userID {
			continue
		}
		if m, ok := db.modules[key.b]; ok && m.CourseID == courseID {
			completed++
		}
	}
	return completed, nil
}

func (db *memoryDB) EnsureCourseProgress(_ context.Context, userID, courseID string, at time.Time) (bool, error) {
	key := pair{userID, courseID}
	if _, ok := db.courseProgress[key]; ok {
		return false, nil
	}
	db.courseProgress[key] = &models.CourseProgress{ID: db.nextID("cp"), UserID: userID, CourseID: courseID, UpdatedAt: at}
	return true, nil
}

func (db *memoryDB) UpsertCourseProgress(_ context.Context, userID, courseID string, percentage int, at time.Time) (bool, error) {
	key := pair{userID, courseID}
	row, ok := db.courseProgress[key]
	if !ok {
		row = &models.CourseProgress{ID: db.nextID("cp"), UserID: userID, CourseID: courseID}
		db.courseProgress[key] = row
	}
	row.Percentage = percentage
	row.UpdatedAt = at
	if percentage == 100 && row.CompletedAt == nil {
		stamp := at
		row.CompletedAt = &stamp
		return true, nil
	}
	return false, nil
}

func (db *memoryDB) ListCourseProgressByUser(_ context.Context, userID string) ([]models.CourseProgressDetail, error) {
	var rows []models.CourseProgressDetail
	for key, row := range db.courseProgress {
		if key.a == userID {
			rows = append(rows, models.CourseProgressDetail{CourseProgress: *row, CourseTitle: db.courses[key.b].Title})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CourseTitle < rows[j].CourseTitle })
	return rows, nil
}

func (db *memoryDB) CountCompletedCourses(_ context.Context, userID string) (int, error) {
	count := 0
	for key, row := range db.courseProgress {
		if key.a == userID && row.CompletedAt != nil {
			count++
		}
	}
	return count, nil
}

func (db *memoryDB) ListEnrolledItineraryIDs(_ context.Context, userID, courseID string) ([]string, error) {
	var ids []string
	for itineraryID, courseIDs := range db.itineraryCourses {
		if _, member := db.memberships[pair{userID, itineraryID}]; !member {
			continue
		}
		for _, id := range courseIDs {
			if id == courseID {
				ids = append(ids, itineraryID)
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (db *memoryDB) CountItineraryCourses(_ context.Context, itineraryID string) (int, error) {
	return len(db.itineraryCourses[itineraryID]), nil
}

func (db *memoryDB) CountCompletedItineraryCourses(_ context.Context, userID, itineraryID string) (int, error) {
	completed := 0
	for _, courseID := range db.itineraryCourses[itineraryID] {
		if row, ok := db.courseProgress[pair{userID, courseID}]; ok && row.Percentage == 100 {
			completed++
		}
	}
	return completed, nil
}

func (db *memoryDB) UpsertItineraryProgress(_ context.Context, progress *models.ItineraryProgress) error {
	db.itineraryProgress[pair{progress.UserID, progress.ItineraryID}] = progress.Percentage
	return nil
}

func (db *memoryDB) FindItineraryProgress(_ context.Context, userID, itineraryID string) (*models.ItineraryProgress, error) {
	pct, ok := db.itineraryProgress[pair{userID, itineraryID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ItineraryProgress{UserID: userID, ItineraryID: itineraryID, Percentage: pct}, nil
}

func (db *memoryDB) LockCourseProgress(_ context.Context, userID, courseID string) (*models.CourseProgress, error) {
	db.locks = append(db.locks, pair{userID, courseID})
	row, ok := db.courseProgress[pair{userID, courseID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *row
	return &clone, nil
}

func (db *memoryDB) CreateIfAbsent(_ context.Context, enrollment *models.Enrollment) (bool, error) {
	key := pair{enrollment.UserID, enrollment.CourseID}
	if _, ok := db.enrollments[key]; ok {
		return false, nil
	}
	enrollment.ID = db.nextID("enr")
	enrollment.EnrolledAt = time.Now().UTC()
	db.enrollments[key] = *enrollment
	return true, nil
}

func (db *memoryDB) Exists(_ context.Context, userID, courseID string) (bool, error) {
	_, ok := db.enrollments[pair{userID, courseID}]
	return ok, nil
}

func (db *memoryDB) JoinItinerary(_ context.Context, membership *models.ItineraryEnrollment) (bool, error) {
	key := pair{membership.UserID, membership.ItineraryID}
	if _, ok := db.memberships[key]; ok {
		return false, nil
	}
	membership.EnrolledAt = time.Now().UTC()
	db.memberships[key] = membership.EnrolledAt
	return true, nil
}

// typed views over memoryDB for collaborators whose method names overlap

type fakeModules struct{ db *memoryDB }

func (f fakeModules) FindByID(_ context.Context, id string) (*models.Module, error) {
	if m, ok := f.db.modules[id]; ok {
		clone := *m
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeModules) ListByCourse(_ context.Context, courseID string) ([]models.Module, error) {
	var modules []models.Module
	for _, m := range f.db.modules {
		if m.CourseID == courseID {
			modules = append(modules, *m)
		}
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].Position < modules[j].Position })
	return modules, nil
}

func (f fakeModules) Create(_ context.Context, module *models.Module) error {
	module.ID = f.db.nextID("mod")
	count, _ := f.db.CountModules(context.Background(), module.CourseID)
	module.Position = count + 1
	clone := *module
	f.db.modules[module.ID] = &clone
	return nil
}

type fakeCourses struct{ db *memoryDB }

func (f fakeCourses) FindByID(_ context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := f.db.courses[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeCourses) List(_ context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	var out []models.CourseDetail
	for _, c := range f.db.courses {
		if filter.CategoryNameEquals != "" && !strings.EqualFold(c.CategoryName, filter.CategoryNameEquals) {
			continue
		}
		if filter.CategoryID != "" && c.CategoryID != filter.CategoryID {
			continue
		}
		if filter.ExcludeEnrolledBy != "" {
			if _, ok := f.db.enrollments[pair{filter.ExcludeEnrolledBy, c.ID}]; ok {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title+" "+c.Description), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		switch filter.Ordering {
		case models.OrderPriceAsc:
			return out[i].Price < out[j].Price
		case models.OrderPriceDesc:
			return out[i].Price > out[j].Price
		default:
			return out[i].ID < out[j].ID
		}
	})
	total := len(out)
	if filter.PageSize > 0 && len(out) > filter.PageSize {
		out = out[:filter.PageSize]
	}
	return out, total, nil
}

func (f fakeCourses) Create(_ context.Context, course *models.Course) error {
	course.ID = f.db.nextID("course")
	course.CreatedAt = time.Now().UTC()
	f.db.courses[course.ID] = &models.CourseDetail{Course: *course, CategoryName: f.db.categoryName(course.CategoryID)}
	return nil
}

func (f fakeCourses) Price(_ context.Context, id string) (int, error) {
	if c, ok := f.db.courses[id]; ok {
		return c.Price, nil
	}
	return 0, sql.ErrNoRows
}

func (f fakeCourses) ListEnrolledByUser(_ context.Context, userID string) ([]models.CourseDetail, error) {
	var out []models.CourseDetail
	for key := range f.db.enrollments {
		if key.a == userID {
			out = append(out, *f.db.courses[key.b])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeItineraries struct{ db *memoryDB }

func (f fakeItineraries) FindByID(_ context.Context, id string) (*models.Itinerary, error) {
	if it, ok := f.db.itineraries[id]; ok {
		clone := *it
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeItineraries) ListCourseIDs(_ context.Context, itineraryID string) ([]string, error) {
	return append([]string(nil), f.db.itineraryCourses[itineraryID]...), nil
}

func (f fakeItineraries) ListCourses(_ context.Context, itineraryID string) ([]models.ItineraryCourse, error) {
	var out []models.ItineraryCourse
	for i, id := range f.db.itineraryCourses[itineraryID] {
		out = append(out, models.ItineraryCourse{CourseDetail: *f.db.courses[id], Position: i + 1})
	}
	return out, nil
}

func (f fakeItineraries) List(_ context.Context, filter models.ItineraryFilter) ([]models.Itinerary, int, error) {
	var out []models.Itinerary
	for id, it := range f.db.itineraries {
		if filter.CourseCategoryNameEquals != "" {
			match := false
			for _, courseID := range f.db.itineraryCourses[id] {
				if strings.EqualFold(f.db.courses[courseID].CategoryName, filter.CourseCategoryNameEquals) {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.Ordering == models.OrderPriceAsc {
			return out[i].Price < out[j].Price
		}
		return out[i].ID < out[j].ID
	})
	total := len(out)
	if filter.PageSize > 0 && len(out) > filter.PageSize {
		out = out[:filter.PageSize]
	}
	return out, total, nil
}

func (f fakeItineraries) Create(_ context.Context, itinerary *models.Itinerary, courseIDs []string) error {
	itinerary.ID = f.db.nextID("it")
	f.db.addItinerary(itinerary.ID, itinerary.Price, courseIDs...)
	f.db.itineraries[itinerary.ID].Title = itinerary.Title
	return nil
}

func (f fakeItineraries) Price(_ context.Context, id string) (int, error) {
	if it, ok := f.db.itineraries[id]; ok {
		return it.Price, nil
	}
	return 0, sql.ErrNoRows
}

func (f fakeItineraries) ListEnrolledByUser(_ context.Context, userID string) ([]models.EnrolledItinerary, error) {
	var out []models.EnrolledItinerary
	for key := range f.db.memberships {
		if key.a == userID {
			out = append(out, models.EnrolledItinerary{Itinerary: *f.db.itineraries[key.b], Progress: f.db.itineraryProgress[key]})
		}
	}
	return out, nil
}

type fakeUsers struct{ db *memoryDB }

func (f fakeUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.db.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (f fakeUsers) UpdateProfile(_ context.Context, user *models.User) error {
	if _, ok := f.db.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *user
	f.db.users[user.ID] = &clone
	return nil
}

type fakeCategories struct{ db *memoryDB }

func (f fakeCategories) List(context.Context) ([]models.Category, error) {
	return append([]models.Category(nil), f.db.categories...), nil
}

func (f fakeCategories) FindByID(_ context.Context, id string) (*models.Category, error) {
	for _, c := range f.db.categories {
		if c.ID == id {
			clone := c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f fakeCategories) FindByName(_ context.Context, name string) (*models.Category, error) {
	for _, c := range f.db.categories {
		if strings.EqualFold(c.Name, name) {
			clone := c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakePayments struct{ db *memoryDB }

func (f fakePayments) Create(_ context.Context, payment *models.Payment) error {
	payment.ID = f.db.nextID("pay")
	f.db.payments = append(f.db.payments, *payment)
	return nil
}

func (f fakePayments) ListByUser(_ context.Context, userID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range f.db.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestProgressService(db *memoryDB, metrics *MetricsService) *ProgressService {
	return NewProgressService(&fakeTx{}, db, fakeModules{db}, fakeCourses{db}, fakeItineraries{db}, fakeUsers{db}, metrics, nil)
}

func newTestEnrollmentService(db *memoryDB, metrics *MetricsService) *EnrollmentService {
	progress := newTestProgressService(db, metrics)
	return NewEnrollmentService(&fakeTx{}, db, fakeCourses{db}, fakeItineraries{db}, fakePayments{db}, progress, nil, metrics, nil)
}

func claimsFor(user *models.User) *models.JWTClaims {
	return &models.JWTClaims{UserID: user.ID, Role: user.Role, TeacherSubject: user.SubjectName(), Email: user.Email, FullName: user.FullName}
}

func (db *memoryDB) seqTime() time.Time {
	db.seq++
	return time.Unix(int64(db.seq), 0).UTC()
}
