package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/pkg/payment"
)

type fakeEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]models.Enrollment
	details     []models.EnrollmentDetail
	adminRows   []models.EnrollmentAdminRow
	createErr   error
	findOpenErr error
	lastLimit   int
	lastOffset  int
	seq         int
}

func newFakeEnrollmentRepo(items ...models.Enrollment) *fakeEnrollmentRepo {
	repo := &fakeEnrollmentRepo{enrollments: make(map[string]models.Enrollment)}
	for _, e := range items {
		repo.enrollments[e.ID] = e
	}
	return repo
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) FindOpenByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findOpenErr != nil {
		return nil, f.findOpenErr
	}
	for _, e := range f.enrollments {
		if e.UserID == userID && e.CourseID == courseID && e.Status != models.EnrollmentStatusCancelled {
			return &e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	if enrollment.ID == "" {
		enrollment.ID = fmt.Sprintf("enr-%d", f.seq)
	}
	f.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (f *fakeEnrollmentRepo) UpdateProgress(ctx context.Context, id string, progress int, status models.EnrollmentStatus, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Progress = progress
	e.Status = status
	if completedAt != nil {
		e.CompletedAt = completedAt
	}
	f.enrollments[id] = e
	return nil
}

func (f *fakeEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	e.Status = status
	f.enrollments[id] = e
	return nil
}

func (f *fakeEnrollmentRepo) CancelByUserAndCourse(ctx context.Context, userID, courseID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, e := range f.enrollments {
		if e.UserID == userID && e.CourseID == courseID && e.Status != models.EnrollmentStatusCancelled {
			e.Status = models.EnrollmentStatusCancelled
			f.enrollments[id] = e
			n++
		}
	}
	return n, nil
}

func (f *fakeEnrollmentRepo) ListDetailedByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, d := range f.details {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnrolledAt.After(out[j].EnrolledAt) })
	return out, nil
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter, limit, offset int) ([]models.EnrollmentAdminRow, int, error) {
	f.lastLimit, f.lastOffset = limit, offset
	var out []models.EnrollmentAdminRow
	for _, row := range f.adminRows {
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		out = append(out, row)
	}
	return out, len(out), nil
}

type fakeCourseRepo struct {
	courses   map[string]models.Course
	schedules map[string]models.CourseSchedule
	listCalls int
	err       error
}

func newFakeCourseRepo(courses ...models.Course) *fakeCourseRepo {
	repo := &fakeCourseRepo{courses: make(map[string]models.Course), schedules: make(map[string]models.CourseSchedule)}
	for _, c := range courses {
		repo.courses[c.ID] = c
	}
	return repo
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	if c, ok := f.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) FindSchedule(ctx context.Context, id string) (*models.CourseSchedule, error) {
	if s, ok := f.schedules[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) ListPublished(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	f.listCalls++
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []models.Course
	for _, c := range f.courses {
		if c.IsPublished {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (f *fakeCourseRepo) FindPublishedBySlug(ctx context.Context, slug string) (*models.Course, error) {
	for _, c := range f.courses {
		if c.Slug == slug && c.IsPublished {
			return &c, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) ListUpcomingSchedules(ctx context.Context, courseID string, from time.Time) ([]models.CourseSchedule, error) {
	var out []models.CourseSchedule
	for _, s := range f.schedules {
		if s.CourseID == courseID && !s.StartDate.Before(from) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

type fakeProfileRepo struct {
	profiles  map[string]models.Profile
	createErr error
}

func newFakeProfileRepo(profiles ...models.Profile) *fakeProfileRepo {
	repo := &fakeProfileRepo{profiles: make(map[string]models.Profile)}
	for _, p := range profiles {
		repo.profiles[p.ID] = p
	}
	return repo
}

func (f *fakeProfileRepo) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if p, ok := f.profiles[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) Create(ctx context.Context, profile *models.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	if profile.ID == "" {
		profile.ID = fmt.Sprintf("user-%d", len(f.profiles)+1)
	}
	f.profiles[profile.ID] = *profile
	return nil
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  []models.Payment
	createErr error
	refundErr error
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("pay-%d", len(f.payments)+1)
	}
	f.payments = append(f.payments, *p)
	return nil
}

func (f *fakePaymentRepo) MarkRefunded(ctx context.Context, intentID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	for i := len(f.payments) - 1; i >= 0; i-- {
		p := f.payments[i]
		if p.StripePaymentIntentID == intentID && p.Status == models.PaymentStatusCompleted {
			p.Status = models.PaymentStatusRefunded
			f.payments[i] = p
			return &p, nil
		}
	}
	return nil, sql.ErrNoRows
}

type fakeEventStore struct {
	mu        sync.Mutex
	seen      map[string]string
	forgotten []string
	err       error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{seen: make(map[string]string)}
}

func (f *fakeEventStore) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if _, ok := f.seen[eventID]; ok {
		return false, nil
	}
	f.seen[eventID] = eventType
	return true, nil
}

func (f *fakeEventStore) Forget(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, eventID)
	f.forgotten = append(f.forgotten, eventID)
	return nil
}

type fakeNotifier struct {
	mu          sync.Mutex
	enrollments []EnrollmentEmail
	receipts    []ReceiptEmail
	contacts    []ContactEmail
	err         error
}

func (f *fakeNotifier) SendEnrollmentConfirmation(ctx context.Context, data EnrollmentEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enrollments = append(f.enrollments, data)
	return f.err
}

func (f *fakeNotifier) SendPaymentReceipt(ctx context.Context, data ReceiptEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, data)
	return f.err
}

func (f *fakeNotifier) SendContactNotification(ctx context.Context, data ContactEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, data)
	return f.err
}

type fakeGateway struct {
	created  []payment.CreateIntentParams
	intent   *payment.Intent
	refund   *payment.Refund
	err      error
	refunded []string
}

func (f *fakeGateway) CreateIntent(ctx context.Context, params payment.CreateIntentParams) (*payment.Intent, error) {
	f.created = append(f.created, params)
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Intent{ID: "pi_123", ClientSecret: "pi_123_secret_abc", Status: "requires_payment_method", Amount: params.Amount, Currency: params.Currency, Metadata: params.Metadata}, nil
}

func (f *fakeGateway) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.intent, nil
}

func (f *fakeGateway) Refund(ctx context.Context, intentID string) (*payment.Refund, error) {
	f.refunded = append(f.refunded, intentID)
	if f.err != nil {
		return nil, f.err
	}
	return f.refund, nil
}

func userClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleUser, Email: id + "@example.com", FullName: "Max Mustermann"}
}
