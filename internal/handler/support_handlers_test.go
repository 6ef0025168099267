package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/internal/service"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
)

type contactServiceMock struct {
	msg  string
	err  error
	last models.ContactRequest
}

func (m *contactServiceMock) Submit(ctx context.Context, req models.ContactRequest) (string, error) {
	m.last = req
	return m.msg, m.err
}

func TestContactHandlerSubmit(t *testing.T) {
	mockSvc := &contactServiceMock{msg: i18n.Message(i18n.MsgContactSent)}
	handler := NewContactHandler(mockSvc)

	c, w := newTestContext(http.MethodPost, "/contact", `{"name":"Anna","email":"anna@example.de","message":"Gibt es Gruppenrabatte?"}`, nil)
	handler.Submit(c)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Anna", mockSvc.last.Name)
	assert.Equal(t, i18n.Message(i18n.MsgContactSent), decodeEnvelope(t, w).Message)
}

func TestContactHandlerQueueFull(t *testing.T) {
	handler := NewContactHandler(&contactServiceMock{err: appErrors.Clone(appErrors.ErrRateLimited, "")})

	c, w := newTestContext(http.MethodPost, "/contact", `{"name":"Anna","email":"anna@example.de","message":"Gibt es Gruppenrabatte?"}`, nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

type receiptOpenerStub struct {
	filename string
	data     []byte
	err      error
	token    string
}

func (s *receiptOpenerStub) Open(ctx context.Context, token string) (string, []byte, error) {
	s.token = token
	return s.filename, s.data, s.err
}

func TestReceiptHandlerDownload(t *testing.T) {
	stub := &receiptOpenerStub{filename: "RE-20261015-ABCDEF12.pdf", data: []byte("%PDF-1.3")}
	handler := NewReceiptHandler(stub)

	c, w := newTestContext(http.MethodGet, "/receipts/download?token=signed", "", nil)
	handler.Download(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed", stub.token)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "RE-20261015-ABCDEF12.pdf")
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestReceiptHandlerInvalidToken(t *testing.T) {
	handler := NewReceiptHandler(&receiptOpenerStub{err: appErrors.Clone(appErrors.ErrInvalidToken, "")})

	c, w := newTestContext(http.MethodGet, "/receipts/download?token=forged", "", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

type adminServiceMock struct {
	rows       []models.EnrollmentAdminRow
	csv        []byte
	err        error
	lastFilter models.EnrollmentFilter
}

func (m *adminServiceMock) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentAdminRow, *models.Pagination, error) {
	m.lastFilter = filter
	return m.rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: len(m.rows)}, m.err
}

func (m *adminServiceMock) ExportEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]byte, string, error) {
	m.lastFilter = filter
	return m.csv, "enrollments-20261015.csv", m.err
}

func TestAdminHandlerListEnrollments(t *testing.T) {
	mockSvc := &adminServiceMock{rows: []models.EnrollmentAdminRow{{UserEmail: "anna@example.de"}}}
	handler := NewAdminHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/admin/enrollments?status=Active&course_id=course-1&page=3", "", nil)
	handler.ListEnrollments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.EnrollmentStatusActive, mockSvc.lastFilter.Status)
	assert.Equal(t, "course-1", mockSvc.lastFilter.CourseID)
	assert.Equal(t, 3, mockSvc.lastFilter.Page)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 1, env.Pagination.TotalCount)
}

func TestAdminHandlerExportEnrollments(t *testing.T) {
	mockSvc := &adminServiceMock{csv: []byte("\ufeffID;E-Mail\n")}
	handler := NewAdminHandler(mockSvc)

	c, w := newTestContext(http.MethodGet, "/admin/enrollments/export", "", nil)
	handler.ExportEnrollments(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "enrollments-20261015.csv")
}

func TestAdminHandlerExportValidationError(t *testing.T) {
	handler := NewAdminHandler(&adminServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "")})

	c, w := newTestContext(http.MethodGet, "/admin/enrollments/export?status=bogus", "", nil)
	handler.ExportEnrollments(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type healthStub struct {
	report service.HealthReport
	ok     bool
}

func (s healthStub) Check(ctx context.Context) (service.HealthReport, bool) {
	return s.report, s.ok
}

func TestMetricsHandlerHealth(t *testing.T) {
	now := time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC)
	handler := NewMetricsHandler(nil, healthStub{ok: true, report: service.HealthReport{Status: service.HealthHealthy, Timestamp: now, Database: "connected", Version: "1.0.0"}})

	c, w := newTestContext(http.MethodGet, "/health", "", nil)
	handler.Health(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"connected"`)

	handler = NewMetricsHandler(nil, healthStub{report: service.HealthReport{Status: service.HealthUnhealthy, Timestamp: now, Error: "database unreachable"}})
	c, w = newTestContext(http.MethodGet, "/health", "", nil)
	handler.Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}

func TestMetricsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordWebhookEvent("payment_intent.succeeded", service.WebhookProcessed)

	c, w := newTestContext(http.MethodGet, "/metrics", "", nil)
	NewMetricsHandler(metrics, nil).Prometheus(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "webhook_events_total")

	c, w = newTestContext(http.MethodGet, "/metrics", "", nil)
	NewMetricsHandler(nil, nil).Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

