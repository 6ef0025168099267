package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/coursehub-api/internal/models"
	"github.com/noah-isme/coursehub-api/pkg/database"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
	"github.com/noah-isme/coursehub-api/pkg/export"
	"github.com/noah-isme/coursehub-api/pkg/i18n"
)

// enrollmentOpenConstraint is the partial unique index allowing one
// non-cancelled enrollment per (user, course).
const enrollmentOpenConstraint = "enrollments_user_course_open_key"

type enrollmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindOpenByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateProgress(ctx context.Context, id string, progress int, status models.EnrollmentStatus, completedAt *time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
	ListDetailedByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
	List(ctx context.Context, filter models.EnrollmentFilter, limit, offset int) ([]models.EnrollmentAdminRow, int, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindSchedule(ctx context.Context, id string) (*models.CourseSchedule, error)
}

type enrollmentNotifier interface {
	SendEnrollmentConfirmation(ctx context.Context, data EnrollmentEmail) error
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// EnrollmentService implements enrollment use cases for customers and admins.
type EnrollmentService struct {
	repo     enrollmentRepository
	courses  enrollmentCourseReader
	notifier enrollmentNotifier
	csv      datasetRenderer
	logger   *zap.Logger
	now      func() time.Time
}

// NewEnrollmentService constructs the service. notifier may be nil.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseReader, notifier enrollmentNotifier, csv datasetRenderer, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &EnrollmentService{repo: repo, courses: courses, notifier: notifier, csv: csv, logger: logger, now: time.Now}
}

// CreateEnrollment enrolls the caller into a course. At most one
// non-cancelled enrollment exists per (user, course).
func (s *EnrollmentService) CreateEnrollment(ctx context.Context, caller *models.JWTClaims, courseID string, scheduleID *string) (*models.Enrollment, string, error) {
	if caller == nil || caller.UserID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}
	courseID = strings.TrimSpace(courseID)
	if courseID == "" {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "")
		}
		return nil, "", appErrors.WrapInternal(fmt.Errorf("find course: %w", err))
	}
	if !course.IsPublished {
		return nil, "", appErrors.Clone(appErrors.ErrCourseUnavailable, "")
	}

	var schedule *models.CourseSchedule
	if scheduleID != nil && strings.TrimSpace(*scheduleID) != "" {
		schedule, err = s.courses.FindSchedule(ctx, strings.TrimSpace(*scheduleID))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, "", appErrors.Clone(appErrors.ErrNotFound, "")
			}
			return nil, "", appErrors.WrapInternal(fmt.Errorf("find schedule: %w", err))
		}
		if schedule.CourseID != course.ID {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "")
		}
	}

	if _, err := s.repo.FindOpenByUserAndCourse(ctx, caller.UserID, course.ID); err == nil {
		return nil, "", appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", appErrors.WrapInternal(fmt.Errorf("check enrollment: %w", err))
	}

	enrollment := &models.Enrollment{
		UserID:     caller.UserID,
		CourseID:   course.ID,
		Status:     models.EnrollmentStatusActive,
		Progress:   0,
		EnrolledAt: s.now().UTC(),
	}
	if schedule != nil {
		enrollment.ScheduleID = &schedule.ID
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if database.IsUniqueViolation(err, enrollmentOpenConstraint) {
			return nil, "", appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
		}
		return nil, "", appErrors.WrapInternal(fmt.Errorf("create enrollment: %w", err))
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("user_id", caller.UserID),
		zap.String("course_id", course.ID),
	)
	s.notifyEnrollment(ctx, caller, course, schedule)

	return enrollment, i18n.Message(i18n.MsgEnrollmentCreated), nil
}

// UpdateEnrollmentProgress records learning progress. Reaching 100 completes
// the enrollment; lower values never revert the status.
func (s *EnrollmentService) UpdateEnrollmentProgress(ctx context.Context, caller *models.JWTClaims, id string, progress int) (*models.Enrollment, string, error) {
	if progress < 0 || progress > 100 {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "")
	}
	enrollment, err := s.ownedEnrollment(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "")
	}

	status := enrollment.Status
	var completedAt *time.Time
	message := i18n.Message(i18n.MsgProgressUpdated)
	if progress >= 100 {
		now := s.now().UTC()
		status = models.EnrollmentStatusCompleted
		completedAt = &now
		message = i18n.Message(i18n.MsgCourseCompleted)
	}

	if err := s.repo.UpdateProgress(ctx, enrollment.ID, progress, status, completedAt); err != nil {
		return nil, "", appErrors.WrapInternal(fmt.Errorf("update progress: %w", err))
	}

	enrollment.Progress = progress
	enrollment.Status = status
	if completedAt != nil {
		enrollment.CompletedAt = completedAt
	}
	return enrollment, message, nil
}

// CancelEnrollment cancels the caller's enrollment. Schedule capacity is not restored.
func (s *EnrollmentService) CancelEnrollment(ctx context.Context, caller *models.JWTClaims, id string) (*models.Enrollment, string, error) {
	enrollment, err := s.ownedEnrollment(ctx, caller, id)
	if err != nil {
		return nil, "", err
	}
	if enrollment.Status != models.EnrollmentStatusCancelled {
		if err := s.repo.UpdateStatus(ctx, enrollment.ID, models.EnrollmentStatusCancelled); err != nil {
			return nil, "", appErrors.WrapInternal(fmt.Errorf("cancel enrollment: %w", err))
		}
		enrollment.Status = models.EnrollmentStatusCancelled
		s.logger.Info("enrollment cancelled", zap.String("enrollment_id", enrollment.ID), zap.String("user_id", caller.UserID))
	}
	return enrollment, i18n.Message(i18n.MsgEnrollmentCancelled), nil
}

// GetUserEnrollments returns the caller's enrollments, newest first.
func (s *EnrollmentService) GetUserEnrollments(ctx context.Context, caller *models.JWTClaims) ([]models.EnrollmentDetail, error) {
	if caller == nil || caller.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}
	enrollments, err := s.repo.ListDetailedByUser(ctx, caller.UserID)
	if err != nil {
		return nil, appErrors.WrapInternal(err)
	}
	if enrollments == nil {
		enrollments = []models.EnrollmentDetail{}
	}
	for i := range enrollments {
		if start := enrollments[i].ScheduleStart; start != nil {
			var end time.Time
			if enrollments[i].ScheduleEnd != nil {
				end = *enrollments[i].ScheduleEnd
			}
			enrollments[i].ScheduleDateLabel = scheduleLabel(*start, end)
		}
	}
	return enrollments, nil
}

// ListEnrollments returns a page of enrollments for administrators.
func (s *EnrollmentService) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentAdminRow, *models.Pagination, error) {
	if err := validateEnrollmentStatus(filter.Status); err != nil {
		return nil, nil, err
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	rows, total, err := s.repo.List(ctx, filter, size, (page-1)*size)
	if err != nil {
		return nil, nil, appErrors.WrapInternal(err)
	}
	if rows == nil {
		rows = []models.EnrollmentAdminRow{}
	}
	return rows, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ExportEnrollments renders every enrollment matching filter as CSV.
func (s *EnrollmentService) ExportEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]byte, string, error) {
	if err := validateEnrollmentStatus(filter.Status); err != nil {
		return nil, "", err
	}
	rows, _, err := s.repo.List(ctx, filter, 0, 0)
	if err != nil {
		return nil, "", appErrors.WrapInternal(err)
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "E-Mail", "Name", "Kurs", "Status", "Fortschritt", "Angemeldet am", "Abgeschlossen am"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		completed := ""
		if row.CompletedAt != nil {
			completed = i18n.FormatDateShort(*row.CompletedAt)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":               row.ID,
			"E-Mail":           row.UserEmail,
			"Name":             row.UserFullName,
			"Kurs":             row.CourseTitle,
			"Status":           string(row.Status),
			"Fortschritt":      strconv.Itoa(row.Progress),
			"Angemeldet am":    i18n.FormatDateShort(row.EnrolledAt),
			"Abgeschlossen am": completed,
		})
	}

	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, "", appErrors.WrapInternal(fmt.Errorf("render enrollments csv: %w", err))
	}
	filename := fmt.Sprintf("enrollments-%s.csv", s.now().UTC().Format("20060102"))
	return data, filename, nil
}

func (s *EnrollmentService) ownedEnrollment(ctx context.Context, caller *models.JWTClaims, id string) (*models.Enrollment, error) {
	if caller == nil || caller.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "")
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "")
		}
		return nil, appErrors.WrapInternal(fmt.Errorf("find enrollment: %w", err))
	}
	if enrollment.UserID != caller.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return enrollment, nil
}

func (s *EnrollmentService) notifyEnrollment(ctx context.Context, caller *models.JWTClaims, course *models.Course, schedule *models.CourseSchedule) {
	if s.notifier == nil || caller.Email == "" {
		return
	}
	data := EnrollmentEmail{
		To:          mailerAddress(caller.FullName, caller.Email),
		Name:        caller.FullName,
		CourseTitle: course.Title,
	}
	if schedule != nil {
		data.ScheduleLabel = scheduleLabel(schedule.StartDate, schedule.EndDate)
		data.Location = schedule.Location
	}
	if err := s.notifier.SendEnrollmentConfirmation(ctx, data); err != nil {
		s.logger.Warn("enrollment confirmation not sent", zap.String("course_id", course.ID), zap.Error(err))
	}
}

func validateEnrollmentStatus(status models.EnrollmentStatus) error {
	switch status {
	case "", models.EnrollmentStatusActive, models.EnrollmentStatusCompleted, models.EnrollmentStatusCancelled:
		return nil
	}
	return appErrors.Clone(appErrors.ErrValidation, "")
}
