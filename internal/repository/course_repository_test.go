package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coursehub-api/internal/models"
)

var courseRowColumns = []string{"id", "slug", "title", "description", "price", "currency", "duration_hours", "level", "image_url", "is_published", "created_at", "updated_at"}

func TestCourseRepositoryListPublished(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(courseRowColumns).
		AddRow("course-1", "erste-hilfe", "Erste Hilfe", "Grundkurs", "1299.00", "EUR", 8, "beginner", nil, true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE is_published = TRUE AND level = $1 AND (title ILIKE $2 OR description ILIKE $2) ORDER BY title ASC LIMIT 10 OFFSET 10")).
		WithArgs("beginner", "%hilfe%").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM courses WHERE is_published = TRUE")).
		WithArgs("beginner", "%hilfe%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	courses, total, err := repo.ListPublished(context.Background(), models.CourseFilter{Level: "beginner", Search: "hilfe", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	require.Len(t, courses, 1)
	assert.Equal(t, 1299.0, courses[0].Price)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindPublishedBySlugMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM courses WHERE slug = $1 AND is_published = TRUE")).
		WithArgs("unknown").
		WillReturnRows(sqlmock.NewRows(courseRowColumns))

	_, err := repo.FindPublishedBySlug(context.Background(), "unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseRepositoryListUpcomingSchedules(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	from := time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "course_id", "start_date", "end_date", "location", "capacity", "available_spots"}).
		AddRow("sch-1", "course-1", from.AddDate(0, 0, 7), from.AddDate(0, 0, 8), "Hamburg", 12, 5)
	mock.ExpectQuery(regexp.QuoteMeta("FROM course_schedules WHERE course_id = $1 AND start_date >= $2 ORDER BY start_date ASC")).
		WithArgs("course-1", from).
		WillReturnRows(rows)

	schedules, err := repo.ListUpcomingSchedules(context.Background(), "course-1", from)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	assert.Equal(t, 5, schedules[0].AvailableSpots)
	require.NoError(t, mock.ExpectationsWereMet())
}
