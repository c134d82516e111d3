package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekolah-digital/ops-api/internal/models"
)

func newConfigMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassConfigRepositoryList(t *testing.T) {
	db, mock, cleanup := newConfigMock(t)
	defer cleanup()
	repo := NewClassConfigRepository(db)

	morning := "07:00"
	rows := sqlmock.NewRows([]string{"class_id", "name", "study_days", "morning_start", "afternoon_start", "evening_start", "standard_grace_minutes", "extended_grace_minutes", "created_at", "updated_at"}).
		AddRow("X-A", "Kelas X-A", pq.StringArray{"Monday", "Tuesday"}, morning, nil, nil, 15, 30, time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM class_configs ORDER BY class_id ASC").WillReturnRows(rows)

	configs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Contains(t, configs, "X-A")
	cfg := configs["X-A"]
	assert.Equal(t, "07:00", cfg.Shifts.Morning)
	assert.Empty(t, cfg.Shifts.Evening)
	assert.Equal(t, 15, cfg.StandardGraceMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassConfigRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newConfigMock(t)
	defer cleanup()
	repo := NewClassConfigRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "name", "study_days", "morning_start", "afternoon_start", "evening_start", "standard_grace_minutes", "extended_grace_minutes", "created_at", "updated_at"}).
		AddRow("X-A", "Kelas X-A", pq.StringArray{"Monday"}, "07:00", nil, nil, 15, 30, time.Now(), time.Now())
	mock.ExpectQuery("INSERT INTO class_configs (.+) ON CONFLICT \\(class_id\\)").WillReturnRows(rows)

	cfg, err := repo.Upsert(context.Background(), &models.ClassConfig{
		ClassID:              "X-A",
		Name:                 "Kelas X-A",
		StudyDays:            pq.StringArray{"Monday"},
		Shifts:               models.ShiftTimes{Morning: "07:00"},
		StandardGraceMinutes: 15,
		ExtendedGraceMinutes: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "X-A", cfg.ClassID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
