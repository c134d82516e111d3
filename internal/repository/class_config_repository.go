package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sekolah-digital/ops-api/internal/models"
)

// ClassConfigRepository handles persistence for per-class calendar and grace
// configuration.
type ClassConfigRepository struct {
	db *sqlx.DB
}

// NewClassConfigRepository constructs the repository.
func NewClassConfigRepository(db *sqlx.DB) *ClassConfigRepository {
	return &ClassConfigRepository{db: db}
}

type classConfigRow struct {
	ClassID              string         `db:"class_id"`
	Name                 string         `db:"name"`
	StudyDays            pq.StringArray `db:"study_days"`
	MorningStart         *string        `db:"morning_start"`
	AfternoonStart       *string        `db:"afternoon_start"`
	EveningStart         *string        `db:"evening_start"`
	StandardGraceMinutes int            `db:"standard_grace_minutes"`
	ExtendedGraceMinutes int            `db:"extended_grace_minutes"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (row classConfigRow) toModel() *models.ClassConfig {
	cfg := &models.ClassConfig{
		ClassID:              row.ClassID,
		Name:                 row.Name,
		StudyDays:            row.StudyDays,
		StandardGraceMinutes: row.StandardGraceMinutes,
		ExtendedGraceMinutes: row.ExtendedGraceMinutes,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	if row.MorningStart != nil {
		cfg.Shifts.Morning = *row.MorningStart
	}
	if row.AfternoonStart != nil {
		cfg.Shifts.Afternoon = *row.AfternoonStart
	}
	if row.EveningStart != nil {
		cfg.Shifts.Evening = *row.EveningStart
	}
	return cfg
}

const classConfigColumns = `class_id, name, study_days, morning_start, afternoon_start, evening_start, standard_grace_minutes, extended_grace_minutes, created_at, updated_at`

// List returns all class configs keyed by class id.
func (r *ClassConfigRepository) List(ctx context.Context) (map[string]*models.ClassConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_configs ORDER BY class_id ASC`, classConfigColumns)
	var rows []classConfigRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list class configs: %w", err)
	}
	configs := make(map[string]*models.ClassConfig, len(rows))
	for _, row := range rows {
		configs[row.ClassID] = row.toModel()
	}
	return configs, nil
}

// FindByClass loads one class config.
func (r *ClassConfigRepository) FindByClass(ctx context.Context, classID string) (*models.ClassConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_configs WHERE class_id = $1`, classConfigColumns)
	var row classConfigRow
	if err := r.db.GetContext(ctx, &row, query, classID); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// Upsert writes a class config, replacing an existing row for the class.
func (r *ClassConfigRepository) Upsert(ctx context.Context, cfg *models.ClassConfig) (*models.ClassConfig, error) {
	now := time.Now().UTC()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO class_configs (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (class_id)
DO UPDATE SET name = EXCLUDED.name, study_days = EXCLUDED.study_days,
    morning_start = EXCLUDED.morning_start, afternoon_start = EXCLUDED.afternoon_start, evening_start = EXCLUDED.evening_start,
    standard_grace_minutes = EXCLUDED.standard_grace_minutes, extended_grace_minutes = EXCLUDED.extended_grace_minutes,
    updated_at = EXCLUDED.updated_at
RETURNING %s`, classConfigColumns, classConfigColumns)

	var stored classConfigRow
	if err := r.db.GetContext(ctx, &stored, query,
		cfg.ClassID, cfg.Name, pq.StringArray(cfg.StudyDays),
		nullable(cfg.Shifts.Morning), nullable(cfg.Shifts.Afternoon), nullable(cfg.Shifts.Evening),
		cfg.StandardGraceMinutes, cfg.ExtendedGraceMinutes, cfg.CreatedAt, cfg.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert class config: %w", err)
	}
	return stored.toModel(), nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
