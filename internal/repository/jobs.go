package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

const jobColumns = `
	id,
	title,
	description,
	early_clock_in_minutes,
	auto_adjust_early_clock_in,
	auto_clockout_shift_end,
	geofence,
	created_at,
	version
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	job := &domain.Job{}
	var geofence []byte

	dst := []any{
		&job.ID,
		&job.Title,
		&job.Description,
		&job.EarlyClockInMinutes,
		&job.AutoAdjustEarlyClockIn,
		&job.AutoClockoutShiftEnd,
		&geofence,
		&job.CreatedAt,
		&job.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if len(geofence) > 0 {
		if err := json.Unmarshal(geofence, &job.Geofence); err != nil {
			return nil, fmt.Errorf("解析 geofence 失败: %w", err)
		}
	}
	job.Shifts = make([]domain.Shift, 0)

	return job, nil
}

// scanShift 解析班次，default_schedule 损坏时保留为 nil，由排班判定跳过
func scanShift(row rowScanner) (string, domain.Shift, error) {
	var (
		jobID    string
		shift    domain.Shift
		schedule []byte
		roster   []byte
	)

	dst := []any{&jobID, &shift.ID, &shift.Slug, &shift.Name, &shift.ShiftStartDate, &shift.ShiftEndDate, &schedule, &roster}
	if err := row.Scan(dst...); err != nil {
		return "", shift, err
	}

	if len(schedule) > 0 {
		if err := json.Unmarshal(schedule, &shift.DefaultSchedule); err != nil {
			shift.DefaultSchedule = nil
		}
	}
	if len(roster) > 0 {
		if err := json.Unmarshal(roster, &shift.ShiftRoster); err != nil {
			return "", shift, fmt.Errorf("解析 shift_roster 失败: %w", err)
		}
	}

	return jobID, shift, nil
}

func (r *Repository) GetAllJobs(ctx context.Context) ([]*domain.Job, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*domain.Job, 0)
	jobsMap := make(map[string]*domain.Job)

	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
		jobsMap[job.ID] = job
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	query := `
		SELECT job_id, id, slug, name, shift_start_date, shift_end_date, default_schedule, shift_roster
		FROM shifts
		ORDER BY job_id, position
	`
	shiftRows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer shiftRows.Close()

	for shiftRows.Next() {
		jobID, shift, err := scanShift(shiftRows)
		if err != nil {
			return nil, err
		}
		if job, exists := jobsMap[jobID]; exists {
			job.Shifts = append(job.Shifts, shift)
		}
	}
	if err := shiftRows.Err(); err != nil {
		return nil, err
	}

	return jobs, nil
}

func (r *Repository) GetJobByID(ctx context.Context, id string) (*domain.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRecordNotFound
	}

	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	job, err := scanJob(r.dbpool.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	query := `
		SELECT job_id, id, slug, name, shift_start_date, shift_end_date, default_schedule, shift_roster
		FROM shifts
		WHERE job_id = $1
		ORDER BY position
	`
	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		_, shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		job.Shifts = append(job.Shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return job, nil
}

func (r *Repository) insertShifts(ctx context.Context, tx *sql.Tx, job *domain.Job) error {
	for i := range job.Shifts {
		shift := &job.Shifts[i]
		if shift.ID == "" {
			shift.ID = uuid.NewString()
		}

		schedule, err := json.Marshal(shift.DefaultSchedule)
		if err != nil {
			return err
		}
		roster := shift.ShiftRoster
		if roster == nil {
			roster = []string{}
		}
		rosterData, err := json.Marshal(roster)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO shifts (id, job_id, position, slug, name, shift_start_date, shift_end_date, default_schedule, shift_roster)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		params := []any{shift.ID, job.ID, i, shift.Slug, shift.Name, shift.ShiftStartDate, shift.ShiftEndDate, schedule, rosterData}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.ConstraintName == "shifts_job_id_slug_key" {
				return ErrDuplicateSlug
			}
			return err
		}
	}

	return nil
}

func (r *Repository) CreateJob(ctx context.Context, job *domain.Job) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	geofence, err := json.Marshal(job.Geofence)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO jobs (id, title, description, early_clock_in_minutes, auto_adjust_early_clock_in, auto_clockout_shift_end, geofence)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, version
	`
	params := []any{job.ID, job.Title, job.Description, job.EarlyClockInMinutes, job.AutoAdjustEarlyClockIn, job.AutoClockoutShiftEnd, geofence}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&job.CreatedAt, &job.Version); err != nil {
		return err
	}

	if err := r.insertShifts(ctx, tx, job); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateJob 更新工作配置并整体替换班次，version 不一致时返回 ErrEditConflict
func (r *Repository) UpdateJob(ctx context.Context, job *domain.Job) error {
	ctx, cancel := r.transactionContext(ctx)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	geofence, err := json.Marshal(job.Geofence)
	if err != nil {
		return err
	}

	query := `
		UPDATE jobs
		SET
			title = $1,
			description = $2,
			early_clock_in_minutes = $3,
			auto_adjust_early_clock_in = $4,
			auto_clockout_shift_end = $5,
			geofence = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`
	params := []any{job.Title, job.Description, job.EarlyClockInMinutes, job.AutoAdjustEarlyClockIn, job.AutoClockoutShiftEnd, geofence, job.ID, job.Version}
	if err := tx.QueryRowContext(ctx, query, params...).Scan(&job.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEditConflict
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shifts WHERE job_id = $1`, job.ID); err != nil {
		return err
	}
	if err := r.insertShifts(ctx, tx, job); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) DeleteJob(ctx context.Context, id string) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if _, err := r.dbpool.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "punches_job_id_fkey" {
			return ErrJobInUse
		}
		return err
	}

	return nil
}
