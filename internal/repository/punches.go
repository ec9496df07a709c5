package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

const punchColumns = `id, applicant_id, job_id, shift_slug, time_in, time_out, status, close_reason, created_at, version`

func scanPunch(row rowScanner) (*domain.Punch, error) {
	punch := &domain.Punch{}
	var timeOut sql.NullTime

	dst := []any{
		&punch.ID,
		&punch.ApplicantID,
		&punch.JobID,
		&punch.ShiftSlug,
		&punch.TimeIn,
		&timeOut,
		&punch.Status,
		&punch.CloseReason,
		&punch.CreatedAt,
		&punch.Version,
	}
	if err := row.Scan(dst...); err != nil {
		return nil, err
	}

	if timeOut.Valid {
		punch.TimeOut = &timeOut.Time
	}

	return punch, nil
}

func (r *Repository) queryPunches(ctx context.Context, query string, args ...any) ([]*domain.Punch, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	punches := make([]*domain.Punch, 0)
	for rows.Next() {
		punch, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		punches = append(punches, punch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return punches, nil
}

func (r *Repository) queryPunch(ctx context.Context, query string, args ...any) (*domain.Punch, error) {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	punch, err := scanPunch(r.dbpool.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return punch, nil
}

func (r *Repository) GetPunchByID(ctx context.Context, id string) (*domain.Punch, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRecordNotFound
	}
	return r.queryPunch(ctx, `SELECT `+punchColumns+` FROM punches WHERE id = $1`, id)
}

func (r *Repository) GetOpenPunch(ctx context.Context, applicantID string) (*domain.Punch, error) {
	return r.queryPunch(ctx, `SELECT `+punchColumns+` FROM punches WHERE applicant_id = $1 AND time_out IS NULL`, applicantID)
}

func (r *Repository) GetOpenPunches(ctx context.Context) ([]*domain.Punch, error) {
	return r.queryPunches(ctx, `SELECT `+punchColumns+` FROM punches WHERE time_out IS NULL ORDER BY time_in`)
}

func (r *Repository) GetPunchesByApplicant(ctx context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error) {
	query := `
		SELECT ` + punchColumns + `
		FROM punches
		WHERE applicant_id = $1 AND time_in >= $2 AND time_in < $3
		ORDER BY time_in
	`
	return r.queryPunches(ctx, query, applicantID, from, to)
}

// IsOverlapCandidate 是查询重叠候选记录时使用的条件：所有未结束的记录，以及与 [from, to) 有交集的已结束记录
// overlapCandidatesQuery 和 mongostore 中的过滤条件与它等价
func IsOverlapCandidate(p *domain.Punch, from, to time.Time) bool {
	return p.IsOpen() || (p.TimeOut.After(from) && p.TimeIn.Before(to))
}

const overlapCandidatesQuery = `
	SELECT ` + punchColumns + `
	FROM punches
	WHERE applicant_id = $1 AND (time_out IS NULL OR (time_out > $2 AND time_in < $3))
	ORDER BY time_in
`

func (r *Repository) GetOverlapCandidates(ctx context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error) {
	return r.queryPunches(ctx, overlapCandidatesQuery, applicantID, from, to)
}

func punchWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case "punches_one_open_per_applicant":
			return ErrOpenPunchExists
		case "punches_job_id_fkey":
			return ErrRecordNotFound
		}
	}
	return err
}

func (r *Repository) CreatePunch(ctx context.Context, punch *domain.Punch) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	if punch.ID == "" {
		punch.ID = uuid.NewString()
	}

	query := `
		INSERT INTO punches (id, applicant_id, job_id, shift_slug, time_in, time_out, status, close_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, version
	`
	params := []any{punch.ID, punch.ApplicantID, punch.JobID, punch.ShiftSlug, punch.TimeIn, punch.TimeOut, punch.Status, punch.CloseReason}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&punch.CreatedAt, &punch.Version); err != nil {
		return punchWriteError(err)
	}

	return nil
}

// UpdatePunch 使用乐观锁更新打卡记录，version 不一致时返回 ErrEditConflict
func (r *Repository) UpdatePunch(ctx context.Context, punch *domain.Punch) error {
	ctx, cancel := r.queryContext(ctx)
	defer cancel()

	query := `
		UPDATE punches
		SET
			shift_slug = $1,
			time_in = $2,
			time_out = $3,
			status = $4,
			close_reason = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`
	params := []any{punch.ShiftSlug, punch.TimeIn, punch.TimeOut, punch.Status, punch.CloseReason, punch.ID, punch.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, params...).Scan(&punch.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrEditConflict
		}
		return punchWriteError(err)
	}

	return nil
}
