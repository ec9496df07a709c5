package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

var (
	ErrRecordNotFound  = errors.New("记录不存在")
	ErrEditConflict    = errors.New("记录已被修改")
	ErrOpenPunchExists = errors.New("已存在未结束的打卡记录")
	ErrDuplicateSlug   = errors.New("班次标识重复")
	ErrJobInUse        = errors.New("工作已存在打卡记录")
)

// Store 是 handler 和 sweeper 依赖的存储接口，postgres 和 mongodb 各有一个实现
//
// 打卡记录的唯一性（每个申请人最多一条未结束记录）必须由存储层保证，
// CreatePunch/UpdatePunch 违反时返回 ErrOpenPunchExists。
type Store interface {
	GetAllJobs(ctx context.Context) ([]*domain.Job, error)
	GetJobByID(ctx context.Context, id string) (*domain.Job, error)
	CreateJob(ctx context.Context, job *domain.Job) error
	UpdateJob(ctx context.Context, job *domain.Job) error
	DeleteJob(ctx context.Context, id string) error

	GetPunchByID(ctx context.Context, id string) (*domain.Punch, error)
	GetOpenPunch(ctx context.Context, applicantID string) (*domain.Punch, error)
	GetOpenPunches(ctx context.Context) ([]*domain.Punch, error)
	GetPunchesByApplicant(ctx context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error)
	GetOverlapCandidates(ctx context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error)
	CreatePunch(ctx context.Context, punch *domain.Punch) error
	UpdatePunch(ctx context.Context, punch *domain.Punch) error
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

var _ Store = (*Repository)(nil)

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) transactionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}
