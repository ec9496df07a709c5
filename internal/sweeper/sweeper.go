// Package sweeper 定期扫描未结束的打卡记录，处理遗忘下班打卡的情况
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

type Store interface {
	GetJobByID(ctx context.Context, id string) (*domain.Job, error)
	GetOpenPunches(ctx context.Context) ([]*domain.Punch, error)
	UpdatePunch(ctx context.Context, punch *domain.Punch) error
}

type Publisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Locker interface {
	Acquire(ctx context.Context, applicantID string) (func(), error)
}

// Result 是一次扫描的统计
type Result struct {
	Scanned    int
	Flagged    int
	AutoClosed int
	Skipped    int
}

type Sweeper struct {
	store          Store
	engine         *timeclock.Engine
	mailer         Publisher
	locker         Locker
	managerAddress string
	now            func() time.Time

	cron *cron.Cron
}

func New(store Store, engine *timeclock.Engine, mailer Publisher, locker Locker, managerAddress string) *Sweeper {
	return &Sweeper{
		store:          store,
		engine:         engine,
		mailer:         mailer,
		locker:         locker,
		managerAddress: managerAddress,
		now:            time.Now,
	}
}

// Start 按照 spec（带秒字段的 cron 表达式）定期执行 Sweep
func (s *Sweeper) Start(spec string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithLocation(s.engine.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if _, err := c.AddFunc(spec, s.run); err != nil {
		return fmt.Errorf("无效的 cron 表达式 %q: %w", spec, err)
	}

	s.cron = c
	c.Start()
	slog.Info("遗忘打卡扫描已启动", "spec", spec)

	return nil
}

// Stop 停止调度并等待正在执行的扫描结束
func (s *Sweeper) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	start := time.Now()
	res, err := s.Sweep(context.Background())
	if err != nil {
		slog.Error("遗忘打卡扫描失败", "error", err)
		return
	}
	slog.Info("遗忘打卡扫描完成",
		"scanned", res.Scanned,
		"flagged", res.Flagged,
		"autoClosed", res.AutoClosed,
		"skipped", res.Skipped,
		"duration", time.Since(start),
	)
}

// Sweep 扫描一次所有未结束的打卡记录
//
// 已经遗忘的记录：工作开启了自动下班打卡时按班次结束时间关闭，否则标记为 abandoned_flagged。
// 两种情况都会给管理员发送邮件，已标记过的记录不会重复通知。
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	var res Result

	punches, err := s.store.GetOpenPunches(ctx)
	if err != nil {
		return res, fmt.Errorf("获取未结束的打卡记录失败: %w", err)
	}

	now := s.now()
	jobs := make(map[string]*domain.Job)

	for _, punch := range punches {
		res.Scanned++

		job, cached := jobs[punch.JobID]
		if !cached {
			job, err = s.store.GetJobByID(ctx, punch.JobID)
			if err != nil {
				if !errors.Is(err, repository.ErrRecordNotFound) {
					return res, fmt.Errorf("获取工作 %s 失败: %w", punch.JobID, err)
				}
				slog.Warn("打卡记录对应的工作不存在", "punchID", punch.ID, "jobID", punch.JobID)
				job = nil
			}
			jobs[punch.JobID] = job
		}
		if job == nil {
			res.Skipped++
			continue
		}

		if !s.engine.HasAbandonedPunch(job, punch, now) {
			continue
		}
		if !job.AutoClockoutShiftEnd && punch.Status == domain.PunchStatusAbandonedFlagged {
			continue
		}

		switch s.handle(ctx, job, punch, now) {
		case domain.PunchStatusClosed:
			res.AutoClosed++
		case domain.PunchStatusAbandonedFlagged:
			res.Flagged++
		default:
			res.Skipped++
		}
	}

	return res, nil
}

// handle 处理一条遗忘的打卡记录，返回处理后的状态，未处理时返回空字符串
func (s *Sweeper) handle(ctx context.Context, job *domain.Job, punch *domain.Punch, now time.Time) domain.PunchStatus {
	release, err := s.locker.Acquire(ctx, punch.ApplicantID)
	if err != nil {
		slog.Warn("无法获取打卡锁，跳过", "punchID", punch.ID, "error", err)
		return ""
	}
	defer release()

	var msg domain.MailMessage
	if job.AutoClockoutShiftEnd {
		end, ok := s.engine.GoverningShiftEnd(job, punch)
		if !ok || end.After(now) {
			end = now
		}
		if end.Before(punch.TimeIn) {
			end = punch.TimeIn
		}

		punch.TimeOut = &end
		punch.Status = domain.PunchStatusClosed
		punch.CloseReason = domain.CloseReasonAutoClockout

		msg = domain.MailMessage{
			Type: domain.MailTypeAutoClockout,
			To:   s.managerAddress,
			Data: domain.AutoClockoutMailData{
				PunchID:     punch.ID,
				ApplicantID: punch.ApplicantID,
				JobTitle:    job.Title,
				TimeIn:      punch.TimeIn,
				TimeOut:     end,
			},
		}
	} else {
		punch.Status = domain.PunchStatusAbandonedFlagged

		msg = domain.MailMessage{
			Type: domain.MailTypeAbandonedPunch,
			To:   s.managerAddress,
			Data: domain.AbandonedPunchMailData{
				PunchID:     punch.ID,
				ApplicantID: punch.ApplicantID,
				JobTitle:    job.Title,
				TimeIn:      punch.TimeIn,
			},
		}
	}

	if err := s.store.UpdatePunch(ctx, punch); err != nil {
		if errors.Is(err, repository.ErrEditConflict) {
			slog.Warn("打卡记录已被修改，跳过", "punchID", punch.ID)
		} else {
			slog.Error("更新打卡记录失败", "punchID", punch.ID, "error", err)
		}
		return ""
	}

	// 记录已经更新，邮件投递失败只记录日志
	if err := s.mailer.Publish(ctx, msg); err != nil {
		slog.Error("投递邮件失败", "punchID", punch.ID, "type", msg.Type, "error", err)
	}

	return punch.Status
}
