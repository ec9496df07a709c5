package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/seed"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/storage"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/utils"
)

func main() {
	var op int
	var n int
	var days int
	var jobID string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入演示工作, 2: 插入历史打卡记录)")
	flag.IntVar(&n, "n", 8, "申请人数量")
	flag.IntVar(&days, "days", 14, "历史打卡记录覆盖的天数")
	flag.StringVar(&jobID, "job-id", "", "插入历史打卡记录的工作 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("无法读取 .env 文件", "error", err)
		os.Exit(1)
	}

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("无法加载时区", "error", err)
		os.Exit(1)
	}

	store, closeStore, err := storage.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("无法创建存储", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	engine := timeclock.New(loc, timeclock.WithMaxPunchDuration(cfg.MaxPunchDuration()))
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ctx := context.Background()

	if n <= 0 {
		logger.Error("请输入合法的申请人数量")
		return
	}
	applicants := seed.Applicants(n)

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		// 有效期从两周前开始，便于之后插入历史记录
		from := time.Now().In(loc).AddDate(0, 0, -14)
		job := seed.DemoJob(r, applicants, from, 16)
		if err := utils.ValidateJob(engine, job); err != nil {
			logger.Error("生成的工作不合法", "error", err)
			return
		}

		if err := store.CreateJob(ctx, job); err != nil {
			logger.Error("无法插入工作", slog.String("error", err.Error()))
			return
		}

		logger.Info("插入工作成功", slog.String("job_id", job.ID), slog.Int("shifts", len(job.Shifts)))
	case 2:
		if jobID == "" {
			logger.Error("请输入工作 ID")
			return
		}

		job, err := store.GetJobByID(ctx, jobID)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				logger.Error("指定的工作不存在", slog.String("job_id", jobID))
			default:
				logger.Error("无法获取工作", slog.String("error", err.Error()))
			}
			return
		}

		cnt := 0
		for _, punch := range seed.History(r, engine, job, applicants, time.Now(), days) {
			if err := store.CreatePunch(ctx, punch); err != nil {
				logger.Error("无法插入打卡记录", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		logger.Info("插入打卡记录成功", slog.Int("count", cnt))
	default:
		logger.Error("指定的操作非法")
	}
}
