package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/handler"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/i18n"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/mailqueue"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/punchlock"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/storage"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/sweeper"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("无法读取 .env 文件", "error", err)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("无法加载时区", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	store, closeStore, err := storage.Open(context.Background(), cfg)
	if err != nil {
		logger.Error("无法创建存储", "driver", cfg.Storage.Driver, "error", err)
		return
	}
	defer closeStore()

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	if _, err := mailqueue.Declare(ch); err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}
	mailer := mailqueue.NewPublisher(ch, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	locker := punchlock.New(rdb,
		time.Duration(cfg.Redis.LockExpiration)*time.Second,
		time.Duration(cfg.Redis.OperationTimeout)*time.Second,
	)

	/**********************************************
	 * 创建排班判定引擎
	 **********************************************/
	engine := timeclock.New(loc, timeclock.WithMaxPunchDuration(cfg.MaxPunchDuration()))

	messages, err := i18n.New(cfg.I18n.DefaultLocale)
	if err != nil {
		logger.Error("无法加载翻译文件", "error", err)
		return
	}

	/**********************************************
	 * 启动遗忘打卡扫描
	 **********************************************/
	sw := sweeper.New(store, engine, mailer, locker, cfg.Email.ManagerAddress)
	if cfg.Sweeper.Enabled {
		if err := sw.Start(cfg.Sweeper.Spec); err != nil {
			logger.Error("无法启动遗忘打卡扫描", "error", err)
			return
		}
	}

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, store, engine, messages, locker)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	if err := sw.Stop(ctx); err != nil {
		logger.Error("关闭遗忘打卡扫描失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
