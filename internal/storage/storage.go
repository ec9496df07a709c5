// Package storage 根据配置选择 postgres 或 mongodb 存储
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/mongostore"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open 创建存储，返回的 close 函数用于释放连接
func Open(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMongoDB:
		store, err := mongostore.Connect(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.MongoDB.ConnectTimeout)*time.Second)
			defer cancel()
			_ = store.Close(ctx)
		}, nil
	case config.StorageDriverPostgres:
		dbpool, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("无法创建数据库连接池: %w", err)
		}

		dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ConnectTimeout)*time.Second)
		defer cancel()

		// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
		if err := dbpool.PingContext(pingCtx); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("无法连接到数据库: %w", err)
		}

		return repository.NewRepository(cfg, dbpool), func() { dbpool.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("不支持的存储类型 %q", cfg.Storage.Driver)
	}
}
