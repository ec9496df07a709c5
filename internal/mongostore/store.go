// Package mongostore 是基于 MongoDB 的存储实现，工作和班次作为一个文档保存
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const openPunchIndexName = "punches_one_open_per_applicant"

type Store struct {
	cfg     *config.Config
	client  *mongo.Client
	jobs    *mongo.Collection
	punches *mongo.Collection
}

var _ repository.Store = (*Store)(nil)

// Connect 连接 MongoDB 并创建所需的索引
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, fmt.Errorf("连接 mongodb 失败: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.MongoDB.ConnectTimeout)*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("无法 ping 通 mongodb: %w", err)
	}

	db := client.Database(cfg.MongoDB.Database)
	s := &Store{
		cfg:     cfg,
		client:  client,
		jobs:    db.Collection("jobs"),
		punches: db.Collection("punches"),
	}

	if err := s.ensureIndexes(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.punches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "applicant_id", Value: 1}},
			Options: options.Index().
				SetName(openPunchIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_open": true}),
		},
		{Keys: bson.D{{Key: "applicant_id", Value: 1}, {Key: "time_in", Value: 1}}},
		{Keys: bson.D{{Key: "job_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("创建 punches 索引失败: %w", err)
	}

	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(s.cfg.MongoDB.QueryTimeout)*time.Second)
}
