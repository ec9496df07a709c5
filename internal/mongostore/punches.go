package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// punchDocument 在打卡记录上附加 is_open 字段，供部分唯一索引使用
type punchDocument struct {
	domain.Punch `bson:",inline"`
	IsOpen       bool `bson:"is_open"`
}

func newPunchDocument(p *domain.Punch) punchDocument {
	return punchDocument{Punch: *p, IsOpen: p.IsOpen()}
}

func (s *Store) findPunches(ctx context.Context, filter bson.M) ([]*domain.Punch, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	cursor, err := s.punches.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "time_in", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("查询打卡记录失败: %w", err)
	}

	var docs []punchDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("解码打卡记录失败: %w", err)
	}

	punches := make([]*domain.Punch, 0, len(docs))
	for i := range docs {
		punches = append(punches, &docs[i].Punch)
	}

	return punches, nil
}

func (s *Store) findPunch(ctx context.Context, filter bson.M) (*domain.Punch, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var doc punchDocument
	if err := s.punches.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, fmt.Errorf("查询打卡记录失败: %w", err)
	}

	return &doc.Punch, nil
}

func (s *Store) GetPunchByID(ctx context.Context, id string) (*domain.Punch, error) {
	return s.findPunch(ctx, bson.M{"_id": id})
}

func (s *Store) GetOpenPunch(ctx context.Context, applicantID string) (*domain.Punch, error) {
	return s.findPunch(ctx, bson.M{"applicant_id": applicantID, "is_open": true})
}

func (s *Store) GetOpenPunches(ctx context.Context) ([]*domain.Punch, error) {
	return s.findPunches(ctx, bson.M{"is_open": true})
}

func (s *Store) GetPunchesByApplicant(ctx context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error) {
	return s.findPunches(ctx, bson.M{
		"applicant_id": applicantID,
		"time_in":      bson.M{"$gte": from, "$lt": to},
	})
}

// overlapCandidatesFilter 与 repository.IsOverlapCandidate 等价
func overlapCandidatesFilter(applicantID string, from, to time.Time) bson.M {
	return bson.M{
		"applicant_id": applicantID,
		"$or": bson.A{
			bson.M{"is_open": true},
			bson.M{"time_out": bson.M{"$gt": from}, "time_in": bson.M{"$lt": to}},
		},
	}
}

func (s *Store) GetOverlapCandidates(ctx context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error) {
	return s.findPunches(ctx, overlapCandidatesFilter(applicantID, from, to))
}

func (s *Store) CreatePunch(ctx context.Context, punch *domain.Punch) error {
	if punch.ID == "" {
		punch.ID = uuid.NewString()
	}
	punch.CreatedAt = time.Now().UTC()
	punch.Version = 1

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	if _, err := s.punches.InsertOne(ctx, newPunchDocument(punch)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrOpenPunchExists
		}
		return fmt.Errorf("创建打卡记录失败: %w", err)
	}

	return nil
}

// UpdatePunch 使用乐观锁替换打卡记录，version 不一致时返回 ErrEditConflict
func (s *Store) UpdatePunch(ctx context.Context, punch *domain.Punch) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	current := punch.Version
	punch.Version = current + 1

	res, err := s.punches.ReplaceOne(ctx, bson.M{"_id": punch.ID, "version": current}, newPunchDocument(punch))
	if err != nil {
		punch.Version = current
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrOpenPunchExists
		}
		return fmt.Errorf("更新打卡记录失败: %w", err)
	}
	if res.MatchedCount == 0 {
		punch.Version = current
		return repository.ErrEditConflict
	}

	return nil
}
