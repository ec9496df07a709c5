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

// prepareShifts 为新班次分配 ID，并检查 slug 是否重复
func prepareShifts(job *domain.Job) error {
	seen := make(map[string]struct{}, len(job.Shifts))
	for i := range job.Shifts {
		if _, exists := seen[job.Shifts[i].Slug]; exists {
			return repository.ErrDuplicateSlug
		}
		seen[job.Shifts[i].Slug] = struct{}{}

		if job.Shifts[i].ID == "" {
			job.Shifts[i].ID = uuid.NewString()
		}
	}
	if job.Shifts == nil {
		job.Shifts = make([]domain.Shift, 0)
	}
	return nil
}

// jobDocument 用于读取工作文档，班次的排班单独解码
type jobDocument struct {
	domain.Job `bson:",inline"`
	Shifts     []shiftDocument `bson:"shifts"`
}

type shiftDocument struct {
	domain.Shift    `bson:",inline"`
	DefaultSchedule bson.RawValue `bson:"default_schedule"`
}

// toJob 转换为工作，某个班次的排班无法解析时只丢弃这个班次的排班
func (d *jobDocument) toJob() *domain.Job {
	job := d.Job
	job.Shifts = make([]domain.Shift, 0, len(d.Shifts))

	for _, sd := range d.Shifts {
		shift := sd.Shift
		shift.DefaultSchedule = nil
		if sd.DefaultSchedule.Type == bson.TypeEmbeddedDocument {
			if err := sd.DefaultSchedule.Unmarshal(&shift.DefaultSchedule); err != nil {
				shift.DefaultSchedule = nil
			}
		}
		job.Shifts = append(job.Shifts, shift)
	}

	return &job
}

func (s *Store) GetAllJobs(ctx context.Context) ([]*domain.Job, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	cursor, err := s.jobs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("查询工作失败: %w", err)
	}

	var docs []jobDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("解码工作失败: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(docs))
	for i := range docs {
		jobs = append(jobs, docs[i].toJob())
	}

	return jobs, nil
}

func (s *Store) GetJobByID(ctx context.Context, id string) (*domain.Job, error) {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	var doc jobDocument
	if err := s.jobs.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRecordNotFound
		}
		return nil, fmt.Errorf("查询工作失败: %w", err)
	}

	return doc.toJob(), nil
}

func (s *Store) CreateJob(ctx context.Context, job *domain.Job) error {
	if err := prepareShifts(job); err != nil {
		return err
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	job.Version = 1

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	if _, err := s.jobs.InsertOne(ctx, job); err != nil {
		return fmt.Errorf("创建工作失败: %w", err)
	}

	return nil
}

// UpdateJob 整体替换工作文档，version 不一致时返回 ErrEditConflict
func (s *Store) UpdateJob(ctx context.Context, job *domain.Job) error {
	if err := prepareShifts(job); err != nil {
		return err
	}

	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	current := job.Version
	job.Version = current + 1

	res, err := s.jobs.ReplaceOne(ctx, bson.M{"_id": job.ID, "version": current}, job)
	if err != nil {
		job.Version = current
		return fmt.Errorf("更新工作失败: %w", err)
	}
	if res.MatchedCount == 0 {
		job.Version = current
		return repository.ErrEditConflict
	}

	return nil
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	ctx, cancel := s.queryContext(ctx)
	defer cancel()

	n, err := s.punches.CountDocuments(ctx, bson.M{"job_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("统计打卡记录失败: %w", err)
	}
	if n > 0 {
		return repository.ErrJobInUse
	}

	if _, err := s.jobs.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("删除工作失败: %w", err)
	}

	return nil
}
