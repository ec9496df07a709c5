// Package repotest 提供 repository.Store 的内存实现，供其他包的测试使用
package repotest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
)

type MemoryStore struct {
	mu      sync.Mutex
	jobs    map[string]*domain.Job
	punches map[string]*domain.Punch
}

var _ repository.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*domain.Job),
		punches: make(map[string]*domain.Punch),
	}
}

func cloneJob(j *domain.Job) *domain.Job {
	c := *j
	c.Shifts = slices.Clone(j.Shifts)
	return &c
}

func clonePunch(p *domain.Punch) *domain.Punch {
	c := *p
	if p.TimeOut != nil {
		t := *p.TimeOut
		c.TimeOut = &t
	}
	return &c
}

func (s *MemoryStore) GetAllJobs(_ context.Context) ([]*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]*domain.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, cloneJob(j))
	}
	slices.SortFunc(jobs, func(a, b *domain.Job) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return jobs, nil
}

func (s *MemoryStore) GetJobByID(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return cloneJob(j), nil
}

func checkSlugs(job *domain.Job) error {
	seen := make(map[string]struct{}, len(job.Shifts))
	for i := range job.Shifts {
		if _, ok := seen[job.Shifts[i].Slug]; ok {
			return repository.ErrDuplicateSlug
		}
		seen[job.Shifts[i].Slug] = struct{}{}
		if job.Shifts[i].ID == "" {
			job.Shifts[i].ID = uuid.NewString()
		}
	}
	return nil
}

func (s *MemoryStore) CreateJob(_ context.Context, job *domain.Job) error {
	if err := checkSlugs(job); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now()
	job.Version = 1
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, job *domain.Job) error {
	if err := checkSlugs(job); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.jobs[job.ID]
	if !ok || current.Version != job.Version {
		return repository.ErrEditConflict
	}
	job.Version++
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *MemoryStore) DeleteJob(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.punches {
		if p.JobID == id {
			return repository.ErrJobInUse
		}
	}
	delete(s.jobs, id)
	return nil
}

func (s *MemoryStore) GetPunchByID(_ context.Context, id string) (*domain.Punch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.punches[id]
	if !ok {
		return nil, repository.ErrRecordNotFound
	}
	return clonePunch(p), nil
}

func (s *MemoryStore) filter(keep func(p *domain.Punch) bool) []*domain.Punch {
	s.mu.Lock()
	defer s.mu.Unlock()

	punches := make([]*domain.Punch, 0)
	for _, p := range s.punches {
		if keep(p) {
			punches = append(punches, clonePunch(p))
		}
	}
	slices.SortFunc(punches, func(a, b *domain.Punch) int {
		return a.TimeIn.Compare(b.TimeIn)
	})
	return punches
}

func (s *MemoryStore) GetOpenPunch(_ context.Context, applicantID string) (*domain.Punch, error) {
	punches := s.filter(func(p *domain.Punch) bool {
		return p.ApplicantID == applicantID && p.IsOpen()
	})
	if len(punches) == 0 {
		return nil, repository.ErrRecordNotFound
	}
	return punches[0], nil
}

func (s *MemoryStore) GetOpenPunches(_ context.Context) ([]*domain.Punch, error) {
	return s.filter(func(p *domain.Punch) bool { return p.IsOpen() }), nil
}

func (s *MemoryStore) GetPunchesByApplicant(_ context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error) {
	return s.filter(func(p *domain.Punch) bool {
		return p.ApplicantID == applicantID && !p.TimeIn.Before(from) && p.TimeIn.Before(to)
	}), nil
}

func (s *MemoryStore) GetOverlapCandidates(_ context.Context, applicantID string, from, to time.Time) ([]*domain.Punch, error) {
	return s.filter(func(p *domain.Punch) bool {
		return p.ApplicantID == applicantID && repository.IsOverlapCandidate(p, from, to)
	}), nil
}

// hasOtherOpen 模拟部分唯一索引：同一个申请人只能有一条未结束的记录
func (s *MemoryStore) hasOtherOpen(punch *domain.Punch) bool {
	if !punch.IsOpen() {
		return false
	}
	for _, p := range s.punches {
		if p.ID != punch.ID && p.ApplicantID == punch.ApplicantID && p.IsOpen() {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreatePunch(_ context.Context, punch *domain.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasOtherOpen(punch) {
		return repository.ErrOpenPunchExists
	}
	if _, ok := s.jobs[punch.JobID]; !ok {
		return repository.ErrRecordNotFound
	}

	if punch.ID == "" {
		punch.ID = uuid.NewString()
	}
	punch.CreatedAt = time.Now()
	punch.Version = 1
	s.punches[punch.ID] = clonePunch(punch)
	return nil
}

func (s *MemoryStore) UpdatePunch(_ context.Context, punch *domain.Punch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.punches[punch.ID]
	if !ok || current.Version != punch.Version {
		return repository.ErrEditConflict
	}
	if s.hasOtherOpen(punch) {
		return repository.ErrOpenPunchExists
	}

	punch.Version++
	s.punches[punch.ID] = clonePunch(punch)
	return nil
}

// PutPunch 直接写入一条记录，不做任何检查，用于准备测试数据
func (s *MemoryStore) PutPunch(punch *domain.Punch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if punch.ID == "" {
		punch.ID = uuid.NewString()
	}
	if punch.Version == 0 {
		punch.Version = 1
	}
	s.punches[punch.ID] = clonePunch(punch)
}

// NopLocker 是不做任何事情的锁
type NopLocker struct{}

func (NopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// RecordingPublisher 记录所有投递的邮件
type RecordingPublisher struct {
	mu       sync.Mutex
	Messages []domain.MailMessage
}

func (p *RecordingPublisher) Publish(_ context.Context, msg domain.MailMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Messages = append(p.Messages, msg)
	return nil
}

func (p *RecordingPublisher) Sent() []domain.MailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.Messages)
}
