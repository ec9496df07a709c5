package timeclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

func closedPunch(id, applicant, in, out string) *domain.Punch {
	return &domain.Punch{ID: id, ApplicantID: applicant, TimeIn: at(in), TimeOut: ptr(at(out)), Status: domain.PunchStatusClosed}
}

func openPunch(id, applicant, in string) *domain.Punch {
	return &domain.Punch{ID: id, ApplicantID: applicant, TimeIn: at(in), Status: domain.PunchStatusOpen}
}

func TestHasOverlap(t *testing.T) {
	e := newEngine()
	now := at("2024-06-10 12:00:00")

	t.Run("touching punches never overlap", func(t *testing.T) {
		existing := []*domain.Punch{closedPunch("p1", "A", "2024-06-10 09:00:00", "2024-06-10 17:00:00")}
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-10 17:00:00"), ptr(at("2024-06-10 18:00:00")), "", now))
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-10 08:00:00"), ptr(at("2024-06-10 09:00:00")), "", now))
	})

	t.Run("intersecting punches overlap", func(t *testing.T) {
		existing := []*domain.Punch{closedPunch("p1", "A", "2024-06-10 09:00:00", "2024-06-10 17:00:00")}
		assert.True(t, e.HasOverlap(existing, "A", at("2024-06-10 16:59:00"), ptr(at("2024-06-10 18:00:00")), "", now))
		assert.True(t, e.HasOverlap(existing, "A", at("2024-06-10 10:00:00"), ptr(at("2024-06-10 11:00:00")), "", now))
	})

	t.Run("two open punches always overlap", func(t *testing.T) {
		existing := []*domain.Punch{openPunch("p1", "A", "2024-06-01 09:00:00")}
		assert.True(t, e.HasOverlap(existing, "A", at("2024-06-10 11:00:00"), nil, "", now))
		assert.True(t, e.HasOverlap(existing, "A", at("2024-05-01 11:00:00"), nil, "", now))
	})

	t.Run("open punch spans until now", func(t *testing.T) {
		existing := []*domain.Punch{openPunch("p1", "A", "2024-06-10 09:00:00")}
		assert.True(t, e.HasOverlap(existing, "A", at("2024-06-10 10:00:00"), ptr(at("2024-06-10 11:00:00")), "", now))
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-10 12:00:00"), ptr(at("2024-06-10 13:00:00")), "", now))
	})

	t.Run("open candidate against a closed punch", func(t *testing.T) {
		existing := []*domain.Punch{closedPunch("p1", "A", "2024-06-10 08:00:00", "2024-06-10 11:00:00")}
		assert.True(t, e.HasOverlap(existing, "A", at("2024-06-10 10:30:00"), nil, "", now))
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-10 11:00:00"), nil, "", now))
	})

	t.Run("the edited punch itself is excluded", func(t *testing.T) {
		existing := []*domain.Punch{closedPunch("p1", "A", "2024-06-10 09:00:00", "2024-06-10 17:00:00")}
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-10 09:30:00"), ptr(at("2024-06-10 17:30:00")), "p1", now))
	})

	t.Run("other applicants are ignored", func(t *testing.T) {
		existing := []*domain.Punch{
			closedPunch("p1", "B", "2024-06-10 09:00:00", "2024-06-10 17:00:00"),
			openPunch("p2", "B", "2024-06-10 09:00:00"),
		}
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-10 10:00:00"), nil, "", now))
	})

	t.Run("implausibly long punches are excluded", func(t *testing.T) {
		existing := []*domain.Punch{closedPunch("p1", "A", "2024-06-01 09:00:00", "2024-06-10 17:00:00")}
		assert.False(t, e.HasOverlap(existing, "A", at("2024-06-05 10:00:00"), ptr(at("2024-06-05 11:00:00")), "", now))

		unlimited := New(cst, WithMaxPunchDuration(0))
		assert.True(t, unlimited.HasOverlap(existing, "A", at("2024-06-05 10:00:00"), ptr(at("2024-06-05 11:00:00")), "", now))
	})
}

func TestIsImplausibleDuration(t *testing.T) {
	e := New(cst, WithMaxPunchDuration(12*time.Hour))

	assert.False(t, e.IsImplausibleDuration(at("2024-06-10 09:00:00"), at("2024-06-10 21:00:00")))
	assert.True(t, e.IsImplausibleDuration(at("2024-06-10 09:00:00"), at("2024-06-10 21:00:01")))
	assert.True(t, e.IsImplausibleDuration(at("2024-06-10 09:00:00"), at("2024-06-10 08:00:00")))
}

func TestOverlapSearchRange(t *testing.T) {
	now := at("2024-06-10 12:00:00")

	from, to := OverlapSearchRange(at("2024-06-10 09:00:00"), nil, now)
	assert.True(t, from.Equal(at("2024-06-10 09:00:00")))
	assert.True(t, to.Equal(now))

	from, to = OverlapSearchRange(at("2024-06-09 09:00:00"), ptr(at("2024-06-09 10:00:00")), now)
	assert.True(t, from.Equal(at("2024-06-09 09:00:00")))
	assert.True(t, to.Equal(at("2024-06-09 10:00:00")))
}
