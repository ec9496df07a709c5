package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

func TestJobCRUD(t *testing.T) {
	env := newTestEnv(t)
	manager := token(t, "carol", domain.RoleManager)
	now := at(10, 9, 0)

	body := map[string]any{
		"title":                  "前台值班",
		"earlyClockInMinutes":    10,
		"autoAdjustEarlyClockIn": true,
		"shifts": []map[string]any{
			{
				"slug":           "night",
				"name":           "夜班",
				"shiftStartDate": "2024-01-01",
				"shiftEndDate":   "2024-12-31",
				"shiftRoster":    []string{"bob"},
				"defaultSchedule": map[string]any{
					"monday": map[string]any{
						"start":  "2024-01-01T22:00:00+08:00",
						"end":    "2024-01-02T06:00:00+08:00",
						"roster": []map[string]any{{"employeeId": "bob", "status": "approved"}},
					},
				},
			},
		},
	}

	resp := env.do(http.MethodPost, "/jobs", manager, body, now)
	require.True(t, resp.Success, resp.Message)

	created := decode[domain.Job](t, resp.Data)
	require.NotEmpty(t, created.ID)
	require.Len(t, created.Shifts, 1)
	assert.True(t, created.Shifts[0].DefaultSchedule["monday"].Roster.IsStructured())

	resp = env.do(http.MethodGet, "/jobs/"+created.ID, manager, nil, now)
	require.True(t, resp.Success)

	resp = env.do(http.MethodPatch, "/jobs/"+created.ID, manager, map[string]any{"title": "夜间值班"}, now)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "夜间值班", decode[domain.Job](t, resp.Data).Title)

	resp = env.do(http.MethodGet, "/jobs", token(t, "bob", domain.RoleEmployee), nil, now)
	require.True(t, resp.Success)
	assert.Len(t, decode[[]domain.Job](t, resp.Data), 1)

	resp = env.do(http.MethodDelete, "/jobs/"+created.ID, manager, nil, now)
	require.True(t, resp.Success)

	resp = env.do(http.MethodGet, "/jobs/"+created.ID, manager, nil, now)
	assert.False(t, resp.Success)
	assert.Equal(t, "工作不存在", resp.Message)
}

func TestCreateJobValidation(t *testing.T) {
	env := newTestEnv(t)
	manager := token(t, "carol", domain.RoleManager)
	now := at(10, 9, 0)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing title", map[string]any{"shifts": []any{}}},
		{"bad weekday", map[string]any{
			"title": "x",
			"shifts": []map[string]any{{
				"slug": "a", "name": "a",
				"defaultSchedule": map[string]any{"someday": map[string]any{"start": "09:00", "end": "10:00", "roster": []string{}}},
			}},
		}},
		{"bad time", map[string]any{
			"title": "x",
			"shifts": []map[string]any{{
				"slug": "a", "name": "a",
				"defaultSchedule": map[string]any{"monday": map[string]any{"start": "nine", "end": "10:00", "roster": []string{}}},
			}},
		}},
		{"duplicate slug", map[string]any{
			"title": "x",
			"shifts": []map[string]any{
				{"slug": "a", "name": "a", "defaultSchedule": map[string]any{}},
				{"slug": "a", "name": "b", "defaultSchedule": map[string]any{}},
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(http.MethodPost, "/jobs", manager, tt.body, now)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestDeleteJobInUse(t *testing.T) {
	env := newTestEnv(t)
	job := env.createJob(frontDeskJob())
	env.store.PutPunch(&domain.Punch{ApplicantID: "alice", JobID: job.ID, TimeIn: at(10, 9, 0), Status: domain.PunchStatusOpen})

	resp := env.do(http.MethodDelete, "/jobs/"+job.ID, token(t, "carol", domain.RoleManager), nil, at(10, 10, 0))
	assert.False(t, resp.Success)
	assert.Equal(t, "该工作已有打卡记录，无法删除", resp.Message)
}

func TestGetShiftWindow(t *testing.T) {
	env := newTestEnv(t)
	job := env.createJob(frontDeskJob())
	alice := token(t, "alice", domain.RoleEmployee)

	type windowResp struct {
		Window               *struct{ Start, End time.Time } `json:"window"`
		CanClockIn           bool                            `json:"canClockIn"`
		MinutesUntilEligible *int                            `json:"minutesUntilEligible"`
		CalculatedTimeIn     time.Time                       `json:"calculatedTimeIn"`
	}

	t.Run("early within allowance", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/jobs/"+job.ID+"/shift-window", alice, nil, at(10, 8, 50))
		require.True(t, resp.Success, resp.Message)

		data := decode[windowResp](t, resp.Data)
		require.NotNil(t, data.Window)
		assert.True(t, data.Window.Start.Equal(at(10, 9, 0)))
		assert.True(t, data.Window.End.Equal(at(10, 17, 0)))
		assert.True(t, data.CanClockIn)
		require.NotNil(t, data.MinutesUntilEligible)
		assert.Equal(t, 0, *data.MinutesUntilEligible)
		assert.True(t, data.CalculatedTimeIn.Equal(at(10, 9, 0)))
	})

	t.Run("too early", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/jobs/"+job.ID+"/shift-window?at=2024-06-10T08:30:00%2B08:00", alice, nil, at(10, 12, 0))
		require.True(t, resp.Success, resp.Message)

		data := decode[windowResp](t, resp.Data)
		assert.False(t, data.CanClockIn)
		require.NotNil(t, data.MinutesUntilEligible)
		assert.Equal(t, 15, *data.MinutesUntilEligible)
	})

	t.Run("not scheduled", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/jobs/"+job.ID+"/shift-window", token(t, "bob", domain.RoleEmployee), nil, at(10, 9, 0))
		require.True(t, resp.Success)
		assert.Equal(t, "今天没有排班", resp.Message)

		data := decode[windowResp](t, resp.Data)
		assert.Nil(t, data.Window)
		assert.False(t, data.CanClockIn)
		assert.Nil(t, data.MinutesUntilEligible)
	})

	t.Run("employee cannot query others", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/jobs/"+job.ID+"/shift-window?applicantID=bob", alice, nil, at(10, 9, 0))
		assert.False(t, resp.Success)
	})

	t.Run("unknown shift", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/jobs/"+job.ID+"/shift-window?shiftSlug=night", alice, nil, at(10, 9, 0))
		assert.False(t, resp.Success)
		assert.Equal(t, "班次不存在", resp.Message)
	})

	t.Run("invalid time", func(t *testing.T) {
		resp := env.do(http.MethodGet, "/jobs/"+job.ID+"/shift-window?at=yesterday", alice, nil, at(10, 9, 0))
		assert.False(t, resp.Success)
	})
}
