package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/i18n"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository/repotest"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

const testSecret = "test-secret"

var cst = time.FixedZone("CST", 8*3600)

// 2024-06-10 是星期一
func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, cst)
}

type testEnv struct {
	t     *testing.T
	h     *Handler
	store *repotest.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.CookieName = "__test_token"

	messages, err := i18n.New("zh")
	require.NoError(t, err)

	store := repotest.NewMemoryStore()
	h, err := NewHandler(cfg, store, timeclock.New(cst), messages, repotest.NopLocker{})
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testEnv{t: t, h: h, store: store}
}

func token(t *testing.T, sub string, role domain.Role) string {
	t.Helper()

	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return ss
}

type testResponse struct {
	Status  int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(method, path, bearer string, body any, now time.Time, headers ...string) testResponse {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	e.h.now = func() time.Time { return now }

	rec := httptest.NewRecorder()
	e.h.Mux.ServeHTTP(rec, req)

	var resp testResponse
	require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	resp.Status = rec.Code
	return resp
}

func (e *testEnv) createJob(job *domain.Job) *domain.Job {
	e.t.Helper()
	require.NoError(e.t, e.store.CreateJob(context.Background(), job))
	return job
}

func frontDeskJob() *domain.Job {
	return &domain.Job{
		Title:                  "前台值班",
		EarlyClockInMinutes:    15,
		AutoAdjustEarlyClockIn: true,
		Shifts: []domain.Shift{
			{
				Slug:           "day",
				Name:           "白班",
				ShiftStartDate: "2024-01-01",
				ShiftEndDate:   "2024-12-31",
				ShiftRoster:    []string{"alice"},
				DefaultSchedule: map[string]*domain.ScheduleEntry{
					"monday": {Start: "09:00", End: "17:00", Roster: domain.NewFlatRoster("alice")},
				},
			},
		},
	}
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}
