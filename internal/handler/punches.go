package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/punchlock"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

// defaultHistoryDays 是查询打卡记录时默认回溯的天数
const defaultHistoryDays = 30

// lock 获取申请人的打卡锁，失败时已经写好了响应
func (h *Handler) lock(w http.ResponseWriter, r *http.Request, applicantID string) (func(), bool) {
	release, err := h.locker.Acquire(r.Context(), applicantID)
	if err != nil {
		switch {
		case errors.Is(err, punchlock.ErrLocked):
			h.errorResponse(w, r, h.msg(r, "PunchBusy"))
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}
	return release, true
}

// hasOverlap 从存储中取出候选记录并判断 [start, end) 是否与已有记录冲突
func (h *Handler) hasOverlap(r *http.Request, applicantID string, start time.Time, end *time.Time, excludePunchID string, now time.Time) (bool, error) {
	from, to := timeclock.OverlapSearchRange(start, end, now)

	candidates, err := h.store.GetOverlapCandidates(r.Context(), applicantID, from, to)
	if err != nil {
		return false, err
	}

	return h.engine.HasOverlap(candidates, applicantID, start, end, excludePunchID, now), nil
}

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID     string   `json:"jobID" validate:"required"`
		ShiftSlug string   `json:"shiftSlug"`
		Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
		Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	applicantID := applicantFromRequest(r)

	release, ok := h.lock(w, r, applicantID)
	if !ok {
		return
	}
	defer release()

	job, err := h.store.GetJobByID(r.Context(), req.JobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.errorResponse(w, r, h.msg(r, "JobNotFound"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	var shift *domain.Shift
	if req.ShiftSlug != "" {
		if shift = job.ShiftBySlug(req.ShiftSlug); shift == nil {
			h.errorResponse(w, r, h.msg(r, "ShiftNotFound"))
			return
		}
	}

	now := h.now()

	// 先确定允许此刻打卡的班次，之后的上班时间计算都基于这个班次
	window, ok := h.engine.AdmittingWindow(job, applicantID, now, shift)
	if !ok {
		minutes, ok := h.engine.MinutesUntilEligible(job, applicantID, now, shift)
		if ok && minutes > 0 {
			h.errorResponse(w, r, h.msg(r, "NotEligible", map[string]any{"Minutes": minutes}))
			return
		}
		h.errorResponse(w, r, h.msg(r, "NotScheduled"))
		return
	}
	shift = job.ShiftBySlug(window.ShiftSlug)

	if job.Geofence.Enabled {
		if req.Latitude == nil || req.Longitude == nil {
			h.errorResponse(w, r, h.msg(r, "CoordinatesRequired"))
			return
		}
		if !timeclock.WithinGeofence(job.Geofence, *req.Latitude, *req.Longitude) {
			h.errorResponse(w, r, h.msg(r, "OutsideGeofence"))
			return
		}
	}

	if _, err := h.store.GetOpenPunch(r.Context(), applicantID); err == nil {
		h.errorResponse(w, r, h.msg(r, "OpenPunchExists"))
		return
	} else if !errors.Is(err, repository.ErrRecordNotFound) {
		h.internalServerError(w, r, err)
		return
	}

	timeIn := h.engine.CalculateTimeIn(job, applicantID, now, shift)

	overlap, err := h.hasOverlap(r, applicantID, timeIn, nil, "", now)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if overlap {
		h.errorResponse(w, r, h.msg(r, "PunchOverlap"))
		return
	}

	punch := &domain.Punch{
		ApplicantID: applicantID,
		JobID:       job.ID,
		ShiftSlug:   window.ShiftSlug,
		TimeIn:      timeIn,
		Status:      domain.PunchStatusOpen,
	}

	if err := h.store.CreatePunch(r.Context(), punch); err != nil {
		switch {
		case errors.Is(err, repository.ErrOpenPunchExists):
			h.errorResponse(w, r, h.msg(r, "OpenPunchExists"))
		case errors.Is(err, repository.ErrRecordNotFound):
			h.errorResponse(w, r, h.msg(r, "JobNotFound"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, h.msg(r, "ClockInSuccess"), punch)
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	applicantID := applicantFromRequest(r)

	release, ok := h.lock(w, r, applicantID)
	if !ok {
		return
	}
	defer release()

	punch, err := h.store.GetOpenPunch(r.Context(), applicantID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.errorResponse(w, r, h.msg(r, "NoOpenPunch"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if !punch.Status.CanTransitionTo(domain.PunchStatusClosed) {
		h.errorResponse(w, r, h.msg(r, "InvalidStatusTransition"))
		return
	}

	// 上班时间被调整到班次开始时，在班次开始前下班的记录时长为 0
	now := h.now()
	if now.Before(punch.TimeIn) {
		now = punch.TimeIn
	}

	punch.TimeOut = &now
	punch.Status = domain.PunchStatusClosed
	punch.CloseReason = domain.CloseReasonClockOut

	if err := h.store.UpdatePunch(r.Context(), punch); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.errorResponse(w, r, h.msg(r, "RetryLater"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, h.msg(r, "ClockOutSuccess"), punch)
}

// GetPunches 查询 [from, to) 内上班的打卡记录，默认是最近 30 天
func (h *Handler) GetPunches(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	applicantID := applicantFromRequest(r)
	if id := query.Get("applicantID"); id != "" && id != applicantID {
		if !isManager(r) {
			h.errorResponse(w, r, h.msg(r, "PermissionDenied"))
			return
		}
		applicantID = id
	}

	now := h.now()
	to := now.Add(24 * time.Hour)
	from := now.AddDate(0, 0, -defaultHistoryDays)

	for param, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		s := query.Get(param)
		if s == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.errorResponse(w, r, h.msg(r, "InvalidTime"))
			return
		}
		*dst = parsed
	}

	if !from.Before(to) {
		h.errorResponse(w, r, h.msg(r, "InvalidRange"))
		return
	}

	punches, err := h.store.GetPunchesByApplicant(r.Context(), applicantID, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, h.msg(r, "GetPunchesSuccess"), punches)
}

func (h *Handler) GetPunch(w http.ResponseWriter, r *http.Request) {
	punch := r.Context().Value(PunchCtx).(*domain.Punch)

	h.successResponse(w, r, h.msg(r, "GetPunchSuccess"), punch)
}

// UpdatePunch 由管理员修正打卡时间，设置下班时间会关闭未结束的记录
func (h *Handler) UpdatePunch(w http.ResponseWriter, r *http.Request) {
	punch := r.Context().Value(PunchCtx).(*domain.Punch)

	var req struct {
		TimeIn  *time.Time `json:"timeIn"`
		TimeOut *time.Time `json:"timeOut"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	release, ok := h.lock(w, r, punch.ApplicantID)
	if !ok {
		return
	}
	defer release()

	timeIn := punch.TimeIn
	if req.TimeIn != nil {
		timeIn = *req.TimeIn
	}
	timeOut := punch.TimeOut
	if req.TimeOut != nil {
		timeOut = req.TimeOut
	}

	if timeOut != nil && h.engine.IsImplausibleDuration(timeIn, *timeOut) {
		h.errorResponse(w, r, h.msg(r, "ImplausibleDuration"))
		return
	}

	now := h.now()
	overlap, err := h.hasOverlap(r, punch.ApplicantID, timeIn, timeOut, punch.ID, now)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if overlap {
		h.errorResponse(w, r, h.msg(r, "PunchOverlap"))
		return
	}

	if punch.TimeOut == nil && timeOut != nil {
		if !punch.Status.CanTransitionTo(domain.PunchStatusClosed) {
			h.errorResponse(w, r, h.msg(r, "InvalidStatusTransition"))
			return
		}
		punch.Status = domain.PunchStatusClosed
		punch.CloseReason = domain.CloseReasonManager
	}
	punch.TimeIn = timeIn
	punch.TimeOut = timeOut

	if err := h.store.UpdatePunch(r.Context(), punch); err != nil {
		switch {
		case errors.Is(err, repository.ErrEditConflict):
			h.errorResponse(w, r, h.msg(r, "RetryLater"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, h.msg(r, "UpdatePunchSuccess"), punch)
}

// CheckAbandoned 判断打卡记录在 at（默认当前时间）时是否已被遗忘
func (h *Handler) CheckAbandoned(w http.ResponseWriter, r *http.Request) {
	punch := r.Context().Value(PunchCtx).(*domain.Punch)

	at := h.now()
	if s := r.URL.Query().Get("at"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.errorResponse(w, r, h.msg(r, "InvalidTime"))
			return
		}
		at = parsed
	}

	job, err := h.store.GetJobByID(r.Context(), punch.JobID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			h.errorResponse(w, r, h.msg(r, "JobNotFound"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	resp := struct {
		Abandoned bool       `json:"abandoned"`
		ShiftEnd  *time.Time `json:"shiftEnd"`
	}{
		Abandoned: h.engine.HasAbandonedPunch(job, punch, at),
	}
	if end, ok := h.engine.GoverningShiftEnd(job, punch); ok {
		resp.ShiftEnd = &end
	}

	h.successResponse(w, r, h.msg(r, "CheckAbandonedSuccess"), resp)
}

// CheckOverlap 判断一段候选时间是否与申请人已有的打卡记录冲突，end 为空表示未结束
func (h *Handler) CheckOverlap(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplicantID    string     `json:"applicantID" validate:"required"`
		Start          time.Time  `json:"start" validate:"required"`
		End            *time.Time `json:"end"`
		ExcludePunchID string     `json:"excludePunchID"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	overlap, err := h.hasOverlap(r, req.ApplicantID, req.Start, req.End, req.ExcludePunchID, h.now())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	resp := struct {
		HasOverlap          bool `json:"hasOverlap"`
		ImplausibleDuration bool `json:"implausibleDuration"`
	}{
		HasOverlap:          overlap,
		ImplausibleDuration: req.End != nil && h.engine.IsImplausibleDuration(req.Start, *req.End),
	}

	h.successResponse(w, r, h.msg(r, "CheckOverlapSuccess"), resp)
}
