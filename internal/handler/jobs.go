package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/utils"
)

type shiftRequest struct {
	Slug            string                           `json:"slug" validate:"required,max=64"`
	Name            string                           `json:"name" validate:"required"`
	ShiftStartDate  string                           `json:"shiftStartDate" validate:"omitempty,datetime=2006-01-02"`
	ShiftEndDate    string                           `json:"shiftEndDate" validate:"omitempty,datetime=2006-01-02"`
	DefaultSchedule map[string]*domain.ScheduleEntry `json:"defaultSchedule" validate:"required"`
	ShiftRoster     []string                         `json:"shiftRoster" validate:"dive,required"`
}

func (req shiftRequest) toDomain() domain.Shift {
	roster := req.ShiftRoster
	if roster == nil {
		roster = make([]string, 0)
	}

	return domain.Shift{
		Slug:            req.Slug,
		Name:            req.Name,
		ShiftStartDate:  req.ShiftStartDate,
		ShiftEndDate:    req.ShiftEndDate,
		DefaultSchedule: req.DefaultSchedule,
		ShiftRoster:     roster,
	}
}

func toDomainShifts(reqs []shiftRequest) []domain.Shift {
	shifts := make([]domain.Shift, 0, len(reqs))
	for _, s := range reqs {
		shifts = append(shifts, s.toDomain())
	}
	return shifts
}

func (h *Handler) jobWriteError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrDuplicateSlug):
		h.errorResponse(w, r, h.msg(r, "DuplicateShiftSlug"))
	case errors.Is(err, repository.ErrEditConflict):
		h.errorResponse(w, r, h.msg(r, "RetryLater"))
	case errors.Is(err, repository.ErrJobInUse):
		h.errorResponse(w, r, h.msg(r, "JobInUse"))
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) GetAllJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.GetAllJobs(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, h.msg(r, "GetAllJobsSuccess"), jobs)
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title                  string          `json:"title" validate:"required"`
		Description            string          `json:"description"`
		EarlyClockInMinutes    int32           `json:"earlyClockInMinutes" validate:"gte=0,lte=1440"`
		AutoAdjustEarlyClockIn bool            `json:"autoAdjustEarlyClockIn"`
		AutoClockoutShiftEnd   bool            `json:"autoClockoutShiftEnd"`
		Geofence               domain.Geofence `json:"geofence"`
		Shifts                 []shiftRequest  `json:"shifts" validate:"dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	job := &domain.Job{
		Title:                  req.Title,
		Description:            req.Description,
		EarlyClockInMinutes:    req.EarlyClockInMinutes,
		AutoAdjustEarlyClockIn: req.AutoAdjustEarlyClockIn,
		AutoClockoutShiftEnd:   req.AutoClockoutShiftEnd,
		Geofence:               req.Geofence,
		Shifts:                 toDomainShifts(req.Shifts),
	}

	if err := utils.ValidateJob(h.engine, job); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.store.CreateJob(r.Context(), job); err != nil {
		h.jobWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, h.msg(r, "CreateJobSuccess"), job)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	h.successResponse(w, r, h.msg(r, "GetJobSuccess"), job)
}

// UpdateJob 只更新请求中出现的字段，shifts 出现时整体替换
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	var req struct {
		Title                  *string          `json:"title" validate:"omitempty,min=1"`
		Description            *string          `json:"description"`
		EarlyClockInMinutes    *int32           `json:"earlyClockInMinutes" validate:"omitempty,gte=0,lte=1440"`
		AutoAdjustEarlyClockIn *bool            `json:"autoAdjustEarlyClockIn"`
		AutoClockoutShiftEnd   *bool            `json:"autoClockoutShiftEnd"`
		Geofence               *domain.Geofence `json:"geofence"`
		Shifts                 *[]shiftRequest  `json:"shifts" validate:"omitempty,dive"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.Title != nil {
		job.Title = *req.Title
	}
	if req.Description != nil {
		job.Description = *req.Description
	}
	if req.EarlyClockInMinutes != nil {
		job.EarlyClockInMinutes = *req.EarlyClockInMinutes
	}
	if req.AutoAdjustEarlyClockIn != nil {
		job.AutoAdjustEarlyClockIn = *req.AutoAdjustEarlyClockIn
	}
	if req.AutoClockoutShiftEnd != nil {
		job.AutoClockoutShiftEnd = *req.AutoClockoutShiftEnd
	}
	if req.Geofence != nil {
		job.Geofence = *req.Geofence
	}
	if req.Shifts != nil {
		job.Shifts = toDomainShifts(*req.Shifts)
	}

	if err := utils.ValidateJob(h.engine, job); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.store.UpdateJob(r.Context(), job); err != nil {
		h.jobWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, h.msg(r, "UpdateJobSuccess"), job)
}

func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)

	if err := h.store.DeleteJob(r.Context(), job.ID); err != nil {
		h.jobWriteError(w, r, err)
		return
	}

	h.successResponse(w, r, h.msg(r, "DeleteJobSuccess"), nil)
}

type shiftWindowResponse struct {
	ApplicantID          string             `json:"applicantID"`
	At                   time.Time          `json:"at"`
	Window               *timeclock.Window  `json:"window"`
	Windows              []timeclock.Window `json:"windows"`
	CanClockIn           bool               `json:"canClockIn"`
	MinutesUntilEligible *int               `json:"minutesUntilEligible"`
	CalculatedTimeIn     time.Time          `json:"calculatedTimeIn"`
}

// GetShiftWindow 返回申请人在某一时刻适用的班次时间和打卡资格
// 查询参数：applicantID（只有管理员可以查询其他人）、at（RFC3339，默认当前时间）、shiftSlug
func (h *Handler) GetShiftWindow(w http.ResponseWriter, r *http.Request) {
	job := r.Context().Value(JobCtx).(*domain.Job)
	query := r.URL.Query()

	applicantID := applicantFromRequest(r)
	if id := query.Get("applicantID"); id != "" && id != applicantID {
		if !isManager(r) {
			h.errorResponse(w, r, h.msg(r, "PermissionDenied"))
			return
		}
		applicantID = id
	}

	at := h.now()
	if s := query.Get("at"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.errorResponse(w, r, h.msg(r, "InvalidTime"))
			return
		}
		at = parsed
	}

	var shift *domain.Shift
	if slug := query.Get("shiftSlug"); slug != "" {
		if shift = job.ShiftBySlug(slug); shift == nil {
			h.errorResponse(w, r, h.msg(r, "ShiftNotFound"))
			return
		}
	}

	resp := shiftWindowResponse{
		ApplicantID:      applicantID,
		At:               at,
		Windows:          h.engine.ResolveShiftWindows(job, applicantID, at, shift),
		CanClockIn:       h.engine.CanClockIn(job, applicantID, at, shift),
		CalculatedTimeIn: h.engine.CalculateTimeIn(job, applicantID, at, shift),
	}
	// 此刻允许打卡的时间段优先，否则返回第一个匹配的时间段
	if window, ok := h.engine.AdmittingWindow(job, applicantID, at, shift); ok {
		resp.Window = &window
	} else if window, ok := h.engine.ResolveShiftWindow(job, applicantID, at, shift); ok {
		resp.Window = &window
	}
	if minutes, ok := h.engine.MinutesUntilEligible(job, applicantID, at, shift); ok {
		resp.MinutesUntilEligible = &minutes
	}

	if resp.Window == nil {
		h.successResponse(w, r, h.msg(r, "NoShiftToday"), resp)
		return
	}
	h.successResponse(w, r, h.msg(r, "GetShiftWindowSuccess"), resp)
}
