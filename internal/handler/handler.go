package handler

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/config"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/i18n"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/repository"
	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/timeclock"
)

// Locker 对同一个申请人的打卡操作加锁
type Locker interface {
	Acquire(ctx context.Context, applicantID string) (func(), error)
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	store       repository.Store
	engine      *timeclock.Engine
	messages    *i18n.Messages
	translators map[string]ut.Translator
	locker      Locker
	now         func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, store repository.Store, engine *timeclock.Engine, messages *i18n.Messages, locker Locker) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息中使用 json 字段名
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	zhLocale := zh.New()
	uni := ut.New(zhLocale, zhLocale, en.New())

	zhTrans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, zhTrans); err != nil {
		return nil, err
	}
	enTrans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, enTrans); err != nil {
		return nil, err
	}

	return &Handler{
		validate: validate,
		config:   cfg,
		store:    store,
		engine:   engine,
		messages: messages,
		translators: map[string]ut.Translator{
			"zh": zhTrans,
			"en": enTrans,
		},
		locker: locker,
		now:    time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.locale)

	managerOnly := h.RequiredRole([]domain.Role{domain.RoleManager})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.GetAllJobs)
			r.With(managerOnly).Post("/", h.CreateJob)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.job)
				r.Get("/", h.GetJob)
				r.Get("/shift-window", h.GetShiftWindow)
				r.With(managerOnly).Patch("/", h.UpdateJob)
				r.With(managerOnly).Delete("/", h.DeleteJob)
			})
		})

		r.Route("/punches", func(r chi.Router) {
			r.Get("/", h.GetPunches)
			r.Post("/clock-in", h.ClockIn)
			r.Post("/clock-out", h.ClockOut)
			r.With(managerOnly).Post("/overlap", h.CheckOverlap)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.punch)
				r.Get("/", h.GetPunch)
				r.Get("/abandoned", h.CheckAbandoned)
				r.With(managerOnly).Patch("/", h.UpdatePunch)
			})
		})
	})
}
