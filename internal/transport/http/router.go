package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taara-api/internal/application/account"
	"github.com/taara-api/internal/application/announcement"
	"github.com/taara-api/internal/application/document"
	"github.com/taara-api/internal/application/lifecycle"
	"github.com/taara-api/internal/application/notification"
	"github.com/taara-api/internal/application/pet"
	"github.com/taara-api/internal/application/schedule"
	"github.com/taara-api/internal/application/sms"
	"github.com/taara-api/internal/config"
	"github.com/taara-api/internal/domain"
	"github.com/taara-api/internal/infrastructure/metrics"
	"github.com/taara-api/internal/pkg/logging"
	"github.com/taara-api/internal/transport/http/handler"
	appmiddleware "github.com/taara-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// rate limiter's background sweeper.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	log := logging.OrNop(deps.Logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.TokenProvider)
	adminOnly := appmiddleware.RequireRole(domain.RoleAdmin)

	// 5 requests/second, burst of 10, on login/registration and request submission.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10)

	notifSvc := notification.NewService(notification.ServiceDeps{
		NotificationRepo: deps.NotificationRepo,
		Broker:           deps.Broker,
		Logger:           log.Named("notification"),
		MaxRetries:       cfg.NotifyMaxRetries,
	})
	effects := lifecycle.Effects{Pets: deps.PetRepo, Slots: deps.ScheduleRepo}
	if deps.SMSSender != nil {
		effects.SMS = sms.NewService(deps.SMSSender, log.Named("sms"))
	}
	engine := lifecycle.NewEngine(lifecycle.EngineDeps{
		RequestRepo: deps.RequestRepo,
		Notifier:    notifSvc,
		Kinds:       lifecycle.DefaultRegistry(effects),
		Logger:      log.Named("lifecycle"),
	})
	scheduleSvc := schedule.NewService(schedule.ServiceDeps{
		ScheduleRepo: deps.ScheduleRepo,
		Requests:     engine,
		Logger:       log.Named("schedule"),
	})
	accountSvc := account.NewService(account.ServiceDeps{
		UserRepo:    deps.UserRepo,
		TokenSigner: deps.TokenProvider,
		Google:      deps.GoogleVerifier,
	})
	petSvc := pet.NewService(deps.PetRepo)
	documentSvc := document.NewService(document.ServiceDeps{Blobs: deps.ObjectStore, DocumentRepo: deps.DocumentRepo})
	announcementSvc := announcement.NewService(deps.AnnouncementRepo)

	healthH := handler.NewHealthHandler(deps.HealthChecks)
	accountH := handler.NewAccountHandler(accountSvc)
	requestH := handler.NewRequestHandler(engine, scheduleSvc)
	scheduleH := handler.NewScheduleHandler(scheduleSvc)
	notifH := handler.NewNotificationHandler(notifSvc)
	streamH := handler.NewStreamHandler(notifSvc, cfg.AllowedOrigins, log.Named("stream"))
	petH := handler.NewPetHandler(petSvc)
	documentH := handler.NewDocumentHandler(documentSvc)
	announcementH := handler.NewAnnouncementHandler(announcementSvc)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/accounts/register", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/accounts/login", accountH.Login)
		r.With(sensitiveRL.Limit).Post("/accounts/google", accountH.GoogleLogin)
		r.Get("/pets", petH.List)
		r.Get("/pets/{id}", petH.Get)
		r.Get("/schedules", scheduleH.List)
		r.Get("/schedules/{id}", scheduleH.Get)
		r.Get("/announcements", announcementH.List)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/accounts/me", accountH.Me)

			r.With(sensitiveRL.Limit).Post("/requests/{kind}", requestH.Submit)
			r.Get("/requests/mine", requestH.Mine)
			r.Get("/requests/{id}", requestH.Get)

			r.With(sensitiveRL.Limit).Post("/schedules/{id}/registrations", scheduleH.Register)
			r.Get("/registrations/mine", scheduleH.MyRegistrations)

			r.Get("/notifications", notifH.List)
			r.Get("/notifications/unread-count", notifH.UnreadCount)
			r.Get("/notifications/stream", streamH.Serve)
			r.Put("/notifications/read-all", notifH.MarkAllRead)
			r.Put("/notifications/{id}/read", notifH.MarkRead)
			r.Delete("/notifications", notifH.ClearAll)

			r.Post("/documents", documentH.Upload)
			r.Get("/documents/mine", documentH.Mine)
			r.Get("/documents/{id}", documentH.Get)
			r.Delete("/documents/{id}", documentH.Delete)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(adminOnly)

				r.Get("/requests", requestH.List)
				r.Put("/requests/{id}/status", requestH.Transition)
				r.Put("/requests/{id}/visibility", requestH.SetVisibility)

				r.Post("/pets", petH.Create)
				r.Put("/pets/{id}", petH.Update)
				r.Delete("/pets/{id}", petH.Delete)

				r.Post("/schedules", scheduleH.Create)
				r.Put("/schedules/{id}/cancel", scheduleH.Cancel)
				r.Delete("/schedules/{id}", scheduleH.Delete)

				r.Post("/announcements", announcementH.Create)
				r.Put("/announcements/{id}", announcementH.Update)
				r.Delete("/announcements/{id}", announcementH.Delete)

				r.Put("/accounts/{id}/role", accountH.SetRole)
			})
		})
	})

	return r
}
