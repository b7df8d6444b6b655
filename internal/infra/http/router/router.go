package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/entity"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/handlers"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
)

type Handlers struct {
	Health         *handlers.HealthHandler
	Leads          *handlers.LeadHandler
	Requests       *handlers.ServiceRequestHandler
	PaymentWebhook *handlers.PaymentWebhookHandler
	Contact        *handlers.ContactHandler
	Users          *handlers.UserHandler
	Emails         *handlers.EmailHandler
	Automations    *handlers.AutomationHandler
}

type Options struct {
	AllowedOrigins []string
	Tokens         middleware.TokenVerifier
	Users          middleware.UserLoader
	RateLimiter    *middleware.RateLimiter
	Logger         *zap.Logger
}

func New(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", h.Health.Handle)
	r.Handle("/metrics", promhttp.Handler())

	authenticate := middleware.Authenticate(opts.Tokens, opts.Users, opts.Logger)
	can := middleware.RequirePermission

	r.Route("/api", func(r chi.Router) {
		// Público: formulário, rastreio, contato e webhook.
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Handler)
			}
			r.Post("/leads/create", h.Leads.Create)
			r.Get("/leads/{token}", h.Leads.Get)
			r.Put("/leads/{token}", h.Leads.Update)
			r.Post("/leads/{token}/complete-step", h.Leads.CompleteStep)
			r.Post("/leads/{token}/finalize", h.Leads.Finalize)

			r.Post("/service-requests", h.Requests.Submit)
			r.Get("/service-requests/track/{reference}", h.Requests.Track)
			r.Post("/contact", h.Contact.Submit)
			r.Post("/auth/login", h.Users.Login)
		})

		r.Post("/payments/webhook", h.PaymentWebhook.Handle)

		// Back-office.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/auth/me", h.Users.Me)

			r.With(can(entity.PermDashboardView)).Get("/dashboard/stats", h.Requests.Stats)

			// Sem Route aqui: o POST público de /service-requests vive no mesmo mux.
			r.With(can(entity.PermRequestsView)).Get("/service-requests", h.Requests.List)
			r.With(can(entity.PermRequestsExport)).Get("/service-requests/export", h.Requests.Export)
			r.With(can(entity.PermRequestsView)).Get("/service-requests/{id}", h.Requests.Get)
			r.With(can(entity.PermRequestsEdit)).Put("/service-requests/{id}", h.Requests.Update)
			r.With(can(entity.PermRequestsDelete)).Delete("/service-requests/{id}", h.Requests.Delete)

			r.With(can(entity.PermContactsView)).Get("/contact-messages", h.Contact.List)

			r.Route("/users", func(r chi.Router) {
				r.Use(can(entity.PermUsersManage))
				r.Get("/", h.Users.List)
				r.Post("/", h.Users.Create)
				r.Get("/permission-templates", h.Users.PermissionTemplates)
				r.Get("/{id}", h.Users.Get)
				r.Put("/{id}", h.Users.Update)
				r.Delete("/{id}", h.Users.Delete)
			})

			r.Route("/user-emails", func(r chi.Router) {
				r.Use(can(entity.PermEmailsView))
				r.Get("/", h.Emails.ListMessages)
				r.Get("/{id}", h.Emails.GetMessage)
				r.Post("/{id}/move", h.Emails.MoveMessage)
				r.Delete("/{id}", h.Emails.DeleteMessage)
			})
			r.With(can(entity.PermEmailsSend)).Post("/send-email", h.Emails.Send)
			r.With(can(entity.PermEmailsView)).Get("/email-logs", h.Emails.Logs)

			r.Route("/email-templates", func(r chi.Router) {
				r.With(can(entity.PermEmailsSend)).Get("/", h.Emails.ListTemplates)
				r.With(can(entity.PermEmailsSend)).Get("/{id}", h.Emails.GetTemplate)
				r.With(can(entity.PermEmailsSend)).Get("/{id}/preview", h.Emails.PreviewTemplate)
				r.With(can(entity.PermTemplatesManage)).Post("/", h.Emails.CreateTemplate)
				r.With(can(entity.PermTemplatesManage)).Put("/{id}", h.Emails.UpdateTemplate)
				r.With(can(entity.PermTemplatesManage)).Delete("/{id}", h.Emails.DeleteTemplate)
			})

			r.Route("/automations", func(r chi.Router) {
				r.Use(can(entity.PermAutomationManage))
				r.Get("/", h.Automations.List)
				r.Put("/{key}", h.Automations.Set)
			})
		})
	})

	return r
}
