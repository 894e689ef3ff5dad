package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"studyroom-backend/internal/handlers"
	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	recordHandler *handlers.RecordHandler,
	reportHandler *handlers.ReportHandler,
	dashboardHandler *handlers.DashboardHandler,
	scheduleHandler *handlers.ScheduleHandler,
	characterHandler *handlers.CharacterHandler,
	groupHandler *handlers.GroupHandler,
	sessionHandler *handlers.SessionHandler,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Logout requires auth
			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// ──── User & Profile Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", userHandler.GetMe)
			r.Put("/me", userHandler.UpdateMe)
			r.Delete("/me", userHandler.DeleteMe)
		})

		// ──── Study Record Routes ────
		r.Route("/records", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", recordHandler.Create)
			r.Get("/", recordHandler.List)
		})

		// ──── Report Routes ────
		r.Route("/reports", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/weekly", reportHandler.Weekly)
			r.Get("/monthly", reportHandler.Monthly)
		})

		// ──── Dashboard Routes ────
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/summary", dashboardHandler.Summary)
		})

		// ──── Planner Routes ────
		r.Route("/schedules", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", scheduleHandler.Create)
			r.Get("/", scheduleHandler.ListDay)
			r.Put("/{id}", scheduleHandler.Update)
			r.Put("/{id}/complete", scheduleHandler.ToggleComplete)
			r.Post("/{id}/postpone", scheduleHandler.Postpone)
			r.Delete("/{id}/reminder", scheduleHandler.CancelReminder)
			r.Delete("/{id}", scheduleHandler.Delete)
		})

		// ──── Character Routes ────
		r.Route("/characters", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/", characterHandler.Catalog)
			r.Get("/state", characterHandler.State)
			r.Post("/state/evolution", characterHandler.ConsumeEvolution)
			r.Post("/{id}/unlock", characterHandler.Unlock)
			r.Put("/{id}/select", characterHandler.Select)
		})

		// ──── Group Routes ────
		r.Route("/groups", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/", groupHandler.Create)
			r.Get("/", groupHandler.ListMine)
			r.Post("/join", groupHandler.Join)
			r.Get("/{id}/members", groupHandler.Members)
			r.Post("/{id}/leave", groupHandler.Leave)
			r.Post("/{id}/sessions", sessionHandler.Create)
			r.Get("/{id}/sessions/active", sessionHandler.ActiveForGroup)
		})

		// ──── Shared Timer Session Routes ────
		r.Route("/sessions", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Post("/{id}/join", sessionHandler.Join)
			r.Post("/{id}/leave", sessionHandler.Leave)
			r.Post("/{id}/end", sessionHandler.End)
			r.Get("/{id}/status", sessionHandler.Status)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
