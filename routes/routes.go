package routes

import (
	"net/http"
	"time"

	_ "github.com/Dosada05/gamejam/docs"
	"github.com/Dosada05/gamejam/handlers"
	"github.com/Dosada05/gamejam/middleware"
	"github.com/Dosada05/gamejam/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	RequestTimeout = 30 * time.Second
	UploadTimeout  = 10 * time.Minute
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Team         *handlers.TeamHandler
	Submission   *handlers.SubmissionHandler
	Announcement *handlers.AnnouncementHandler
	Message      *handlers.MessageHandler
	Admin        *handlers.AdminHandler
	WebSocket    *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, sessions middleware.SessionParser, allowedOrigins []string, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticate := middleware.Authenticate(sessions)

	router.With(authenticate).Get("/ws", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		// Artifact uploads stream to storage and need a longer deadline.
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(UploadTimeout))
			r.Use(authenticate)
			r.Post("/teams/{teamID}/submissions", h.Submission.CreateSubmission)
		})

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(RequestTimeout))
			apiRoutes(r, authenticate, h)
		})
	})
}

func apiRoutes(r chi.Router, authenticate func(http.Handler) http.Handler, h Handlers) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Post("/logout", h.Auth.Logout)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Post("/reset-password", h.Auth.ResetPassword)
		r.With(authenticate).Get("/me", h.Auth.Me)
	})

	r.Get("/announcements", h.Announcement.ListPublished)

	r.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/teams", h.Team.ListTeams)
		r.Get("/teams/{teamID}", h.Team.GetTeam)
		r.Get("/submissions", h.Submission.ListSubmissions)

		r.Get("/messages", h.Message.Inbox)
		r.Get("/messages/{userID}", h.Message.Conversation)
		r.Post("/messages/{userID}", h.Message.Send)
		r.Post("/messages/{userID}/read", h.Message.MarkRead)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Get("/dashboard", h.Admin.Dashboard)
		r.Get("/users", h.Admin.ListUsers)
		r.Post("/users/invite", h.Admin.InviteUser)

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.Team.ListTeams)
			r.Post("/", h.Team.CreateTeam)
			r.Get("/unassigned", h.Team.ListUnassigned)
			r.Post("/remove", h.Team.Remove)
			r.Patch("/{teamID}", h.Team.RenameTeam)
			r.Delete("/{teamID}", h.Team.DeleteTeam)
			r.Post("/{teamID}/assign", h.Team.Assign)
		})

		r.Get("/announcements", h.Announcement.ListAll)
		r.Post("/announcements", h.Announcement.Create)
		r.Put("/announcements/{announcementID}", h.Announcement.Update)
		r.Delete("/announcements/{announcementID}", h.Announcement.Delete)

		r.Delete("/submissions/{submissionID}", h.Submission.DeleteSubmission)
	})
}
