package http

import (
	"net/http"

	"chorus/internal/auth"
	"chorus/internal/callback"
	"chorus/internal/config"
	"chorus/internal/http/handler"
	mw "chorus/internal/http/middleware"
	"chorus/internal/post"
	"chorus/internal/reputation"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

// Deps is everything the router wires together; main builds it once.
type Deps struct {
	DB       *gorm.DB
	JWT      *auth.JWT
	Verifier *callback.Verifier
	Svc      *post.Service
	Ledger   *reputation.Ledger
	Worker   *handler.WorkerHandler
}

func NewRouter(cfg config.Config, d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(mw.CORS(cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ah := &handler.AuthHandler{DB: d.DB, JWT: d.JWT}
	r.Post("/auth/register", ah.Register)
	r.Post("/auth/login", ah.Login)

	me := &handler.MeHandler{DB: d.DB}
	r.With(auth.RequireAuth(d.JWT)).Get("/me", me.Me)

	postH := &handler.PostHandler{Svc: d.Svc, DB: d.DB}
	r.Route("/posts", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", postH.Create)
		r.Get("/", postH.List)
		r.Post("/{id}/comments", postH.CreateComment)
		r.Get("/{id}/comments", postH.ListComments)
		r.Post("/{id}/reactions", postH.React)
	})

	groupH := &handler.GroupHandler{Svc: d.Svc, DB: d.DB}
	r.Route("/groups", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))

		r.Post("/", groupH.Create)
		r.Post("/{id}/join-requests", groupH.RequestJoin)
		r.Post("/join-requests/{request_id}/approve", groupH.ApproveJoin)
	})

	reviewH := &handler.ReviewHandler{DB: d.DB, Ledger: d.Ledger}
	r.Route("/moderation", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.JWT))
		r.Use(auth.RequireOperator)

		r.Get("/audits", reviewH.ListPending)
		r.Post("/audits/{id}/resolve", reviewH.Resolve)
		r.Post("/users/{id}/ban", reviewH.SetBanned)
		r.Get("/users/{id}/reputation", reviewH.History)
	})

	// Task callbacks: each endpoint verifies a token whose audience is its
	// own canonical URL.
	r.Route("/internal/tasks", func(r chi.Router) {
		r.With(d.Verifier.Require("engage-fanout")).Post("/engage-fanout", d.Worker.EngageFanOut)
		r.With(d.Verifier.Require("engage-comment")).Post("/engage-comment", d.Worker.EngageComment)
		r.With(d.Verifier.Require("engage-reaction")).Post("/engage-reaction", d.Worker.EngageReaction)
		r.With(d.Verifier.Require("cleanup-group")).Post("/cleanup-group", d.Worker.CleanupGroup)
		r.With(d.Verifier.Require("lifecycle-sweep")).Post("/lifecycle-sweep", d.Worker.LifecycleSweep)
	})

	return r
}
