package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/internradar/internradar/internal/aggregator"
	"github.com/internradar/internradar/internal/auth"
	"github.com/internradar/internradar/internal/model"
	"github.com/internradar/internradar/internal/store"
)

// PostingSource is the slice of the aggregator the API needs.
type PostingSource interface {
	GetPostings(ctx context.Context) []model.Posting
	RefreshNow(ctx context.Context) aggregator.Outcome
	Lookup(id string) (model.Posting, bool)
}

// Server serves the REST API.
type Server struct {
	postings PostingSource
	store    *store.Store
	hasher   *auth.Hasher
	tokens   *auth.TokenService
	validate *validator.Validate
	logger   *slog.Logger
	router   chi.Router
}

// New wires the API routes and returns a Server.
func New(postings PostingSource, st *store.Store, hasher *auth.Hasher, tokens *auth.TokenService, logger *slog.Logger) *Server {
	s := &Server{
		postings: postings,
		store:    st,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.logRequests)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/internships", s.handleListInternships)
	r.Get("/internships/refresh", s.handleRefreshInternships)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.requireAuth).Get("/me", s.handleMe)
	})

	r.Route("/saved-jobs", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleListSavedJobs)
		r.Post("/", s.handleSaveJob)
		r.Delete("/{internshipID}", s.handleUnsaveJob)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Post("/subscribe", s.handleSubscribe)
		r.Delete("/unsubscribe/{email}", s.handleUnsubscribe)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
