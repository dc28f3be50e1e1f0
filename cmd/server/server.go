package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/estimator/internal/auth"
	"github.com/Simplici0/estimator/internal/store"
)

type server struct {
	store  *store.Store
	auth   *auth.Service
	logger *zap.Logger
}

func newServer(st *store.Store, authService *auth.Service, logger *zap.Logger) *server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &server{store: st, auth: authService, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/pricing/model", s.handlePublicModel)
		r.Get("/discounts/{code}", s.handleDiscountLookup)
		r.Post("/estimates", s.handleEstimate)
		r.Post("/intake", s.handleIntakeCreate)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.auth.Middleware)
			r.Use(s.adminAudit)

			r.Get("/pricing/model", s.handleAdminModel)

			r.Get("/project-types", s.handleProjectTypesList)
			r.Post("/project-types", s.handleProjectTypesCreate)
			r.Put("/project-types/{id}", s.handleProjectTypesUpdate)
			r.Delete("/project-types/{id}", s.handleProjectTypesDelete)
			r.Post("/project-types/{id}/active", s.handleProjectTypesActive)

			r.Get("/features", s.handleFeaturesList)
			r.Post("/features", s.handleFeaturesCreate)
			r.Put("/features/{id}", s.handleFeaturesUpdate)
			r.Delete("/features/{id}", s.handleFeaturesDelete)
			r.Post("/features/{id}/active", s.handleFeaturesActive)

			r.Get("/multiplier-groups", s.handleGroupsList)
			r.Post("/multiplier-groups", s.handleGroupsCreate)
			r.Put("/multiplier-groups/{id}", s.handleGroupsUpdate)
			r.Delete("/multiplier-groups/{id}", s.handleGroupsDelete)
			r.Post("/multiplier-groups/{id}/active", s.handleGroupsActive)

			r.Post("/multiplier-options", s.handleOptionsCreate)
			r.Put("/multiplier-options/{id}", s.handleOptionsUpdate)
			r.Delete("/multiplier-options/{id}", s.handleOptionsDelete)
			r.Post("/multiplier-options/{id}/active", s.handleOptionsActive)

			r.Get("/meta", s.handleMetaGet)
			r.Put("/meta/{key}", s.handleMetaSet)

			r.Get("/discounts", s.handleDiscountsList)
			r.Post("/discounts", s.handleDiscountsCreate)
			r.Put("/discounts/{id}", s.handleDiscountsUpdate)
			r.Delete("/discounts/{id}", s.handleDiscountsDelete)
			r.Post("/discounts/{id}/active", s.handleDiscountsActive)

			r.Get("/intake", s.handleIntakeList)
			r.Get("/intake/{id}", s.handleIntakeDetail)
		})
	})

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// adminAudit records which admin changed the pricing data.
func (s *server) adminAudit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("admin change",
			zap.String("admin", auth.UserFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	valid, err := s.auth.ValidateCredentials(r.Context(), req.Email, req.Password)
	if err != nil {
		s.logger.Error("validate credentials", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.auth.SetSessionCookie(w, req.Email)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
