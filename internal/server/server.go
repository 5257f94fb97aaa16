// Package server собирает HTTP API блога: маршруты, уровни доступа,
// middleware и жизненный цикл http.Server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/gopherblog/internal/server/auth"
	"github.com/iudanet/gopherblog/internal/server/blob"
	"github.com/iudanet/gopherblog/internal/server/config"
	"github.com/iudanet/gopherblog/internal/server/handlers"
	"github.com/iudanet/gopherblog/internal/server/middleware"
	"github.com/iudanet/gopherblog/internal/server/posts"
	"github.com/iudanet/gopherblog/pkg/api"
)

// Deps сервисы, которые обслуживает HTTP слой
type Deps struct {
	Auth   *auth.Service
	Posts  *posts.Service
	Images blob.Store
	DB     handlers.Pinger
}

// Route маршрут API и требуемый уровень доступа
type Route struct {
	Handler     http.HandlerFunc
	Method      string
	Pattern     string
	Access      middleware.Access
	RateLimited bool
}

// Server HTTP сервер блога
type Server struct {
	logger  *slog.Logger
	cfg     *config.Config
	router  chi.Router
	limiter *middleware.RateLimiter
	routes  []Route
	version string
}

// New собирает роутер. Stop limiter'а выполняется в Run.
func New(logger *slog.Logger, cfg *config.Config, deps Deps, version string) *Server {
	s := &Server{
		logger:  logger,
		cfg:     cfg,
		limiter: middleware.NewRateLimiter(cfg.LoginRatePerMin, cfg.LoginRateBurst, 10*time.Minute, logger),
		version: version,
	}

	authH := handlers.NewAuthHandler(logger, deps.Auth)
	usersH := handlers.NewUsersHandler(logger, deps.Auth)
	postsH := handlers.NewPostsHandler(logger, deps.Posts, cfg.HTTP.PublicBaseURL)
	imagesH := handlers.NewImagesHandler(logger, deps.Images, cfg.UploadMaxBytes)
	healthH := handlers.NewHealthHandler(logger, deps.DB, version)

	public, authn, admin := middleware.AccessPublic, middleware.AccessAuthenticated, middleware.AccessAdmin

	s.routes = []Route{
		{Method: http.MethodPost, Pattern: "/auth/login", Access: public, Handler: authH.Login, RateLimited: true},
		{Method: http.MethodGet, Pattern: "/auth/getuser", Access: authn, Handler: authH.GetUser},
		{Method: http.MethodPut, Pattern: "/auth/edituser", Access: authn, Handler: authH.EditUser},
		{Method: http.MethodGet, Pattern: "/auth/verify", Access: authn, Handler: authH.Verify},

		{Method: http.MethodPost, Pattern: "/users", Access: public, Handler: usersH.Signup},
		{Method: http.MethodGet, Pattern: "/users", Access: admin, Handler: usersH.List},
		{Method: http.MethodGet, Pattern: "/users/{id}", Access: admin, Handler: usersH.Get},
		{Method: http.MethodPut, Pattern: "/users/{id}/role", Access: admin, Handler: usersH.SetRole},
		{Method: http.MethodDelete, Pattern: "/users/{id}", Access: admin, Handler: usersH.Delete},

		{Method: http.MethodGet, Pattern: "/posts", Access: public, Handler: postsH.List},
		{Method: http.MethodGet, Pattern: "/posts/search", Access: public, Handler: postsH.Search},
		{Method: http.MethodGet, Pattern: "/posts/{id}", Access: public, Handler: postsH.Get},
		{Method: http.MethodPost, Pattern: "/posts", Access: admin, Handler: postsH.Create},
		{Method: http.MethodPut, Pattern: "/posts/{id}", Access: admin, Handler: postsH.Update},
		{Method: http.MethodDelete, Pattern: "/posts/{id}", Access: admin, Handler: postsH.Delete},

		{Method: http.MethodPost, Pattern: "/image/upload", Access: admin, Handler: imagesH.Upload},
		{Method: http.MethodDelete, Pattern: "/image/{fileName}", Access: admin, Handler: imagesH.Delete},

		{Method: http.MethodGet, Pattern: "/health", Access: public, Handler: healthH.Health},
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	// логирование снаружи recovery: запрос с паникой тоже попадает в access log
	r.Use(middleware.LoggingWithSkip(logger, []string{cfg.HTTP.APIPrefix + "/health"}))
	r.Use(middleware.RecoveryMiddleware(logger))
	r.Use(middleware.CORS(cfg.HTTP.CORSAllowedOrigins))

	r.NotFound(s.jsonStatus(http.StatusNotFound, "route not found"))
	r.MethodNotAllowed(s.jsonStatus(http.StatusMethodNotAllowed, "method not allowed"))

	mount := func(r chi.Router) {
		for _, rt := range s.routes {
			var h http.Handler = rt.Handler
			h = middleware.Guard(logger, deps.Auth, rt.Access)(h)
			if rt.RateLimited {
				h = s.limiter.Middleware(h)
			}
			r.Method(rt.Method, rt.Pattern, h)
		}
	}
	if cfg.HTTP.APIPrefix == "" || cfg.HTTP.APIPrefix == "/" {
		r.Group(mount)
	} else {
		r.Route(cfg.HTTP.APIPrefix, mount)
	}

	// изображения раздаются без префикса API
	r.Get(handlers.UploadsPath+"/{fileName}", imagesH.Serve)

	s.router = r
	return s
}

// Handler возвращает корневой http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes таблица маршрутов API
func (s *Server) Routes() []Route {
	return s.routes
}

// Run запускает сервер и блокируется до отмены ctx, затем
// корректно завершает активные запросы за ShutdownTimeout
func (s *Server) Run(ctx context.Context) error {
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.HTTP.ReadHeaderTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
			slog.String("version", s.version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) jsonStatus(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(api.ErrorResponse{Error: http.StatusText(status), Message: message}); err != nil {
			s.logger.Error("failed to encode JSON response", slog.Any("error", err))
		}
	}
}
