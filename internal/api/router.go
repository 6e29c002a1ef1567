package api

import (
	"net/http"
	"time"

	"msgboard/internal/api/handler"
	"msgboard/internal/api/middleware"
	"msgboard/internal/app/service"
	"msgboard/internal/app/session"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(
	authService *service.AuthService,
	boardService *service.BoardService,
	sessions session.Store,
	sessionTTL time.Duration,
	enforceCSRF bool,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger) // Chi's logger
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Every request carries its identity snapshot, anonymous or not.
	r.Use(middleware.WithSession(sessions))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService, sessions, sessionTTL)
	authHandler.RegisterRoutes(r)

	boardHandler := handler.NewBoardHandler(boardService)
	boardHandler.RegisterRoutes(r, enforceCSRF)

	return r
}
