package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"msgboard/internal/api/middleware"
	"msgboard/internal/app/service"
	"msgboard/internal/app/session"
	"msgboard/internal/common"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	sessions    session.Store
	sessionTTL  time.Duration
}

func NewAuthHandler(authService *service.AuthService, sessions session.Store, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{authService: authService, sessions: sessions, sessionTTL: sessionTTL}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

// signup never reveals whether validation failed or the username was
// taken; both answer with the same generic body.
func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	_, err := h.authService.Signup(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrConflict) {
			common.RespondWithText(w, http.StatusOK, "invalid credentials")
			return
		}
		log.Printf("signup failed: %v", err)
		common.RespondWithText(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		if errors.Is(err, common.ErrValidation) || errors.Is(err, common.ErrUnauthorized) {
			common.RespondWithText(w, http.StatusOK, "invalid credentials")
			return
		}
		log.Printf("login failed: %v", err)
		common.RespondWithText(w, http.StatusInternalServerError, "internal error")
		return
	}

	sessionID, err := h.sessions.Create(r.Context(), *user)
	if err != nil {
		log.Printf("session create failed: %v", err)
		common.RespondWithText(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			log.Printf("session destroy failed: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}
