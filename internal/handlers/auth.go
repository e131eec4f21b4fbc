package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"sessionauth/internal/logger"
	"sessionauth/internal/middleware"
	"sessionauth/internal/models"
	"sessionauth/internal/reqctx"
	"sessionauth/internal/services"
	"sessionauth/internal/utils"
	helpers "sessionauth/internal/utils/helpres"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService  *services.AuthService
	cookieSecure bool
	sessionTTL   time.Duration
}

func NewAuthHandler(authService *services.AuthService, cookieSecure bool, sessionTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
		sessionTTL:   sessionTTL,
	}
}

type messageResponse struct {
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	helpers.JSON(w, http.StatusOK, messageResponse{Message: "Bienvenue"})
}

// Register: POST /users, поля email и password.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var email, password string
	if err := helpers.Bind(r, map[string]*string{"email": &email, "password": &password}); err != nil {
		log.Warn("Ошибка разбора тела в Register", zap.Error(err))
		helpers.Error(w, http.StatusBadRequest, "invalid payload")
		return
	}

	user, err := h.authService.Register(r.Context(), email, password)
	switch {
	case errors.Is(err, services.ErrAlreadyExists):
		helpers.JSON(w, http.StatusBadRequest, messageResponse{Message: "email already registered"})
		return
	case errors.Is(err, models.ErrInvalidIdentity):
		helpers.Error(w, http.StatusBadRequest, "invalid email")
		return
	case errors.Is(err, utils.ErrPasswordTooLong):
		helpers.Error(w, http.StatusBadRequest, "password too long")
		return
	case err != nil:
		h.internalError(w, r, "Ошибка регистрации пользователя", err)
		return
	}

	helpers.JSON(w, http.StatusOK, messageResponse{Email: user.Identity.String(), Message: "user created"})
}

// Login: POST /sessions. Токен сессии уходит только в cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var email, password string
	if err := helpers.Bind(r, map[string]*string{"email": &email, "password": &password}); err != nil {
		log.Warn("Ошибка разбора тела в Login", zap.Error(err))
		helpers.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	token, err := h.authService.Login(r.Context(), email, password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		helpers.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err != nil {
		h.internalError(w, r, "Ошибка входа пользователя", err)
		return
	}

	http.SetCookie(w, h.sessionCookie(token))
	helpers.JSON(w, http.StatusOK, messageResponse{Email: echoIdentity(email), Message: "logged in"})
}

// Logout: DELETE /sessions, редирект на / или 403.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	err := h.authService.Logout(r.Context(), middleware.SessionToken(r))
	if errors.Is(err, services.ErrNoActiveSession) {
		helpers.Error(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err != nil {
		h.internalError(w, r, "Ошибка выхода пользователя", err)
		return
	}

	expired := h.sessionCookie("")
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Profile работает за middleware.RequireSession.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, ok := reqctx.GetIdentity(r.Context())
	if !ok {
		helpers.Error(w, http.StatusForbidden, "Forbidden")
		return
	}
	helpers.JSON(w, http.StatusOK, map[string]string{"email": identity})
}

// echoIdentity возвращает identity в том виде, в каком с ней работает сервис.
func echoIdentity(raw string) string {
	if id, err := models.ParseIdentity(raw); err == nil {
		return id.String()
	}
	return strings.TrimSpace(raw)
}

func (h *AuthHandler) sessionCookie(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.sessionTTL > 0 {
		c.MaxAge = int(h.sessionTTL / time.Second)
	}
	return c
}

func (h *AuthHandler) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	logger.WithCtx(r.Context()).Error(msg, zap.Error(err))
	helpers.Error(w, http.StatusInternalServerError, "internal server error")
}
