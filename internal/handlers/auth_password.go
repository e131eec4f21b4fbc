package handlers

import (
	"errors"
	"net/http"

	"sessionauth/internal/logger"
	"sessionauth/internal/services"
	"sessionauth/internal/utils"
	helpers "sessionauth/internal/utils/helpres"

	"go.uber.org/zap"
)

type resetTokenResponse struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// RequestReset: POST /reset_password. Токен возвращается в ответе:
// доставка письмом вне этого сервиса.
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var email string
	if err := helpers.Bind(r, map[string]*string{"email": &email}); err != nil {
		log.Warn("Невалидный payload в RequestReset", zap.Error(err))
		helpers.Error(w, http.StatusForbidden, "Forbidden")
		return
	}

	token, err := h.authService.RequestReset(r.Context(), email)
	if errors.Is(err, services.ErrUserNotFound) {
		helpers.Error(w, http.StatusForbidden, "Forbidden")
		return
	}
	if err != nil {
		h.internalError(w, r, "Сбой при запросе восстановления пароля", err)
		return
	}

	helpers.JSON(w, http.StatusOK, resetTokenResponse{Email: echoIdentity(email), ResetToken: token})
}

// ApplyReset: PUT /reset_password, поля email, reset_token, new_password.
func (h *AuthHandler) ApplyReset(w http.ResponseWriter, r *http.Request) {
	log := logger.WithCtx(r.Context())

	var email, token, newPassword string
	err := helpers.Bind(r, map[string]*string{
		"email":        &email,
		"reset_token":  &token,
		"new_password": &newPassword,
	})
	if err != nil {
		log.Warn("Невалидный payload в ApplyReset", zap.Error(err))
		helpers.Error(w, http.StatusForbidden, "Forbidden")
		return
	}

	err = h.authService.ApplyReset(r.Context(), token, newPassword)
	if errors.Is(err, services.ErrInvalidToken) {
		helpers.Error(w, http.StatusForbidden, "Forbidden")
		return
	}
	if errors.Is(err, utils.ErrPasswordTooLong) {
		// токен уже погашен, нужен новый запрос на сброс
		helpers.Error(w, http.StatusBadRequest, "password too long")
		return
	}
	if err != nil {
		h.internalError(w, r, "Не удалось сбросить пароль по токену", err)
		return
	}

	helpers.JSON(w, http.StatusOK, messageResponse{Email: echoIdentity(email), Message: "Password updated"})
}
