package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tours-service/middleware"
	"tours-service/services"
	"tours-service/utils"
)

const cookieName = "jwt"

type AuthHandler struct {
	auth       *services.AuthService
	cookieDays int
	secure     bool
}

func NewAuthHandler(auth *services.AuthService, cookieDays int, secure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieDays: cookieDays, secure: secure}
}

// sendSession answers with the token in the body and in an http-only cookie.
func (h *AuthHandler) sendSession(c *gin.Context, status int, s *services.Session) {
	maxAge := h.cookieDays * int(24*time.Hour/time.Second)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, s.Token, maxAge, "/", "", h.secure, true)
	utils.Session(c, status, s.Token, s.User)
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var in services.SignupInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.auth.Signup(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendSession(c, http.StatusCreated, s)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.auth.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendSession(c, http.StatusOK, s)
}

func requestScheme(c *gin.Context) string {
	if c.Request.URL.Scheme != "" {
		return c.Request.URL.Scheme
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var in struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &in) {
		return
	}
	resetURL := func(token string) string {
		return requestScheme(c) + "://" + c.Request.Host + "/api/v1/users/resetPassword/" + token
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), in.Email, resetURL); err != nil {
		_ = c.Error(err)
		return
	}
	utils.Message(c, http.StatusOK, "Token sent to email!")
}

type passwordPair struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var in passwordPair
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.auth.ResetPassword(c.Request.Context(), c.Param("resetToken"), in.Password, in.PasswordConfirm)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendSession(c, http.StatusOK, s)
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var in struct {
		CurrentPassword    string `json:"currentPassword"`
		NewPassword        string `json:"newPassword"`
		NewPasswordConfirm string `json:"newPasswordConfirm"`
	}
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.auth.UpdatePassword(c.Request.Context(), middleware.CurrentUser(c), in.CurrentPassword, in.NewPassword, in.NewPasswordConfirm)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.sendSession(c, http.StatusOK, s)
}

func (h *AuthHandler) UpdateMe(c *gin.Context) {
	body := map[string]any{}
	if !bindJSON(c, &body) {
		return
	}
	user, err := h.auth.UpdateMe(c.Request.Context(), middleware.CurrentUser(c), body)
	if err != nil {
		_ = c.Error(err)
		return
	}
	utils.Data(c, http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) DeleteMe(c *gin.Context) {
	var in struct {
		Password string `json:"password"`
	}
	if !bindJSON(c, &in) {
		return
	}
	if err := h.auth.DeleteMe(c.Request.Context(), middleware.CurrentUser(c), in.Password); err != nil {
		_ = c.Error(err)
		return
	}
	utils.NoContent(c)
}

func (h *AuthHandler) Me(c *gin.Context) {
	utils.Single(c, http.StatusOK, middleware.CurrentUser(c))
}
