package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"taskhub/internal/apierr"
	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/service"
)

// UserHandler handles registration and session endpoints.
type UserHandler struct {
	users service.UserService
	cfg   *config.Config
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users service.UserService, cfg *config.Config) *UserHandler {
	return &UserHandler{users: users, cfg: cfg}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents a login request. Validation is deliberately manual
// here: an unknown user must be reported before a missing password.
type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token when it is not sent as a cookie.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest represents a password change request.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// LoginResponse is the data payload of login and refresh responses.
type LoginResponse struct {
	User         interface{} `json:"user,omitempty"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Failure 409 {object} Response
// @Router /users/register [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apierr.BadRequest(err.Error())
	}

	user, err := h.users.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, user, "User registered successfully")
}

// Login godoc
// @Summary Login with username or email
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid request body")
	}

	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}
	if identifier == "" {
		return apierr.BadRequest("username or email is required")
	}

	user, pair, err := h.users.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		return err
	}

	h.setAuthCookies(c, pair)
	return respond(c, http.StatusOK, LoginResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout godoc
// @Summary Logout the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /users/logout [post]
func (h *UserHandler) Logout(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	if err := h.users.Logout(c.Request().Context(), user.ID); err != nil {
		return err
	}

	h.clearAuthCookies(c)
	return respond(c, http.StatusOK, map[string]interface{}{}, "User logged out")
}

// RefreshToken godoc
// @Summary Rotate the access/refresh token pair
// @Tags users
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token when not sent as cookie"
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /users/refresh-token [post]
func (h *UserHandler) RefreshToken(c echo.Context) error {
	incoming := ""
	if cookie, err := c.Cookie("refreshToken"); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req RefreshRequest
		if err := c.Bind(&req); err == nil {
			incoming = req.RefreshToken
		}
	}
	if incoming == "" {
		return apierr.Unauthorized("unauthorized request")
	}

	pair, err := h.users.Refresh(c.Request().Context(), incoming)
	if err != nil {
		return err
	}

	h.setAuthCookies(c, pair)
	return respond(c, http.StatusOK, LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed successfully")
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Old and new password"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /users/change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apierr.BadRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apierr.BadRequest(err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), user, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]interface{}{}, "Password changed successfully")
}

// Me godoc
// @Summary Fetch the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response
// @Failure 401 {object} Response
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apierr.Unauthorized("unauthorized request")
	}
	return respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (h *UserHandler) setAuthCookies(c echo.Context, pair *service.TokenPair) {
	c.SetCookie(h.authCookie("accessToken", pair.AccessToken, h.cfg.AccessTokenTTL))
	c.SetCookie(h.authCookie("refreshToken", pair.RefreshToken, h.cfg.RefreshTokenTTL))
}

func (h *UserHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(h.authCookie("accessToken", "", -time.Second))
	c.SetCookie(h.authCookie("refreshToken", "", -time.Second))
}

func (h *UserHandler) authCookie(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure(),
		SameSite: http.SameSiteStrictMode,
	}
}
