package auth

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"taskhub/internal/apierr"
	"taskhub/internal/model"
	"taskhub/internal/repository"
)

// Middleware returns the echo-jwt middleware guarding protected routes. The
// access token is read from the Authorization bearer header first, then the
// accessToken cookie. On success the resolved *model.User is attached to the
// request context; any failure (absent, malformed or expired token, or a
// subject that no longer exists) yields 401.
func Middleware(tokens *TokenService, users repository.UserRepository) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:Authorization:Bearer ,cookie:accessToken",
		ParseTokenFunc: func(c echo.Context, tokenString string) (interface{}, error) {
			claims, err := tokens.VerifyAccessToken(tokenString)
			if err != nil {
				return nil, err
			}
			id, err := claims.UserID()
			if err != nil {
				return nil, err
			}
			user, err := users.FindByID(c.Request().Context(), id)
			if err != nil {
				return nil, ErrInvalidToken
			}
			return user, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apierr.Unauthorized("unauthorized request")
		},
	})
}

// CurrentUser returns the authenticated user attached by Middleware.
func CurrentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get("user").(*model.User)
	return user, ok
}
