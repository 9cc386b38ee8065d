package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"taskhub/internal/auth"
	"taskhub/internal/handler"
	"taskhub/internal/repository"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	tokens *auth.TokenService,
	userRepo repository.UserRepository,
	userHandler *handler.UserHandler,
	taskHandler *handler.TaskHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = handler.ErrorHandler

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api/v1")
	protected := auth.Middleware(tokens, userRepo)

	users := api.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/login", userHandler.Login)
	users.POST("/refresh-token", userHandler.RefreshToken)
	users.POST("/logout", userHandler.Logout, protected)
	users.POST("/change-password", userHandler.ChangePassword, protected)
	users.GET("/me", userHandler.Me, protected)

	tasks := api.Group("/tasks", protected)
	tasks.GET("", taskHandler.List)
	tasks.GET("/", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.POST("/", taskHandler.Create)
	tasks.PATCH("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete)
	tasks.POST("/:id", taskHandler.ToggleCompletion)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
