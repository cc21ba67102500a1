package routes

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	servermiddleware "github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/middleware"
	"github.com/algotester-tools/ccs-eventfeed/internal/validator"
)

func BuildEcho(logger *slog.Logger) (*echo.Echo, error) {
	e := echo.New()

	validate := validator.Create()
	e.Validator = &validate

	e.Pre(middleware.RemoveTrailingSlash())

	e.Use(
		otelecho.Middleware("ccs-eventfeed"),
		slogecho.NewWithConfig(logger, slogecho.Config{}),
		servermiddleware.Time("time"),
	)

	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	return e, nil
}
