package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Error struct {
	Message string `json:"message"`
}

func StringError(err string) Error {
	return Error{Message: err}
}

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		StringError("something went wrong"),
	)
	NotFoundError = echo.NewHTTPError(http.StatusNotFound, StringError("not found"))
)

// BadRequest wraps a client input failure, keeping the message since feed
// token errors are actionable for the caller.
func BadRequest(msg string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, StringError(msg))
}
