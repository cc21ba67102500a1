// Package contest serves the CCS contest API surface: the static entity
// collections from the contest package, the reconstructed submissions and
// judgements from the store, and the resumable event feed.
package contest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel"

	servermiddleware "github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/middleware"
	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/response"
	"github.com/algotester-tools/ccs-eventfeed/internal/contestpkg"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

const name = "github.com/algotester-tools/ccs-eventfeed/server/routes/contest"

var tracer = otel.Tracer(name)

type Handler struct {
	store *state.Store
	pkg   *contestpkg.Package

	// WakeInterval is how long a tailing feed subscriber waits on the
	// new-event signal before re-checking the log. KeepaliveAfter is the idle
	// time after which a blank keepalive line is written.
	WakeInterval   time.Duration
	KeepaliveAfter time.Duration
}

func Create(pkg *contestpkg.Package, store *state.Store) *Handler {
	return &Handler{
		store:          store,
		pkg:            pkg,
		WakeInterval:   30 * time.Second,
		KeepaliveAfter: 120 * time.Second,
	}
}

// scoped rejects any contest id other than the single contest this service
// bridges.
func (h *Handler) scoped(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Param("contest_id") != h.pkg.Contest().ID {
			return response.NotFoundError
		}
		return next(c)
	}
}

func (h *Handler) AddRoutes(
	e *echo.Echo,
	middlewareHandler *servermiddleware.Handler,
	feedMiddleware ...echo.MiddlewareFunc,
) {
	auth := middleware.BasicAuth(middlewareHandler.BasicAuthValidator)

	e.GET("/", h.APIInfo, auth)
	e.GET("/contests", h.Contests, auth)

	contestGroup := e.Group("/contests/:contest_id", auth, h.scoped)
	contestGroup.GET("", h.Contest)
	contestGroup.GET("/judgement-types", h.JudgementTypes)
	contestGroup.GET("/languages", h.Languages)
	contestGroup.GET("/problems", h.Problems)
	contestGroup.GET("/problems/:id", h.Problem)
	contestGroup.GET("/teams", h.Teams)
	contestGroup.GET("/teams/:id", h.Team)
	contestGroup.GET("/submissions", h.Submissions)
	contestGroup.GET("/submissions/:id", h.Submission)
	contestGroup.GET("/judgements", h.Judgements)
	contestGroup.GET("/judgements/:id", h.Judgement)
	contestGroup.GET("/event-feed", h.EventFeed, feedMiddleware...)
}

type apiInfo struct {
	Version    string `json:"version"`
	VersionURL string `json:"version_url"`
	Name       string `json:"name"`
}

func (h *Handler) APIInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, apiInfo{
		Version:    "draft",
		VersionURL: "https://ccs-specs.icpc.io/draft/contest_api",
		Name:       "ccs-eventfeed",
	})
}
