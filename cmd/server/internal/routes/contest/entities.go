package contest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/response"
	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
)

func (h *Handler) Contests(c echo.Context) error {
	return c.JSON(http.StatusOK, []ccs.Contest{h.pkg.Contest()})
}

func (h *Handler) Contest(c echo.Context) error {
	return c.JSON(http.StatusOK, h.pkg.Contest())
}

func (h *Handler) JudgementTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, ccs.DefaultJudgementTypes())
}

func (h *Handler) Languages(c echo.Context) error {
	return c.JSON(http.StatusOK, ccs.DefaultLanguages())
}

func (h *Handler) Problems(c echo.Context) error {
	return c.JSON(http.StatusOK, h.pkg.Problems())
}

func (h *Handler) Problem(c echo.Context) error {
	prob, ok := h.pkg.ProblemByID(c.Param("id"))
	if !ok {
		return response.NotFoundError
	}
	return c.JSON(http.StatusOK, prob)
}

func (h *Handler) Teams(c echo.Context) error {
	return c.JSON(http.StatusOK, h.pkg.Teams())
}

func (h *Handler) Team(c echo.Context) error {
	team, ok := h.pkg.TeamByID(c.Param("id"))
	if !ok {
		return response.NotFoundError
	}
	return c.JSON(http.StatusOK, team)
}

func (h *Handler) Submissions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Submissions())
}

func (h *Handler) Submission(c echo.Context) error {
	sub, ok := h.store.Submission(c.Param("id"))
	if !ok {
		return response.NotFoundError
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Judgements(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Judgements())
}

func (h *Handler) Judgement(c echo.Context) error {
	judg, ok := h.store.Judgement(c.Param("id"))
	if !ok {
		return response.NotFoundError
	}
	return c.JSON(http.StatusOK, judg)
}
