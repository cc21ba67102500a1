package scoreboard_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
)

func rowJSON(id int) string {
	return fmt.Sprintf(`{
		"Id": "team-%d",
		"Rank": %d,
		"Contestant": {"Text": "  Team %d  "},
		"Score": 2,
		"PenaltyMs": 1000,
		"Results": {
			"10197": {"IsAccepted": true, "Attempts": 1, "PendingAttempts": 0, "LastImprovementMs": 300000}
		}
	}`, id, id, id)
}

func newTestClient(t *testing.T, handler echo.HandlerFunc) *scoreboard.Client {
	t.Helper()

	e := echo.New()
	e.GET("/42", handler)
	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	return scoreboard.New(retryablehttp.NewClient().StandardClient(), server.URL, "secret", 42, false)
}

func TestFetchScoreboard(t *testing.T) {
	ctx := context.Background()

	t.Run("SinglePage", func(t *testing.T) {
		var gotKey, gotRequestedWith string
		client := newTestClient(t, func(c echo.Context) error {
			gotKey = c.Request().Header.Get("X-API-Key")
			gotRequestedWith = c.Request().Header.Get("X-Requested-With")
			return c.String(http.StatusOK, `{"rows": [`+rowJSON(1)+`]}`)
		})

		rows, err := client.FetchScoreboard(ctx)
		require.NoError(t, err, "failed to fetch scoreboard")
		require.Len(t, rows, 1)

		require.Equal(t, "secret", gotKey)
		require.Equal(t, "XMLHttpRequest", gotRequestedWith)

		row := rows[0]
		require.Equal(t, "team-1", row.TeamID)
		require.Equal(t, "Team 1", row.TeamName, "contestant text should be trimmed")

		result, ok := row.Results["10197"]
		require.True(t, ok)
		require.True(t, result.IsAccepted)
		require.Equal(t, 1, result.Attempts)
		require.Equal(t, float64(300000), result.TimeMs)
	})

	t.Run("Paginated", func(t *testing.T) {
		client := newTestClient(t, func(c echo.Context) error {
			offset, err := strconv.Atoi(c.QueryParam("offset"))
			require.NoError(t, err)

			count := 100
			if offset >= 100 {
				count = 5
			}
			page := `{"rows": [`
			for i := 0; i < count; i++ {
				if i > 0 {
					page += ","
				}
				page += rowJSON(offset + i)
			}
			page += `]}`
			return c.String(http.StatusOK, page)
		})

		rows, err := client.FetchScoreboard(ctx)
		require.NoError(t, err, "failed to fetch scoreboard")
		require.Len(t, rows, 105)
		require.Equal(t, "team-104", rows[104].TeamID)
	})

	t.Run("ServerError", func(t *testing.T) {
		client := newTestClient(t, func(c echo.Context) error {
			return c.NoContent(http.StatusForbidden)
		})

		_, err := client.FetchScoreboard(ctx)
		require.Error(t, err, "expected fetch to fail")
	})
}
