// Package scoreboard fetches and normalizes the Algotester aggregate
// scoreboard.
package scoreboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/algotester-tools/ccs-eventfeed/scoreboard"

var tracer = otel.Tracer(name)

// Scoreboard pages are fetched in chunks of this size until a short page is
// returned.
const pageLimit = 100

type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	contestID      int
	showUnofficial bool
}

// BaseURL builds the scoreboard endpoint for an Algotester subdomain.
func BaseURL(subdomain string) string {
	return fmt.Sprintf("https://%s.algotester.com/en/Contest/ListScoreboardWithAPI", subdomain)
}

// DefaultHTTPClient returns the retrying client used against Algotester.
func DefaultHTTPClient() *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 100 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second

	client := retryClient.StandardClient()
	client.Timeout = 30 * time.Second
	return client
}

func New(httpClient *http.Client, baseURL, apiKey string, contestID int, showUnofficial bool) *Client {
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		contestID:      contestID,
		showUnofficial: showUnofficial,
	}
}

// FetchScoreboard downloads every scoreboard page and returns normalized
// rows.
func (c *Client) FetchScoreboard(ctx context.Context) ([]Row, error) {
	ctx, span := tracer.Start(ctx, "Client.FetchScoreboard", trace.WithAttributes(
		attribute.Int("contest.id", c.contestID),
	))
	defer span.End()

	var rows []Row
	for offset := 0; ; offset += pageLimit {
		page, err := c.fetchPage(ctx, offset)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch scoreboard page")
			return nil, err
		}

		for _, raw := range page.Rows {
			rows = append(rows, normalizeRow(raw))
		}

		if len(page.Rows) < pageLimit {
			break
		}
	}

	span.SetAttributes(attribute.Int("rows", len(rows)))
	span.SetStatus(codes.Ok, "fetched scoreboard")
	return rows, nil
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*rawPage, error) {
	url := fmt.Sprintf(
		"%s/%d?showUnofficial=%t&offset=%d&limit=%d",
		c.baseURL, c.contestID, c.showUnofficial, offset, pageLimit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("construct scoreboard request: %w", err)
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard page at offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoreboard fetch at offset %d: invalid status code: %d", offset, resp.StatusCode)
	}

	var page rawPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode scoreboard page at offset %d: %w", offset, err)
	}

	return &page, nil
}
