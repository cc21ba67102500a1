package contest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/algotester-tools/ccs-eventfeed/cmd/server/internal/response"
	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

// EventFeed streams the event log as newline-delimited JSON: the backlog
// after the optional since_token, then a live tail until the client
// disconnects. Blank lines are keepalives, not records.
func (h *Handler) EventFeed(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracer.Start(ctx, "EventFeed")
	defer span.End()

	clientID := uuid.New().String()
	sinceToken := c.QueryParam("since_token")

	span.SetAttributes(
		attribute.String("client.id", clientID),
		attribute.String("feed.since_token", sinceToken),
	)

	log := logger.Logger.With(
		"client_id", clientID,
		"remote", c.RealIP(),
		"since_token", sinceToken,
	)

	lastSent := sinceToken
	backlog := h.store.Events()
	if sinceToken != "" {
		var err error
		backlog, err = h.store.EventsSince(sinceToken)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "rejected resume token")
			switch {
			case errors.Is(err, state.ErrInvalidTokenFormat):
				return response.BadRequest("since_token is not a valid token")
			case errors.Is(err, state.ErrInvalidToken):
				return response.BadRequest("since_token must not be negative")
			case errors.Is(err, state.ErrUnknownToken):
				return response.BadRequest("since_token was never issued")
			default:
				return response.InternalServerError
			}
		}
	}

	log.Info("event feed client connected")

	c.Response().Header().Set(echo.HeaderContentType, "application/x-ndjson")
	c.Response().WriteHeader(http.StatusOK)

	sent := 0
	lastWrite := time.Now()

	writeEvents := func(events []ccs.Event) error {
		if len(events) == 0 {
			return nil
		}
		enc := json.NewEncoder(c.Response())
		for _, event := range events {
			if err := enc.Encode(event); err != nil {
				return err
			}
			lastSent = event.Token
			sent++
		}
		c.Response().Flush()
		lastWrite = time.Now()
		return nil
	}

	if err := writeEvents(backlog); err != nil {
		log.Info("event feed client disconnected", "events_sent", sent)
		span.SetStatus(codes.Ok, "client went away during backlog")
		return nil
	}

	timer := time.NewTimer(h.WakeInterval)
	defer timer.Stop()

	for {
		// arm the signal before re-reading the log so an append between the
		// read and the wait cannot be missed
		signal := h.store.NewEvents()

		events, err := h.eventsAfter(lastSent)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read events for live tail")
			return nil
		}
		if err := writeEvents(events); err != nil {
			break
		}

		if time.Since(lastWrite) >= h.KeepaliveAfter {
			if _, err := c.Response().Write([]byte("\n")); err != nil {
				break
			}
			c.Response().Flush()
			lastWrite = time.Now()
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(h.WakeInterval)

		select {
		case <-ctx.Done():
			log.Info("event feed client disconnected", "events_sent", sent)
			span.SetStatus(codes.Ok, "client disconnected")
			return nil
		case <-signal:
		case <-timer.C:
		}
	}

	log.Info("event feed client disconnected", "events_sent", sent)
	span.SetStatus(codes.Ok, "client went away")
	return nil
}

func (h *Handler) eventsAfter(lastSent string) ([]ccs.Event, error) {
	if lastSent == "" {
		return h.store.Events(), nil
	}
	return h.store.EventsSince(lastSent)
}
