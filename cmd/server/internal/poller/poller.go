// Package poller drives the poll cycle: fetch the scoreboard, diff it
// against the previous snapshot, persist whatever changed.
package poller

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/algotester-tools/ccs-eventfeed/internal/ccs"
	"github.com/algotester-tools/ccs-eventfeed/internal/logger"
	"github.com/algotester-tools/ccs-eventfeed/internal/scoreboard"
	"github.com/algotester-tools/ccs-eventfeed/internal/state"
)

const name = "github.com/algotester-tools/ccs-eventfeed/server/poller"

var tracer = otel.Tracer(name)

type Fetcher interface {
	FetchScoreboard(ctx context.Context) ([]scoreboard.Row, error)
}

type Poller struct {
	fetcher  Fetcher
	store    *state.Store
	interval time.Duration
}

func Create(fetcher Fetcher, store *state.Store, interval time.Duration) *Poller {
	return &Poller{
		fetcher:  fetcher,
		store:    store,
		interval: interval,
	}
}

// Run polls until ctx is cancelled. A failed fetch skips the cycle; a failed
// persistence flush stops the poller since the on-disk snapshot would fall
// behind the log handed to feed subscribers.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Cycle(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			logger.Logger.Info("poller stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle runs one fetch→diff→flush pass.
func (p *Poller) Cycle(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Poller.Cycle")
	defer span.End()

	rows, err := p.fetcher.FetchScoreboard(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch scoreboard")
		logger.Logger.Error("failed to fetch scoreboard, skipping cycle", "error", err)
		return nil
	}

	events, err := p.store.ProcessScoreboard(ctx, rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to process scoreboard")
		logger.Logger.Error("failed to process scoreboard, skipping cycle", "error", err)
		return nil
	}

	for _, event := range events {
		switch event.Type {
		case ccs.EventTypeSubmissions, ccs.EventTypeJudgements:
			logger.Logger.Info("reconstructed event",
				"token", event.Token,
				"type", event.Type,
				"id", event.ID,
			)
		}
	}

	if err := p.store.Flush(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist state")
		logger.Logger.Error("failed to persist state", "error", err)
		return err
	}

	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("events", len(events)),
	)
	span.SetStatus(codes.Ok, "completed poll cycle")
	return nil
}
