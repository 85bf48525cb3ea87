// Package collector polls an event-source agent for recent raw records and
// feeds them into the store. Because ingestion is idempotent on
// (log_type, record_number), each poll deliberately over-fetches a window of
// the backing log; overlap with earlier polls is cheap and never double
// counts.
package collector

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/logtriage/internal/event"
)

// DefaultBatchSize is the per-log-type window requested on each poll.
const DefaultBatchSize = 500

// Source yields batches of raw records on request. Implementations talk to
// the external event producer; the collector only consumes their output.
type Source interface {
	ReadLatest(ctx context.Context, lt event.LogType, limit int) ([]event.RawRecord, error)
}

// Collector runs the poll/ingest loop.
type Collector struct {
	source    Source
	store     event.Store
	logger    log.Logger
	logTypes  []event.LogType
	interval  time.Duration
	batchSize int
}

// New creates a collector. Empty logTypes defaults to the well-known logs;
// batchSize <= 0 uses DefaultBatchSize.
func New(source Source, store event.Store, logger log.Logger, logTypes []event.LogType, interval time.Duration, batchSize int) *Collector {
	if logger == nil {
		logger = log.Nop()
	}
	if len(logTypes) == 0 {
		logTypes = event.KnownLogTypes
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Collector{
		source:    source,
		store:     store,
		logger:    logger,
		logTypes:  logTypes,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls immediately and then on every interval tick until ctx is done.
func (c *Collector) Run(ctx context.Context) {
	c.collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info(context.Background(), "collector stopped")
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

// collect runs one poll pass. A failure on one log type never stops the
// others.
func (c *Collector) collect(ctx context.Context) {
	for _, lt := range c.logTypes {
		inserted, err := c.collectLog(ctx, lt)
		if err != nil {
			c.logger.Warn(ctx, "collection failed", "log_type", lt, "error", err)
			continue
		}
		c.logger.Info(ctx, "collected events", "log_type", lt, "inserted", inserted)
	}
}

func (c *Collector) collectLog(ctx context.Context, lt event.LogType) (int, error) {
	raws, err := c.source.ReadLatest(ctx, lt, c.batchSize)
	if err != nil {
		return 0, err
	}

	records := make([]event.Record, 0, len(raws))
	for i := range raws {
		rec, err := event.Normalize(lt, &raws[i])
		if err != nil {
			c.logger.Warn(ctx, "dropping malformed record",
				"log_type", lt, "record_number", raws[i].Record, "error", err)
			continue
		}
		records = append(records, rec)
	}

	return c.store.Ingest(ctx, lt, records)
}
