// Package pgstore provides a PostgreSQL implementation of event.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/logtriage/internal/event"
)

var tracer = otel.Tracer("github.com/linnemanlabs/logtriage/internal/event/pgstore")

//go:embed schema.sql
var schema string

// Store persists events in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. Schema application is
// idempotent and safe to run on every startup.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const insertEvent = `INSERT INTO events
	(log_type, event_id, source, time, category, record_number, event_type, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (log_type, record_number) DO NOTHING`

// Ingest inserts the given records under lt, skipping rows whose
// (log_type, record_number) already exists and rows that fail validation.
// It returns the number of rows newly inserted by this call.
func (s *Store) Ingest(ctx context.Context, lt event.LogType, records []event.Record) (int, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Ingest", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
		attribute.String("event.log_type", string(lt)),
		attribute.Int("event.batch_size", len(records)),
	))
	defer span.End()

	inserted := 0
	for i := range records {
		r := records[i]
		r.LogType = lt
		if err := r.Validate(); err != nil {
			// one bad row never fails the batch
			log.FromContext(ctx).Warn(ctx, "skipping malformed record",
				"log_type", lt, "record_number", r.RecordNumber, "error", err)
			continue
		}

		msg, err := json.Marshal(r.MessageInserts)
		if err != nil {
			log.FromContext(ctx).Warn(ctx, "skipping record with unencodable message",
				"log_type", lt, "record_number", r.RecordNumber, "error", err)
			continue
		}

		tag, err := s.pool.Exec(ctx, insertEvent,
			string(r.LogType), r.EventID, r.Source, r.Timestamp,
			r.Category, r.RecordNumber, r.EventType, msg,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return inserted, fmt.Errorf("insert record %d/%d: %w", r.RecordNumber, r.EventID, err)
		}
		inserted += int(tag.RowsAffected())
	}

	span.SetAttributes(attribute.Int("event.inserted", inserted))
	return inserted, nil
}

// Latest returns the newest events matching q, newest first by event time.
func (s *Store) Latest(ctx context.Context, q event.LatestQuery) ([]event.Projection, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Latest", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	limit := q.Limit
	if limit <= 0 {
		limit = event.DefaultLimit
	}
	if limit > event.MaxLimit {
		limit = event.MaxLimit
	}

	query := `SELECT log_type, time, event_id, source, message FROM events`
	args := []any{}
	where := ""

	if len(q.LogTypes) > 0 {
		lts := make([]string, len(q.LogTypes))
		for i, lt := range q.LogTypes {
			lts[i] = string(lt)
		}
		args = append(args, lts)
		where = fmt.Sprintf(" WHERE log_type = ANY($%d)", len(args))
	}
	if q.EventID != nil {
		args = append(args, *q.EventID)
		if where == "" {
			where = fmt.Sprintf(" WHERE event_id = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND event_id = $%d", len(args))
		}
	}

	args = append(args, limit)
	query += where + fmt.Sprintf(" ORDER BY time DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query latest: %w", err)
	}
	defer rows.Close()

	out := make([]event.Projection, 0, limit)
	for rows.Next() {
		var (
			p       event.Projection
			lt      string
			ts      time.Time
			msgJSON []byte
		)
		if err := rows.Scan(&lt, &ts, &p.EventID, &p.Source, &msgJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		p.LogType = event.LogType(lt)
		p.Time = ts.Format(event.TimeLayout)
		if err := json.Unmarshal(msgJSON, &p.Message); err != nil {
			return nil, fmt.Errorf("unmarshal message record %d: %w", p.EventID, err)
		}
		if p.Message == nil {
			p.Message = []string{}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// Stats returns per-log-type aggregates and the total row count.
func (s *Store) Stats(ctx context.Context) (*event.Stats, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Stats", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	rows, err := s.pool.Query(ctx,
		`SELECT log_type, COUNT(*), MIN(time), MAX(time)
		 FROM events GROUP BY log_type ORDER BY log_type`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	st := &event.Stats{PerLog: []event.LogStats{}}
	for rows.Next() {
		var (
			lt             string
			ls             event.LogStats
			oldest, newest *time.Time
		)
		if err := rows.Scan(&lt, &ls.Count, &oldest, &newest); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		ls.LogType = event.LogType(lt)
		ls.Oldest = oldest
		ls.Newest = newest
		st.PerLog = append(st.PerLog, ls)
		st.Total += ls.Count
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate stats: %w", err)
	}
	return st, nil
}
