package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/linnemanlabs/logtriage/internal/event"
)

func rec(rec int64, eventID int, ts string) event.Record {
	t, err := event.ParseTime(ts)
	if err != nil {
		panic(err)
	}
	return event.Record{
		LogType:        event.LogSystem,
		EventID:        eventID,
		Source:         "src",
		Timestamp:      t,
		RecordNumber:   rec,
		MessageInserts: []string{},
	}
}

func TestStore_IngestIdempotent(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	batch := []event.Record{rec(1, 100, "2025-10-31 06:00:00"), rec(2, 101, "2025-10-31 06:01:00")}

	n, err := s.Ingest(ctx, event.LogSystem, batch)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 2 {
		t.Errorf("first Ingest = %d, want 2", n)
	}

	// Replaying the same batch inserts nothing.
	n, err = s.Ingest(ctx, event.LogSystem, batch)
	if err != nil {
		t.Fatalf("Ingest replay: %v", err)
	}
	if n != 0 {
		t.Errorf("replay Ingest = %d, want 0", n)
	}

	// Overlapping batch only counts the new row.
	n, err = s.Ingest(ctx, event.LogSystem, []event.Record{batch[1], rec(3, 102, "2025-10-31 06:02:00")})
	if err != nil {
		t.Fatalf("Ingest overlap: %v", err)
	}
	if n != 1 {
		t.Errorf("overlap Ingest = %d, want 1", n)
	}
}

func TestStore_RecordNumberScopedPerLog(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	// Same record number in different logs is two distinct events.
	if n, _ := s.Ingest(ctx, event.LogSystem, []event.Record{rec(1, 1, "2025-01-01 00:00:00")}); n != 1 {
		t.Fatalf("system Ingest = %d, want 1", n)
	}
	sec := rec(1, 1, "2025-01-01 00:00:00")
	sec.LogType = event.LogSecurity
	if n, _ := s.Ingest(ctx, event.LogSecurity, []event.Record{sec}); n != 1 {
		t.Fatalf("security Ingest = %d, want 1", n)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 2 {
		t.Errorf("Total = %d, want 2", st.Total)
	}
}

func TestStore_IngestSkipsMalformed(t *testing.T) {
	t.Parallel()

	s := New()
	bad := event.Record{LogType: event.LogSystem, RecordNumber: 0}
	n, err := s.Ingest(context.Background(), event.LogSystem, []event.Record{bad, rec(5, 1, "2025-01-01 00:00:00")})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 1 {
		t.Errorf("Ingest = %d, want 1 (malformed row skipped)", n)
	}
}

func TestStore_LatestOrdering(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_, _ = s.Ingest(ctx, event.LogSystem, []event.Record{
		rec(1, 1, "2025-10-31 06:00:00"),
		rec(2, 2, "2025-10-31 08:00:00"),
		rec(3, 3, "2025-10-31 07:00:00"),
	})

	got, err := s.Latest(ctx, event.LatestQuery{})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	wantOrder := []int{2, 3, 1}
	for i, p := range got {
		if p.EventID != wantOrder[i] {
			t.Errorf("position %d EventID = %d, want %d", i, p.EventID, wantOrder[i])
		}
	}
}

func TestStore_LatestLimit(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var batch []event.Record
	for i := 0; i < 60; i++ {
		r := rec(int64(i+1), i, "2025-01-01 00:00:00")
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		batch = append(batch, r)
	}
	_, _ = s.Ingest(ctx, event.LogSystem, batch)

	// Zero limit falls back to the default.
	got, err := s.Latest(ctx, event.LatestQuery{})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != event.DefaultLimit {
		t.Errorf("default limit len = %d, want %d", len(got), event.DefaultLimit)
	}

	got, err = s.Latest(ctx, event.LatestQuery{Limit: 5})
	if err != nil {
		t.Fatalf("Latest limit 5: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
	// Newest event is first.
	if got[0].EventID != 59 {
		t.Errorf("first EventID = %d, want 59", got[0].EventID)
	}

	// Oversized limits clamp to the maximum.
	got, err = s.Latest(ctx, event.LatestQuery{Limit: event.MaxLimit + 1})
	if err != nil {
		t.Fatalf("Latest oversized: %v", err)
	}
	if len(got) != 60 {
		t.Errorf("len = %d, want 60", len(got))
	}
}

func TestStore_LatestFilters(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	sys := rec(1, 7036, "2025-10-31 06:00:00")
	sec := rec(1, 4625, "2025-10-31 07:00:00")
	sec.LogType = event.LogSecurity
	sec2 := rec(2, 4624, "2025-10-31 08:00:00")
	sec2.LogType = event.LogSecurity
	_, _ = s.Ingest(ctx, event.LogSystem, []event.Record{sys})
	_, _ = s.Ingest(ctx, event.LogSecurity, []event.Record{sec, sec2})

	// Log type filter.
	got, err := s.Latest(ctx, event.LatestQuery{LogTypes: []event.LogType{event.LogSecurity}})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.LogType != event.LogSecurity {
			t.Errorf("LogType = %q, want Security", p.LogType)
		}
	}

	// Filters are conjunctive.
	id := 4625
	got, err = s.Latest(ctx, event.LatestQuery{
		LogTypes: []event.LogType{event.LogSecurity},
		EventID:  &id,
	})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 1 || got[0].EventID != 4625 {
		t.Errorf("got = %+v, want single 4625 event", got)
	}

	// Event id that matches nothing.
	missing := 9999
	got, err = s.Latest(ctx, event.LatestQuery{EventID: &missing})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestStore_LatestProjection(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	r := rec(1001, 4625, "2025-10-31 06:35:44")
	r.LogType = event.LogSecurity
	r.Source = "Microsoft-Windows-Security-Auditing"
	r.MessageInserts = []string{"user1", "0x0"}
	_, _ = s.Ingest(ctx, event.LogSecurity, []event.Record{r})

	got, err := s.Latest(ctx, event.LatestQuery{})
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	p := got[0]
	if p.Time != "2025-10-31 06:35:44" {
		t.Errorf("Time = %q, want %q", p.Time, "2025-10-31 06:35:44")
	}
	if p.Source != "Microsoft-Windows-Security-Auditing" {
		t.Errorf("Source = %q", p.Source)
	}
	if len(p.Message) != 2 || p.Message[0] != "user1" || p.Message[1] != "0x0" {
		t.Errorf("Message = %v, want [user1 0x0]", p.Message)
	}
}

func TestStore_Stats(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	// Empty store: no per-log rows, zero total.
	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 0 || len(st.PerLog) != 0 {
		t.Errorf("empty Stats = %+v, want zero", st)
	}

	_, _ = s.Ingest(ctx, event.LogSystem, []event.Record{
		rec(1, 1, "2025-10-30 12:00:00"),
		rec(2, 2, "2025-10-31 12:00:00"),
	})
	sec := rec(1, 3, "2025-10-29 00:00:00")
	sec.LogType = event.LogSecurity
	_, _ = s.Ingest(ctx, event.LogSecurity, []event.Record{sec})

	st, err = s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 3 {
		t.Errorf("Total = %d, want 3", st.Total)
	}
	if len(st.PerLog) != 2 {
		t.Fatalf("PerLog len = %d, want 2", len(st.PerLog))
	}

	// Sorted by log type, total equals sum of per-log counts.
	if st.PerLog[0].LogType != event.LogSecurity || st.PerLog[1].LogType != event.LogSystem {
		t.Errorf("PerLog order = %q, %q", st.PerLog[0].LogType, st.PerLog[1].LogType)
	}
	sum := int64(0)
	for _, ls := range st.PerLog {
		sum += ls.Count
	}
	if sum != st.Total {
		t.Errorf("sum of per-log counts = %d, total = %d", sum, st.Total)
	}

	sysStats := st.PerLog[1]
	if sysStats.Count != 2 {
		t.Errorf("System Count = %d, want 2", sysStats.Count)
	}
	if sysStats.Oldest == nil || sysStats.Newest == nil {
		t.Fatal("Oldest/Newest nil for populated log")
	}
	if sysStats.Oldest.Day() != 30 || sysStats.Newest.Day() != 31 {
		t.Errorf("Oldest = %v, Newest = %v", sysStats.Oldest, sysStats.Newest)
	}
}
