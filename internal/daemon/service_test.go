package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/store"
)

type fakeSource struct {
	mu   sync.Mutex
	snap store.Snapshot
	err  error
}

func (f *fakeSource) Load(context.Context) (store.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, f.err
}

func (f *fakeSource) setQuantity(productID string, q float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.snap.Inventory {
		if f.snap.Inventory[i].ProductID == productID {
			f.snap.Inventory[i].Quantity = q
		}
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(h, m int) time.Time {
	return time.Date(2025, 6, 10, h, m, 0, 0, time.Local)
}

func newTestService(t *testing.T) (*Service, *fakeSource, *clock) {
	t.Helper()
	src := &fakeSource{snap: store.Snapshot{
		Products: []model.Product{{
			ID:          "bpc",
			Name:        "BPC-157",
			DoseAmount:  10,
			DoseUnit:    "mg",
			Frequencies: []model.Frequency{model.FreqDaily},
		}},
		Inventory: []model.Inventory{{ProductID: "bpc", Quantity: 1000, Unit: "mg"}},
		Schedule: []model.ScheduledDose{
			{ID: "a", ProductID: "bpc", ProductName: "BPC-157", DoseAmount: 10, DoseUnit: "mg", Date: "2025-06-10", Time: "10:00"},
			{ID: "b", ProductID: "bpc", ProductName: "BPC-157", DoseAmount: 10, DoseUnit: "mg", Date: "2025-06-10", Time: "12:20"},
			{ID: "c", ProductID: "bpc", ProductName: "BPC-157", DoseAmount: 10, DoseUnit: "mg", Date: "2025-06-11", Time: "10:00"},
		},
	}}
	clk := &clock{now: at(9, 0)}
	s := New(Config{
		DataDir:      "/tmp/nexus",
		Interval:     10 * time.Second,
		EventsBuffer: 50,
		Lead:         15 * time.Minute,
		Source:       src,
		Now:          clk.Now,
	})
	return s, src, clk
}

func eventTypes(s *Service) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

func countType(types []string, want string) int {
	n := 0
	for _, tp := range types {
		if tp == want {
			n++
		}
	}
	return n
}

func TestDiffSnapshots(t *testing.T) {
	prev := Snapshot{DueToday: 4, Overdue: 1, LowStock: 0}
	curr := Snapshot{DueToday: 3, Overdue: 2, LowStock: 1}

	delta := diffSnapshots(prev, curr)
	if delta.DueToday != -1 {
		t.Fatalf("DueToday delta = %d, want -1", delta.DueToday)
	}
	if delta.Overdue != 1 {
		t.Fatalf("Overdue delta = %d, want 1", delta.Overdue)
	}
	if delta.LowStock != 1 {
		t.Fatalf("LowStock delta = %d, want 1", delta.LowStock)
	}
	if delta.isZero() {
		t.Fatal("delta unexpectedly reported as zero")
	}
	if !diffSnapshots(curr, curr).isZero() {
		t.Fatal("identical snapshots produced a non-zero delta")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		DataDir:      ".",
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1, Type: EventSnapshot})
	s.publishEvent(Event{ID: 2, Type: EventSnapshot})
	s.publishEvent(Event{ID: 3, Type: EventSnapshot})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_SeedsWithoutReminders(t *testing.T) {
	s, _, clk := newTestService(t)
	clk.Set(at(11, 0)) // "a" already overdue at startup

	s.pollOnce(context.Background())

	types := eventTypes(s)
	assert.Equal(t, []string{EventSnapshot}, types)

	st := s.snapshotStatus()
	assert.Equal(t, 2, st.Summary.DueToday)
	assert.Equal(t, 1, st.Summary.Overdue)
	require.NotNil(t, st.Summary.NextDue)
	assert.Equal(t, "b", st.Summary.NextDue.ID)
}

func TestPollOnce_DueThenOverdueOnce(t *testing.T) {
	ctx := context.Background()
	s, _, clk := newTestService(t)

	s.pollOnce(ctx) // 09:00 seed
	clk.Set(at(9, 50))
	s.pollOnce(ctx)
	clk.Set(at(9, 55))
	s.pollOnce(ctx)

	types := eventTypes(s)
	assert.Equal(t, 1, countType(types, EventDoseDue))
	assert.Equal(t, 0, countType(types, EventDoseOverdue))

	clk.Set(at(10, 1))
	s.pollOnce(ctx)
	clk.Set(at(10, 30))
	s.pollOnce(ctx)

	types = eventTypes(s)
	assert.Equal(t, 1, countType(types, EventDoseDue))
	assert.Equal(t, 1, countType(types, EventDoseOverdue))

	s.mu.RLock()
	var overdue *DoseRef
	for _, ev := range s.events {
		if ev.Type == EventDoseOverdue {
			overdue = ev.Dose
		}
	}
	s.mu.RUnlock()
	require.NotNil(t, overdue)
	assert.Equal(t, "a", overdue.ID)
}

func TestPollOnce_CompletedDoseStopsReminders(t *testing.T) {
	ctx := context.Background()
	s, src, clk := newTestService(t)

	s.pollOnce(ctx)
	src.mu.Lock()
	src.snap.Schedule[0].Completed = true
	src.mu.Unlock()

	clk.Set(at(10, 5))
	s.pollOnce(ctx)

	assert.Equal(t, 0, countType(eventTypes(s), EventDoseOverdue))
	assert.Equal(t, 1, s.snapshotStatus().Summary.DueToday)
}

func TestPollOnce_LowStockOnTransition(t *testing.T) {
	ctx := context.Background()
	s, src, _ := newTestService(t)

	s.pollOnce(ctx)
	assert.Equal(t, 0, countType(eventTypes(s), EventLowStock))

	// 10mg daily = 300mg/month; 600mg is 2 months, under the 3 month banner.
	src.setQuantity("bpc", 600)
	s.pollOnce(ctx)
	s.pollOnce(ctx)
	assert.Equal(t, 1, countType(eventTypes(s), EventLowStock))

	src.setQuantity("bpc", 5000)
	s.pollOnce(ctx)
	src.setQuantity("bpc", 100)
	s.pollOnce(ctx)
	assert.Equal(t, 2, countType(eventTypes(s), EventLowStock))

	st := s.snapshotStatus()
	assert.Equal(t, 1, st.Summary.LowStock)
	assert.Equal(t, 1, st.Summary.InventoryWarnings)
}

func TestPollOnce_ErrorRecorded(t *testing.T) {
	s, src, _ := newTestService(t)
	src.err = errors.New("disk on fire")

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	assert.Equal(t, "disk on fire", st.LastError)
	assert.Equal(t, int64(1), st.PollCount)
	assert.Empty(t, eventTypes(s))
}

func TestRun_RequiresSource(t *testing.T) {
	s := New(Config{})
	assert.Error(t, s.Run(context.Background()))
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandler_Endpoints(t *testing.T) {
	ctx := context.Background()
	s, src, clk := newTestService(t)
	s.pollOnce(ctx)
	src.setQuantity("bpc", 600)
	clk.Set(at(10, 1))
	s.pollOnce(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))

	var st Status
	getJSON(t, srv.URL+"/v1/status", &st)
	assert.Equal(t, "/tmp/nexus", st.DataDir)
	assert.Equal(t, int64(2), st.PollCount)
	assert.Equal(t, 1, st.Summary.Overdue)

	var today []DoseRef
	getJSON(t, srv.URL+"/v1/today", &today)
	require.Len(t, today, 2)
	assert.Equal(t, "a", today[0].ID)
	assert.True(t, today[0].Overdue)

	var stock []StockRef
	getJSON(t, srv.URL+"/v1/stock?low=1", &stock)
	require.Len(t, stock, 1)
	assert.InDelta(t, 2.0, stock[0].MonthsOfSupply, 1e-9)
	assert.True(t, stock[0].LowStock)
	assert.False(t, stock[0].InventoryWarning)

	var all []Event
	getJSON(t, srv.URL+"/v1/events", &all)
	require.NotEmpty(t, all)
	var newer []Event
	getJSON(t, srv.URL+"/v1/events?since=1", &newer)
	assert.Len(t, newer, len(all)-1)

	resp, err = http.Get(srv.URL + "/v1/events?since=abc")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Contains(t, string(body), "nexus_doses_overdue 1")
	assert.Contains(t, string(body), `nexus_low_stock_products{threshold="dashboard"} 1`)
	assert.Contains(t, string(body), "nexus_daemon_polls_total 2")
}

func TestHandler_StreamSendsSnapshot(t *testing.T) {
	s, _, _ := newTestService(t)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: snapshot", strings.TrimSpace(line))
}
