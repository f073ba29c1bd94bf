// Package daemon provides the long-running dose reminder service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chiptspb/biohacker-nexus/internal/projection"
	"github.com/chiptspb/biohacker-nexus/internal/store"
)

// Event types.
const (
	EventSnapshot    = "snapshot"
	EventDoseDue     = "dose_due"
	EventDoseOverdue = "dose_overdue"
	EventLowStock    = "low_stock"
)

// Source supplies the protocol snapshot each poll. *store.Store satisfies it.
type Source interface {
	Load(ctx context.Context) (store.Snapshot, error)
}

// Config controls the daemon runtime behavior.
type Config struct {
	DataDir      string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// Lead is how far ahead of a dose the dose_due reminder fires.
	Lead time.Duration

	Source Source
	Logger *zap.Logger
	Now    func() time.Time
}

// Snapshot is a compact reminder state for status/event payloads.
type Snapshot struct {
	At                time.Time `json:"at"`
	Date              string    `json:"date"`
	Products          int       `json:"products"`
	DueToday          int       `json:"due_today"`
	Overdue           int       `json:"overdue"`
	Upcoming          int       `json:"upcoming"`
	LowStock          int       `json:"low_stock"`
	InventoryWarnings int       `json:"inventory_warnings"`
	NextDue           *DoseRef  `json:"next_due,omitempty"`
}

// Delta captures snapshot count changes between polls.
type Delta struct {
	DueToday int `json:"due_today"`
	Overdue  int `json:"overdue"`
	LowStock int `json:"low_stock"`
}

func (d Delta) isZero() bool {
	return d.DueToday == 0 &&
		d.Overdue == 0 &&
		d.LowStock == 0
}

// DoseRef identifies one scheduled dose in an event or listing.
type DoseRef struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Amount      float64   `json:"amount"`
	Unit        string    `json:"unit"`
	Route       string    `json:"route,omitempty"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	At          time.Time `json:"at"`
	Overdue     bool      `json:"overdue"`
}

// StockRef is one product's supply runway.
type StockRef struct {
	ProductID          string  `json:"product_id"`
	ProductName        string  `json:"product_name"`
	Quantity           float64 `json:"quantity"`
	Unit               string  `json:"unit"`
	MonthlyConsumption float64 `json:"monthly_consumption"`
	MonthsOfSupply     float64 `json:"months_of_supply"`
	DaysRemaining      float64 `json:"days_remaining"`
	LowStock           bool    `json:"low_stock"`
	InventoryWarning   bool    `json:"inventory_warning"`
}

// Event is emitted on reminders and whenever the reminder snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Dose      *DoseRef  `json:"dose,omitempty"`
	Stock     *StockRef `json:"stock,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataDir         string    `json:"data_dir"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	log     *zap.Logger
	metrics *Metrics

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	today       []DoseRef
	stock       []StockRef
	nextEventID int64
	events      []Event

	// Reminder bookkeeping keyed by scheduled dose or product ID.
	dueSent     map[string]bool
	overdueSent map[string]bool
	lowStock    map[string]bool

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 60 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Lead <= 0 {
		cfg.Lead = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		cfg:         cfg,
		log:         logger,
		metrics:     NewMetrics(),
		startedAt:   cfg.Now(),
		dueSent:     make(map[string]bool),
		overdueSent: make(map[string]bool),
		lowStock:    make(map[string]bool),
		subs:        make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Source == nil {
		return errors.New("daemon: no snapshot source configured")
	}

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.log.Info("daemon listening", zap.String("addr", s.cfg.Addr), zap.Duration("interval", s.cfg.Interval))

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	start := s.cfg.Now()
	snap, err := s.cfg.Source.Load(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = s.cfg.Now()
		s.pollCount++
		s.mu.Unlock()
		s.metrics.pollErrors.Inc()
		s.log.Warn("daemon poll failed", zap.Error(err))
		return
	}

	now := s.cfg.Now()
	due := projection.DueToday(snap.Schedule, now)
	projections := projection.Project(snap.Products, snap.Inventory)
	alerts := projection.DashboardAlerts(projections)
	warnings := projection.InventoryWarnings(projections)

	today := make([]DoseRef, 0, len(due.Doses))
	for _, d := range due.Doses {
		today = append(today, doseRef(d))
	}
	stock := make([]StockRef, 0, len(projections))
	for _, p := range projections {
		stock = append(stock, stockRef(p))
	}

	summary := Snapshot{
		At:                now,
		Date:              due.Date,
		Products:          len(snap.Products),
		DueToday:          len(due.Doses),
		Overdue:           due.Overdue,
		Upcoming:          due.Upcoming,
		LowStock:          len(alerts),
		InventoryWarnings: len(warnings),
	}
	if next, ok := due.NextDue(); ok {
		ref := doseRef(next)
		summary.NextDue = &ref
	}

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = summary
	s.today = today
	s.stock = stock
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	var pending []Event
	if !prevExists {
		pending = append(pending, Event{Type: EventSnapshot, Snapshot: summary})
	} else if delta := diffSnapshots(prev, summary); !delta.isZero() {
		pending = append(pending, Event{Type: EventSnapshot, Snapshot: summary, Delta: delta})
	}
	pending = append(pending, s.reminders(due, alerts, now, !prevExists)...)

	for i := range pending {
		s.nextEventID++
		pending[i].ID = s.nextEventID
		pending[i].Timestamp = now
		pending[i].Snapshot = summary
	}
	s.mu.Unlock()

	for _, ev := range pending {
		s.publishEvent(ev)
	}
	s.metrics.observe(summary, stock)
	s.metrics.polls.Inc()
	s.log.Debug("daemon poll",
		zap.Int("due_today", summary.DueToday),
		zap.Int("overdue", summary.Overdue),
		zap.Int("low_stock", summary.LowStock),
		zap.Int("events", len(pending)),
		zap.Duration("took", s.cfg.Now().Sub(start)),
	)
}

// reminders diffs the current due list and low-stock set against what has
// already been announced. When seed is true the state is recorded without
// emitting anything. Caller holds s.mu.
func (s *Service) reminders(due projection.DueResult, alerts []projection.StockProjection, now time.Time, seed bool) []Event {
	var out []Event
	seen := make(map[string]bool, len(due.Doses))

	for _, d := range due.Doses {
		seen[d.ID] = true
		ref := doseRef(d)
		switch {
		case d.Overdue:
			if !s.overdueSent[d.ID] {
				s.overdueSent[d.ID] = true
				s.dueSent[d.ID] = true
				if !seed {
					out = append(out, Event{Type: EventDoseOverdue, Dose: &ref})
				}
			}
		case d.TimeValid && d.At.Sub(now) <= s.cfg.Lead:
			if !s.dueSent[d.ID] {
				s.dueSent[d.ID] = true
				if !seed {
					out = append(out, Event{Type: EventDoseDue, Dose: &ref})
				}
			}
		}
	}
	// Forget doses that were completed or rolled off the day.
	for id := range s.dueSent {
		if !seen[id] {
			delete(s.dueSent, id)
		}
	}
	for id := range s.overdueSent {
		if !seen[id] {
			delete(s.overdueSent, id)
		}
	}

	low := make(map[string]bool, len(alerts))
	for _, a := range alerts {
		low[a.ProductID] = true
		if s.lowStock[a.ProductID] || seed {
			continue
		}
		ref := stockRef(a)
		out = append(out, Event{Type: EventLowStock, Stock: &ref})
	}
	s.lowStock = low
	return out
}

func doseRef(d projection.DueDose) DoseRef {
	return DoseRef{
		ID:          d.ID,
		ProductID:   d.ProductID,
		ProductName: d.ProductName,
		Amount:      d.DoseAmount,
		Unit:        d.DoseUnit,
		Route:       string(d.Route),
		Date:        d.Date,
		Time:        d.Time,
		At:          d.At,
		Overdue:     d.Overdue,
	}
}

func stockRef(p projection.StockProjection) StockRef {
	return StockRef{
		ProductID:          p.ProductID,
		ProductName:        p.ProductName,
		Quantity:           p.CurrentStock,
		Unit:               p.Unit,
		MonthlyConsumption: p.MonthlyConsumption,
		MonthsOfSupply:     p.MonthsOfSupply,
		DaysRemaining:      p.DaysRemaining,
		LowStock:           p.Consuming() && p.MonthsOfSupply < projection.DashboardThresholdMonths,
		InventoryWarning:   projection.IsInventoryWarning(p),
	}
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		DueToday: curr.DueToday - prev.DueToday,
		Overdue:  curr.Overdue - prev.Overdue,
		LowStock: curr.LowStock - prev.LowStock,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()

	s.metrics.events.WithLabelValues(ev.Type).Inc()
	if ev.Type != EventSnapshot {
		fields := []zap.Field{zap.Int64("id", ev.ID), zap.String("type", ev.Type)}
		if ev.Dose != nil {
			fields = append(fields, zap.String("product", ev.Dose.ProductName), zap.String("time", ev.Dose.Time))
		}
		if ev.Stock != nil {
			fields = append(fields, zap.String("product", ev.Stock.ProductName), zap.Float64("months", ev.Stock.MonthsOfSupply))
		}
		s.log.Info("reminder", fields...)
	}
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataDir:         s.cfg.DataDir,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
