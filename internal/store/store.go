package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

// Sentinel errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidProduct = errors.New("invalid product")
)

// Snapshot is everything the store holds, read in one pass.
type Snapshot struct {
	Products           []model.Product
	Inventory          []model.Inventory
	DoseLogs           []model.DoseLog
	Schedule           []model.ScheduledDose
	Profile            *model.UserProfile
	OnboardingComplete bool
	DisclaimerAccepted bool
}

// Product returns the product with id from the snapshot.
func (s Snapshot) Product(id string) (model.Product, bool) {
	for _, p := range s.Products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// InventoryFor returns the inventory record for a product.
func (s Snapshot) InventoryFor(productID string) (model.Inventory, bool) {
	for _, inv := range s.Inventory {
		if inv.ProductID == productID {
			return inv, true
		}
	}
	return model.Inventory{}, false
}

// Store reads and writes the collections through a KV. Each mutation is a
// read-modify-write of whole collections; last writer wins across processes.
type Store struct {
	kv  KV
	mu  sync.Mutex
	now func() time.Time
}

// New wraps kv in a Store.
func New(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

// Open opens the sqlite database at path and wraps it in a Store.
func Open(path string) (*Store, error) {
	kv, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return New(kv), nil
}

// SetClock overrides the time source used for timestamps and defaults.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Close closes the underlying KV.
func (s *Store) Close() error {
	return s.kv.Close()
}

func readJSON[T any](ctx context.Context, kv KV, key string) (T, bool, error) {
	var v T
	raw, ok, err := kv.Get(ctx, key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, true, nil
}

func writeJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return kv.Put(ctx, key, raw)
}

// batch collects encoded collections so a mutation touching several keys is
// written in one PutMany.
type batch map[string][]byte

func (b batch) add(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	b[key] = raw
	return nil
}

func (b batch) commit(ctx context.Context, kv KV) error {
	if len(b) == 0 {
		return nil
	}
	return kv.PutMany(ctx, b)
}

// Load reads every collection, profile, and flag.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Products, _, err = readJSON[[]model.Product](ctx, s.kv, KeyProducts); err != nil {
		return snap, err
	}
	if snap.Inventory, _, err = readJSON[[]model.Inventory](ctx, s.kv, KeyInventory); err != nil {
		return snap, err
	}
	if snap.DoseLogs, _, err = readJSON[[]model.DoseLog](ctx, s.kv, KeyDoseLogs); err != nil {
		return snap, err
	}
	if snap.Schedule, _, err = readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses); err != nil {
		return snap, err
	}

	profile, ok, err := readJSON[model.UserProfile](ctx, s.kv, KeyUserProfile)
	if err != nil {
		return snap, err
	}
	if ok {
		snap.Profile = &profile
	}

	if snap.OnboardingComplete, err = s.Flag(ctx, KeyOnboardingComplete); err != nil {
		return snap, err
	}
	if snap.DisclaimerAccepted, err = s.Flag(ctx, KeyDisclaimerAccepted); err != nil {
		return snap, err
	}
	return snap, nil
}

// Products returns all products.
func (s *Store) Products(ctx context.Context) ([]model.Product, error) {
	products, _, err := readJSON[[]model.Product](ctx, s.kv, KeyProducts)
	return products, err
}

// Product returns the product with id, or ErrNotFound.
func (s *Store) Product(ctx context.Context, id string) (model.Product, error) {
	products, err := s.Products(ctx)
	if err != nil {
		return model.Product{}, err
	}
	if i := indexProduct(products, id); i >= 0 {
		return products[i], nil
	}
	return model.Product{}, fmt.Errorf("product %s: %w", id, ErrNotFound)
}

// AddProduct validates and stores a new product, assigning an ID when empty.
func (s *Store) AddProduct(ctx context.Context, p model.Product) (model.Product, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Products(ctx)
	if err != nil {
		return p, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	} else if indexProduct(products, p.ID) >= 0 {
		return p, fmt.Errorf("%w: duplicate id %s", ErrInvalidProduct, p.ID)
	}
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	products = append(products, p)
	if err := writeJSON(ctx, s.kv, KeyProducts, products); err != nil {
		return p, err
	}
	return p, nil
}

// UpdateProduct replaces a stored product and refreshes the denormalized
// fields on its uncompleted scheduled doses.
func (s *Store) UpdateProduct(ctx context.Context, p model.Product) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProduct, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Products(ctx)
	if err != nil {
		return err
	}
	i := indexProduct(products, p.ID)
	if i < 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	p.CreatedAt = products[i].CreatedAt
	p.UpdatedAt = s.now()
	products[i] = p

	sched, _, err := readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses)
	if err != nil {
		return err
	}
	b := batch{}
	if err := b.add(KeyProducts, products); err != nil {
		return err
	}
	changed := false
	for j := range sched {
		d := &sched[j]
		if d.ProductID != p.ID || d.Completed {
			continue
		}
		d.ProductName, d.DoseAmount, d.DoseUnit, d.Route = p.Name, p.DoseAmount, p.DoseUnit, p.Route
		changed = true
	}
	if changed {
		if err := b.add(KeyScheduledDoses, sched); err != nil {
			return err
		}
	}
	return b.commit(ctx, s.kv)
}

// DeleteProduct removes a product together with its inventory, dose logs,
// and scheduled doses.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.Products(ctx)
	if err != nil {
		return err
	}
	i := indexProduct(products, id)
	if i < 0 {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	products = append(products[:i], products[i+1:]...)

	inventory, _, err := readJSON[[]model.Inventory](ctx, s.kv, KeyInventory)
	if err != nil {
		return err
	}
	logs, _, err := readJSON[[]model.DoseLog](ctx, s.kv, KeyDoseLogs)
	if err != nil {
		return err
	}
	sched, _, err := readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses)
	if err != nil {
		return err
	}

	inventory = filter(inventory, func(v model.Inventory) bool { return v.ProductID != id })
	logs = filter(logs, func(v model.DoseLog) bool { return v.ProductID != id })
	sched = filter(sched, func(v model.ScheduledDose) bool { return v.ProductID != id })

	b := batch{}
	for key, v := range map[string]any{
		KeyScheduledDoses: sched,
		KeyDoseLogs:       logs,
		KeyInventory:      inventory,
		KeyProducts:       products,
	} {
		if err := b.add(key, v); err != nil {
			return err
		}
	}
	return b.commit(ctx, s.kv)
}

// SetInventory creates or replaces the inventory record for a product.
func (s *Store) SetInventory(ctx context.Context, inv model.Inventory) (model.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Product(ctx, inv.ProductID)
	if err != nil {
		return inv, err
	}
	if inv.Unit == "" {
		inv.Unit = p.DoseUnit
	}
	inv.UpdatedAt = s.now()

	inventory, _, err := readJSON[[]model.Inventory](ctx, s.kv, KeyInventory)
	if err != nil {
		return inv, err
	}
	inventory = upsertInventory(inventory, inv)
	return inv, writeJSON(ctx, s.kv, KeyInventory, inventory)
}

// AdjustInventory adds delta to a product's stock, creating the record on
// first use. The result may be negative; callers decide how to warn.
func (s *Store) AdjustInventory(ctx context.Context, productID string, delta float64) (model.Inventory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Product(ctx, productID)
	if err != nil {
		return model.Inventory{}, err
	}
	inventory, _, err := readJSON[[]model.Inventory](ctx, s.kv, KeyInventory)
	if err != nil {
		return model.Inventory{}, err
	}

	inv := model.Inventory{ProductID: productID, Unit: p.DoseUnit}
	for _, existing := range inventory {
		if existing.ProductID == productID {
			inv = existing
			break
		}
	}
	inv.Quantity += delta
	inv.UpdatedAt = s.now()

	inventory = upsertInventory(inventory, inv)
	return inv, writeJSON(ctx, s.kv, KeyInventory, inventory)
}

// LogResult describes the side effects of logging a dose.
type LogResult struct {
	Log model.DoseLog
	// Completed is the scheduled dose that was marked done, if one matched.
	Completed *model.ScheduledDose
	// Inventory is the depleted stock record, if the product tracks one.
	Inventory     *model.Inventory
	NegativeStock bool
}

// LogDose appends a dose log. Missing fields default from the product and
// the clock. The matching uncompleted scheduled dose (same date and time,
// else the earliest that day) is marked completed, and tracked inventory is
// depleted by the logged amount.
func (s *Store) LogDose(ctx context.Context, log model.DoseLog) (LogResult, error) {
	return s.logDose(ctx, log, "")
}

// LogScheduled logs the scheduled dose with the given ID as taken now.
func (s *Store) LogScheduled(ctx context.Context, scheduledID string) (LogResult, error) {
	sched, _, err := readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses)
	if err != nil {
		return LogResult{}, err
	}
	for _, d := range sched {
		if d.ID != scheduledID {
			continue
		}
		if d.Completed {
			return LogResult{}, fmt.Errorf("scheduled dose %s already completed", scheduledID)
		}
		return s.logDose(ctx, model.DoseLog{
			ProductID: d.ProductID,
			Date:      d.Date,
			Time:      d.Time,
			Amount:    d.DoseAmount,
			Unit:      d.DoseUnit,
			Route:     d.Route,
		}, scheduledID)
	}
	return LogResult{}, fmt.Errorf("scheduled dose %s: %w", scheduledID, ErrNotFound)
}

func (s *Store) logDose(ctx context.Context, log model.DoseLog, scheduledID string) (LogResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Product(ctx, log.ProductID)
	if err != nil {
		return LogResult{}, err
	}

	now := s.now()
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Date == "" {
		log.Date = model.DateString(now)
	} else if _, err := model.ParseDate(log.Date, now.Location()); err != nil {
		return LogResult{}, err
	}
	if log.Time == "" {
		log.Time = now.Format("15:04")
	}
	if log.Amount == 0 {
		log.Amount = p.DoseAmount
	}
	if log.Unit == "" {
		log.Unit = p.DoseUnit
	}
	if log.Route == "" {
		log.Route = p.Route
	}
	log.CreatedAt = now

	res := LogResult{Log: log}

	logs, _, err := readJSON[[]model.DoseLog](ctx, s.kv, KeyDoseLogs)
	if err != nil {
		return res, err
	}
	logs = append(logs, log)
	b := batch{}
	if err := b.add(KeyDoseLogs, logs); err != nil {
		return LogResult{}, err
	}

	sched, _, err := readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses)
	if err != nil {
		return res, err
	}
	idx := -1
	if scheduledID != "" {
		for i, d := range sched {
			if d.ID == scheduledID {
				idx = i
				break
			}
		}
	} else {
		idx = matchScheduled(sched, log, now.Location())
	}
	if idx >= 0 && !sched[idx].Completed {
		sched[idx].Completed = true
		done := sched[idx]
		res.Completed = &done
		if err := b.add(KeyScheduledDoses, sched); err != nil {
			return LogResult{}, err
		}
	}

	inventory, _, err := readJSON[[]model.Inventory](ctx, s.kv, KeyInventory)
	if err != nil {
		return res, err
	}
	for i := range inventory {
		if inventory[i].ProductID != log.ProductID {
			continue
		}
		inventory[i].Quantity -= log.Amount
		inventory[i].UpdatedAt = now
		inv := inventory[i]
		res.Inventory = &inv
		res.NegativeStock = inv.Quantity < 0
		if err := b.add(KeyInventory, inventory); err != nil {
			return LogResult{}, err
		}
		break
	}
	if err := b.commit(ctx, s.kv); err != nil {
		return LogResult{}, err
	}
	return res, nil
}

// matchScheduled picks the uncompleted dose for the log's product and date
// with the same time string, else the earliest one on that date.
func matchScheduled(sched []model.ScheduledDose, log model.DoseLog, loc *time.Location) int {
	best := -1
	var bestAt time.Time
	for i, d := range sched {
		if d.Completed || d.ProductID != log.ProductID || d.Date != log.Date {
			continue
		}
		if d.Time == log.Time {
			return i
		}
		at, err := model.CombineDateTime(d.Date, d.Time, loc)
		if err != nil {
			continue
		}
		if best < 0 || at.Before(bestAt) {
			best, bestAt = i, at
		}
	}
	return best
}

// Schedule returns all scheduled doses.
func (s *Store) Schedule(ctx context.Context) ([]model.ScheduledDose, error) {
	sched, _, err := readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses)
	return sched, err
}

// ReplaceSchedule swaps a product's uncompleted scheduled doses for doses.
// A new dose on the same slot as a completed one keeps its ID and
// completion; completed doses with no counterpart are kept as history.
func (s *Store) ReplaceSchedule(ctx context.Context, productID string, doses []model.ScheduledDose) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Product(ctx, productID); err != nil {
		return err
	}
	sched, _, err := readJSON[[]model.ScheduledDose](ctx, s.kv, KeyScheduledDoses)
	if err != nil {
		return err
	}

	// Several completed doses can share a slot when frequencies coincide.
	completed := make(map[string][]model.ScheduledDose)
	out := make([]model.ScheduledDose, 0, len(sched)+len(doses))
	for _, d := range sched {
		if d.ProductID != productID {
			out = append(out, d)
			continue
		}
		if d.Completed {
			completed[d.SlotKey()] = append(completed[d.SlotKey()], d)
		}
	}

	inherited := make(map[string]bool)
	for _, d := range doses {
		if d.ProductID != productID {
			return fmt.Errorf("scheduled dose for %s passed to schedule of %s", d.ProductID, productID)
		}
		if prev := completed[d.SlotKey()]; len(prev) > 0 {
			d.ID = prev[0].ID
			d.Completed = true
			inherited[prev[0].ID] = true
			completed[d.SlotKey()] = prev[1:]
		}
		out = append(out, d)
	}
	for _, d := range sched {
		if d.ProductID == productID && d.Completed && !inherited[d.ID] {
			out = append(out, d)
		}
	}
	return writeJSON(ctx, s.kv, KeyScheduledDoses, out)
}

// DoseLogs returns all dose logs in insertion order.
func (s *Store) DoseLogs(ctx context.Context) ([]model.DoseLog, error) {
	logs, _, err := readJSON[[]model.DoseLog](ctx, s.kv, KeyDoseLogs)
	return logs, err
}

// Profile returns the stored profile; ok is false before onboarding.
func (s *Store) Profile(ctx context.Context) (model.UserProfile, bool, error) {
	return readJSON[model.UserProfile](ctx, s.kv, KeyUserProfile)
}

// SaveProfile stores the profile, assigning an ID and creation time on first save.
func (s *Store) SaveProfile(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	if p.Units == "" {
		p.Units = model.UnitsMetric
	}
	return p, writeJSON(ctx, s.kv, KeyUserProfile, p)
}

// Flag reads a boolean flag; absent flags are false.
func (s *Store) Flag(ctx context.Context, key string) (bool, error) {
	v, _, err := readJSON[bool](ctx, s.kv, key)
	return v, err
}

// SetFlag writes a boolean flag.
func (s *Store) SetFlag(ctx context.Context, key string, v bool) error {
	return writeJSON(ctx, s.kv, key, v)
}

func indexProduct(products []model.Product, id string) int {
	for i, p := range products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func upsertInventory(inventory []model.Inventory, inv model.Inventory) []model.Inventory {
	for i := range inventory {
		if inventory[i].ProductID == inv.ProductID {
			inventory[i] = inv
			return inventory
		}
	}
	return append(inventory, inv)
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := in[:0]
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
